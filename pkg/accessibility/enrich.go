package accessibility

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Response headers produced for every enriched response.
const (
	HeaderCompliant           = "X-Accessibility-Compliant"
	HeaderScreenReaderOpt     = "X-Screen-Reader-Optimized"
	HeaderKeyboardAccessible  = "X-Keyboard-Accessible"
	HeaderHighContrastSupport = "X-High-Contrast-Support"
	HeaderContentLanguage     = "X-Content-Language"
)

// messageRule pairs a substring trigger with its canned replacement.
// Rules are checked in declaration order so a message matching several
// triggers always resolves to the same sentence.
type messageRule struct {
	trigger string
	message string
}

// screenReaderMessages maps status-code keywords found in technical error
// messages to canned screen-reader sentences.
var screenReaderMessages = []messageRule{
	{"401", "Authentication required. Please log in to continue."},
	{"403", "Access denied. You don't have permission for this action."},
	{"404", "The requested resource was not found."},
	{"422", "The submitted data contains errors. Please check and try again."},
	{"500", "A server error occurred. Please try again later or contact support."},
}

// userFriendlyMessages maps trigger phrases (matched case-insensitively)
// to plain-language sentences.
var userFriendlyMessages = []messageRule{
	{"validation error", "Please check the information you entered and try again."},
	{"unauthorized", "Please sign in to access this feature."},
	{"forbidden", "You don't have permission to perform this action."},
	{"not found", "The item you're looking for couldn't be found."},
	{"internal server error", "Something went wrong. Please try again in a moment."},
}

// Enricher injects the _accessibility block into JSON object bodies and
// rewrites error messages. Purely a data transform: it never changes a
// status code and never fails a request.
type Enricher struct {
	wcagLevel string
	logger    *slog.Logger
}

// NewEnricher creates an enricher advertising the given WCAG level
// (e.g. "AA"). A nil logger falls back to slog.Default.
func NewEnricher(wcagLevel string, logger *slog.Logger) *Enricher {
	if wcagLevel == "" {
		wcagLevel = "AA"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{wcagLevel: wcagLevel, logger: logger}
}

// EnrichBody transforms a JSON object body: it adds a top-level
// _accessibility block and, when the body carries an error object with a
// message, the screen-reader and user-friendly variants. Bodies that are
// not JSON objects are returned unchanged with ok=false; streamed or
// binary payloads are never touched.
func (e *Enricher) EnrichBody(body []byte, ac Context) ([]byte, bool) {
	if len(body) == 0 {
		return body, false
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		// Non-object or non-JSON payloads pass through unmodified.
		return body, false
	}
	if data == nil {
		return body, false
	}

	data["_accessibility"] = map[string]any{
		"wcag_level":              e.wcagLevel,
		"screen_reader_optimized": true,
		"keyboard_accessible":     true,
		"high_contrast_available": true,
		"context":                 ac,
	}

	if errObj, ok := data["error"].(map[string]any); ok {
		if msg, ok := errObj["message"].(string); ok {
			errObj["screen_reader_message"] = ScreenReaderMessage(msg)
			errObj["user_friendly_message"] = UserFriendlyMessage(msg)
		}
	}

	enriched, err := json.Marshal(data)
	if err != nil {
		e.logger.Warn("response enrichment failed, passing original through", "error", err)
		return body, false
	}
	return enriched, true
}

// ApplyHeaders sets the accessibility response headers. Existing header
// values for other keys are preserved.
func (e *Enricher) ApplyHeaders(h http.Header, ac Context) {
	h.Set(HeaderCompliant, "WCAG-2.1-"+e.wcagLevel)
	h.Set(HeaderScreenReaderOpt, "true")
	h.Set(HeaderKeyboardAccessible, "true")
	h.Set(HeaderHighContrastSupport, "true")
	lang := ac.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	h.Set(HeaderContentLanguage, lang)
}

// ScreenReaderMessage converts a technical error message into a screen
// reader friendly sentence by status-code keyword; the original message
// is returned when no code matches.
func ScreenReaderMessage(message string) string {
	for _, rule := range screenReaderMessages {
		if strings.Contains(message, rule.trigger) {
			return rule.message
		}
	}
	return message
}

// UserFriendlyMessage converts a technical error message into a plain
// language sentence by case-insensitive trigger phrase; the original
// message is returned when nothing matches.
func UserFriendlyMessage(message string) string {
	lower := strings.ToLower(message)
	for _, rule := range userFriendlyMessages {
		if strings.Contains(lower, rule.trigger) {
			return rule.message
		}
	}
	return message
}
