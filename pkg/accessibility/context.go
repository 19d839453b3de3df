// Package accessibility derives a per-request accessibility context from
// client headers and enriches JSON responses with accessibility metadata
// and screen-reader friendly error messages. Enrichment is best-effort and
// never load-bearing: a body that cannot be parsed passes through
// untouched.
package accessibility

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// Request headers consumed by the extractor.
const (
	HeaderScreenReader       = "X-Screen-Reader"
	HeaderHighContrast       = "X-High-Contrast"
	HeaderReducedMotion      = "X-Reduced-Motion"
	HeaderKeyboardNavigation = "X-Keyboard-Navigation"
	HeaderFontSize           = "X-Font-Size"
	HeaderSessionID          = "X-Session-ID"
)

// Defaults applied when headers are absent or malformed.
const (
	DefaultFontSize = 16
	DefaultLanguage = "en"
)

// Context is the request-scoped snapshot of client capability flags.
// It is created once by FromRequest and read-only afterwards.
type Context struct {
	ScreenReader       bool   `json:"screen_reader"`
	HighContrast       bool   `json:"high_contrast"`
	ReducedMotion      bool   `json:"reduced_motion"`
	KeyboardNavigation bool   `json:"keyboard_navigation"`
	FontSize           int    `json:"font_size"`
	Language           string `json:"language"`
	UserAgent          string `json:"user_agent"`
}

// AssistiveTechnology reports whether any accessibility flag is set.
func (c Context) AssistiveTechnology() bool {
	return c.ScreenReader || c.HighContrast || c.ReducedMotion || c.KeyboardNavigation
}

// FromRequest extracts the accessibility context from request headers.
// Malformed values fall back to defaults rather than failing the request;
// there is no validation beyond type coercion.
func FromRequest(r *http.Request) Context {
	return Context{
		ScreenReader:       r.Header.Get(HeaderScreenReader) == "true",
		HighContrast:       r.Header.Get(HeaderHighContrast) == "true",
		ReducedMotion:      r.Header.Get(HeaderReducedMotion) == "true",
		KeyboardNavigation: r.Header.Get(HeaderKeyboardNavigation) == "true",
		FontSize:           fontSize(r.Header.Get(HeaderFontSize)),
		Language:           language(r.Header.Get("Accept-Language")),
		UserAgent:          r.Header.Get("User-Agent"),
	}
}

func fontSize(raw string) int {
	if raw == "" {
		return DefaultFontSize
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return DefaultFontSize
	}
	return n
}

// language keeps the primary tag of an Accept-Language value; "en-GB,en;q=0.9"
// becomes "en-GB".
func language(raw string) string {
	if raw == "" {
		return DefaultLanguage
	}
	primary := raw
	if i := strings.IndexAny(primary, ",;"); i >= 0 {
		primary = primary[:i]
	}
	primary = strings.TrimSpace(primary)
	if primary == "" {
		return DefaultLanguage
	}
	return primary
}

// ctxKey is a private type for the context key.
type ctxKey struct{}

// NewContext stores the accessibility context in ctx.
func NewContext(ctx context.Context, ac Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, ac)
}

// FromContext retrieves the accessibility context. The second return is
// false when no extractor ran for this request; callers then get the
// zero defaults.
func FromContext(ctx context.Context) (Context, bool) {
	if ac, ok := ctx.Value(ctxKey{}).(Context); ok {
		return ac, true
	}
	return Context{FontSize: DefaultFontSize, Language: DefaultLanguage}, false
}
