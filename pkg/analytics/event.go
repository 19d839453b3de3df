// Package analytics derives one structured empowerment event per request
// and hands it to a sink. Emission is fire-and-forget with a bounded
// timeout: a slow or unavailable sink degrades to local logging and the
// event is dropped, never the response.
package analytics

import (
	"strings"
	"time"

	"github.com/voucherpay/enterprise/pkg/accessibility"
)

// FeatureFlags records which empowerment feature areas a request touched,
// derived purely from the request path. Used only for classification;
// never persisted by this package.
type FeatureFlags struct {
	SocialSecurity    bool `json:"social_security"`
	Housing           bool `json:"housing"`
	BusinessFunding   bool `json:"business_funding"`
	Jobs              bool `json:"jobs"`
	NonDiscrimination bool `json:"non_discrimination"`
	Accessibility     bool `json:"accessibility"`
	AIAssistance      bool `json:"ai_assistance"`
}

// Any reports whether at least one feature area was touched.
func (f FeatureFlags) Any() bool {
	return f.SocialSecurity || f.Housing || f.BusinessFunding || f.Jobs ||
		f.NonDiscrimination || f.Accessibility || f.AIAssistance
}

// Count returns the number of feature areas touched.
func (f FeatureFlags) Count() int {
	n := 0
	for _, b := range []bool{
		f.SocialSecurity, f.Housing, f.BusinessFunding, f.Jobs,
		f.NonDiscrimination, f.Accessibility, f.AIAssistance,
	} {
		if b {
			n++
		}
	}
	return n
}

// Path fragments per feature area.
var featurePatterns = map[string][]string{
	"social_security":    {"/social-security", "/benefits", "/assistance"},
	"housing":            {"/housing", "/accommodation", "/accessibility-housing"},
	"business_funding":   {"/funding", "/grants", "/business-support"},
	"jobs":               {"/jobs", "/employment", "/careers"},
	"non_discrimination": {"/report", "/discrimination", "/advocacy"},
	"accessibility":      {"/accessibility", "/wcag", "/assistive"},
	"ai_assistance":      {"/ai", "/assistance", "/recommendations"},
}

// Path fragments for the derived impact indicators.
var (
	opportunityPaths = []string{"/jobs", "/funding", "/housing", "/grants"}
	supportPaths     = []string{"/assistance", "/support", "/help", "/ai", "/recommendations"}
)

// DetectFeatures classifies a request path into feature areas by
// substring match.
func DetectFeatures(path string) FeatureFlags {
	return FeatureFlags{
		SocialSecurity:    matchesAny(path, featurePatterns["social_security"]),
		Housing:           matchesAny(path, featurePatterns["housing"]),
		BusinessFunding:   matchesAny(path, featurePatterns["business_funding"]),
		Jobs:              matchesAny(path, featurePatterns["jobs"]),
		NonDiscrimination: matchesAny(path, featurePatterns["non_discrimination"]),
		Accessibility:     matchesAny(path, featurePatterns["accessibility"]),
		AIAssistance:      matchesAny(path, featurePatterns["ai_assistance"]),
	}
}

func matchesAny(path string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(path, f) {
			return true
		}
	}
	return false
}

// Event is the single structured record derived for each request. It is
// created once, handed to the sink, and never mutated afterwards.
type Event struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`

	// Request metadata.
	Method     string `json:"method"`
	Path       string `json:"path"`
	Query      string `json:"query,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	RemoteAddr string `json:"remote_addr,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	Subject    string `json:"subject,omitempty"`
	TenantID   string `json:"tenant_id,omitempty"`

	// Response metadata.
	Status   int           `json:"status"`
	Duration time.Duration `json:"duration"`
	Success  bool          `json:"success"`

	Accessibility accessibility.Context `json:"accessibility"`
	Features      FeatureFlags          `json:"empowerment_features"`

	// Derived impact indicators.
	BarrierReduced      bool `json:"barrier_reduced"`
	OpportunityAccessed bool `json:"opportunity_accessed"`
	SupportProvided     bool `json:"support_provided"`
}

// Derive computes the complete event for a finished request. Success
// means a status in [200,400).
func Derive(method, path, query string, ac accessibility.Context, status int, elapsed time.Duration, at time.Time) Event {
	features := DetectFeatures(path)
	success := status >= 200 && status < 400

	return Event{
		EventType:     "api_request",
		Timestamp:     at,
		Method:        method,
		Path:          path,
		Query:         query,
		UserAgent:     ac.UserAgent,
		Status:        status,
		Duration:      elapsed,
		Success:       success,
		Accessibility: ac,
		Features:      features,

		BarrierReduced:      ac.AssistiveTechnology() && features.Any() && success,
		OpportunityAccessed: matchesAny(path, opportunityPaths) && success,
		SupportProvided:     matchesAny(path, supportPaths) && success,
	}
}
