package agent

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampFormat is ISO-8601 UTC with millisecond precision
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// DefaultReviewGoal is used when a review is triggered without an explicit goal
const DefaultReviewGoal = "Improve engagement based on analytics data"

// SubmissionEnvelope is the wire payload sent to /api/agent/configure.
// AnalyticsProperty and ScheduleMinutes serialize as null when absent.
type SubmissionEnvelope struct {
	Token             string   `json:"token"`
	RepoOwner         string   `json:"repo_owner"`
	RepoName          string   `json:"repo_name"`
	Branch            string   `json:"branch"`
	WebsiteURL        string   `json:"website_url"`
	AnalyticsProperty *string  `json:"analytics_property"`
	AgentName         string   `json:"agent_name"`
	ScheduleMinutes   *float64 `json:"schedule_minutes"`
	Timestamp         string   `json:"timestamp"`
}

// BuildEnvelope converts form values into the wire payload
func BuildEnvelope(c AgentConfig, now time.Time) SubmissionEnvelope {
	branch := c.Branch
	if blank(branch) {
		branch = DefaultBranch
	}

	var analytics *string
	if !blank(c.AnalyticsProperty) {
		v := c.AnalyticsProperty
		analytics = &v
	}

	return SubmissionEnvelope{
		Token:             c.Token,
		RepoOwner:         c.RepoOwner,
		RepoName:          c.RepoName,
		Branch:            branch,
		WebsiteURL:        c.WebsiteURL,
		AnalyticsProperty: analytics,
		AgentName:         c.AgentName,
		ScheduleMinutes:   ParseScheduleMinutes(c.ScheduleMinutes),
		Timestamp:         now.UTC().Format(TimestampFormat),
	}
}

// integerPrefixes are the unsigned base prefixes accepted for schedule minutes
var integerPrefixes = map[string]int{"0x": 16, "0o": 8, "0b": 2}

// ParseScheduleMinutes returns nil for blank or non-numeric text.
// Decimal and exponent notation are accepted, as are unsigned 0x, 0o and 0b
// integers. Underscore separators and hex floats are rejected.
func ParseScheduleMinutes(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" || strings.Contains(s, "_") {
		return nil
	}

	if len(s) > 2 {
		if base, ok := integerPrefixes[strings.ToLower(s[:2])]; ok {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return nil
			}
			v := float64(n)
			return &v
		}
	}
	if strings.ContainsAny(s, "xXpP") {
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// String implements fmt.Stringer without exposing the token
func (e SubmissionEnvelope) String() string {
	analytics := "<nil>"
	if e.AnalyticsProperty != nil {
		analytics = *e.AnalyticsProperty
	}
	schedule := "<nil>"
	if e.ScheduleMinutes != nil {
		schedule = strconv.FormatFloat(*e.ScheduleMinutes, 'f', -1, 64)
	}
	return fmt.Sprintf("SubmissionEnvelope{Token:%s RepoOwner:%s RepoName:%s Branch:%s WebsiteURL:%s AnalyticsProperty:%s AgentName:%s ScheduleMinutes:%s Timestamp:%s}",
		MaskToken(e.Token), e.RepoOwner, e.RepoName, e.Branch, e.WebsiteURL, analytics, e.AgentName, schedule, e.Timestamp)
}

// GoString keeps %#v from printing the token
func (e SubmissionEnvelope) GoString() string {
	return e.String()
}

// ReviewRequest is the payload sent to /api/agent/review
type ReviewRequest struct {
	UserGoal string `json:"user_goal"`
	CSVText  string `json:"csv_text,omitempty"`
	CSVURL   string `json:"csv_url,omitempty"`
}

// ErrorCode classifies a failed gateway call
type ErrorCode string

const (
	CodeInvalidRequest          ErrorCode = "invalid_request"
	CodeOrchestratorRejected    ErrorCode = "orchestrator_rejected"
	CodeOrchestratorUnreachable ErrorCode = "orchestrator_unreachable"
	CodeOrchestratorTimeout     ErrorCode = "orchestrator_timeout"
	CodeMalformedResponse       ErrorCode = "malformed_response"
	CodeInternalError           ErrorCode = "internal_error"
)

// ResponseEnvelope is the uniform result shape of every gateway endpoint
type ResponseEnvelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
	Code  ErrorCode       `json:"code,omitempty"`
}

// ReviewResult is the part of a review response the form consumes
type ReviewResult struct {
	Instruction string `json:"instruction"`
	FilePath    string `json:"file_path,omitempty"`
}

// Instruction extracts data.instruction; it returns "" when the envelope
// failed or the field is missing
func (r *ResponseEnvelope) Instruction() string {
	if r == nil || !r.OK || len(r.Data) == 0 {
		return ""
	}
	var result ReviewResult
	if err := json.Unmarshal(r.Data, &result); err != nil {
		return ""
	}
	return result.Instruction
}
