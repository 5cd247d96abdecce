package agent

import (
	"fmt"
	"strings"
)

// DefaultBranch is sent whenever the branch field is left blank
const DefaultBranch = "main"

// Field identifies a single editable field of AgentConfig
type Field string

const (
	FieldToken             Field = "token"
	FieldRepoOwner         Field = "repo_owner"
	FieldRepoName          Field = "repo_name"
	FieldBranch            Field = "branch"
	FieldWebsiteURL        Field = "website_url"
	FieldAnalyticsProperty Field = "analytics_property"
	FieldAgentName         Field = "agent_name"
	FieldScheduleMinutes   Field = "schedule_minutes"
)

// Fields lists every editable field in form order
var Fields = []Field{
	FieldToken,
	FieldRepoOwner,
	FieldRepoName,
	FieldBranch,
	FieldWebsiteURL,
	FieldAnalyticsProperty,
	FieldAgentName,
	FieldScheduleMinutes,
}

// AgentConfig holds the values a user enters for one SEO agent.
// Token is a GitHub personal access token and must never be logged.
type AgentConfig struct {
	Token             string `json:"token" yaml:"token" toml:"token"`
	RepoOwner         string `json:"repo_owner" yaml:"repo_owner" toml:"repo_owner"`
	RepoName          string `json:"repo_name" yaml:"repo_name" toml:"repo_name"`
	Branch            string `json:"branch" yaml:"branch" toml:"branch"`
	WebsiteURL        string `json:"website_url" yaml:"website_url" toml:"website_url"`
	AnalyticsProperty string `json:"analytics_property" yaml:"analytics_property" toml:"analytics_property"`
	AgentName         string `json:"agent_name" yaml:"agent_name" toml:"agent_name"`
	ScheduleMinutes   string `json:"schedule_minutes" yaml:"schedule_minutes" toml:"schedule_minutes"`
}

// NewAgentConfig returns the initial form values for a new session
func NewAgentConfig() AgentConfig {
	return AgentConfig{Branch: DefaultBranch}
}

// Get returns the current value of a field
func (c *AgentConfig) Get(field Field) (string, error) {
	switch field {
	case FieldToken:
		return c.Token, nil
	case FieldRepoOwner:
		return c.RepoOwner, nil
	case FieldRepoName:
		return c.RepoName, nil
	case FieldBranch:
		return c.Branch, nil
	case FieldWebsiteURL:
		return c.WebsiteURL, nil
	case FieldAnalyticsProperty:
		return c.AnalyticsProperty, nil
	case FieldAgentName:
		return c.AgentName, nil
	case FieldScheduleMinutes:
		return c.ScheduleMinutes, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
}

// Set updates a single field
func (c *AgentConfig) Set(field Field, value string) error {
	switch field {
	case FieldToken:
		c.Token = value
	case FieldRepoOwner:
		c.RepoOwner = value
	case FieldRepoName:
		c.RepoName = value
	case FieldBranch:
		c.Branch = value
	case FieldWebsiteURL:
		c.WebsiteURL = value
	case FieldAnalyticsProperty:
		c.AnalyticsProperty = value
	case FieldAgentName:
		c.AgentName = value
	case FieldScheduleMinutes:
		c.ScheduleMinutes = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Merge copies every non-blank field of other into c
func (c *AgentConfig) Merge(other AgentConfig) {
	for _, f := range Fields {
		v, _ := other.Get(f)
		if strings.TrimSpace(v) != "" {
			_ = c.Set(f, v)
		}
	}
}

// RepoFullName returns "owner/name"
func (c AgentConfig) RepoFullName() string {
	return c.RepoOwner + "/" + c.RepoName
}

// Redacted returns a copy with the token masked
func (c AgentConfig) Redacted() AgentConfig {
	c.Token = MaskToken(c.Token)
	return c
}

// String implements fmt.Stringer without exposing the token
func (c AgentConfig) String() string {
	r := c.Redacted()
	return fmt.Sprintf("AgentConfig{Token:%s RepoOwner:%s RepoName:%s Branch:%s WebsiteURL:%s AnalyticsProperty:%s AgentName:%s ScheduleMinutes:%s}",
		r.Token, r.RepoOwner, r.RepoName, r.Branch, r.WebsiteURL, r.AnalyticsProperty, r.AgentName, r.ScheduleMinutes)
}

// GoString keeps %#v from printing the token
func (c AgentConfig) GoString() string {
	return c.String()
}

// MaskToken hides a token completely; an empty token stays empty
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	return "●●●●●●●●●●●●●●●●"
}
