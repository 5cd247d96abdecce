package agent

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// classic: ghp_ + 36 alphanumerics, fine-grained: github_pat_ + 82 of [A-Za-z0-9_]
	tokenPattern = regexp.MustCompile(`^(ghp_[a-zA-Z0-9]{36}|github_pat_[a-zA-Z0-9_]{82})$`)

	// 1-39 chars, no leading/trailing hyphen. Consecutive hyphens are accepted.
	repoOwnerPattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,37}[a-zA-Z0-9])?$`)

	repoNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// ValidToken reports whether token has the shape of a GitHub PAT
func ValidToken(token string) bool {
	return tokenPattern.MatchString(token)
}

// ValidRepoOwner reports whether owner looks like a GitHub user or organization name
func ValidRepoOwner(owner string) bool {
	return repoOwnerPattern.MatchString(owner)
}

// ValidRepoName reports whether name looks like a GitHub repository name
func ValidRepoName(name string) bool {
	return repoNamePattern.MatchString(name)
}

// ValidWebsiteURL reports whether raw parses as an absolute URL with a host
func ValidWebsiteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// FormValid reports whether every required field is non-blank.
// Format validity is not checked: a malformed but present token
// still enables submission.
func FormValid(c AgentConfig) bool {
	return !blank(c.Token) &&
		!blank(c.RepoOwner) &&
		!blank(c.RepoName) &&
		!blank(c.WebsiteURL) &&
		!blank(c.AgentName)
}

// Validation is the result of running every rule over one AgentConfig
type Validation struct {
	FormValid       bool `json:"form_valid"`
	TokenValid      bool `json:"token_valid"`
	RepoOwnerValid  bool `json:"repo_owner_valid"`
	RepoNameValid   bool `json:"repo_name_valid"`
	WebsiteURLValid bool `json:"website_url_valid"`
}

// Warning is an inline hint shown next to a field
type Warning struct {
	Field   Field  `json:"field"`
	Message string `json:"message"`
}

// Validate runs all validation rules
func Validate(c AgentConfig) Validation {
	return Validation{
		FormValid:       FormValid(c),
		TokenValid:      ValidToken(c.Token),
		RepoOwnerValid:  ValidRepoOwner(c.RepoOwner),
		RepoNameValid:   ValidRepoName(c.RepoName),
		WebsiteURLValid: ValidWebsiteURL(c.WebsiteURL),
	}
}

// FormatValid reports whether every format check passed
func (v Validation) FormatValid() bool {
	return v.TokenValid && v.RepoOwnerValid && v.RepoNameValid && v.WebsiteURLValid
}

// Warnings returns format hints for fields that are filled in but malformed.
// Blank fields produce no warning.
func Warnings(c AgentConfig) []Warning {
	v := Validate(c)
	var warnings []Warning
	if !blank(c.Token) && !v.TokenValid {
		warnings = append(warnings, Warning{
			Field:   FieldToken,
			Message: "Token should start with 'ghp_' (classic) or 'github_pat_' (fine-grained)",
		})
	}
	if !blank(c.RepoOwner) && !v.RepoOwnerValid {
		warnings = append(warnings, Warning{
			Field:   FieldRepoOwner,
			Message: "Username must be 1-39 characters, alphanumeric and hyphens only",
		})
	}
	if !blank(c.RepoName) && !v.RepoNameValid {
		warnings = append(warnings, Warning{
			Field:   FieldRepoName,
			Message: "Repository name can contain letters, numbers, periods, hyphens, and underscores",
		})
	}
	if !blank(c.WebsiteURL) && !v.WebsiteURLValid {
		warnings = append(warnings, Warning{
			Field:   FieldWebsiteURL,
			Message: "Please enter a valid URL (e.g., https://example.com)",
		})
	}
	return warnings
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
