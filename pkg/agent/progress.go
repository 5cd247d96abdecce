package agent

// Progress weights
const (
	progressToken      = 30
	progressRepository = 25
	progressWebsite    = 20
	progressAgentName  = 15
	progressAnalytics  = 10
)

// MaxProgress is the value reached when every weighted field is filled in
const MaxProgress = progressToken + progressRepository + progressWebsite + progressAgentName + progressAnalytics

// Progress returns the setup completion percentage for c
func Progress(c AgentConfig) int {
	progress := 0
	if !blank(c.Token) {
		progress += progressToken
	}
	if !blank(c.RepoOwner) && !blank(c.RepoName) {
		progress += progressRepository
	}
	if !blank(c.WebsiteURL) {
		progress += progressWebsite
	}
	if !blank(c.AgentName) {
		progress += progressAgentName
	}
	if !blank(c.AnalyticsProperty) {
		progress += progressAnalytics
	}
	return progress
}
