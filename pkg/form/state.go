package form

import "errors"

// State is a step of the configure/review lifecycle of one session
type State int

const (
	Editing State = iota
	Submitting
	Configured
	Reviewing
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Configured:
		return "configured"
	case Reviewing:
		return "reviewing"
	}
	return "unknown"
}

var (
	ErrNotEditable       = errors.New("agent config can only be edited before it is submitted")
	ErrFormIncomplete    = errors.New("required fields are missing")
	ErrSubmitInProgress  = errors.New("a submission is already in progress")
	ErrAlreadyConfigured = errors.New("agent is already configured")
	ErrNotConfigured     = errors.New("agent is not configured yet")
	ErrReviewInProgress  = errors.New("a review is already in progress")
)
