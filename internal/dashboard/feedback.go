package dashboard

import "errors"

// Severity tells the presentation layer how to surface a failure.
type Severity int

const (
	// SeverityAlert blocks the user until acknowledged.
	SeverityAlert Severity = iota + 1
	// SeverityNotice is a transient, non-blocking notification.
	SeverityNotice
)

func (s Severity) String() string {
	switch s {
	case SeverityAlert:
		return "alert"
	case SeverityNotice:
		return "notice"
	default:
		return "unknown"
	}
}

// User-facing messages.
const (
	MsgInvalidIncome    = "Please enter a valid income amount."
	MsgSelectMonth      = "Please select a month."
	MsgMissingExpense   = "Please fill in category, amount, and date."
	MsgSaveIncomeFailed = "Could not save income. Please try again."
	MsgDeleteFailed     = "Could not delete the expense. Please try again."
	MsgRefreshFailed    = "Could not refresh the dashboard. Showing the last loaded data."
	MsgNetworkFailed    = "Could not reach the budget service. Please try again."

	DeletePrompt = "Are you sure you want to delete this expense?"
)

// FeedbackError is a failure scoped to one user action.
type FeedbackError struct {
	Severity Severity
	Message  string
	Err      error
	// Stale is set when the action itself succeeded and only the follow-up
	// refresh failed, leaving the last loaded data on display.
	Stale bool
}

func (e *FeedbackError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *FeedbackError) Unwrap() error {
	return e.Err
}

func alert(msg string, err error) *FeedbackError {
	return &FeedbackError{Severity: SeverityAlert, Message: msg, Err: err}
}

func notice(msg string, err error) *FeedbackError {
	return &FeedbackError{Severity: SeverityNotice, Message: msg, Err: err}
}

// AsFeedback extracts the FeedbackError carried by err.
func AsFeedback(err error) (*FeedbackError, bool) {
	var fe *FeedbackError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
