package controllers

import (
	"errors"
	"fmt"
)

var (
	// ErrActionInFlight is returned when the same action is already running.
	ErrActionInFlight = errors.New("action already in progress")
	// ErrStepLocked is returned when leaving the reset step after a token
	// was issued.
	ErrStepLocked = errors.New("cannot go back once a reset token has been issued")
	// ErrWrongStep is returned when a recovery operation does not belong to
	// the current step.
	ErrWrongStep = errors.New("operation not available at this step")
	// ErrVerificationFailed is returned when the security answer is rejected.
	ErrVerificationFailed = errors.New("security answer was not accepted")
)

// Action names a user-facing operation.
type Action string

const (
	ActionLoad     Action = "load tasks"
	ActionCreate   Action = "create task"
	ActionUpdate   Action = "update task"
	ActionComplete Action = "complete task"
	ActionDelete   Action = "delete task"
	ActionImport   Action = "import tasks"
	ActionExport   Action = "export tasks"
	ActionSuggest  Action = "load suggestions"

	ActionRequestReset  Action = "request password reset"
	ActionFetchQuestion Action = "get security question"
	ActionVerifyAnswer  Action = "verify security answer"
	ActionResetPassword Action = "reset password"
)

// ActionError names the action that failed so the user can tell which one
// did not complete.
type ActionError struct {
	Action Action
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("Failed to %s: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// IsAction reports whether err is an ActionError for action.
func IsAction(err error, action Action) bool {
	var ae *ActionError
	return errors.As(err, &ae) && ae.Action == action
}
