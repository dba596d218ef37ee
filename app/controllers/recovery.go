package controllers

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"todo-client/app/models"
	"todo-client/app/services"
)

// RecoveryGateway is the part of the API password recovery uses.
type RecoveryGateway interface {
	ForgotPassword(ctx context.Context, username string) error
	SecurityQuestion(ctx context.Context, username string) (string, error)
	VerifySecurityAnswer(ctx context.Context, username, answer string) (services.VerificationResult, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Step is a stage of password recovery.
type Step int

const (
	StepRequest Step = iota
	StepChallenge
	StepAnswer
	StepReset
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepRequest:
		return "request"
	case StepChallenge:
		return "challenge"
	case StepAnswer:
		return "answer"
	case StepReset:
		return "reset"
	case StepDone:
		return "done"
	}
	return "unknown"
}

// RecoveryFlow walks a user through request, security question, answer
// verification and reset. Each step is checked by the server.
type RecoveryFlow struct {
	gw  RecoveryGateway
	log zerolog.Logger

	mu       sync.Mutex
	step     Step
	username string
	question string
	token    string
	busy     bool
}

func NewRecoveryFlow(gw RecoveryGateway, log zerolog.Logger) *RecoveryFlow {
	return &RecoveryFlow{
		gw:  gw,
		log: log.With().Str("component", "recovery").Logger(),
	}
}

func (f *RecoveryFlow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func (f *RecoveryFlow) Username() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.username
}

// Question returns the fetched security question.
func (f *RecoveryFlow) Question() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.question
}

// Request starts recovery for username. The flow moves on whether or not the
// account exists; only a failure to reach the server stops it.
func (f *RecoveryFlow) Request(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return &models.ValidationError{Field: "username", Message: "username is required"}
	}
	if err := f.enter(StepRequest); err != nil {
		return err
	}
	defer f.leave()

	err := f.gw.ForgotPassword(ctx, username)
	if gw, ok := services.AsGatewayError(err); ok && gw.Kind == services.KindHTTP {
		f.log.Debug().Int("status", gw.Status).Msg("Reset request rejected, continuing")
		err = nil
	}
	if err != nil {
		return &ActionError{Action: ActionRequestReset, Err: err}
	}

	f.mu.Lock()
	f.username = username
	f.step = StepChallenge
	f.mu.Unlock()
	return nil
}

// FetchQuestion loads the security question. On failure the flow returns to
// the request step.
func (f *RecoveryFlow) FetchQuestion(ctx context.Context) error {
	if err := f.enter(StepChallenge); err != nil {
		return err
	}
	defer f.leave()

	question, err := f.gw.SecurityQuestion(ctx, f.Username())

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.resetLocked()
		return &ActionError{Action: ActionFetchQuestion, Err: err}
	}
	f.question = question
	f.step = StepAnswer
	return nil
}

// Verify submits an answer. A rejected answer keeps the flow on the answer
// step; attempts are not limited.
func (f *RecoveryFlow) Verify(ctx context.Context, answer string) error {
	if strings.TrimSpace(answer) == "" {
		return &models.ValidationError{Field: "security_answer", Message: "answer is required"}
	}
	if err := f.enter(StepAnswer); err != nil {
		return err
	}
	defer f.leave()

	result, err := f.gw.VerifySecurityAnswer(ctx, f.Username(), answer)
	if err != nil {
		return &ActionError{Action: ActionVerifyAnswer, Err: err}
	}
	if !result.Success {
		return ErrVerificationFailed
	}

	f.mu.Lock()
	f.token = result.ResetToken
	f.step = StepReset
	f.mu.Unlock()
	return nil
}

// Reset sets the new password with the token from Verify. The token is
// dropped once the server accepts it.
func (f *RecoveryFlow) Reset(ctx context.Context, password, confirm string) error {
	if err := models.ValidatePassword(password, confirm); err != nil {
		return err
	}
	if err := f.enter(StepReset); err != nil {
		return err
	}
	defer f.leave()

	f.mu.Lock()
	token := f.token
	f.mu.Unlock()

	if err := f.gw.ResetPassword(ctx, token, password); err != nil {
		return &ActionError{Action: ActionResetPassword, Err: err}
	}

	f.mu.Lock()
	f.token = ""
	f.step = StepDone
	f.mu.Unlock()
	f.log.Info().Msg("Password reset")
	return nil
}

// Back returns to the request step. It is refused once a reset token has
// been issued.
func (f *RecoveryFlow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.step {
	case StepReset:
		return ErrStepLocked
	case StepChallenge, StepAnswer:
		f.resetLocked()
	}
	return nil
}

func (f *RecoveryFlow) resetLocked() {
	f.step = StepRequest
	f.username = ""
	f.question = ""
	f.token = ""
}

func (f *RecoveryFlow) enter(step Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return ErrActionInFlight
	}
	if f.step != step {
		return ErrWrongStep
	}
	f.busy = true
	return nil
}

func (f *RecoveryFlow) leave() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
}
