package services

import (
	"context"
	"fmt"
	"strings"

	"todo-client/app/models"
	"todo-client/app/routes"
	"todo-client/app/session"
)

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// VerificationResult is the outcome of a security answer check.
type VerificationResult struct {
	Success    bool   `json:"success"`
	ResetToken string `json:"reset_token,omitempty"`
}

// Login authenticates and installs the returned token before returning, so the
// next call is already authenticated.
func (g *Gateway) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	return g.authenticate(ctx, "login", routes.Login, creds)
}

// Register creates an account and signs it in.
func (g *Gateway) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	return g.authenticate(ctx, "register", routes.Register, reg)
}

func (g *Gateway) authenticate(ctx context.Context, op, route string, body any) (*models.User, error) {
	var resp authResponse
	if _, err := g.send(ctx, call{op: op, route: route, body: body, out: &resp}); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, protocolError(op, 200, "response is missing token", nil)
	}
	if err := g.creds.Set(ctx, session.Session{Token: resp.Token, User: resp.User}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return resp.User, nil
}

// Logout forgets the stored session. The API has no logout endpoint.
func (g *Gateway) Logout(ctx context.Context) error {
	return g.creds.Clear(ctx)
}

// ForgotPassword starts password recovery for username.
func (g *Gateway) ForgotPassword(ctx context.Context, username string) error {
	_, err := g.send(ctx, call{
		op:    "forgot password",
		route: routes.ForgotPassword,
		body:  map[string]string{"username": username},
	})
	return err
}

// SecurityQuestion fetches the stored question for username.
func (g *Gateway) SecurityQuestion(ctx context.Context, username string) (string, error) {
	const op = "get security question"
	var resp struct {
		SecurityQuestion string `json:"security_question"`
	}
	_, err := g.send(ctx, call{
		op:    op,
		route: routes.SecurityQuestion,
		vars:  []string{"username", username},
		out:   &resp,
	})
	if err != nil {
		return "", err
	}
	question := strings.TrimSpace(resp.SecurityQuestion)
	if question == "" {
		return "", protocolError(op, 200, "no security question is set for this account", nil)
	}
	return question, nil
}

// VerifySecurityAnswer checks answer. A rejected answer is reported in the
// result, not as an error.
func (g *Gateway) VerifySecurityAnswer(ctx context.Context, username, answer string) (VerificationResult, error) {
	var resp VerificationResult
	_, err := g.send(ctx, call{
		op:    "verify security answer",
		route: routes.VerifyAnswer,
		body: map[string]string{
			"username":        username,
			"security_answer": answer,
		},
		out: &resp,
	})
	if err != nil {
		return VerificationResult{}, err
	}
	if resp.ResetToken == "" {
		resp.Success = false
	}
	return resp, nil
}

// ResetPassword consumes token and sets a new password.
func (g *Gateway) ResetPassword(ctx context.Context, token, newPassword string) error {
	_, err := g.send(ctx, call{
		op:    "reset password",
		route: routes.ResetPassword,
		body: map[string]string{
			"token":        token,
			"new_password": newPassword,
		},
	})
	return err
}
