package models

import "unicode/utf8"

// User is the profile returned on login and register.
type User struct {
	ID       int64  `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
}

// Credentials is the body of POST /auth/login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the body of POST /auth/register.
type Registration struct {
	Username         string `json:"username"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	SecurityQuestion string `json:"security_question"`
	SecurityAnswer   string `json:"security_answer"`
}

// MinPasswordLength applies to registration and password reset.
const MinPasswordLength = 6

// ValidatePassword checks the length policy and the confirmation.
func ValidatePassword(password, confirm string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: "password must be at least 6 characters"}
	}
	if password != confirm {
		return &ValidationError{Field: "confirm_password", Message: "passwords do not match"}
	}
	return nil
}

// Validate checks a registration before it is sent.
func (r Registration) Validate(confirm string) error {
	if r.Username == "" {
		return &ValidationError{Field: "username", Message: "username is required"}
	}
	if r.Email == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	if r.SecurityQuestion == "" || r.SecurityAnswer == "" {
		return &ValidationError{Field: "security_question", Message: "security question and answer are required"}
	}
	return ValidatePassword(r.Password, confirm)
}
