package domain

import (
	"errors"
	"fmt"
)

// AuthCode enumerates the identity failures users get a dedicated message for.
type AuthCode string

const (
	AuthInvalidCredential  AuthCode = "invalid_credential"
	AuthEmailInUse         AuthCode = "email_in_use"
	AuthWeakPassword       AuthCode = "weak_password"
	AuthSignInDisabled     AuthCode = "sign_in_disabled"
	AuthFederatedDisabled  AuthCode = "federated_disabled"
	AuthUnauthorizedDomain AuthCode = "unauthorized_domain"
	AuthCancelled          AuthCode = "cancelled"
	AuthPopupBlocked       AuthCode = "popup_blocked"
	AuthNetwork            AuthCode = "network"
	AuthNotConfigured      AuthCode = "not_configured"
	AuthUnknown            AuthCode = "unknown"
)

// AuthError wraps an identity provider failure with its classified code.
type AuthError struct {
	Code AuthCode
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "auth: " + string(e.Code)
	}
	return fmt.Sprintf("auth: %s: %v", e.Code, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError builds an AuthError.
func NewAuthError(code AuthCode, err error) *AuthError {
	return &AuthError{Code: code, Err: err}
}

// AuthCodeOf returns the code carried by err, or AuthUnknown.
func AuthCodeOf(err error) AuthCode {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return AuthUnknown
}
