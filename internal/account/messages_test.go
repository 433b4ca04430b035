package account

import (
	"testing"

	"studio/internal/domain"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		code   domain.AuthCode
		flow   Flow
		locale string
		want   string
	}{
		{domain.AuthInvalidCredential, FlowLogin, "en", "Incorrect email or password. If you haven't registered yet, please switch to 'Create Account'."},
		{domain.AuthInvalidCredential, FlowRegister, "en", "Invalid credentials provided."},
		{domain.AuthEmailInUse, FlowRegister, "en", "This email is already registered."},
		{domain.AuthUnknown, FlowFederated, "en", "Failed to sign in with Google."},
		{domain.AuthCode("auth/strange"), FlowLogin, "en", "Authentication failed. Please try again."},
		{domain.AuthCode("auth/strange"), FlowFederated, "en", "Failed to sign in with Google."},
		{domain.AuthEmailInUse, FlowRegister, "id", "Email ini sudah terdaftar."},
		{domain.AuthNetwork, FlowLogin, "fr", "Network error. Please check your connection."},
	}
	for _, tc := range tests {
		if got := Message(tc.code, tc.flow, tc.locale); got != tc.want {
			t.Fatalf("Message(%q, %q, %q) = %q, want %q", tc.code, tc.flow, tc.locale, got, tc.want)
		}
	}
}
