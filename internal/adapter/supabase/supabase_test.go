package supabase

import (
	"errors"
	"net"
	"testing"

	"studio/internal/domain"
)

func TestRPCResult(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{name: "balance", body: "9", want: nil},
		{name: "balance with newline", body: "42\n", want: nil},
		{name: "insufficient", body: `{"code":"P0001","message":"insufficient credits"}`, want: domain.ErrInsufficientCredits},
		{name: "missing", body: `{"code":"P0002","message":"profile not found"}`, want: domain.ErrNotFound},
		{name: "empty", body: "", want: domain.ErrUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := rpcResult(tc.body)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("rpcResult(%q) = %v, want nil", tc.body, err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("rpcResult(%q) = %v, want %v", tc.body, err, tc.want)
			}
		})
	}
}

func TestClassifyAuth(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.AuthCode
	}{
		{name: "existing user", err: errors.New(`response status code 422: {"code":422,"error_code":"user_already_exists","msg":"User already registered"}`), want: domain.AuthEmailInUse},
		{name: "weak", err: errors.New(`response status code 422: {"error_code":"weak_password"}`), want: domain.AuthWeakPassword},
		{name: "bad login", err: errors.New(`response status code 400: {"error_code":"invalid_credentials","msg":"Invalid login credentials"}`), want: domain.AuthInvalidCredential},
		{name: "disabled", err: errors.New(`response status code 422: {"error_code":"signup_disabled"}`), want: domain.AuthSignInDisabled},
		{name: "network", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: domain.AuthNetwork},
		{name: "other", err: errors.New("response status code 500: boom"), want: domain.AuthUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := domain.AuthCodeOf(classifyAuth(tc.err)); got != tc.want {
				t.Fatalf("classifyAuth(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestClassifyConnectivity(t *testing.T) {
	err := classify(&net.DNSError{Err: "no such host", Name: "x.supabase.co"})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("classify() = %v, want ErrUnavailable", err)
	}
	if classify(nil) != nil {
		t.Fatal("classify(nil) != nil")
	}
}
