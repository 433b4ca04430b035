package domain

import "context"

// IdentityProvider authenticates users. Implementations return *AuthError for
// known provider failures.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (Identity, error)
	SetDisplayName(ctx context.Context, id Identity, name string) error
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SendReset(ctx context.Context, email string) error
}

// ProfileStore persists account profiles. Connectivity failures are reported as
// ErrUnavailable and missing profiles as ErrNotFound. Balance changes are
// relative so concurrent writers never lose an update.
type ProfileStore interface {
	Get(ctx context.Context, id string) (*UserAccount, error)
	CreateIfAbsent(ctx context.Context, account UserAccount) error
	AdjustCredits(ctx context.Context, id string, delta int) error
}

// TokenVerifier validates federated ID tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (Identity, error)
}
