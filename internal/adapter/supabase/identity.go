package supabase

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"

	"studio/internal/domain"
)

// Identity implements domain.IdentityProvider with Supabase GoTrue.
type Identity struct {
	auth gotrue.Client
}

// NewIdentity wraps the GoTrue client of a Supabase client.
func NewIdentity(auth gotrue.Client) *Identity {
	return &Identity{auth: auth}
}

func (i *Identity) SignUp(ctx context.Context, email, password string) (domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domain.Identity{}, err
	}
	resp, err := i.auth.Signup(types.SignupRequest{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		return domain.Identity{}, classifyAuth(err)
	}
	return domain.Identity{
		UID:         resp.User.ID.String(),
		Email:       resp.User.Email,
		AccessToken: resp.Session.AccessToken,
	}, nil
}

// SetDisplayName needs the user's access token; without one there is nothing
// to update.
func (i *Identity) SetDisplayName(ctx context.Context, id domain.Identity, name string) error {
	if id.AccessToken == "" {
		return errors.New("set display name: no access token (email confirmation pending)")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := i.auth.WithToken(id.AccessToken).UpdateUser(types.UpdateUserRequest{
		Data: map[string]interface{}{"display_name": strings.TrimSpace(name)},
	})
	if err != nil {
		return classifyAuth(err)
	}
	return nil
}

func (i *Identity) SignIn(ctx context.Context, email, password string) (domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domain.Identity{}, err
	}
	resp, err := i.auth.SignInWithEmailPassword(strings.TrimSpace(email), password)
	if err != nil {
		return domain.Identity{}, classifyAuth(err)
	}
	name, _ := resp.User.UserMetadata["display_name"].(string)
	return domain.Identity{
		UID:         resp.User.ID.String(),
		Email:       resp.User.Email,
		DisplayName: name,
		AccessToken: resp.AccessToken,
	}, nil
}

func (i *Identity) SendReset(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := i.auth.Recover(types.RecoverRequest{Email: strings.TrimSpace(email)}); err != nil {
		return classifyAuth(err)
	}
	return nil
}

// GoTrue reports failures as "response status code N: {json}", so the error
// codes are matched on the text.
var authPatterns = []struct {
	needles []string
	code    domain.AuthCode
}{
	{[]string{"user_already_exists", "already registered", "email_exists"}, domain.AuthEmailInUse},
	{[]string{"weak_password", "Password should be at least"}, domain.AuthWeakPassword},
	{[]string{"invalid_credentials", "Invalid login credentials", "user_not_found", "validation_failed"}, domain.AuthInvalidCredential},
	{[]string{"signup_disabled", "email_provider_disabled", "Signups not allowed"}, domain.AuthSignInDisabled},
	{[]string{"provider_disabled"}, domain.AuthFederatedDisabled},
	{[]string{"no API key found", "Invalid API key"}, domain.AuthNotConfigured},
}

func classifyAuth(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.NewAuthError(domain.AuthNetwork, err)
	}
	msg := err.Error()
	for _, p := range authPatterns {
		for _, needle := range p.needles {
			if strings.Contains(msg, needle) {
				return domain.NewAuthError(p.code, err)
			}
		}
	}
	return domain.NewAuthError(domain.AuthUnknown, err)
}

var _ domain.IdentityProvider = (*Identity)(nil)
