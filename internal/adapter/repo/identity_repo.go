package repo

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// MinPasswordLength matches the identity provider's password rule.
const MinPasswordLength = 6

// ResetSender delivers a reset token out of band.
type ResetSender func(ctx context.Context, email, uid, token string) error

// IdentityRepositoryPG implements domain.IdentityProvider with bcrypt-hashed
// passwords stored in PostgreSQL.
type IdentityRepositoryPG struct {
	sql       infra.SQLExecutor
	logger    zerolog.Logger
	sendReset ResetSender
	newID     func() string
	cost      int
}

// NewIdentityRepository creates an IdentityRepositoryPG. A nil sender logs the
// reset token instead of mailing it.
func NewIdentityRepository(sql infra.SQLExecutor, logger zerolog.Logger, sender ResetSender) *IdentityRepositoryPG {
	r := &IdentityRepositoryPG{
		sql:       sql,
		logger:    logger,
		sendReset: sender,
		newID:     uuid.NewString,
		cost:      bcrypt.DefaultCost,
	}
	if r.sendReset == nil {
		r.sendReset = r.logReset
	}
	return r
}

func (r *IdentityRepositoryPG) SignUp(ctx context.Context, email, password string) (domain.Identity, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.Identity{}, domain.NewAuthError(domain.AuthInvalidCredential, err)
	}
	if len(password) < MinPasswordLength {
		return domain.Identity{}, domain.NewAuthError(domain.AuthWeakPassword, nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return domain.Identity{}, domain.NewAuthError(domain.AuthWeakPassword, err)
	}
	var uid string
	err = r.sql.QueryRow(ctx, sqlinline.QInsertPasswordIdentity, r.newID(), email, string(hash)).Scan(&uid)
	if err != nil {
		if infra.IsNoRows(err) {
			return domain.Identity{}, domain.NewAuthError(domain.AuthEmailInUse, nil)
		}
		return domain.Identity{}, authStoreErr(err)
	}
	return domain.Identity{UID: uid, Email: strings.ToLower(email)}, nil
}

func (r *IdentityRepositoryPG) SetDisplayName(ctx context.Context, id domain.Identity, name string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateIdentityDisplayName, id.UID, strings.TrimSpace(name))
	return mapErr(err)
}

func (r *IdentityRepositoryPG) SignIn(ctx context.Context, email, password string) (domain.Identity, error) {
	var id domain.Identity
	var hash string
	err := r.sql.QueryRow(ctx, sqlinline.QSelectPasswordIdentity, strings.TrimSpace(email)).
		Scan(&id.UID, &id.Email, &hash, &id.DisplayName)
	if err != nil {
		if infra.IsNoRows(err) {
			return domain.Identity{}, domain.NewAuthError(domain.AuthInvalidCredential, nil)
		}
		return domain.Identity{}, authStoreErr(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return domain.Identity{}, domain.NewAuthError(domain.AuthInvalidCredential, nil)
	}
	return id, nil
}

// SendReset issues a one-hour reset token. Unknown addresses succeed silently.
func (r *IdentityRepositoryPG) SendReset(ctx context.Context, email string) error {
	token, err := randomToken()
	if err != nil {
		return err
	}
	sum := sha256.Sum256([]byte(token))
	var uid string
	err = r.sql.QueryRow(ctx, sqlinline.QInsertCredentialReset, strings.TrimSpace(email), hex.EncodeToString(sum[:])).Scan(&uid)
	if err != nil {
		if infra.IsNoRows(err) {
			r.logger.Debug().Msg("credential reset requested for unknown email")
			return nil
		}
		return authStoreErr(err)
	}
	return r.sendReset(ctx, email, uid, token)
}

func (r *IdentityRepositoryPG) logReset(_ context.Context, email, uid, token string) error {
	r.logger.Info().Str("uid", uid).Msg("credential reset issued")
	r.logger.Debug().Str("email", email).Str("token", token).Msg("credential reset token")
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func authStoreErr(err error) error {
	mapped := mapErr(err)
	if errors.Is(mapped, domain.ErrUnavailable) {
		return domain.NewAuthError(domain.AuthNetwork, mapped)
	}
	return domain.NewAuthError(domain.AuthUnknown, mapped)
}

var _ domain.IdentityProvider = (*IdentityRepositoryPG)(nil)
