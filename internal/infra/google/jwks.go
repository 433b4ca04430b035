package google

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"studio/internal/domain"
	"studio/internal/infra"
)

const DefaultJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// Issuers accepted on Google ID tokens.
var Issuers = []string{"https://accounts.google.com", "accounts.google.com"}

var (
	ErrInvalidIssuer   = errors.New("invalid issuer")
	ErrInvalidAudience = errors.New("invalid audience")
)

type idClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

// Verifier checks Google ID tokens against the published signing keys.
type Verifier struct {
	keyfunc  jwt.Keyfunc
	jwks     *keyfunc.JWKS
	clientID string
	issuers  []string
	now      func() time.Time
}

// NewVerifier fetches the JWKS and keeps it refreshed in the background until
// Close. An empty issuer accepts both Google issuer spellings.
func NewVerifier(ctx context.Context, jwksURL, clientID, issuer string, logger *infra.Logger) (*Verifier, error) {
	if jwksURL == "" {
		jwksURL = DefaultJWKSURL
	}
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshTimeout:    10 * time.Second,
		RefreshRateLimit:  5 * time.Minute,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			if logger != nil {
				logger.Warn().Err(err).Msg("refresh google jwks")
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("google: load jwks: %w", err)
	}
	v := NewVerifierWithKeyfunc(jwks.Keyfunc, clientID, issuer)
	v.jwks = jwks
	return v, nil
}

// NewVerifierWithKeyfunc builds a Verifier over an existing key source.
func NewVerifierWithKeyfunc(kf jwt.Keyfunc, clientID, issuer string) *Verifier {
	issuers := Issuers
	if issuer != "" {
		issuers = []string{issuer}
	}
	return &Verifier{keyfunc: kf, clientID: clientID, issuers: issuers, now: time.Now}
}

// Verify validates signature, expiry, issuer and audience.
func (v *Verifier) Verify(_ context.Context, idToken string) (domain.Identity, error) {
	claims := &idClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims, v.keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("google: parse id token: %w", err)
	}
	if !slices.Contains(v.issuers, claims.Issuer) {
		return domain.Identity{}, ErrInvalidIssuer
	}
	if !audienceMatches(claims.Audience, v.clientID) {
		return domain.Identity{}, ErrInvalidAudience
	}
	if claims.Subject == "" {
		return domain.Identity{}, errors.New("google: id token has no subject")
	}
	return domain.Identity{
		UID:         claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}, nil
}

// Close stops the background refresh.
func (v *Verifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

func audienceMatches(aud jwt.ClaimStrings, clientID string) bool {
	if clientID == "" {
		return false
	}
	return slices.Contains(aud, clientID)
}

var _ domain.TokenVerifier = (*Verifier)(nil)
