// Package account authenticates users and keeps their credit balance.
//
// Store outages never fail a sign-in: the gateway answers with a fallback
// account marked Degraded and logs the cause.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/infra"
)

const (
	DefaultProfileWait   = 2500 * time.Millisecond
	DefaultPaymentDelay  = 2 * time.Second
	defaultCreateTimeout = 10 * time.Second
)

// Degraded reasons.
const (
	ReasonProfileNotPersisted = "profile_not_persisted"
	ReasonProfileTimeout      = "profile_timeout"
	ReasonProfileAbsent       = "profile_absent"
	ReasonStoreUnavailable    = "store_unavailable"
	ReasonStoreError          = "store_error"
	ReasonBalanceUnconfirmed  = "balance_unconfirmed"
)

// Options configures a Gateway.
type Options struct {
	Logger        *infra.Logger
	Verifier      domain.TokenVerifier
	ProfileWait   time.Duration
	PaymentDelay  time.Duration
	CreateTimeout time.Duration
	Now           func() time.Time
}

// Gateway is the account and credit facade used by the HTTP layer.
type Gateway struct {
	identity      domain.IdentityProvider
	profiles      domain.ProfileStore
	verifier      domain.TokenVerifier
	logger        *infra.Logger
	profileWait   time.Duration
	paymentDelay  time.Duration
	createTimeout time.Duration
	now           func() time.Time
	background    sync.WaitGroup
}

// NewGateway builds a Gateway. A nil verifier disables federated sign-in.
func NewGateway(identity domain.IdentityProvider, profiles domain.ProfileStore, opts Options) *Gateway {
	g := &Gateway{
		identity:      identity,
		profiles:      profiles,
		verifier:      opts.Verifier,
		logger:        opts.Logger,
		profileWait:   opts.ProfileWait,
		paymentDelay:  opts.PaymentDelay,
		createTimeout: opts.CreateTimeout,
		now:           opts.Now,
	}
	if g.logger == nil {
		nop := zerolog.Nop()
		g.logger = &nop
	}
	if g.profileWait <= 0 {
		g.profileWait = DefaultProfileWait
	}
	if g.paymentDelay < 0 {
		g.paymentDelay = 0
	}
	if g.createTimeout <= 0 {
		g.createTimeout = defaultCreateTimeout
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Register creates an identity and its profile with the starting credits.
// Only the identity step can fail the call.
func (g *Gateway) Register(ctx context.Context, email, password, displayName, handle string) (domain.Result[domain.UserAccount], error) {
	id, err := g.identity.SignUp(ctx, email, password)
	if err != nil {
		return domain.Result[domain.UserAccount]{}, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName != "" {
		if err := g.identity.SetDisplayName(ctx, id, displayName); err != nil {
			g.logger.Warn().Err(err).Str("user_id", id.UID).Msg("set display name failed")
		}
	}

	acct := domain.UserAccount{
		ID:          id.UID,
		Email:       id.Email,
		DisplayName: displayName,
		Handle:      strings.TrimSpace(handle),
		Credits:     domain.StartingCredits,
		CreatedAt:   g.now().UTC(),
	}
	if err := g.profiles.CreateIfAbsent(ctx, acct); err != nil {
		g.logger.Warn().Err(err).Str("user_id", id.UID).Msg("profile not persisted, continuing with identity only")
		return domain.Degraded(acct, ReasonProfileNotPersisted), nil
	}
	return domain.Ok(acct), nil
}

// Login authenticates and then waits a bounded time for the profile.
func (g *Gateway) Login(ctx context.Context, email, password string) (domain.Result[domain.UserAccount], error) {
	id, err := g.identity.SignIn(ctx, email, password)
	if err != nil {
		return domain.Result[domain.UserAccount]{}, err
	}
	acct, reason, err := g.boundedFetch(ctx, id.UID)
	if err != nil {
		return domain.Result[domain.UserAccount]{}, err
	}
	if acct != nil {
		return domain.Ok(*acct), nil
	}
	return domain.Degraded(domain.FallbackAccount(id), reason), nil
}

// LoginWithFederated signs in with a Google ID token. Unknown users get a
// profile created in the background; existing balances are never replaced.
func (g *Gateway) LoginWithFederated(ctx context.Context, idToken string) (domain.Result[domain.UserAccount], error) {
	if strings.TrimSpace(idToken) == "" {
		return domain.Result[domain.UserAccount]{}, domain.NewAuthError(domain.AuthCancelled, nil)
	}
	if g.verifier == nil {
		return domain.Result[domain.UserAccount]{}, domain.NewAuthError(domain.AuthFederatedDisabled, nil)
	}
	id, err := g.verifier.Verify(ctx, idToken)
	if err != nil {
		var ae *domain.AuthError
		if errors.As(err, &ae) {
			return domain.Result[domain.UserAccount]{}, err
		}
		return domain.Result[domain.UserAccount]{}, domain.NewAuthError(domain.AuthInvalidCredential, err)
	}

	acct, reason, err := g.boundedFetch(ctx, id.UID)
	if err != nil {
		return domain.Result[domain.UserAccount]{}, err
	}
	if acct != nil {
		return domain.Ok(*acct), nil
	}

	fresh := domain.FallbackAccount(id)
	fresh.CreatedAt = g.now().UTC()
	g.createDetached(ctx, fresh)
	if reason == ReasonProfileAbsent {
		return domain.Ok(fresh), nil
	}
	return domain.Degraded(fresh, reason), nil
}

func (g *Gateway) createDetached(ctx context.Context, acct domain.UserAccount) {
	g.background.Add(1)
	go func() {
		defer g.background.Done()
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.createTimeout)
		defer cancel()
		if err := g.profiles.CreateIfAbsent(cctx, acct); err != nil {
			g.logger.Warn().Err(err).Str("user_id", acct.ID).Msg("background profile create failed")
		}
	}()
}

// Wait blocks until background profile writes have finished.
func (g *Gateway) Wait() {
	g.background.Wait()
}

// ResetCredential asks the identity provider to send a reset message.
func (g *Gateway) ResetCredential(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	return g.identity.SendReset(ctx, email)
}

// FetchProfile returns the stored profile, Ok(nil) when there is none, or a
// Degraded nil when the store could not answer.
func (g *Gateway) FetchProfile(ctx context.Context, id string) domain.Result[*domain.UserAccount] {
	acct, err := g.profiles.Get(ctx, id)
	switch {
	case err == nil:
		return domain.Ok(acct)
	case errors.Is(err, domain.ErrNotFound):
		return domain.Ok[*domain.UserAccount](nil)
	case errors.Is(err, domain.ErrUnavailable):
		g.logger.Warn().Err(err).Str("user_id", id).Msg("profile store offline")
		return domain.Degraded[*domain.UserAccount](nil, ReasonStoreUnavailable)
	default:
		g.logger.Error().Err(err).Str("user_id", id).Msg("fetch profile")
		return domain.Degraded[*domain.UserAccount](nil, ReasonStoreError)
	}
}

func (g *Gateway) boundedFetch(ctx context.Context, id string) (*domain.UserAccount, string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, g.profileWait)
	defer cancel()

	done := make(chan domain.Result[*domain.UserAccount], 1)
	go func() {
		done <- g.FetchProfile(fetchCtx, id)
	}()

	select {
	case res := <-done:
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		switch {
		case res.IsDegraded() && fetchCtx.Err() != nil:
			g.logger.Warn().Str("user_id", id).Dur("wait", g.profileWait).Msg("profile fetch timed out, using fallback")
			return nil, ReasonProfileTimeout, nil
		case res.IsDegraded():
			return nil, res.Reason, nil
		case res.Value == nil:
			return nil, ReasonProfileAbsent, nil
		}
		return res.Value, "", nil
	case <-fetchCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		g.logger.Warn().Str("user_id", id).Dur("wait", g.profileWait).Msg("profile fetch timed out, using fallback")
		return nil, ReasonProfileTimeout, nil
	}
}

// CheckBalance fails with ErrInsufficientCredits when the stored balance is
// exhausted. An unreachable store does not block.
func (g *Gateway) CheckBalance(ctx context.Context, id string) error {
	res := g.FetchProfile(ctx, id)
	if res.IsDegraded() || res.Value == nil {
		return nil
	}
	if res.Value.Credits <= 0 {
		return domain.ErrInsufficientCredits
	}
	return nil
}

// DeductCredit spends one credit and returns the new balance.
func (g *Gateway) DeductCredit(ctx context.Context, id string) (domain.Result[int], error) {
	acct, err := g.profiles.Get(ctx, id)
	if err != nil {
		return g.deductFailure(id, err)
	}
	if acct.Credits <= 0 {
		return domain.Result[int]{}, domain.ErrInsufficientCredits
	}
	if err := g.profiles.AdjustCredits(ctx, id, -1); err != nil {
		return g.deductFailure(id, err)
	}
	after, err := g.profiles.Get(ctx, id)
	if err != nil {
		g.logger.Warn().Err(err).Str("user_id", id).Msg("re-read balance after deduction")
		return domain.Degraded(acct.Credits-1, ReasonBalanceUnconfirmed), nil
	}
	return domain.Ok(after.Credits), nil
}

func (g *Gateway) deductFailure(id string, err error) (domain.Result[int], error) {
	if errors.Is(err, domain.ErrUnavailable) {
		g.logger.Warn().Err(err).Str("user_id", id).Msg("profile store offline, reporting fallback balance")
		return domain.Degraded(domain.FallbackDeductBalance, ReasonStoreUnavailable), nil
	}
	if errors.Is(err, domain.ErrInsufficientCredits) {
		return domain.Result[int]{}, err
	}
	return domain.Result[int]{}, fmt.Errorf("deduct credit: %w", err)
}

// PurchaseCredits adds amount credits and returns the new balance.
func (g *Gateway) PurchaseCredits(ctx context.Context, id string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	if err := g.profiles.AdjustCredits(ctx, id, amount); err != nil {
		return 0, fmt.Errorf("purchase credits: %w", err)
	}
	acct, err := g.profiles.Get(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("purchase credits: read balance: %w", err)
	}
	g.logger.Info().Str("user_id", id).Int("amount", amount).Int("credits", acct.Credits).Msg("credits purchased")
	return acct.Credits, nil
}

// PurchasePackage simulates the payment for a package and credits it.
func (g *Gateway) PurchasePackage(ctx context.Context, id, packageID string) (domain.CreditPackage, int, error) {
	pkg, ok := domain.FindCreditPackage(packageID)
	if !ok {
		return domain.CreditPackage{}, 0, fmt.Errorf("%w: unknown package %q", domain.ErrInvalidInput, packageID)
	}
	if g.paymentDelay > 0 {
		timer := time.NewTimer(g.paymentDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.CreditPackage{}, 0, ctx.Err()
		case <-timer.C:
		}
	}
	balance, err := g.PurchaseCredits(ctx, id, pkg.Credits)
	if err != nil {
		return domain.CreditPackage{}, 0, err
	}
	return pkg, balance, nil
}
