package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"studio/internal/domain"
)

var (
	fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	errBoom  = errors.New("permission denied")
)

func newTestGateway(id *fakeIdentity, profiles *fakeProfiles, opts Options) *Gateway {
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	return NewGateway(id, profiles, opts)
}

func TestDeductCreditZeroBalance(t *testing.T) {
	profiles := newFakeProfiles(domain.UserAccount{ID: "u1", Credits: 0})
	g := newTestGateway(&fakeIdentity{}, profiles, Options{})

	_, err := g.DeductCredit(context.Background(), "u1")
	if !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("DeductCredit() error = %v, want ErrInsufficientCredits", err)
	}
	if got := profiles.credits("u1"); got != 0 {
		t.Fatalf("stored credits = %d, want 0", got)
	}
	if len(profiles.adjusts) != 0 {
		t.Fatalf("AdjustCredits calls = %v, want none", profiles.adjusts)
	}
}

func TestDeductCredit(t *testing.T) {
	tests := []struct {
		name       string
		credits    int
		getErr     error
		adjustErr  error
		wantValue  int
		wantStatus domain.ResultStatus
		wantErr    error
	}{
		{name: "decrements", credits: 3, wantValue: 2, wantStatus: domain.StatusOK},
		{name: "store offline", credits: 3, getErr: domain.ErrUnavailable, wantValue: domain.FallbackDeductBalance, wantStatus: domain.StatusDegraded},
		{name: "offline during update", credits: 3, adjustErr: domain.ErrUnavailable, wantValue: domain.FallbackDeductBalance, wantStatus: domain.StatusDegraded},
		{name: "lost race to zero", credits: 1, adjustErr: domain.ErrInsufficientCredits, wantErr: domain.ErrInsufficientCredits},
		{name: "other failure propagates", credits: 3, getErr: errBoom, wantErr: errBoom},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			profiles := newFakeProfiles(domain.UserAccount{ID: "u1", Credits: tc.credits})
			profiles.getErr = tc.getErr
			profiles.adjustErr = tc.adjustErr
			g := newTestGateway(&fakeIdentity{}, profiles, Options{})

			got, err := g.DeductCredit(context.Background(), "u1")
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("DeductCredit() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DeductCredit() error = %v", err)
			}
			if got.Value != tc.wantValue || got.Status != tc.wantStatus {
				t.Fatalf("DeductCredit() = %+v, want value %d status %s", got, tc.wantValue, tc.wantStatus)
			}
		})
	}
}

func TestLoginProfileTimeoutFallsBack(t *testing.T) {
	profiles := newFakeProfiles(domain.UserAccount{ID: "u1", Credits: 42})
	profiles.getDelay = time.Second
	id := &fakeIdentity{identity: domain.Identity{UID: "u1", Email: "a@b.co", DisplayName: "Ana"}}
	g := newTestGateway(id, profiles, Options{ProfileWait: 20 * time.Millisecond})

	start := time.Now()
	got, err := g.Login(context.Background(), "a@b.co", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("Login() took %s, want bounded by the profile wait", elapsed)
	}
	if got.Value.Credits != domain.StartingCredits {
		t.Fatalf("Login() credits = %d, want %d", got.Value.Credits, domain.StartingCredits)
	}
	if got.Value.ID != "u1" || got.Value.Email != "a@b.co" {
		t.Fatalf("Login() account = %+v, want identity fields", got.Value)
	}
	if !got.IsDegraded() || got.Reason != ReasonProfileTimeout {
		t.Fatalf("Login() status = %s/%s, want degraded/%s", got.Status, got.Reason, ReasonProfileTimeout)
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name        string
		rows        []domain.UserAccount
		getErr      error
		signInErr   error
		wantCredits int
		wantReason  string
		wantErr     bool
	}{
		{name: "stored profile", rows: []domain.UserAccount{{ID: "u1", Credits: 7}}, wantCredits: 7},
		{name: "absent profile", wantCredits: domain.StartingCredits, wantReason: ReasonProfileAbsent},
		{name: "store offline", getErr: domain.ErrUnavailable, wantCredits: domain.StartingCredits, wantReason: ReasonStoreUnavailable},
		{name: "store error", getErr: errors.New("boom"), wantCredits: domain.StartingCredits, wantReason: ReasonStoreError},
		{name: "bad password", signInErr: domain.NewAuthError(domain.AuthInvalidCredential, nil), wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			profiles := newFakeProfiles(tc.rows...)
			profiles.getErr = tc.getErr
			id := &fakeIdentity{identity: domain.Identity{UID: "u1"}, signInErr: tc.signInErr}
			g := newTestGateway(id, profiles, Options{})

			got, err := g.Login(context.Background(), "a@b.co", "secret1")
			if tc.wantErr {
				if domain.AuthCodeOf(err) != domain.AuthInvalidCredential {
					t.Fatalf("Login() error = %v, want invalid credential", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if got.Value.Credits != tc.wantCredits || got.Reason != tc.wantReason {
				t.Fatalf("Login() = %+v, want credits %d reason %q", got, tc.wantCredits, tc.wantReason)
			}
		})
	}
}

func TestLoginCallerCancelled(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.getDelay = time.Second
	g := newTestGateway(&fakeIdentity{identity: domain.Identity{UID: "u1"}}, profiles, Options{ProfileWait: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if _, err := g.Login(ctx, "a@b.co", "secret1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Login() error = %v, want context.Canceled", err)
	}
}

func TestBoundedFetchPrefersCallerCancellation(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.getErr = errors.New("connection reset")
	g := newTestGateway(&fakeIdentity{}, profiles, Options{ProfileWait: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// The failing fetch and the cancelled context race; both must surface
	// the cancellation.
	for i := 0; i < 50; i++ {
		acct, reason, err := g.boundedFetch(ctx, "u1")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("boundedFetch() = %v, %q, %v; want context.Canceled", acct, reason, err)
		}
	}
}

func TestRegister(t *testing.T) {
	t.Run("persists profile with starting credits", func(t *testing.T) {
		profiles := newFakeProfiles()
		id := &fakeIdentity{identity: domain.Identity{UID: "u9"}}
		g := newTestGateway(id, profiles, Options{})

		got, err := g.Register(context.Background(), "new@b.co", "secret1", " Nia ", "nia")
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		if got.IsDegraded() || got.Value.Credits != domain.StartingCredits || got.Value.DisplayName != "Nia" {
			t.Fatalf("Register() = %+v", got)
		}
		if got.Value.CreatedAt != fixedNow {
			t.Fatalf("Register() created_at = %v, want %v", got.Value.CreatedAt, fixedNow)
		}
		if profiles.credits("u9") != domain.StartingCredits {
			t.Fatalf("stored credits = %d, want %d", profiles.credits("u9"), domain.StartingCredits)
		}
		if len(id.namesSet) != 1 || id.namesSet[0] != "Nia" {
			t.Fatalf("display names set = %v, want [Nia]", id.namesSet)
		}
	})

	t.Run("name and store failures do not fail", func(t *testing.T) {
		profiles := newFakeProfiles()
		profiles.createErr = domain.ErrUnavailable
		id := &fakeIdentity{identity: domain.Identity{UID: "u9"}, nameErr: errors.New("no token")}
		g := newTestGateway(id, profiles, Options{})

		got, err := g.Register(context.Background(), "new@b.co", "secret1", "Nia", "")
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		if !got.IsDegraded() || got.Reason != ReasonProfileNotPersisted || got.Value.Credits != domain.StartingCredits {
			t.Fatalf("Register() = %+v, want degraded profile_not_persisted", got)
		}
	})

	t.Run("identity failure propagates", func(t *testing.T) {
		id := &fakeIdentity{signUpErr: domain.NewAuthError(domain.AuthEmailInUse, nil)}
		g := newTestGateway(id, newFakeProfiles(), Options{})
		if _, err := g.Register(context.Background(), "a@b.co", "secret1", "", ""); domain.AuthCodeOf(err) != domain.AuthEmailInUse {
			t.Fatalf("Register() error = %v, want email_in_use", err)
		}
	})
}

func TestLoginWithFederated(t *testing.T) {
	google := domain.Identity{UID: "g-1", Email: "g@b.co", DisplayName: "Gee"}

	t.Run("existing profile keeps balance", func(t *testing.T) {
		profiles := newFakeProfiles(domain.UserAccount{ID: "g-1", Credits: 33})
		g := newTestGateway(&fakeIdentity{}, profiles, Options{Verifier: fakeVerifier{identity: google}})

		got, err := g.LoginWithFederated(context.Background(), "token")
		if err != nil {
			t.Fatalf("LoginWithFederated() error = %v", err)
		}
		g.Wait()
		if got.Value.Credits != 33 || profiles.createCount() != 0 {
			t.Fatalf("LoginWithFederated() = %+v creates=%d, want 33 credits and no create", got, profiles.createCount())
		}
	})

	t.Run("new user gets a profile in the background", func(t *testing.T) {
		profiles := newFakeProfiles()
		g := newTestGateway(&fakeIdentity{}, profiles, Options{Verifier: fakeVerifier{identity: google}})

		got, err := g.LoginWithFederated(context.Background(), "token")
		if err != nil {
			t.Fatalf("LoginWithFederated() error = %v", err)
		}
		g.Wait()
		if got.IsDegraded() || got.Value.Credits != domain.StartingCredits {
			t.Fatalf("LoginWithFederated() = %+v, want ok with starting credits", got)
		}
		if profiles.credits("g-1") != domain.StartingCredits {
			t.Fatalf("stored credits = %d, want %d", profiles.credits("g-1"), domain.StartingCredits)
		}
	})

	t.Run("timed out fetch does not overwrite balance", func(t *testing.T) {
		profiles := newFakeProfiles(domain.UserAccount{ID: "g-1", Credits: 80})
		profiles.getDelay = time.Second
		g := newTestGateway(&fakeIdentity{}, profiles, Options{
			Verifier:    fakeVerifier{identity: google},
			ProfileWait: 10 * time.Millisecond,
		})

		got, err := g.LoginWithFederated(context.Background(), "token")
		if err != nil {
			t.Fatalf("LoginWithFederated() error = %v", err)
		}
		g.Wait()
		if !got.IsDegraded() || got.Reason != ReasonProfileTimeout {
			t.Fatalf("LoginWithFederated() = %+v, want degraded timeout", got)
		}
		if profiles.credits("g-1") != 80 {
			t.Fatalf("stored credits = %d, want 80", profiles.credits("g-1"))
		}
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name     string
			token    string
			verifier domain.TokenVerifier
			want     domain.AuthCode
		}{
			{name: "empty token", token: "", verifier: fakeVerifier{identity: google}, want: domain.AuthCancelled},
			{name: "no verifier", token: "t", verifier: nil, want: domain.AuthFederatedDisabled},
			{name: "bad token", token: "t", verifier: fakeVerifier{err: errors.New("bad signature")}, want: domain.AuthInvalidCredential},
			{name: "typed verifier error", token: "t", verifier: fakeVerifier{err: domain.NewAuthError(domain.AuthUnauthorizedDomain, nil)}, want: domain.AuthUnauthorizedDomain},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				g := newTestGateway(&fakeIdentity{}, newFakeProfiles(), Options{Verifier: tc.verifier})
				_, err := g.LoginWithFederated(context.Background(), tc.token)
				if got := domain.AuthCodeOf(err); got != tc.want {
					t.Fatalf("LoginWithFederated() code = %q, want %q (err %v)", got, tc.want, err)
				}
			})
		}
	})
}

func TestFetchProfile(t *testing.T) {
	tests := []struct {
		name       string
		rows       []domain.UserAccount
		getErr     error
		wantNil    bool
		wantReason string
	}{
		{name: "found", rows: []domain.UserAccount{{ID: "u1", Credits: 4}}},
		{name: "absent", wantNil: true},
		{name: "offline", getErr: domain.ErrUnavailable, wantNil: true, wantReason: ReasonStoreUnavailable},
		{name: "other", getErr: errors.New("decode"), wantNil: true, wantReason: ReasonStoreError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			profiles := newFakeProfiles(tc.rows...)
			profiles.getErr = tc.getErr
			g := newTestGateway(&fakeIdentity{}, profiles, Options{})

			got := g.FetchProfile(context.Background(), "u1")
			if (got.Value == nil) != tc.wantNil || got.Reason != tc.wantReason {
				t.Fatalf("FetchProfile() = %+v, want nil=%v reason %q", got, tc.wantNil, tc.wantReason)
			}
		})
	}
}

func TestPurchase(t *testing.T) {
	t.Run("credits amount", func(t *testing.T) {
		profiles := newFakeProfiles(domain.UserAccount{ID: "u1", Credits: 2})
		g := newTestGateway(&fakeIdentity{}, profiles, Options{})
		got, err := g.PurchaseCredits(context.Background(), "u1", 50)
		if err != nil || got != 52 {
			t.Fatalf("PurchaseCredits() = %d, %v, want 52, nil", got, err)
		}
	})

	t.Run("rejects non-positive", func(t *testing.T) {
		g := newTestGateway(&fakeIdentity{}, newFakeProfiles(), Options{})
		if _, err := g.PurchaseCredits(context.Background(), "u1", 0); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("PurchaseCredits(0) error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("package", func(t *testing.T) {
		profiles := newFakeProfiles(domain.UserAccount{ID: "u1", Credits: 0})
		g := newTestGateway(&fakeIdentity{}, profiles, Options{PaymentDelay: time.Millisecond})
		pkg, got, err := g.PurchasePackage(context.Background(), "u1", "pro")
		if err != nil {
			t.Fatalf("PurchasePackage() error = %v", err)
		}
		if pkg.Credits != 120 || got != 120 {
			t.Fatalf("PurchasePackage() = %+v, %d, want pro and 120", pkg, got)
		}
	})

	t.Run("unknown package", func(t *testing.T) {
		g := newTestGateway(&fakeIdentity{}, newFakeProfiles(), Options{})
		if _, _, err := g.PurchasePackage(context.Background(), "u1", "gold"); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("PurchasePackage() error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("payment delay honours cancel", func(t *testing.T) {
		profiles := newFakeProfiles(domain.UserAccount{ID: "u1"})
		g := newTestGateway(&fakeIdentity{}, profiles, Options{PaymentDelay: time.Minute})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, _, err := g.PurchasePackage(ctx, "u1", "starter"); !errors.Is(err, context.Canceled) {
			t.Fatalf("PurchasePackage() error = %v, want context.Canceled", err)
		}
		if len(profiles.adjusts) != 0 {
			t.Fatalf("AdjustCredits calls = %v, want none", profiles.adjusts)
		}
	})
}

func TestCheckBalance(t *testing.T) {
	profiles := newFakeProfiles(domain.UserAccount{ID: "empty"}, domain.UserAccount{ID: "rich", Credits: 5})
	g := newTestGateway(&fakeIdentity{}, profiles, Options{})
	if err := g.CheckBalance(context.Background(), "empty"); !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("CheckBalance(empty) = %v, want ErrInsufficientCredits", err)
	}
	if err := g.CheckBalance(context.Background(), "rich"); err != nil {
		t.Fatalf("CheckBalance(rich) = %v, want nil", err)
	}
}

func TestResetCredential(t *testing.T) {
	id := &fakeIdentity{}
	g := newTestGateway(id, newFakeProfiles(), Options{})
	if err := g.ResetCredential(context.Background(), "  "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("ResetCredential(blank) = %v, want ErrInvalidInput", err)
	}
	if err := g.ResetCredential(context.Background(), " a@b.co "); err != nil {
		t.Fatalf("ResetCredential() = %v", err)
	}
	if len(id.resetsSent) != 1 || id.resetsSent[0] != "a@b.co" {
		t.Fatalf("resets sent = %v, want [a@b.co]", id.resetsSent)
	}
}
