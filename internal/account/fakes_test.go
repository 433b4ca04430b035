package account

import (
	"context"
	"sync"
	"time"

	"studio/internal/domain"
)

type fakeIdentity struct {
	signUpErr  error
	signInErr  error
	nameErr    error
	resetErr   error
	identity   domain.Identity
	namesSet   []string
	resetsSent []string
}

func (f *fakeIdentity) SignUp(_ context.Context, email, _ string) (domain.Identity, error) {
	if f.signUpErr != nil {
		return domain.Identity{}, f.signUpErr
	}
	id := f.identity
	if id.Email == "" {
		id.Email = email
	}
	return id, nil
}

func (f *fakeIdentity) SetDisplayName(_ context.Context, _ domain.Identity, name string) error {
	f.namesSet = append(f.namesSet, name)
	return f.nameErr
}

func (f *fakeIdentity) SignIn(_ context.Context, email, _ string) (domain.Identity, error) {
	if f.signInErr != nil {
		return domain.Identity{}, f.signInErr
	}
	id := f.identity
	if id.Email == "" {
		id.Email = email
	}
	return id, nil
}

func (f *fakeIdentity) SendReset(_ context.Context, email string) error {
	f.resetsSent = append(f.resetsSent, email)
	return f.resetErr
}

// fakeProfiles is an in-memory ProfileStore with injectable failures.
type fakeProfiles struct {
	mu        sync.Mutex
	rows      map[string]domain.UserAccount
	getErr    error
	getDelay  time.Duration
	createErr error
	adjustErr error
	creates   int
	adjusts   []int
}

func newFakeProfiles(rows ...domain.UserAccount) *fakeProfiles {
	f := &fakeProfiles{rows: map[string]domain.UserAccount{}}
	for _, r := range rows {
		f.rows[r.ID] = r
	}
	return f
}

func (f *fakeProfiles) Get(ctx context.Context, id string) (*domain.UserAccount, error) {
	if f.getDelay > 0 {
		select {
		case <-time.After(f.getDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	row, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &row, nil
}

func (f *fakeProfiles) CreateIfAbsent(_ context.Context, acct domain.UserAccount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.rows[acct.ID]; !ok {
		f.rows[acct.ID] = acct
	}
	return nil
}

func (f *fakeProfiles) AdjustCredits(_ context.Context, id string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adjusts = append(f.adjusts, delta)
	if f.adjustErr != nil {
		return f.adjustErr
	}
	row, ok := f.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	if row.Credits+delta < 0 {
		return domain.ErrInsufficientCredits
	}
	row.Credits += delta
	f.rows[id] = row
	return nil
}

func (f *fakeProfiles) credits(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id].Credits
}

func (f *fakeProfiles) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

type fakeVerifier struct {
	identity domain.Identity
	err      error
}

func (f fakeVerifier) Verify(context.Context, string) (domain.Identity, error) {
	return f.identity, f.err
}
