package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"studio/internal/domain"
)

// Options configures a Manager.
type Options struct {
	MaxProducts      int
	HostKeySelection bool
	Now              func() time.Time
	NewID            func() string
}

// Manager creates sessions and serialises updates to each one within this
// process.
type Manager struct {
	store            Store
	maxProducts      int
	hostKeySelection bool
	now              func() time.Time
	newID            func() string

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock is dropped from the table once nobody holds or waits for it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewManager(store Store, opts Options) *Manager {
	m := &Manager{
		store:            store,
		maxProducts:      opts.MaxProducts,
		hostKeySelection: opts.HostKeySelection,
		now:              opts.Now,
		newID:            opts.NewID,
		locks:            make(map[string]*sessionLock),
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	return m
}

// HostKeySelection reports whether a key must be selected per session.
func (m *Manager) HostKeySelection() bool { return m.hostKeySelection }

// Create starts a session with a fresh workspace. Without host key selection
// the server key is assumed usable.
func (m *Manager) Create(ctx context.Context, userID string) (*domain.Session, error) {
	now := m.now().UTC()
	sess := &domain.Session{
		ID:          m.newID(),
		UserID:      userID,
		KeySelected: !m.hostKeySelection,
		Workspace:   domain.NewWorkspace(m.maxProducts),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// Load returns the session if userID may see it. Sessions created signed-in
// belong to that user; anonymous ones to whoever holds the id.
func (m *Manager) Load(ctx context.Context, id, userID string) (*domain.Session, error) {
	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.UserID != "" && sess.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return sess, nil
}

// Update applies fn to the session and saves it. When fn fails nothing is
// saved.
func (m *Manager) Update(ctx context.Context, id, userID string, fn func(*domain.Session) error) (*domain.Session, error) {
	unlock := m.lock(id)
	defer unlock()

	sess, err := m.Load(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = m.now().UTC()
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

func (m *Manager) Delete(ctx context.Context, id, userID string) error {
	if _, err := m.Load(ctx, id, userID); err != nil {
		return err
	}
	return m.store.Delete(ctx, id)
}

func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sessionLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}
