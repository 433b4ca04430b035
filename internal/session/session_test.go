package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"studio/internal/domain"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	sess := &domain.Session{ID: "s1", Workspace: domain.NewWorkspace(0)}
	sess.Workspace.Products = []domain.NormalizedImage{{ID: "a", Payload: []byte{1, 2}, MIMEType: domain.MIMEPNG}}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	sess.Workspace.Products[0].ID = "mutated"

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Workspace.Products[0].ID != "a" {
		t.Fatalf("stored product id = %q, want %q", got.Workspace.Products[0].ID, "a")
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore(20 * time.Millisecond)
	if err := store.Save(context.Background(), &domain.Session{ID: "s1"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if _, err := store.Get(context.Background(), "s1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get(expired) error = %v, want ErrNotFound", err)
	}
}

func TestManagerCreate(t *testing.T) {
	tests := []struct {
		name         string
		hostKey      bool
		wantSelected bool
	}{
		{name: "no host capability", hostKey: false, wantSelected: true},
		{name: "host selection required", hostKey: true, wantSelected: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewManager(NewMemoryStore(time.Minute), Options{HostKeySelection: tc.hostKey, NewID: func() string { return "fixed" }})
			sess, err := m.Create(context.Background(), "u1")
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if sess.ID != "fixed" || sess.KeySelected != tc.wantSelected {
				t.Fatalf("Create() = %+v, want id fixed, key selected %v", sess, tc.wantSelected)
			}
			if sess.Workspace.Mode != domain.ModeAIModel || sess.Workspace.MaxProducts != domain.DefaultMaxProductImages {
				t.Fatalf("Create() workspace = %+v", sess.Workspace)
			}
		})
	}
}

func TestManagerOwnership(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(time.Minute), Options{})
	owned, _ := m.Create(ctx, "u1")
	anon, _ := m.Create(ctx, "")

	if _, err := m.Load(ctx, owned.ID, "u2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Load(other user) error = %v, want ErrNotFound", err)
	}
	if _, err := m.Load(ctx, owned.ID, "u1"); err != nil {
		t.Fatalf("Load(owner) error = %v", err)
	}
	if _, err := m.Load(ctx, anon.ID, "anyone"); err != nil {
		t.Fatalf("Load(anonymous session) error = %v", err)
	}
	if err := m.Delete(ctx, owned.ID, "u2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Delete(other user) error = %v, want ErrNotFound", err)
	}
}

func TestManagerUpdate(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(time.Minute), Options{})
	sess, _ := m.Create(ctx, "")

	_, err := m.Update(ctx, sess.ID, "", func(s *domain.Session) error {
		s.Workspace.SwitchMode(domain.ModeFlatLay)
		return errors.New("abort")
	})
	if err == nil {
		t.Fatal("Update() error = nil, want abort")
	}
	got, _ := m.Load(ctx, sess.ID, "")
	if got.Workspace.Mode != domain.ModeAIModel {
		t.Fatalf("mode after failed update = %q, want %q", got.Workspace.Mode, domain.ModeAIModel)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = m.Update(ctx, sess.ID, "", func(s *domain.Session) error {
				s.Workspace.Products = append(s.Workspace.Products, domain.NormalizedImage{ID: fmt.Sprint(i)})
				return nil
			})
		}(i)
	}
	wg.Wait()
	got, _ = m.Load(ctx, sess.ID, "")
	if len(got.Workspace.Products) != 20 {
		t.Fatalf("products after concurrent updates = %d, want 20", len(got.Workspace.Products))
	}
}

func TestManagerReleasesSessionLocks(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	m := NewManager(store, Options{})
	sess, _ := m.Create(ctx, "")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Update(ctx, sess.ID, "", func(*domain.Session) error { return nil })
		}()
	}
	wg.Wait()

	// A session that is already gone from the store still releases its lock.
	_ = store.Delete(ctx, sess.ID)
	if _, err := m.Update(ctx, sess.ID, "", func(*domain.Session) error { return nil }); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Update(expired) error = %v, want ErrNotFound", err)
	}

	m.mu.Lock()
	n := len(m.locks)
	m.mu.Unlock()
	if n != 0 {
		t.Fatalf("locks held after updates = %d, want 0", n)
	}
}

func TestRedisStoreUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	store := NewRedisStore(client, time.Minute)

	if _, err := store.Get(context.Background(), "s1"); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("Get() error = %v, want ErrUnavailable", err)
	}
	if err := store.Save(context.Background(), &domain.Session{ID: "s1"}); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("Save() error = %v, want ErrUnavailable", err)
	}
}
