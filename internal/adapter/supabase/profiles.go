package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	supa "github.com/supabase-community/supabase-go"

	"studio/internal/domain"
)

const profilesTable = "profiles"

type profileRow struct {
	ID          string    `json:"id"`
	Email       *string   `json:"email"`
	DisplayName *string   `json:"display_name"`
	Handle      *string   `json:"handle"`
	Credits     int       `json:"credits"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProfileStore implements domain.ProfileStore over PostgREST.
type ProfileStore struct {
	client *supa.Client
}

// NewProfileStore wraps a Supabase client.
func NewProfileStore(client *supa.Client) *ProfileStore {
	return &ProfileStore{client: client}
}

func (s *ProfileStore) Get(ctx context.Context, id string) (*domain.UserAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _, err := s.client.From(profilesTable).
		Select("id,email,display_name,handle,credits,created_at", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, classify(err)
	}
	var rows []profileRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	r := rows[0]
	return &domain.UserAccount{
		ID:          r.ID,
		Email:       deref(r.Email),
		DisplayName: deref(r.DisplayName),
		Handle:      deref(r.Handle),
		Credits:     r.Credits,
		CreatedAt:   r.CreatedAt,
	}, nil
}

// CreateIfAbsent inserts the profile; an existing row is left untouched.
func (s *ProfileStore) CreateIfAbsent(ctx context.Context, acct domain.UserAccount) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := map[string]any{
		"id":      acct.ID,
		"credits": acct.Credits,
	}
	if acct.Email != "" {
		row["email"] = acct.Email
	}
	if acct.DisplayName != "" {
		row["display_name"] = acct.DisplayName
	}
	if acct.Handle != "" {
		row["handle"] = acct.Handle
	}
	_, _, err := s.client.From(profilesTable).Insert(row, false, "", "minimal", "").Execute()
	if err != nil && isDuplicate(err) {
		return nil
	}
	return classify(err)
}

// AdjustCredits calls the adjust_credits RPC.
func (s *ProfileStore) AdjustCredits(ctx context.Context, id string, delta int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body := s.client.Rpc("adjust_credits", "", map[string]any{"p_user_id": id, "p_delta": delta})
	return rpcResult(body)
}

func rpcResult(body string) error {
	trimmed := strings.TrimSpace(body)
	if _, err := strconv.Atoi(trimmed); err == nil {
		return nil
	}
	var pgErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(trimmed), &pgErr); err == nil && pgErr.Message != "" {
		switch pgErr.Code {
		case "P0001":
			return domain.ErrInsufficientCredits
		case "P0002":
			return domain.ErrNotFound
		}
		return fmt.Errorf("adjust_credits: %s", pgErr.Message)
	}
	if trimmed == "" {
		return fmt.Errorf("%w: empty rpc response", domain.ErrUnavailable)
	}
	return fmt.Errorf("adjust_credits: unexpected response %q", trimmed)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return err
}

func isDuplicate(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ domain.ProfileStore = (*ProfileStore)(nil)
