package repo

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"studio/internal/domain"
	"studio/internal/sqlinline"
)

func profileRow(id string, credits int) scanFunc {
	return func(dest ...any) error {
		*dest[0].(*string) = id
		*dest[1].(*string) = "a@example.com"
		*dest[2].(*string) = "Ana"
		*dest[3].(*string) = "ana"
		*dest[4].(*int) = credits
		*dest[5].(*time.Time) = time.Unix(1700000000, 0).UTC()
		return nil
	}
}

func balanceRow(v int) scanFunc {
	return func(dest ...any) error {
		*dest[0].(*int) = v
		return nil
	}
}

func TestProfileGet(t *testing.T) {
	sql := newStubSQL().on(sqlinline.QSelectProfile, profileRow("u1", 7))
	acct, err := NewProfileRepository(sql).Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if acct.ID != "u1" || acct.Credits != 7 || acct.Handle != "ana" {
		t.Fatalf("Get() = %+v", acct)
	}
}

func TestProfileGetErrors(t *testing.T) {
	tests := []struct {
		name string
		row  scanFunc
		want error
	}{
		{name: "missing", row: nil, want: domain.ErrNotFound},
		{name: "offline", row: fail(&net.OpError{Op: "dial", Err: errors.New("refused")}), want: domain.ErrUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sql := newStubSQL()
			if tc.row != nil {
				sql.on(sqlinline.QSelectProfile, tc.row)
			}
			_, err := NewProfileRepository(sql).Get(context.Background(), "u1")
			if !errors.Is(err, tc.want) {
				t.Fatalf("Get() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestProfileCreateIfAbsent(t *testing.T) {
	sql := newStubSQL()
	acct := domain.UserAccount{ID: "u1", Email: "a@example.com", Credits: domain.StartingCredits}
	if err := NewProfileRepository(sql).CreateIfAbsent(context.Background(), acct); err != nil {
		t.Fatalf("CreateIfAbsent() error: %v", err)
	}
	if len(sql.calls) != 1 || sql.calls[0].query != sqlinline.QInsertProfileIfAbsent {
		t.Fatalf("calls = %+v", sql.calls)
	}
	if got := sql.calls[0].args[4]; got != domain.StartingCredits {
		t.Fatalf("credits arg = %v, want %d", got, domain.StartingCredits)
	}
}

func TestAdjustCredits(t *testing.T) {
	t.Run("applied", func(t *testing.T) {
		sql := newStubSQL().on(sqlinline.QAdjustCredits, balanceRow(4))
		if err := NewProfileRepository(sql).AdjustCredits(context.Background(), "u1", -1); err != nil {
			t.Fatalf("AdjustCredits() error: %v", err)
		}
		if args := sql.calls[0].args; args[0] != "u1" || args[1] != -1 {
			t.Fatalf("args = %v", args)
		}
	})
	t.Run("insufficient", func(t *testing.T) {
		sql := newStubSQL().on(sqlinline.QSelectProfile, profileRow("u1", 0))
		err := NewProfileRepository(sql).AdjustCredits(context.Background(), "u1", -1)
		if !errors.Is(err, domain.ErrInsufficientCredits) {
			t.Fatalf("AdjustCredits() error = %v, want ErrInsufficientCredits", err)
		}
	})
	t.Run("missing profile", func(t *testing.T) {
		sql := newStubSQL()
		err := NewProfileRepository(sql).AdjustCredits(context.Background(), "u1", 5)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("AdjustCredits() error = %v, want ErrNotFound", err)
		}
	})
}
