package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type scanFunc func(dest ...any) error

type stubRow struct{ scan scanFunc }

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type call struct {
	query string
	args  []any
}

// stubSQL answers QueryRow by query constant and records every call.
type stubSQL struct {
	rows    map[string][]scanFunc
	execErr error
	calls   []call
}

func newStubSQL() *stubSQL {
	return &stubSQL{rows: map[string][]scanFunc{}}
}

func (s *stubSQL) on(query string, fn scanFunc) *stubSQL {
	s.rows[query] = append(s.rows[query], fn)
	return s
}

func (s *stubSQL) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.calls = append(s.calls, call{query: query, args: args})
	return pgconn.NewCommandTag("UPDATE 1"), s.execErr
}

func (s *stubSQL) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.calls = append(s.calls, call{query: query, args: args})
	queue := s.rows[query]
	if len(queue) == 0 {
		return stubRow{}
	}
	fn := queue[0]
	if len(queue) > 1 {
		s.rows[query] = queue[1:]
	}
	return stubRow{scan: fn}
}

func fail(err error) scanFunc {
	return func(...any) error { return err }
}
