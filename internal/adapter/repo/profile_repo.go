package repo

import (
	"context"
	"fmt"
	"time"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// ProfileRepositoryPG implements domain.ProfileStore backed by PostgreSQL.
type ProfileRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewProfileRepository creates a new ProfileRepositoryPG.
func NewProfileRepository(sql infra.SQLExecutor) *ProfileRepositoryPG {
	return &ProfileRepositoryPG{sql: sql}
}

// Get fetches a profile by account id.
func (r *ProfileRepositoryPG) Get(ctx context.Context, id string) (*domain.UserAccount, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectProfile, id)
	var acct domain.UserAccount
	var createdAt time.Time
	if err := row.Scan(&acct.ID, &acct.Email, &acct.DisplayName, &acct.Handle, &acct.Credits, &createdAt); err != nil {
		return nil, mapErr(err)
	}
	acct.CreatedAt = createdAt
	return &acct, nil
}

// CreateIfAbsent inserts the profile unless one already exists for the id.
func (r *ProfileRepositoryPG) CreateIfAbsent(ctx context.Context, acct domain.UserAccount) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertProfileIfAbsent,
		acct.ID,
		acct.Email,
		acct.DisplayName,
		acct.Handle,
		acct.Credits,
	)
	return mapErr(err)
}

// AdjustCredits applies delta relative to the stored balance.
func (r *ProfileRepositoryPG) AdjustCredits(ctx context.Context, id string, delta int) error {
	var balance int
	err := r.sql.QueryRow(ctx, sqlinline.QAdjustCredits, id, delta).Scan(&balance)
	if err == nil {
		return nil
	}
	if !infra.IsNoRows(err) {
		return mapErr(err)
	}
	if _, getErr := r.Get(ctx, id); getErr != nil {
		return getErr
	}
	return domain.ErrInsufficientCredits
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case infra.IsNoRows(err):
		return domain.ErrNotFound
	case infra.IsConnectivity(err):
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	default:
		return err
	}
}

var _ domain.ProfileStore = (*ProfileRepositoryPG)(nil)
