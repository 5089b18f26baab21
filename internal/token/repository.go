package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"go-auth-api/internal/database"
)

// Repository is the Postgres-backed Store.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, t *Token) error {
	dbToken := &database.Token{
		TokenHash:   t.TokenHash,
		Type:        string(t.Type),
		UserID:      t.UserID,
		ExpiresAt:   t.ExpiresAt,
		Blacklisted: t.Blacklisted,
	}

	_, err := r.db.NewInsert().
		Model(dbToken).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	t.ID = dbToken.ID
	t.CreatedAt = dbToken.CreatedAt

	return nil
}

func (r *Repository) FindOne(ctx context.Context, q Query) (*Token, error) {
	dbToken := new(database.Token)

	query := r.db.NewSelect().Model(dbToken)
	applyQuery(query, q)

	if err := query.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	return mapDBTokenToModel(dbToken), nil
}

func (r *Repository) Delete(ctx context.Context, t *Token) error {
	result, err := r.db.NewDelete().
		Model((*database.Token)(nil)).
		Where("id = ?", t.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTokenNotFound
	}

	return nil
}

func (r *Repository) DeleteMany(ctx context.Context, q Query) (int64, error) {
	query := r.db.NewDelete().Model((*database.Token)(nil))
	applyDeleteQuery(query, q)

	result, err := query.Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return rowsAffected, nil
}

// CleanupExpiredTokens removes expired rows. Should be run periodically
// (e.g., via cron job); Redis needs no equivalent because TTLs expire keys.
func (r *Repository) CleanupExpiredTokens(ctx context.Context) error {
	_, err := r.db.NewDelete().
		Model((*database.Token)(nil)).
		Where("expires_at < NOW()").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup expired tokens: %w", err)
	}

	return nil
}

func applyQuery(query *bun.SelectQuery, q Query) {
	if q.TokenHash != "" {
		query.Where("token_hash = ?", q.TokenHash)
	}
	if q.Type != "" {
		query.Where("type = ?", string(q.Type))
	}
	if q.UserID != uuid.Nil {
		query.Where("user_id = ?", q.UserID)
	}
	if q.ExcludeBlacklisted {
		query.Where("blacklisted = ?", false)
	}
}

func applyDeleteQuery(query *bun.DeleteQuery, q Query) {
	if q.TokenHash != "" {
		query.Where("token_hash = ?", q.TokenHash)
	}
	if q.Type != "" {
		query.Where("type = ?", string(q.Type))
	}
	if q.UserID != uuid.Nil {
		query.Where("user_id = ?", q.UserID)
	}
	if q.ExcludeBlacklisted {
		query.Where("blacklisted = ?", false)
	}
}

func mapDBTokenToModel(dbt *database.Token) *Token {
	return &Token{
		ID:          dbt.ID,
		TokenHash:   dbt.TokenHash,
		Type:        Type(dbt.Type),
		UserID:      dbt.UserID,
		ExpiresAt:   dbt.ExpiresAt,
		Blacklisted: dbt.Blacklisted,
		CreatedAt:   dbt.CreatedAt,
	}
}
