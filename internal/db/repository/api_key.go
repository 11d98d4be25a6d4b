package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sqlagent/internal/domain"
)

// APIKeyRepo implements middleware.APIKeyLookup over the history store.
type APIKeyRepo struct {
	db *sql.DB
}

// NewAPIKeyRepo creates a new APIKeyRepo.
func NewAPIKeyRepo(db *sql.DB) *APIKeyRepo {
	return &APIKeyRepo{db: db}
}

// Insert stores an API key record. Only the hash is persisted.
func (r *APIKeyRepo) Insert(ctx context.Context, key *domain.APIKey) error {
	if key.ID == "" {
		key.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (id, principal_name, key_hash) VALUES (?, ?, ?)`,
		key.ID, key.PrincipalName, key.KeyHash,
	)
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// LookupPrincipalByAPIKeyHash returns the principal name associated with the
// given API key hash.
func (r *APIKeyRepo) LookupPrincipalByAPIKeyHash(ctx context.Context, keyHash string) (string, error) {
	var principal string
	err := r.db.QueryRowContext(ctx,
		`SELECT principal_name FROM api_keys WHERE key_hash = ?`, keyHash,
	).Scan(&principal)
	if err == sql.ErrNoRows {
		return "", domain.ErrNotFound("api key not found")
	}
	if err != nil {
		return "", fmt.Errorf("lookup api key: %w", err)
	}
	return principal, nil
}

// List returns all stored API keys, newest first.
func (r *APIKeyRepo) List(ctx context.Context) ([]domain.APIKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, principal_name, key_hash, created_at FROM api_keys ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.APIKey
	for rows.Next() {
		var k domain.APIKey
		var createdAt string
		if err := rows.Scan(&k.ID, &k.PrincipalName, &k.KeyHash, &createdAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		k.CreatedAt, err = time.Parse(sqliteTimeFormat, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse api key created_at %q: %w", createdAt, err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Delete removes an API key by ID.
func (r *APIKeyRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrNotFound("api key %q not found", id)
	}
	return nil
}
