package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"sqlagent/internal/domain"
)

// APIKeyStore persists API key records.
type APIKeyStore interface {
	Insert(ctx context.Context, key *domain.APIKey) error
	List(ctx context.Context) ([]domain.APIKey, error)
	Delete(ctx context.Context, id string) error
}

// APIKeyService manages API keys for service principals.
type APIKeyService struct {
	repo APIKeyStore
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(repo APIKeyStore) *APIKeyService {
	return &APIKeyService{repo: repo}
}

// Create generates a new API key for the given principal. The raw key is
// returned once; only its SHA-256 hash is stored.
func (s *APIKeyService) Create(ctx context.Context, principalName string) (string, *domain.APIKey, error) {
	if principalName == "" {
		return "", nil, domain.ErrValidation("principal name is required")
	}

	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", nil, fmt.Errorf("generate key: %w", err)
	}
	rawKey := hex.EncodeToString(rawBytes)

	key := &domain.APIKey{
		PrincipalName: principalName,
		KeyHash:       HashAPIKey(rawKey),
	}
	if err := s.repo.Insert(ctx, key); err != nil {
		return "", nil, err
	}
	return rawKey, key, nil
}

// List returns the stored key records. Raw key material is never available.
func (s *APIKeyService) List(ctx context.Context) ([]domain.APIKey, error) {
	return s.repo.List(ctx)
}

// Delete removes an API key by ID.
func (s *APIKeyService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// HashAPIKey returns the hex SHA-256 digest used to store and look up keys.
func HashAPIKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}
