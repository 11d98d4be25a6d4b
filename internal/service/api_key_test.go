package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlagent/internal/domain"
)

type memKeyStore struct {
	keys []domain.APIKey
}

func (m *memKeyStore) Insert(ctx context.Context, key *domain.APIKey) error {
	m.keys = append(m.keys, *key)
	return nil
}

func (m *memKeyStore) List(ctx context.Context) ([]domain.APIKey, error) {
	return m.keys, nil
}

func (m *memKeyStore) Delete(ctx context.Context, id string) error {
	for i, k := range m.keys {
		if k.ID == id {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound("api key %q not found", id)
}

func TestAPIKeyService_Create(t *testing.T) {
	store := &memKeyStore{}
	svc := NewAPIKeyService(store)

	rawKey, key, err := svc.Create(context.Background(), "reporting-bot")
	require.NoError(t, err)
	assert.Len(t, rawKey, 64, "32 random bytes hex encoded")
	assert.Equal(t, "reporting-bot", key.PrincipalName)
	assert.Equal(t, HashAPIKey(rawKey), key.KeyHash)
	assert.NotContains(t, key.KeyHash, rawKey, "raw key is never stored")

	require.Len(t, store.keys, 1)
	assert.Equal(t, key.KeyHash, store.keys[0].KeyHash)
}

func TestAPIKeyService_CreateUniqueKeys(t *testing.T) {
	svc := NewAPIKeyService(&memKeyStore{})

	k1, _, err := svc.Create(context.Background(), "a")
	require.NoError(t, err)
	k2, _, err := svc.Create(context.Background(), "a")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestAPIKeyService_CreateRequiresPrincipal(t *testing.T) {
	svc := NewAPIKeyService(&memKeyStore{})

	_, _, err := svc.Create(context.Background(), "")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestAPIKeyService_DeleteUnknown(t *testing.T) {
	svc := NewAPIKeyService(&memKeyStore{})

	err := svc.Delete(context.Background(), "missing")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestHashAPIKey_Deterministic(t *testing.T) {
	assert.Equal(t, HashAPIKey("abc"), HashAPIKey("abc"))
	assert.NotEqual(t, HashAPIKey("abc"), HashAPIKey("abd"))
	assert.Len(t, HashAPIKey("abc"), 64)
}
