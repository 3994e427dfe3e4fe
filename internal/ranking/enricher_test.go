package ranking_test

import (
	"context"
	"testing"

	"github.com/2beens/fitrank/internal/docstore"
	"github.com/2beens/fitrank/internal/ranking"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileEnricher_Profile(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemStore()
	enricher := ranking.NewProfileEnricher(store, 1, 60)

	name := gofakeit.Username()
	avatar := gofakeit.URL()
	require.NoError(t, store.Set(ctx, docstore.CollectionUsers, "user-a", map[string]any{
		"displayName": name,
		"avatarUrl":   avatar,
		"email":       gofakeit.Email(),
	}))
	require.NoError(t, store.Set(ctx, docstore.CollectionUsers, "user-b", map[string]any{
		"email": gofakeit.Email(),
	}))

	p, err := enricher.Profile(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, name, p.DisplayName)
	require.NotNil(t, p.AvatarURL)
	assert.Equal(t, avatar, *p.AvatarURL)

	// served from the cache after the first read
	require.NoError(t, store.Set(ctx, docstore.CollectionUsers, "user-a", map[string]any{"displayName": "renamed"}))
	p, err = enricher.Profile(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, name, p.DisplayName)

	p, err = enricher.Profile(ctx, "user-b")
	require.NoError(t, err)
	assert.Equal(t, "Anonymous", p.DisplayName)
	assert.Nil(t, p.AvatarURL)

	_, err = enricher.Profile(ctx, "user-missing")
	assert.ErrorIs(t, err, ranking.ErrProfileNotFound)
}
