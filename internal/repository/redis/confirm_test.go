package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmationRepository_ConsumeMatching(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewConfirmationRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Issue(ctx, "product", "p1", "tok", 5*time.Minute))
	assert.Equal(t, 5*time.Minute, mr.TTL("confirm:product:p1"))

	ok, err := repo.Consume(ctx, "product", "p1", "tok")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, mr.Exists("confirm:product:p1"))

	ok, err = repo.Consume(ctx, "product", "p1", "tok")
	require.NoError(t, err)
	assert.False(t, ok, "token is single use")
}

func TestConfirmationRepository_WrongTokenKeepsPending(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewConfirmationRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Issue(ctx, "faq", "f1", "right", time.Minute))

	ok, err := repo.Consume(ctx, "faq", "f1", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, mr.Exists("confirm:faq:f1"))
}

func TestConfirmationRepository_ScopedByEntity(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewConfirmationRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Issue(ctx, "banner", "x", "tok", time.Minute))

	ok, err := repo.Consume(ctx, "category", "x", "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfirmationRepository_Expired(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewConfirmationRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Issue(ctx, "product", "p1", "tok", time.Minute))
	mr.FastForward(2 * time.Minute)

	ok, err := repo.Consume(ctx, "product", "p1", "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}
