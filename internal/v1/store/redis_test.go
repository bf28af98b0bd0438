package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	svc, err := NewService(mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, mr
}

func TestNewService_UnreachableRedis(t *testing.T) {
	_, err := NewService("127.0.0.1:1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestAddAndSample(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "pizza", "🍕"))

	entries, err := svc.Sample(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "pizza", entries[0].Text)
	assert.Equal(t, "🍕", entries[0].Emoji)
}

func TestSample_MultipleEntries(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "pizza", "🍕"))
	require.NoError(t, svc.Add(ctx, "sushi", "🍣"))
	require.NoError(t, svc.Add(ctx, "tacos", "🌮"))

	entries, err := svc.Sample(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// Asking for more than the catalog holds returns everything.
	entries, err = svc.Sample(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestAdd_DuplicatesCollapse(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "pizza", "🍕"))
	require.NoError(t, svc.Add(ctx, "pizza", "🍕"))
	require.NoError(t, svc.Add(ctx, "sushi", "🍣"))

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSample_EmptyCatalog(t *testing.T) {
	svc, _ := newTestService(t)

	entries, err := svc.Sample(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPing(t *testing.T) {
	svc, mr := newTestService(t)

	require.NoError(t, svc.Ping(context.Background()))

	mr.Close()
	assert.Error(t, svc.Ping(context.Background()))
}

func TestNilService_DegradesGracefully(t *testing.T) {
	var svc *Service
	ctx := context.Background()

	assert.NoError(t, svc.Add(ctx, "pizza", "🍕"))

	entries, err := svc.Sample(ctx, 1)
	assert.NoError(t, err)
	assert.Empty(t, entries)

	n, err := svc.Count(ctx)
	assert.NoError(t, err)
	assert.Zero(t, n)

	assert.NoError(t, svc.Ping(ctx))
	assert.NoError(t, svc.Close())
	assert.Nil(t, svc.Client())
}
