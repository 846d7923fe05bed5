package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-triage/internal/domain"
)

func newRedisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisConsumeOnce(t *testing.T) {
	ctx := context.Background()
	_, client := newRedisClient(t)
	offers := NewRedisOffers(client, time.Hour, nil)

	register(t, offers, newOffer("o1", "alice"))

	got, err := offers.Consume(ctx, "o1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.OwnerID)
	assert.Equal(t, "Check the drum bearings.", got.Classification.Guidance)
	assert.Equal(t, domain.ActionResolve, got.Classification.Action)

	_, err = offers.Consume(ctx, "o1", "alice")
	assert.ErrorIs(t, err, ErrOfferNotFound)
}

func TestRedisNotOwnerKeepsOffer(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedisClient(t)
	offers := NewRedisOffers(client, time.Hour, nil)
	register(t, offers, newOffer("o1", "alice"))

	_, err := offers.Consume(ctx, "o1", "mallory")
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.True(t, mr.Exists(offerKeyPrefix+"o1"))

	_, err = offers.Consume(ctx, "o1", "alice")
	assert.NoError(t, err)
	assert.False(t, mr.Exists(offerKeyPrefix+"o1"))
}

func TestRedisOfferExpires(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedisClient(t)
	offers := NewRedisOffers(client, time.Minute, nil)
	register(t, offers, newOffer("o1", "alice"))

	assert.Equal(t, time.Minute, mr.TTL(offerKeyPrefix+"o1"))
	mr.FastForward(2 * time.Minute)

	_, err := offers.Consume(ctx, "o1", "alice")
	assert.ErrorIs(t, err, ErrOfferNotFound)
}

func TestRedisRegisterReturnsStampedOffer(t *testing.T) {
	_, client := newRedisClient(t)
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	offers := NewRedisOffers(client, time.Hour, func() time.Time { return now })

	stored := register(t, offers, newOffer("o1", "alice"))
	assert.Equal(t, now.Add(time.Hour), stored.ExpiresAt)

	got, err := offers.Consume(context.Background(), "o1", "alice")
	require.NoError(t, err)
	assert.True(t, stored.ExpiresAt.Equal(got.ExpiresAt))
}

func TestRedisConcurrentConsumeSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	_, client := newRedisClient(t)
	offers := NewRedisOffers(client, time.Hour, nil)
	register(t, offers, newOffer("o1", "alice"))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := offers.Consume(ctx, "o1", "alice"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestRedisLatest(t *testing.T) {
	ctx := context.Background()
	_, client := newRedisClient(t)
	latest := NewRedisLatest(client)

	_, ok, err := latest.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, latest.Set(ctx, "alice", "T-42"))
	id, ok, err := latest.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "T-42", id)
}
