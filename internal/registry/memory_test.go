package registry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-triage/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newOffer(id, owner string) domain.EscalationOffer {
	return domain.EscalationOffer{
		OfferID: id,
		OwnerID: owner,
		Issue:   domain.IssueReport{RawText: "drum squeaks", RequesterID: owner},
		Classification: domain.Classification{
			Action:   domain.ActionResolve,
			Guidance: "Check the drum bearings.",
			Severity: domain.SeverityLow,
			Category: domain.CategoryMechanical,
			Urgency:  domain.UrgencyNormal,
		},
	}
}

type offerStore interface {
	Register(ctx context.Context, offer domain.EscalationOffer) (domain.EscalationOffer, error)
}

func register(t *testing.T, offers offerStore, offer domain.EscalationOffer) domain.EscalationOffer {
	t.Helper()
	stored, err := offers.Register(context.Background(), offer)
	require.NoError(t, err)
	return stored
}

func TestMemoryConsumeOnce(t *testing.T) {
	ctx := context.Background()
	offers := NewMemoryOffers(time.Hour, 0, nil)
	register(t, offers, newOffer("o1", "alice"))

	got, err := offers.Consume(ctx, "o1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "drum squeaks", got.Issue.RawText)
	assert.Equal(t, domain.CategoryMechanical, got.Classification.Category)

	_, err = offers.Consume(ctx, "o1", "alice")
	assert.ErrorIs(t, err, ErrOfferNotFound)
}

func TestMemoryNotOwnerKeepsOffer(t *testing.T) {
	ctx := context.Background()
	offers := NewMemoryOffers(time.Hour, 0, nil)
	register(t, offers, newOffer("o1", "alice"))

	_, err := offers.Consume(ctx, "o1", "mallory")
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, 1, offers.Len())

	_, err = offers.Consume(ctx, "o1", "alice")
	assert.NoError(t, err)
}

func TestMemoryRejectsInvalidOffer(t *testing.T) {
	offers := NewMemoryOffers(0, 0, nil)
	_, err := offers.Register(context.Background(), newOffer("", "alice"))
	assert.ErrorIs(t, err, ErrInvalidOffer)
	_, err = offers.Register(context.Background(), newOffer("o1", ""))
	assert.ErrorIs(t, err, ErrInvalidOffer)
}

func TestMemoryConcurrentConsumeSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	offers := NewMemoryOffers(time.Hour, 0, nil)
	register(t, offers, newOffer("o1", "alice"))

	var wins, misses atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := offers.Consume(ctx, "o1", "alice")
			switch err {
			case nil:
				wins.Add(1)
			case ErrOfferNotFound:
				misses.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(31), misses.Load())
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	offers := NewMemoryOffers(time.Hour, 0, clock.Now)

	register(t, offers, newOffer("o1", "alice"))
	clock.Advance(30 * time.Minute)
	register(t, offers, newOffer("o2", "alice"))

	clock.Advance(45 * time.Minute)
	_, err := offers.Consume(ctx, "o1", "alice")
	assert.ErrorIs(t, err, ErrOfferNotFound)

	assert.Equal(t, 0, offers.Sweep(clock.Now()))
	assert.Equal(t, 1, offers.Sweep(clock.Now().Add(time.Hour)))
	assert.Equal(t, 0, offers.Len())
}

func TestMemoryRegisterReturnsStampedOffer(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	offers := NewMemoryOffers(time.Hour, 0, clock.Now)

	stored := register(t, offers, newOffer("o1", "alice"))
	assert.Equal(t, clock.Now(), stored.CreatedAt)
	assert.Equal(t, clock.Now().Add(time.Hour), stored.ExpiresAt)

	got, err := offers.Consume(context.Background(), "o1", "alice")
	require.NoError(t, err)
	assert.Equal(t, stored.ExpiresAt, got.ExpiresAt)
}

func TestMemoryEvictsOldestWhenFull(t *testing.T) {
	ctx := context.Background()
	offers := NewMemoryOffers(0, 3, nil)
	for i := 1; i <= 5; i++ {
		register(t, offers, newOffer(fmt.Sprintf("o%d", i), "alice"))
	}

	assert.Equal(t, 3, offers.Len())
	for _, gone := range []string{"o1", "o2"} {
		_, err := offers.Consume(ctx, gone, "alice")
		assert.ErrorIs(t, err, ErrOfferNotFound, gone)
	}
	for _, kept := range []string{"o3", "o4", "o5"} {
		_, err := offers.Consume(ctx, kept, "alice")
		assert.NoError(t, err, kept)
	}
}

func TestMemoryLatest(t *testing.T) {
	ctx := context.Background()
	latest := NewMemoryLatest()

	_, ok, err := latest.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, latest.Set(ctx, "alice", "T-1"))
	require.NoError(t, latest.Set(ctx, "alice", "T-2"))
	id, ok, err := latest.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "T-2", id)
}
