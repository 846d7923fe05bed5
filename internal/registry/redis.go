package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/support-triage/internal/domain"
)

const (
	offerKeyPrefix  = "triage:offer:"
	latestKeyPrefix = "triage:latest:"
)

// consumeScript returns {0} when the offer is absent, {2} when the caller is
// not the owner, and {1, payload} after deleting the offer.
var consumeScript = redis.NewScript(`
local owner = redis.call('HGET', KEYS[1], 'owner')
if not owner then
  return {0}
end
if owner ~= ARGV[1] then
  return {2}
end
local payload = redis.call('HGET', KEYS[1], 'payload')
redis.call('DEL', KEYS[1])
return {1, payload}
`)

// RedisOffers keeps offers as Redis hashes that expire natively, so several
// server processes can share one registry.
type RedisOffers struct {
	client redis.Cmdable
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisOffers builds a Redis-backed registry. A nil clock uses time.Now.
func NewRedisOffers(client redis.Cmdable, ttl time.Duration, clock func() time.Time) *RedisOffers {
	if clock == nil {
		clock = time.Now
	}
	return &RedisOffers{client: client, ttl: ttl, now: clock}
}

// Register stores offer, replacing any offer with the same id, and returns
// the stored copy with its creation and expiry times filled in.
func (r *RedisOffers) Register(ctx context.Context, offer domain.EscalationOffer) (domain.EscalationOffer, error) {
	if offer.OfferID == "" || offer.OwnerID == "" {
		return domain.EscalationOffer{}, ErrInvalidOffer
	}
	stampOffer(&offer, r.now(), r.ttl)

	payload, err := json.Marshal(offer)
	if err != nil {
		return domain.EscalationOffer{}, fmt.Errorf("encode offer: %w", err)
	}

	key := offerKeyPrefix + offer.OfferID
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "owner", offer.OwnerID, "payload", payload)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return domain.EscalationOffer{}, fmt.Errorf("register offer: %w", err)
	}
	return offer, nil
}

// Consume runs the check-owner-and-delete script.
func (r *RedisOffers) Consume(ctx context.Context, offerID, requesterID string) (*domain.EscalationOffer, error) {
	res, err := consumeScript.Run(ctx, r.client, []string{offerKeyPrefix + offerID}, requesterID).Slice()
	if err != nil {
		return nil, fmt.Errorf("consume offer: %w", err)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("consume offer: empty script reply")
	}

	switch code, _ := res[0].(int64); code {
	case 0:
		return nil, ErrOfferNotFound
	case 2:
		return nil, ErrNotOwner
	}

	if len(res) < 2 {
		return nil, fmt.Errorf("consume offer: missing payload")
	}
	raw, _ := res[1].(string)
	var offer domain.EscalationOffer
	if err := json.Unmarshal([]byte(raw), &offer); err != nil {
		return nil, fmt.Errorf("decode offer: %w", err)
	}
	if offer.Expired(r.now()) {
		return nil, ErrOfferNotFound
	}
	return &offer, nil
}

// RedisLatest stores the latest ticket pointer as one plain key per requester.
type RedisLatest struct {
	client redis.Cmdable
}

// NewRedisLatest builds a Redis-backed pointer table.
func NewRedisLatest(client redis.Cmdable) *RedisLatest {
	return &RedisLatest{client: client}
}

// Set records ticketID as the requester's most recent ticket.
func (r *RedisLatest) Set(ctx context.Context, requesterID, ticketID string) error {
	return r.client.Set(ctx, latestKeyPrefix+requesterID, ticketID, 0).Err()
}

// Get reports the requester's most recent ticket id, if any.
func (r *RedisLatest) Get(ctx context.Context, requesterID string) (string, bool, error) {
	id, err := r.client.Get(ctx, latestKeyPrefix+requesterID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}
