package registry

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/spec-kit/support-triage/internal/domain"
)

// MemoryOffers is a process-local offer table bounded by a TTL and a size cap.
// When full, the oldest offer is evicted.
type MemoryOffers struct {
	mu         sync.Mutex
	offers     map[string]*list.Element
	order      *list.List
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemoryOffers builds an in-memory registry. A zero ttl or maxEntries
// disables that bound. A nil clock uses time.Now.
func NewMemoryOffers(ttl time.Duration, maxEntries int, clock func() time.Time) *MemoryOffers {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryOffers{
		offers:     make(map[string]*list.Element),
		order:      list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        clock,
	}
}

// Register stores offer, replacing any offer with the same id, and returns
// the stored copy with its creation and expiry times filled in.
func (m *MemoryOffers) Register(_ context.Context, offer domain.EscalationOffer) (domain.EscalationOffer, error) {
	if offer.OfferID == "" || offer.OwnerID == "" {
		return domain.EscalationOffer{}, ErrInvalidOffer
	}
	stampOffer(&offer, m.now(), m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.offers[offer.OfferID]; ok {
		m.order.Remove(el)
	}
	m.offers[offer.OfferID] = m.order.PushBack(offer)

	for m.maxEntries > 0 && m.order.Len() > m.maxEntries {
		oldest := m.order.Front()
		m.order.Remove(oldest)
		delete(m.offers, oldest.Value.(domain.EscalationOffer).OfferID)
	}
	return offer, nil
}

// Consume atomically checks ownership and removes the offer.
func (m *MemoryOffers) Consume(_ context.Context, offerID, requesterID string) (*domain.EscalationOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.offers[offerID]
	if !ok {
		return nil, ErrOfferNotFound
	}
	offer := el.Value.(domain.EscalationOffer)
	if offer.Expired(m.now()) {
		m.order.Remove(el)
		delete(m.offers, offerID)
		return nil, ErrOfferNotFound
	}
	if offer.OwnerID != requesterID {
		return nil, ErrNotOwner
	}

	m.order.Remove(el)
	delete(m.offers, offerID)
	return &offer, nil
}

// Sweep drops every offer expired at now and reports how many were removed.
func (m *MemoryOffers) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for el := m.order.Front(); el != nil; {
		next := el.Next()
		offer := el.Value.(domain.EscalationOffer)
		if offer.Expired(now) {
			m.order.Remove(el)
			delete(m.offers, offer.OfferID)
			removed++
		}
		el = next
	}
	return removed
}

// Len reports the number of offers currently held, expired or not.
func (m *MemoryOffers) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// MemoryLatest maps requesters to their most recent ticket id.
type MemoryLatest struct {
	mu     sync.RWMutex
	latest map[string]string
}

// NewMemoryLatest builds an empty pointer table.
func NewMemoryLatest() *MemoryLatest {
	return &MemoryLatest{latest: make(map[string]string)}
}

// Set records ticketID as the requester's most recent ticket.
func (m *MemoryLatest) Set(_ context.Context, requesterID, ticketID string) error {
	m.mu.Lock()
	m.latest[requesterID] = ticketID
	m.mu.Unlock()
	return nil
}

// Get reports the requester's most recent ticket id, if any.
func (m *MemoryLatest) Get(_ context.Context, requesterID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.latest[requesterID]
	return id, ok, nil
}

func stampOffer(offer *domain.EscalationOffer, now time.Time, ttl time.Duration) {
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = now
	}
	if offer.ExpiresAt.IsZero() && ttl > 0 {
		offer.ExpiresAt = offer.CreatedAt.Add(ttl)
	}
}
