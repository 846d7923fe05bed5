package repository

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/spec-kit/support-triage/internal/domain"
)

// ErrTicketNotFound is returned when the index holds no row for a ticket id.
var ErrTicketNotFound = errors.New("ticket not indexed")

// TicketIndex is the durable per-requester ticket history.
// Rows are keyed by the tracker-assigned ticket id and listed newest first.
type TicketIndex interface {
	// Save upserts ticket. An existing row keeps its original created_at.
	Save(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, ticketID string) (*domain.Ticket, error)
	// ListByUser returns tickets ordered by created_at DESC, ticket_id DESC.
	// A non-positive limit means no bound.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	UpdateStatus(ctx context.Context, ticketID, status string, updatedAt time.Time) error
	Ping(ctx context.Context) error
}

// Walk lazily yields every ticket of userID, newest first, fetching pageSize
// rows at a time. Stopping early issues no further queries.
func Walk(ctx context.Context, index TicketIndex, userID string, pageSize int) iter.Seq2[domain.Ticket, error] {
	if pageSize <= 0 {
		pageSize = 50
	}
	return func(yield func(domain.Ticket, error) bool) {
		offset := 0
		for {
			page, err := index.ListByUser(ctx, userID, pageSize, offset)
			if err != nil {
				yield(domain.Ticket{}, err)
				return
			}
			for _, t := range page {
				if !yield(t, nil) {
					return
				}
			}
			if len(page) < pageSize {
				return
			}
			offset += len(page)
		}
	}
}

// prepareForSave fills the defaults a freshly created ticket is indexed with.
func prepareForSave(ticket *domain.Ticket) {
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	ticket.CreatedAt = ticket.CreatedAt.UTC()
	if ticket.UpdatedAt.IsZero() {
		ticket.UpdatedAt = ticket.CreatedAt
	}
	ticket.UpdatedAt = ticket.UpdatedAt.UTC()
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusOpen
	}
	if ticket.Severity == "" {
		ticket.Severity = domain.SeverityMedium
	}
	if ticket.Category == "" {
		ticket.Category = domain.CategoryOther
	}
}
