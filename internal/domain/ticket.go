package domain

import "time"

// TicketStatusOpen is the status a ticket is indexed with right after creation.
const TicketStatusOpen = "Open"

// Ticket is the local record of a ticket created in the remote tracker.
// The tracker owns Status; the local index owns ordering per requester.
type Ticket struct {
	ID          string
	RequesterID string
	Username    string
	Description string
	Severity    Severity
	Category    Category
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TicketDraft is what the orchestrator hands the ticket store for creation.
type TicketDraft struct {
	Summary     string
	Description string
	Severity    Severity
	Category    Category
	RequesterID string
}

// TicketSnapshot is the tracker's current view of a ticket.
type TicketSnapshot struct {
	ID       string
	Summary  string
	Status   string
	Priority string
	Severity string
}

// TicketPage is a bounded prefix of a requester's tickets plus the true total.
type TicketPage struct {
	Tickets []Ticket
	Total   int
	Limit   int
}

// Truncated reports whether the requester has more tickets than the page holds.
func (p TicketPage) Truncated() bool {
	return p.Total > len(p.Tickets)
}
