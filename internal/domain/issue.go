package domain

import "time"

// IssueReport is one free-text support request plus its routing metadata.
type IssueReport struct {
	RawText         string
	RequesterID     string
	RequesterName   string
	ConversationRef string
	MessageID       string
}

// EscalationOffer is a pending, single-use invitation to turn inline guidance into a ticket.
// Only OwnerID may consume it.
type EscalationOffer struct {
	OfferID        string
	OwnerID        string
	Issue          IssueReport
	Classification Classification
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// Expired reports whether the offer can no longer be redeemed at now.
// A zero ExpiresAt never expires.
func (o EscalationOffer) Expired(now time.Time) bool {
	return !o.ExpiresAt.IsZero() && !now.Before(o.ExpiresAt)
}
