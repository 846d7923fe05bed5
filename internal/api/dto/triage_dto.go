package dto

import (
	"time"

	"github.com/spec-kit/support-triage/internal/domain"
	"github.com/spec-kit/support-triage/internal/render"
)

// SubmitIssueRequest is one inbound chat message to triage.
type SubmitIssueRequest struct {
	RawText         string `json:"raw_text"`
	RequesterID     string `json:"requester_id"`
	RequesterName   string `json:"requester_name"`
	ConversationRef string `json:"conversation_ref"`
	MessageID       string `json:"message_id"`
}

// EscalateRequest names who activated the escalation affordance.
type EscalateRequest struct {
	RequesterID string `json:"requester_id"`
}

// ClassificationView exposes the triage decision.
type ClassificationView struct {
	Action   domain.Action   `json:"action"`
	Severity domain.Severity `json:"severity"`
	Category domain.Category `json:"category"`
	Urgency  domain.Urgency  `json:"urgency"`
}

// TicketView is the API shape of an indexed ticket.
type TicketView struct {
	TicketID    string          `json:"ticket_id"`
	RequesterID string          `json:"requester_id"`
	Username    string          `json:"username,omitempty"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	Severity    domain.Severity `json:"severity"`
	Category    domain.Category `json:"category"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TriageResponse answers issue submission and escalation.
type TriageResponse struct {
	Kind           string              `json:"kind"`
	OfferID        string              `json:"offer_id,omitempty"`
	Classification *ClassificationView `json:"classification,omitempty"`
	Ticket         *TicketView         `json:"ticket,omitempty"`
	Message        render.Message      `json:"message"`
}

// StatusResponse answers a status lookup.
type StatusResponse struct {
	TicketID string                 `json:"ticket_id"`
	Found    bool                   `json:"found"`
	Reason   string                 `json:"reason,omitempty"`
	Snapshot *domain.TicketSnapshot `json:"snapshot,omitempty"`
	Message  render.Message         `json:"message"`
}

// TicketListResponse answers a listing.
type TicketListResponse struct {
	Tickets   []TicketView   `json:"tickets"`
	Total     int            `json:"total"`
	Limit     int            `json:"limit"`
	Truncated bool           `json:"truncated"`
	Message   render.Message `json:"message"`
}

// NewTicketView converts a domain ticket.
func NewTicketView(t domain.Ticket) TicketView {
	return TicketView{
		TicketID:    t.ID,
		RequesterID: t.RequesterID,
		Username:    t.Username,
		Description: t.Description,
		Status:      t.Status,
		Severity:    t.Severity,
		Category:    t.Category,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// NewClassificationView converts a classification.
func NewClassificationView(c domain.Classification) *ClassificationView {
	return &ClassificationView{Action: c.Action, Severity: c.Severity, Category: c.Category, Urgency: c.Urgency}
}
