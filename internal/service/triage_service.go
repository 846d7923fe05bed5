package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-triage/internal/domain"
	"github.com/spec-kit/support-triage/internal/events"
	"github.com/spec-kit/support-triage/internal/observability"
	"github.com/spec-kit/support-triage/internal/registry"
	"github.com/spec-kit/support-triage/internal/repository"
	"github.com/spec-kit/support-triage/internal/tracker"
	apperrors "github.com/spec-kit/support-triage/pkg/util"
)

// DefaultTicketLimit bounds ticket listings when the caller gives no limit.
const DefaultTicketLimit = 5

// Triage outcomes recorded in metrics.
const (
	OutcomeGuidance             = "guidance"
	OutcomeTicketCreated        = "ticket_created"
	OutcomeTicketCreationFailed = "ticket_creation_failed"
	OutcomeEscalated            = "escalated"
	OutcomeOfferRejected        = "offer_rejected"
)

// Classifier turns raw issue text into a triage decision. It never fails.
type Classifier interface {
	Classify(ctx context.Context, rawText string) domain.Classification
}

// TicketStore creates and reads tickets in the remote tracker.
type TicketStore interface {
	CreateTicket(ctx context.Context, draft domain.TicketDraft) (string, error)
	GetTicketStatus(ctx context.Context, ticketID string) (*domain.TicketSnapshot, error)
}

// OfferRegistry holds pending escalation offers. Consume is an atomic
// check-owner-and-delete.
type OfferRegistry interface {
	// Register returns the offer as stored, with its expiry set.
	Register(ctx context.Context, offer domain.EscalationOffer) (domain.EscalationOffer, error)
	Consume(ctx context.Context, offerID, requesterID string) (*domain.EscalationOffer, error)
}

// LatestPointer caches each requester's most recent ticket id.
type LatestPointer interface {
	Set(ctx context.Context, requesterID, ticketID string) error
	Get(ctx context.Context, requesterID string) (string, bool, error)
}

// ResultKind enumerates orchestrator outcomes.
type ResultKind string

const (
	ResultGuidance             ResultKind = "guidance"
	ResultTicketCreated        ResultKind = "ticket_created"
	ResultTicketCreationFailed ResultKind = "ticket_creation_failed"
)

// Guidance is inline troubleshooting text. OfferID is empty when no
// escalation offer could be registered.
type Guidance struct {
	Text     string
	Severity domain.Severity
	Category domain.Category
	OfferID  string
}

// TriageResult is the outcome of Handle or Escalate.
type TriageResult struct {
	Kind           ResultKind
	Classification domain.Classification
	Guidance       *Guidance
	Ticket         *domain.Ticket
}

// StatusReason explains a missing status.
type StatusReason string

const (
	StatusReasonNotFound    StatusReason = "not_found"
	StatusReasonUnavailable StatusReason = "unavailable"
)

// StatusResult is the outcome of StatusOf. Callers treat !Found as "not
// found" regardless of Reason.
type StatusResult struct {
	TicketID string
	Found    bool
	Snapshot *domain.TicketSnapshot
	Reason   StatusReason
}

// TriageDependencies bundles collaborators for the triage service.
type TriageDependencies struct {
	Classifier Classifier
	Store      TicketStore
	Index      repository.TicketIndex
	Offers     OfferRegistry
	Latest     LatestPointer
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
	NewID      func() string
}

// TriageService coordinates classification, escalation offers and the ticket lifecycle.
type TriageService struct {
	classifier Classifier
	store      TicketStore
	index      repository.TicketIndex
	offers     OfferRegistry
	latest     LatestPointer
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
}

// NewTriageService wires the service.
func NewTriageService(deps TriageDependencies) *TriageService {
	svc := &TriageService{
		classifier: deps.Classifier,
		store:      deps.Store,
		index:      deps.Index,
		offers:     deps.Offers,
		latest:     deps.Latest,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Clock,
		newID:      deps.NewID,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.newID == nil {
		svc.newID = uuid.NewString
	}
	return svc
}

// Handle triages one issue report.
func (s *TriageService) Handle(ctx context.Context, issue domain.IssueReport) (*TriageResult, error) {
	if strings.TrimSpace(issue.RequesterID) == "" {
		return nil, apperrors.NewValidationError("requester_id is required", nil)
	}

	classification := s.classifier.Classify(ctx, issue.RawText)
	s.logger.Info("issue classified",
		zap.String("requester_id", issue.RequesterID),
		zap.String("action", string(classification.Action)),
		zap.String("severity", string(classification.Severity)),
		zap.String("category", string(classification.Category)))

	if classification.Action == domain.ActionResolve {
		return s.offerGuidance(ctx, issue, classification), nil
	}
	return s.createTicket(ctx, issue, classification, false), nil
}

// Escalate turns a pending offer into a ticket. Only the offer's owner may do so,
// and each offer succeeds at most once.
func (s *TriageService) Escalate(ctx context.Context, offerID, requesterID string) (*TriageResult, error) {
	if strings.TrimSpace(offerID) == "" || strings.TrimSpace(requesterID) == "" {
		return nil, apperrors.NewValidationError("offer_id and requester_id are required", nil)
	}

	offer, err := s.offers.Consume(ctx, offerID, requesterID)
	switch {
	case errors.Is(err, registry.ErrOfferNotFound):
		s.metrics.RecordOutcome(OutcomeOfferRejected)
		s.logger.Info("escalation rejected: unknown offer", zap.String("offer_id", offerID))
		return nil, apperrors.NewUnknownOffer(offerID)
	case errors.Is(err, registry.ErrNotOwner):
		s.metrics.RecordOutcome(OutcomeOfferRejected)
		s.logger.Warn("escalation rejected: not owner",
			zap.String("offer_id", offerID), zap.String("requester_id", requesterID))
		return nil, apperrors.NewNotOwner(offerID)
	case err != nil:
		s.logger.Error("consume offer", zap.String("offer_id", offerID), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	s.metrics.RecordOutcome(OutcomeEscalated)
	event := events.New(events.EventEscalationConsumed, s.now())
	event.OfferID = offerID
	event.RequesterID = requesterID
	s.publish(ctx, event)

	issue := offer.Issue
	if issue.RequesterID == "" {
		issue.RequesterID = offer.OwnerID
	}
	return s.createTicket(ctx, issue, offer.Classification, true), nil
}

func (s *TriageService) offerGuidance(ctx context.Context, issue domain.IssueReport, c domain.Classification) *TriageResult {
	now := s.now()
	offer := domain.EscalationOffer{
		OfferID:        s.newID(),
		OwnerID:        issue.RequesterID,
		Issue:          issue,
		Classification: c,
		CreatedAt:      now,
	}

	guidance := &Guidance{Text: c.Guidance, Severity: c.Severity, Category: c.Category}
	if stored, err := s.offers.Register(ctx, offer); err != nil {
		s.logger.Error("register escalation offer", zap.String("requester_id", issue.RequesterID), zap.Error(err))
	} else {
		guidance.OfferID = stored.OfferID
		event := events.New(events.EventEscalationOffered, now)
		event.OfferID = stored.OfferID
		event.RequesterID = issue.RequesterID
		event.Payload = events.EscalationOfferedPayload{Category: c.Category, ExpiresAt: stored.ExpiresAt}
		s.publish(ctx, event)
	}

	s.metrics.RecordOutcome(OutcomeGuidance)
	return &TriageResult{Kind: ResultGuidance, Classification: c, Guidance: guidance}
}

func (s *TriageService) createTicket(ctx context.Context, issue domain.IssueReport, c domain.Classification, deferred bool) *TriageResult {
	draft := domain.TicketDraft{
		Summary:     TicketSummary(c),
		Description: ComposeDescription(issue, c),
		Severity:    c.Severity,
		Category:    c.Category,
		RequesterID: issue.RequesterID,
	}

	ticketID, err := s.store.CreateTicket(ctx, draft)
	if err != nil {
		s.logger.Error("ticket creation failed",
			zap.String("requester_id", issue.RequesterID), zap.Error(err))
		s.metrics.RecordOutcome(OutcomeTicketCreationFailed)
		event := events.New(events.EventTicketCreationFailed, s.now())
		event.RequesterID = issue.RequesterID
		event.Payload = events.TicketCreationFailedPayload{Severity: c.Severity, Category: c.Category, Reason: err.Error()}
		s.publish(ctx, event)
		return &TriageResult{Kind: ResultTicketCreationFailed, Classification: c}
	}

	now := s.now()
	ticket := &domain.Ticket{
		ID:          ticketID,
		RequesterID: issue.RequesterID,
		Username:    issue.RequesterName,
		Description: issue.RawText,
		Severity:    c.Severity,
		Category:    c.Category,
		Status:      domain.TicketStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// The tracker already holds the ticket; local write failures are logged only.
	if err := s.index.Save(ctx, ticket); err != nil {
		s.logger.Error("index ticket", zap.String("ticket_id", ticketID), zap.Error(err))
	}
	if err := s.latest.Set(ctx, issue.RequesterID, ticketID); err != nil {
		s.logger.Error("update latest ticket pointer", zap.String("ticket_id", ticketID), zap.Error(err))
	}

	s.metrics.RecordOutcome(OutcomeTicketCreated)
	event := events.New(events.EventTicketCreated, now)
	event.RequesterID = issue.RequesterID
	event.TicketID = ticketID
	event.Payload = events.TicketCreatedPayload{
		Summary:  draft.Summary,
		Severity: c.Severity,
		Category: c.Category,
		Urgency:  c.Urgency,
		Deferred: deferred,
	}
	s.publish(ctx, event)

	return &TriageResult{Kind: ResultTicketCreated, Classification: c, Ticket: ticket}
}

// StatusOf asks the tracker for a ticket's current state and refreshes the
// local row when it answers.
func (s *TriageService) StatusOf(ctx context.Context, ticketID string) (*StatusResult, error) {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return nil, apperrors.NewValidationError("ticket_id is required", nil)
	}

	snapshot, err := s.store.GetTicketStatus(ctx, ticketID)
	if err != nil {
		reason := StatusReasonUnavailable
		if errors.Is(err, tracker.ErrNotFound) {
			reason = StatusReasonNotFound
		}
		s.logger.Info("ticket status not found", zap.String("ticket_id", ticketID), zap.String("reason", string(reason)))
		return &StatusResult{TicketID: ticketID, Found: false, Reason: reason}, nil
	}

	now := s.now()
	if err := s.index.UpdateStatus(ctx, ticketID, snapshot.Status, now); err != nil && !errors.Is(err, repository.ErrTicketNotFound) {
		s.logger.Warn("refresh indexed status", zap.String("ticket_id", ticketID), zap.Error(err))
	}

	event := events.New(events.EventTicketStatusRefreshed, now)
	event.TicketID = ticketID
	event.Payload = events.TicketStatusRefreshedPayload{Status: snapshot.Status, Priority: snapshot.Priority}
	s.publish(ctx, event)

	return &StatusResult{TicketID: ticketID, Found: true, Snapshot: snapshot}, nil
}

// LatestTicketID returns the requester's most recent ticket, rebuilding the
// pointer from the index on a miss.
func (s *TriageService) LatestTicketID(ctx context.Context, requesterID string) (string, bool, error) {
	if strings.TrimSpace(requesterID) == "" {
		return "", false, apperrors.NewValidationError("requester_id is required", nil)
	}

	id, ok, err := s.latest.Get(ctx, requesterID)
	if err != nil {
		s.logger.Warn("read latest ticket pointer", zap.String("requester_id", requesterID), zap.Error(err))
	} else if ok {
		return id, true, nil
	}

	newest, err := s.index.ListByUser(ctx, requesterID, 1, 0)
	if err != nil {
		return "", false, err
	}
	if len(newest) == 0 {
		return "", false, nil
	}

	id = newest[0].ID
	if err := s.latest.Set(ctx, requesterID, id); err != nil {
		s.logger.Warn("rebuild latest ticket pointer", zap.String("requester_id", requesterID), zap.Error(err))
	}
	return id, true, nil
}

// TicketsOf lists the requester's newest tickets and their true total.
func (s *TriageService) TicketsOf(ctx context.Context, requesterID string, limit int) (*domain.TicketPage, error) {
	if strings.TrimSpace(requesterID) == "" {
		return nil, apperrors.NewValidationError("requester_id is required", nil)
	}
	if limit <= 0 {
		limit = DefaultTicketLimit
	}

	tickets, err := s.index.ListByUser(ctx, requesterID, limit, 0)
	if err != nil {
		return nil, err
	}
	total, err := s.index.CountByUser(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if total < len(tickets) {
		total = len(tickets)
	}
	return &domain.TicketPage{Tickets: tickets, Total: total, Limit: limit}, nil
}

func (s *TriageService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
