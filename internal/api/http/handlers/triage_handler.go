package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-triage/internal/api/dto"
	"github.com/spec-kit/support-triage/internal/domain"
	"github.com/spec-kit/support-triage/internal/render"
	"github.com/spec-kit/support-triage/internal/service"
	apperrors "github.com/spec-kit/support-triage/pkg/util"
)

// KindHelp is returned instead of a triage outcome for greetings.
const KindHelp = "help"

// TriageHandler accepts issue reports and escalation signals from chat bridges.
type TriageHandler struct {
	service *service.TriageService
}

// NewTriageHandler constructs handler.
func NewTriageHandler(triageService *service.TriageService) *TriageHandler {
	return &TriageHandler{service: triageService}
}

// SubmitIssue POST /v1/issues.
func (h *TriageHandler) SubmitIssue(c *fiber.Ctx) error {
	var req dto.SubmitIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.RequesterID) == "" {
		return apperrors.NewValidationError("requester_id required", nil)
	}

	if render.IsGreeting(req.RawText) {
		return c.JSON(dto.TriageResponse{Kind: KindHelp, Message: render.Help()})
	}

	res, err := h.service.Handle(c.UserContext(), domain.IssueReport{
		RawText:         strings.TrimSpace(req.RawText),
		RequesterID:     req.RequesterID,
		RequesterName:   req.RequesterName,
		ConversationRef: req.ConversationRef,
		MessageID:       req.MessageID,
	})
	if err != nil {
		return err
	}
	return respondTriage(c, res)
}

// Escalate POST /v1/offers/:offerID/escalate.
func (h *TriageHandler) Escalate(c *fiber.Ctx) error {
	var req dto.EscalateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	res, err := h.service.Escalate(c.UserContext(), c.Params("offerID"), req.RequesterID)
	if err != nil {
		return err
	}
	return respondTriage(c, res)
}

func respondTriage(c *fiber.Ctx, res *service.TriageResult) error {
	body := dto.TriageResponse{
		Kind:           string(res.Kind),
		Classification: dto.NewClassificationView(res.Classification),
		Message:        render.Result(res),
	}

	status := fiber.StatusOK
	switch res.Kind {
	case service.ResultGuidance:
		body.OfferID = res.Guidance.OfferID
	case service.ResultTicketCreated:
		view := dto.NewTicketView(*res.Ticket)
		body.Ticket = &view
		status = fiber.StatusCreated
	case service.ResultTicketCreationFailed:
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(body)
}
