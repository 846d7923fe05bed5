package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-triage/internal/api/dto"
	"github.com/spec-kit/support-triage/internal/render"
	"github.com/spec-kit/support-triage/internal/service"
	apperrors "github.com/spec-kit/support-triage/pkg/util"
)

const maxListLimit = 50

// TicketsHandler serves status and listing queries.
type TicketsHandler struct {
	service *service.TriageService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(triageService *service.TriageService) *TicketsHandler {
	return &TicketsHandler{service: triageService}
}

// Status GET /v1/tickets/:ticketID/status.
func (h *TicketsHandler) Status(c *fiber.Ctx) error {
	return h.respondStatus(c, c.Params("ticketID"))
}

// LatestStatus GET /v1/users/:requesterID/tickets/latest/status.
func (h *TicketsHandler) LatestStatus(c *fiber.Ctx) error {
	ticketID, ok, err := h.service.LatestTicketID(c.UserContext(), c.Params("requesterID"))
	if err != nil {
		return err
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.StatusResponse{Found: false, Message: render.NoLatestTicket()})
	}
	return h.respondStatus(c, ticketID)
}

// List GET /v1/users/:requesterID/tickets?limit=5.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	limit := service.DefaultTicketLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxListLimit {
			return apperrors.NewValidationError("limit must be between 1 and 50", map[string]any{"limit": raw})
		}
		limit = parsed
	}

	page, err := h.service.TicketsOf(c.UserContext(), c.Params("requesterID"), limit)
	if err != nil {
		return err
	}

	items := make([]dto.TicketView, 0, len(page.Tickets))
	for _, t := range page.Tickets {
		items = append(items, dto.NewTicketView(t))
	}
	return c.JSON(dto.TicketListResponse{
		Tickets:   items,
		Total:     page.Total,
		Limit:     page.Limit,
		Truncated: page.Truncated(),
		Message:   render.TicketList(page),
	})
}

func (h *TicketsHandler) respondStatus(c *fiber.Ctx, ticketID string) error {
	res, err := h.service.StatusOf(c.UserContext(), ticketID)
	if err != nil {
		return err
	}

	body := dto.StatusResponse{
		TicketID: res.TicketID,
		Found:    res.Found,
		Reason:   string(res.Reason),
		Snapshot: res.Snapshot,
		Message:  render.Status(res),
	}
	if !res.Found {
		return c.Status(fiber.StatusNotFound).JSON(body)
	}
	return c.JSON(body)
}
