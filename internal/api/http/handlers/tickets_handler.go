package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mfrelance/workflow-service/internal/api/dto"
	"github.com/mfrelance/workflow-service/internal/auth"
	"github.com/mfrelance/workflow-service/internal/service"
	util "github.com/mfrelance/workflow-service/pkg/util"
)

// TicketsHandler manages support ticket endpoints.
type TicketsHandler struct {
	service   *service.TicketService
	scopes    service.DirectoryFactory
	maxUpload int64
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, scopes service.DirectoryFactory, maxUpload int64) *TicketsHandler {
	return &TicketsHandler{service: ticketService, scopes: scopes, maxUpload: maxUpload}
}

// Create POST /api/ticket/create.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), actor, req.Subject, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// List GET /api/ticket/list.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	tickets, err := h.service.ListMyTickets(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Messages GET /api/ticket/:id/messages.
func (h *TicketsHandler) Messages(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	limit, offset := parsePage(c)
	scope := service.NewScope(h.scopes, auth.BearerFromContext(c))
	rendered, err := h.service.RenderMessages(c.UserContext(), actor, scope, ticketID, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.TicketMessageResponse, 0, len(rendered))
	for _, m := range rendered {
		items = append(items, dto.NewTicketMessageResponse(m))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SendMessage POST /api/ticket/:id/sendMessage.
func (h *TicketsHandler) SendMessage(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	payload, err := messagePayload(c, h.maxUpload)
	if err != nil {
		return err
	}
	msg, err := h.service.PostMessage(c.UserContext(), actor, ticketID, payload)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"ID":        msg.ID,
		"SenderID":  msg.SenderID,
		"Message":   msg.Message,
		"CreatedAt": msg.CreatedAt,
	}})
}

// Close POST /api/ticket/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.CloseTicket(c.UserContext(), actor, ticketID)
	if err != nil && !util.IsIdempotentNoop(err) {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Exit POST /api/ticket/:id/exit.
func (h *TicketsHandler) Exit(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.ExitTicket(c.UserContext(), actor, ticketID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"ticket_id": ticketID}})
}

// RandomOpen GET /api/admin/ticket/randomOpen.
func (h *TicketsHandler) RandomOpen(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.GetRandomOpenTicket(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

