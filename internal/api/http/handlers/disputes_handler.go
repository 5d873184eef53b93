package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mfrelance/workflow-service/internal/api/dto"
	"github.com/mfrelance/workflow-service/internal/auth"
	"github.com/mfrelance/workflow-service/internal/service"
	util "github.com/mfrelance/workflow-service/pkg/util"
)

// DisputesHandler manages arbitration endpoints.
type DisputesHandler struct {
	service   *service.DisputeService
	scopes    service.DirectoryFactory
	maxUpload int64
}

// NewDisputesHandler constructs handler.
func NewDisputesHandler(disputeService *service.DisputeService, scopes service.DirectoryFactory, maxUpload int64) *DisputesHandler {
	return &DisputesHandler{service: disputeService, scopes: scopes, maxUpload: maxUpload}
}

// Create POST /api/disputes/create.
func (h *DisputesHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.CreateDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	scope := service.NewScope(h.scopes, auth.BearerFromContext(c))
	dispute, err := h.service.Create(c.UserContext(), actor, scope, req.TaskID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDisputeResponse(dispute)})
}

// Details GET /api/disputes/:id.
func (h *DisputesHandler) Details(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	disputeID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	limit, offset := parsePage(c)
	scope := service.NewScope(h.scopes, auth.BearerFromContext(c))
	details, err := h.service.Details(c.UserContext(), actor, scope, disputeID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDisputeDetailResponse(details)})
}

// SendMessage POST /api/disputes/:id/sendMessage.
func (h *DisputesHandler) SendMessage(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	disputeID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	payload, err := messagePayload(c, h.maxUpload)
	if err != nil {
		return err
	}
	msg, err := h.service.PostMessage(c.UserContext(), actor, disputeID, payload)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"id":         msg.ID,
		"sender_id":  msg.SenderID,
		"message":    msg.Message,
		"created_at": msg.CreatedAt,
	}})
}

// ListMine GET /api/disputes/my.
func (h *DisputesHandler) ListMine(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	disputes, err := h.service.ListMine(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.DisputeResponse, 0, len(disputes))
	for i := range disputes {
		items = append(items, dto.NewDisputeResponse(&disputes[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListOpen GET /api/admin/disputes.
func (h *DisputesHandler) ListOpen(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	disputes, err := h.service.ListOpen(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.DisputeResponse, 0, len(disputes))
	for i := range disputes {
		items = append(items, dto.NewDisputeResponse(&disputes[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Assign POST /api/admin/disputes/:id/assign.
func (h *DisputesHandler) Assign(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	disputeID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	dispute, err := h.service.Assign(c.UserContext(), actor, disputeID)
	if err != nil && !util.IsIdempotentNoop(err) {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDisputeResponse(dispute)})
}

// Resolve POST /api/admin/disputes/:id/resolve.
func (h *DisputesHandler) Resolve(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	disputeID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ResolveDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	dispute, err := h.service.Resolve(c.UserContext(), actor, disputeID, req.Resolution)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDisputeResponse(dispute)})
}
