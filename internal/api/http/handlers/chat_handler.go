package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/mfrelance/workflow-service/internal/api/dto"
	"github.com/mfrelance/workflow-service/internal/auth"
	"github.com/mfrelance/workflow-service/internal/service"
	util "github.com/mfrelance/workflow-service/pkg/util"
)

// ChatHandler manages connection request and room endpoints.
type ChatHandler struct {
	service   *service.ChatService
	scopes    service.DirectoryFactory
	maxUpload int64
}

// NewChatHandler constructs handler.
func NewChatHandler(chatService *service.ChatService, scopes service.DirectoryFactory, maxUpload int64) *ChatHandler {
	return &ChatHandler{service: chatService, scopes: scopes, maxUpload: maxUpload}
}

// CreateRequest POST /api/chat/request.
func (h *ChatHandler) CreateRequest(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.CreateChatRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	created, err := h.service.CreateRequest(c.UserContext(), actor, req.RequestedID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewChatRequestResponse(created)})
}

// Accept POST /api/chat/accept.
func (h *ChatHandler) Accept(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.DecideChatRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	room, err := h.service.Accept(c.UserContext(), actor, req.RequesterID)
	if err != nil && !util.IsIdempotentNoop(err) {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"room_id": room.ID,
		"members": room.Members,
	}})
}

// Cancel POST /api/chat/cancel.
func (h *ChatHandler) Cancel(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.DecideChatRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	cancelled, err := h.service.Cancel(c.UserContext(), actor, req.RequesterID, req.RequestedID)
	if err != nil && !util.IsIdempotentNoop(err) {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewChatRequestResponse(cancelled)})
}

// ListRequests GET /api/chat/requests.
func (h *ChatHandler) ListRequests(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	reqs, err := h.service.ListRequests(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.ChatRequestResponse, 0, len(reqs))
	for i := range reqs {
		items = append(items, dto.NewChatRequestResponse(&reqs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListRooms GET /api/chat/rooms.
func (h *ChatHandler) ListRooms(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	scope := service.NewScope(h.scopes, auth.BearerFromContext(c))
	rooms, err := h.service.ListRooms(c.UserContext(), actor, scope)
	if err != nil {
		return err
	}
	items := make([]dto.ChatRoomResponse, 0, len(rooms))
	for _, room := range rooms {
		items = append(items, dto.NewChatRoomResponse(room))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Messages GET /api/chat/:id/messages.
func (h *ChatHandler) Messages(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	roomID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	limit, offset := parsePage(c)
	scope := service.NewScope(h.scopes, auth.BearerFromContext(c))
	rendered, err := h.service.RenderRoomMessages(c.UserContext(), actor, scope, roomID, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.ChatMessageResponse, 0, len(rendered))
	for _, m := range rendered {
		items = append(items, dto.NewChatMessageResponse(m))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SendMessage POST /api/chat/:id/sendMessage.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	roomID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	payload, err := messagePayload(c, h.maxUpload)
	if err != nil {
		return err
	}
	msg, err := h.service.SendMessage(c.UserContext(), actor, roomID, payload)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"id":         msg.ID,
		"sender_id":  msg.SenderID,
		"message":    msg.Message,
		"created_at": msg.CreatedAt,
	}})
}

// Exit POST /api/chat/:id/exit.
func (h *ChatHandler) Exit(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	roomID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.ExitRoom(c.UserContext(), actor, roomID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"room_id": roomID}})
}
