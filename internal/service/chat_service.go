package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mfrelance/workflow-service/internal/domain"
	"github.com/mfrelance/workflow-service/internal/events"
	"github.com/mfrelance/workflow-service/internal/identity"
	"github.com/mfrelance/workflow-service/internal/repository"
	util "github.com/mfrelance/workflow-service/pkg/util"
)

// ChatService coordinates connection requests and the rooms they open.
type ChatService struct {
	chats      repository.ChatRepository
	dispatcher events.Dispatcher
}

// NewChatService constructs the service.
func NewChatService(chats repository.ChatRepository, dispatcher events.Dispatcher) *ChatService {
	return &ChatService{chats: chats, dispatcher: dispatcher}
}

// RoomSummary is a room entry for listings with a display name derived from
// the counterpart member.
type RoomSummary struct {
	Room domain.ChatRoom
	Name string
}

// CreateRequest opens a pending connection request toward another user.
// Only one live request or room may exist per pair, in either direction.
func (s *ChatService) CreateRequest(ctx context.Context, actor domain.Actor, requestedID int64) (*domain.ChatRequest, error) {
	if requestedID <= 0 {
		return nil, util.NewValidationError("requested user id is required", nil)
	}
	if requestedID == actor.UserID {
		return nil, util.NewValidationError("cannot request a chat with yourself", nil)
	}

	if existing, err := s.chats.ActiveRequestForPair(ctx, actor.UserID, requestedID); err != nil {
		return nil, util.MapError(err)
	} else if existing != nil {
		return nil, util.NewConflict("an active chat request or room already exists for this pair",
			map[string]any{"request_id": existing.ID, "status": existing.Status})
	}

	req := &domain.ChatRequest{
		RequesterID: actor.UserID,
		RequestedID: requestedID,
		Status:      domain.ChatRequestPending,
	}
	if err := s.chats.CreateRequest(ctx, req); err != nil {
		if errors.Is(err, repository.ErrActivePairExists) {
			return nil, util.NewConflict("an active chat request or room already exists for this pair", nil)
		}
		return nil, util.MapError(err)
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventChatRequestCreated,
		ActorID:  actor.UserID,
		EntityID: req.ID,
	})
	return req, nil
}

// Accept transitions a pending request to accepted and opens a room holding
// both parties. Repeating an accept returns the room already opened; a
// cancelled request cannot be revived.
func (s *ChatService) Accept(ctx context.Context, actor domain.Actor, requesterID int64) (*domain.ChatRoom, error) {
	req, err := s.getRequest(ctx, requesterID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !CanDecideChatRequest(actor, req) {
		return nil, util.NewForbidden("only the requested user may accept")
	}

	switch req.Status {
	case domain.ChatRequestAccepted:
		room, err := s.roomOf(ctx, req)
		if err != nil {
			return nil, err
		}
		return room, util.NewIdempotentNoop(util.CodeAlreadyAccepted, "chat request already accepted")
	case domain.ChatRequestCancelled:
		return nil, util.NewInvalidState("chat request was cancelled", map[string]any{"request_id": req.ID})
	}

	room, won, err := s.chats.AcceptRequest(ctx, req.ID, []int64{req.RequesterID, req.RequestedID})
	if err != nil {
		return nil, util.MapError(err)
	}
	if !won {
		// Raced with another decision; re-read and report its outcome.
		return s.Accept(ctx, actor, requesterID)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventChatRequestDecided,
		ActorID:  actor.UserID,
		EntityID: req.ID,
		Payload: events.ChatRequestDecidedPayload{
			Status: string(domain.ChatRequestAccepted),
			RoomID: &room.ID,
		},
	})
	return room, nil
}

// Cancel transitions a pending request to cancelled. Either party may do
// it. Repeated cancels are no-ops; an accepted request cannot be cancelled.
func (s *ChatService) Cancel(ctx context.Context, actor domain.Actor, requesterID, requestedID int64) (*domain.ChatRequest, error) {
	req, err := s.getRequest(ctx, requesterID, requestedID)
	if err != nil {
		return nil, err
	}
	if !CanCancelChatRequest(actor, req) {
		return nil, util.NewForbidden("only a named party may cancel")
	}

	switch req.Status {
	case domain.ChatRequestCancelled:
		return req, util.NewIdempotentNoop(util.CodeAlreadyCancelled, "chat request already cancelled")
	case domain.ChatRequestAccepted:
		return nil, util.NewInvalidState("chat request was already accepted", map[string]any{"request_id": req.ID})
	}

	won, err := s.chats.CancelRequest(ctx, req.ID)
	if err != nil {
		return nil, util.MapError(err)
	}
	if !won {
		return s.Cancel(ctx, actor, requesterID, requestedID)
	}

	req.Status = domain.ChatRequestCancelled
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventChatRequestDecided,
		ActorID:  actor.UserID,
		EntityID: req.ID,
		Payload: events.ChatRequestDecidedPayload{
			Status: string(domain.ChatRequestCancelled),
		},
	})
	return req, nil
}

// ListRequests returns every request naming the caller on either side.
func (s *ChatService) ListRequests(ctx context.Context, actor domain.Actor) ([]domain.ChatRequest, error) {
	reqs, err := s.chats.ListRequestsFor(ctx, actor.UserID)
	if err != nil {
		return nil, util.MapError(err)
	}
	return reqs, nil
}

// ListRooms returns the caller's rooms with the counterpart resolved to a
// display name, "Chat {name}" style.
func (s *ChatService) ListRooms(ctx context.Context, actor domain.Actor, scope *Scope) ([]RoomSummary, error) {
	rooms, err := s.chats.ListRoomsFor(ctx, actor.UserID)
	if err != nil {
		return nil, util.MapError(err)
	}
	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, RoomSummary{
			Room: room,
			Name: roomName(ctx, scope.Resolver, room, actor.UserID),
		})
	}
	return summaries, nil
}

// SendMessage appends a message to a room the caller belongs to.
func (s *ChatService) SendMessage(ctx context.Context, actor domain.Actor, roomID int64, payload string) (*domain.ChatMessage, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, util.NewValidationError("message is required", nil)
	}
	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !CanUseChatRoom(actor, room) {
		return nil, util.NewForbidden("you are not a member of this room")
	}

	msg := &domain.ChatMessage{
		RoomID:   roomID,
		SenderID: actor.UserID,
		Message:  payload,
	}
	if err := s.chats.CreateMessage(ctx, msg); err != nil {
		return nil, util.MapError(err)
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventChatMessageSent,
		ActorID:  actor.UserID,
		EntityID: roomID,
	})
	return msg, nil
}

// RenderRoomMessages returns the room thread in insertion order with
// resolved sender names and classified payloads.
func (s *ChatService) RenderRoomMessages(ctx context.Context, actor domain.Actor, scope *Scope, roomID int64, limit, offset int) ([]RenderedMessage, error) {
	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !CanUseChatRoom(actor, room) {
		return nil, util.NewForbidden("you are not a member of this room")
	}
	msgs, err := s.chats.ListMessages(ctx, roomID, limit, offset)
	if err != nil {
		return nil, util.MapError(err)
	}
	entries := make([]threadEntry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, threadEntry{ID: m.ID, SenderID: m.SenderID, Message: m.Message, CreatedAt: m.CreatedAt})
	}
	return renderThread(ctx, scope.Resolver, entries), nil
}

// ExitRoom removes the caller's membership. The message history stays; when
// the last member leaves an event is emitted so a janitor can reclaim the
// room later.
func (s *ChatService) ExitRoom(ctx context.Context, actor domain.Actor, roomID int64) error {
	remaining, err := s.chats.RemoveMember(ctx, roomID, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return util.NewForbidden("you are not a member of this room")
		}
		return util.MapError(err)
	}
	if remaining == 0 {
		publish(ctx, s.dispatcher, events.Event{
			Type:     events.EventChatRoomEmptied,
			ActorID:  actor.UserID,
			EntityID: roomID,
		})
	}
	return nil
}

func (s *ChatService) getRequest(ctx context.Context, requesterID, requestedID int64) (*domain.ChatRequest, error) {
	req, err := s.chats.GetRequest(ctx, requesterID, requestedID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, util.NewNotFound("chat request", map[string]any{
				"requester_id": requesterID,
				"requested_id": requestedID,
			})
		}
		return nil, util.MapError(err)
	}
	return req, nil
}

func (s *ChatService) getRoom(ctx context.Context, roomID int64) (*domain.ChatRoom, error) {
	room, err := s.chats.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, util.NewNotFound("chat room", map[string]any{"room_id": roomID})
		}
		return nil, util.MapError(err)
	}
	return room, nil
}

func (s *ChatService) roomOf(ctx context.Context, req *domain.ChatRequest) (*domain.ChatRoom, error) {
	if req.RoomID == nil {
		return nil, util.NewInternalError(fmt.Errorf("accepted request %d has no room", req.ID))
	}
	return s.getRoom(ctx, *req.RoomID)
}

// roomName labels a two-party room after the other member. Rooms the caller
// shares with nobody else fall back to a generic label.
func roomName(ctx context.Context, resolver *identity.Resolver, room domain.ChatRoom, selfID int64) string {
	for _, member := range room.Members {
		if member != selfID {
			return fmt.Sprintf("Chat %s", resolver.Resolve(ctx, member))
		}
	}
	return fmt.Sprintf("Chat #%d", room.ID)
}
