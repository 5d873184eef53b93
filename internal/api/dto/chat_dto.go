package dto

import (
	"time"

	"github.com/mfrelance/workflow-service/internal/domain"
	"github.com/mfrelance/workflow-service/internal/service"
)

// CreateChatRequest payload.
type CreateChatRequest struct {
	RequestedID int64 `json:"requested_id"`
}

// DecideChatRequest payload identifies the counterpart of the request.
type DecideChatRequest struct {
	RequesterID int64 `json:"requester_id"`
	RequestedID int64 `json:"requested_id"`
}

// ChatMessageRequest payload.
type ChatMessageRequest struct {
	Message string `json:"message"`
}

// ChatRequestResponse mirrors a connection request.
type ChatRequestResponse struct {
	ID          int64     `json:"id"`
	RequesterID int64     `json:"requester_id"`
	RequestedID int64     `json:"requested_id"`
	Status      string    `json:"status"`
	RoomID      *int64    `json:"room_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChatRoomResponse is a room listing entry.
type ChatRoomResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Members   []int64   `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessageResponse keeps the lowercase wire casing chat clients parse.
type ChatMessageResponse struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Message    string    `json:"message"`
	Kind       string    `json:"kind"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewChatRequestResponse maps a domain request.
func NewChatRequestResponse(r *domain.ChatRequest) ChatRequestResponse {
	return ChatRequestResponse{
		ID:          r.ID,
		RequesterID: r.RequesterID,
		RequestedID: r.RequestedID,
		Status:      string(r.Status),
		RoomID:      r.RoomID,
		CreatedAt:   r.CreatedAt,
	}
}

// NewChatRoomResponse maps a room summary.
func NewChatRoomResponse(s service.RoomSummary) ChatRoomResponse {
	return ChatRoomResponse{
		ID:        s.Room.ID,
		Name:      s.Name,
		Members:   s.Room.Members,
		CreatedAt: s.Room.CreatedAt,
	}
}

// NewChatMessageResponse maps a rendered thread entry.
func NewChatMessageResponse(m service.RenderedMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Message:    m.Message,
		Kind:       string(m.Kind),
		CreatedAt:  m.CreatedAt,
	}
}
