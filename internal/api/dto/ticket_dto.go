package dto

import (
	"time"

	"github.com/mfrelance/workflow-service/internal/domain"
	"github.com/mfrelance/workflow-service/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// TicketMessageRequest payload for appending to a thread.
type TicketMessageRequest struct {
	Message string `json:"message"`
}

// TicketSummary is the list item shape consumed by existing clients.
type TicketSummary struct {
	ID      int64  `json:"id"`
	Subject string `json:"subject"`
	Status  string `json:"status"`
	UserID  int64  `json:"user_id"`
}

// TicketMessageResponse keeps the capitalized field names older clients
// already parse. SenderName and Kind are additive enrichment.
type TicketMessageResponse struct {
	ID         int64     `json:"ID"`
	SenderID   int64     `json:"SenderID"`
	Message    string    `json:"Message"`
	CreatedAt  time.Time `json:"CreatedAt"`
	SenderName string    `json:"sender_name"`
	Kind       string    `json:"kind"`
}

// NewTicketSummary maps a domain ticket to its list shape.
func NewTicketSummary(t *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:      t.ID,
		Subject: t.Subject,
		Status:  string(t.Status),
		UserID:  t.UserID,
	}
}

// NewTicketMessageResponse maps a rendered thread entry.
func NewTicketMessageResponse(m service.RenderedMessage) TicketMessageResponse {
	return TicketMessageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		Message:    m.Message,
		CreatedAt:  m.CreatedAt,
		SenderName: m.SenderName,
		Kind:       string(m.Kind),
	}
}
