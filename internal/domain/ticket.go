package domain

import "time"

// TicketStatus enumerates the ticket lifecycle. Closed is terminal; there is
// no reopen transition.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "closed"
)

// Ticket is the aggregate for support conversations.
type Ticket struct {
	ID              int64
	UserID          int64
	AdminID         *int64
	Subject         string
	Status          TicketStatus
	AdditionalUsers []int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasAccess reports whether the user may read or post to the ticket.
func (t *Ticket) HasAccess(userID int64) bool {
	if t.UserID == userID {
		return true
	}
	if t.AdminID != nil && *t.AdminID == userID {
		return true
	}
	for _, id := range t.AdditionalUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// IsOpen reports whether messages may still be appended.
func (t *Ticket) IsOpen() bool {
	return t.Status == TicketStatusOpen
}

// TicketMessage is one entry of a ticket's thread. Message carries either
// prose or a base64-encoded attachment; the classification is derived on
// read, never stored.
type TicketMessage struct {
	ID        int64
	TicketID  int64
	SenderID  int64
	Message   string
	Read      bool
	CreatedAt time.Time
}
