package domain

import "time"

// ChatRequestStatus enumerates request states. Accepted and cancelled are
// terminal for the request itself; the room spawned on acceptance has its
// own lifecycle.
type ChatRequestStatus string

const (
	ChatRequestPending   ChatRequestStatus = "pending"
	ChatRequestAccepted  ChatRequestStatus = "accepted"
	ChatRequestCancelled ChatRequestStatus = "cancelled"
)

// ChatRequest is a pairwise connection request gating room creation. At most
// one active (pending or accepted) request exists per unordered user pair.
type ChatRequest struct {
	ID          int64
	RequesterID int64
	RequestedID int64
	Status      ChatRequestStatus
	RoomID      *int64
	CreatedAt   time.Time
}

// Active reports whether the request still blocks a new one for the pair.
func (r *ChatRequest) Active() bool {
	return r.Status == ChatRequestPending || r.Status == ChatRequestAccepted
}

// Involves reports whether the user is one of the named parties.
func (r *ChatRequest) Involves(userID int64) bool {
	return r.RequesterID == userID || r.RequestedID == userID
}

// ChatRoom holds a shared message stream for its members.
type ChatRoom struct {
	ID        int64
	Members   []int64
	CreatedAt time.Time
}

// HasMember reports current membership.
func (room *ChatRoom) HasMember(userID int64) bool {
	for _, id := range room.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// ChatMessage is one entry of a room's stream.
type ChatMessage struct {
	ID        int64
	RoomID    int64
	SenderID  int64
	Message   string
	CreatedAt time.Time
}
