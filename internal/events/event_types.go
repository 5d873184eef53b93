package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketClosed       EventType = "ticket_closed"
	EventTicketAssigned     EventType = "ticket_assigned"
	EventTicketMessageAdded EventType = "ticket_message_added"

	EventChatRequestCreated EventType = "chat_request_created"
	EventChatRequestDecided EventType = "chat_request_decided"
	EventChatMessageSent    EventType = "chat_message_sent"
	EventChatRoomEmptied    EventType = "chat_room_emptied"

	EventDisputeOpened      EventType = "dispute_opened"
	EventDisputeAssigned    EventType = "dispute_assigned"
	EventDisputeResolved    EventType = "dispute_resolved"
	EventDisputeMessageSent EventType = "dispute_message_sent"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   int64       `json:"actor_id"`
	EntityID  int64       `json:"entity_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// ChatRequestDecidedPayload carries the terminal status of a request and,
// on acceptance, the spawned room.
type ChatRequestDecidedPayload struct {
	Status string `json:"status"`
	RoomID *int64 `json:"room_id,omitempty"`
}

// DisputeResolvedPayload carries the resolution text.
type DisputeResolvedPayload struct {
	TaskID     int64  `json:"task_id"`
	Resolution string `json:"resolution"`
}
