package service

import "github.com/mfrelance/workflow-service/internal/domain"

// Authorization predicates. Each takes the acting principal and the entity
// and answers allow/deny, independent of transport, so the rules are
// testable on their own and stated in one place instead of per endpoint.

// CanReadTicket covers reading the thread and posting while open.
func CanReadTicket(actor domain.Actor, ticket *domain.Ticket) bool {
	return actor.Admin || ticket.HasAccess(actor.UserID)
}

// CanCloseTicket allows the owner or an admin to close.
func CanCloseTicket(actor domain.Actor, ticket *domain.Ticket) bool {
	return actor.Admin || ticket.UserID == actor.UserID
}

// CanDecideChatRequest restricts accept to the requested party.
func CanDecideChatRequest(actor domain.Actor, req *domain.ChatRequest) bool {
	return req.RequestedID == actor.UserID
}

// CanCancelChatRequest allows either named party to cancel.
func CanCancelChatRequest(actor domain.Actor, req *domain.ChatRequest) bool {
	return req.Involves(actor.UserID)
}

// CanUseChatRoom gates sending and reading on current membership.
func CanUseChatRoom(actor domain.Actor, room *domain.ChatRoom) bool {
	return room.HasMember(actor.UserID)
}

// CanReadDispute covers detail retrieval and posting: the opener, the task
// client, the escrow counter-party, or any admin.
func CanReadDispute(actor domain.Actor, dispute *domain.Dispute) bool {
	return actor.Admin || dispute.Participant(actor.UserID)
}

// CanOpenDispute restricts creation to the task participants named by the
// task record and the escrow snapshot.
func CanOpenDispute(actor domain.Actor, task *domain.Task, escrow *domain.EscrowSnapshot) bool {
	return task.ClientID == actor.UserID || escrow.FreelancerID == actor.UserID
}
