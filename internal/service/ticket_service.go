package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mfrelance/workflow-service/internal/domain"
	"github.com/mfrelance/workflow-service/internal/events"
	"github.com/mfrelance/workflow-service/internal/repository"
	util "github.com/mfrelance/workflow-service/pkg/util"
)

// triageLeaseTTL bounds how long a randomly drawn ticket stays reserved for
// one admin before another may draw it.
const triageLeaseTTL = 2 * time.Minute

// TicketService coordinates the support ticket workflow.
type TicketService struct {
	tickets    repository.TicketRepository
	messages   repository.TicketMessageRepository
	leases     repository.TriageLease
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.TicketMessageRepository
	Leases      repository.TriageLease
	Dispatcher  events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		leases:     deps.Leases,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket opens a ticket with its first message. The message field may
// carry prose or a base64 attachment; both are validated only for presence.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, subject, message string) (*domain.Ticket, error) {
	subject = strings.TrimSpace(subject)
	message = strings.TrimSpace(message)
	if subject == "" || message == "" {
		return nil, util.NewValidationError("subject and message are required", nil)
	}

	ticket := &domain.Ticket{
		UserID:  actor.UserID,
		Subject: subject,
		Status:  domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, util.MapError(err)
	}

	msg := &domain.TicketMessage{
		TicketID: ticket.ID,
		SenderID: actor.UserID,
		Message:  message,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, util.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		ActorID:  actor.UserID,
		EntityID: ticket.ID,
	})
	return ticket, nil
}

// ListMyTickets returns tickets the caller can access.
func (s *TicketService) ListMyTickets(ctx context.Context, actor domain.Actor) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListForUser(ctx, actor.UserID)
	if err != nil {
		return nil, util.MapError(err)
	}
	return tickets, nil
}

// GetRandomOpenTicket draws one open, unassigned ticket for ad hoc admin
// triage and assigns the caller to it. A short redis lease keeps two
// concurrent admins from drawing the same candidate; the conditional
// assignment is what actually decides the winner.
func (s *TicketService) GetRandomOpenTicket(ctx context.Context, actor domain.Actor) (*domain.Ticket, error) {
	if !actor.Admin {
		return nil, util.NewForbidden("admin role required")
	}

	candidates, err := s.tickets.RandomOpenCandidates(ctx, 5)
	if err != nil {
		return nil, util.MapError(err)
	}
	for i := range candidates {
		ticket := candidates[i]
		acquired, err := s.leases.Acquire(ctx, ticket.ID, actor.UserID, triageLeaseTTL)
		if err != nil {
			return nil, util.MapError(err)
		}
		if !acquired {
			continue
		}
		won, err := s.tickets.AssignAdmin(ctx, ticket.ID, actor.UserID)
		if err != nil {
			return nil, util.MapError(err)
		}
		if !won {
			// Someone assigned it between the draw and the update.
			_ = s.leases.Release(ctx, ticket.ID)
			continue
		}
		assigned, err := s.tickets.GetByID(ctx, ticket.ID)
		if err != nil {
			return nil, util.MapError(err)
		}
		publish(ctx, s.dispatcher, events.Event{
			Type:     events.EventTicketAssigned,
			ActorID:  actor.UserID,
			EntityID: ticket.ID,
		})
		return assigned, nil
	}
	return nil, util.NewNotFound("open ticket", nil)
}

// PostMessage appends a message to an open ticket.
func (s *TicketService) PostMessage(ctx context.Context, actor domain.Actor, ticketID int64, payload string) (*domain.TicketMessage, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, util.NewValidationError("message is required", nil)
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanReadTicket(actor, ticket) {
		return nil, util.NewForbidden("you do not have access to this ticket")
	}
	if !ticket.IsOpen() {
		return nil, util.NewInvalidState("ticket is closed", map[string]any{"ticket_id": ticketID})
	}

	msg := &domain.TicketMessage{
		TicketID: ticket.ID,
		SenderID: actor.UserID,
		Message:  payload,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, util.MapError(err)
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketMessageAdded,
		ActorID:  actor.UserID,
		EntityID: ticket.ID,
	})
	return msg, nil
}

// CloseTicket moves the ticket to its terminal state. Closing an already
// closed ticket returns the ticket with an idempotent-no-op error the
// transport reports as success.
func (s *TicketService) CloseTicket(ctx context.Context, actor domain.Actor, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanCloseTicket(actor, ticket) {
		return nil, util.NewForbidden("only the owner or an admin may close a ticket")
	}
	if !ticket.IsOpen() {
		return ticket, util.NewIdempotentNoop(util.CodeAlreadyClosed, "ticket already closed")
	}

	won, err := s.tickets.Close(ctx, ticketID)
	if err != nil {
		return nil, util.MapError(err)
	}
	ticket, err = s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !won {
		return ticket, util.NewIdempotentNoop(util.CodeAlreadyClosed, "ticket already closed")
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketClosed,
		ActorID:  actor.UserID,
		EntityID: ticketID,
	})
	return ticket, nil
}

// RenderMessages returns the ticket thread in insertion order, enriched
// with resolved sender names and payload classification.
func (s *TicketService) RenderMessages(ctx context.Context, actor domain.Actor, scope *Scope, ticketID int64, limit, offset int) ([]RenderedMessage, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanReadTicket(actor, ticket) {
		return nil, util.NewForbidden("you do not have access to this ticket")
	}
	msgs, err := s.messages.ListByTicket(ctx, ticketID, limit, offset)
	if err != nil {
		return nil, util.MapError(err)
	}
	entries := make([]threadEntry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, threadEntry{ID: m.ID, SenderID: m.SenderID, Message: m.Message, CreatedAt: m.CreatedAt})
	}
	return renderThread(ctx, scope.Resolver, entries), nil
}

// ExitTicket removes the caller from the ticket's additional access list.
func (s *TicketService) ExitTicket(ctx context.Context, actor domain.Actor, ticketID int64) error {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if !ticket.HasAccess(actor.UserID) {
		return util.NewForbidden("user is not part of this ticket")
	}
	if err := s.tickets.RemoveParticipant(ctx, ticketID, actor.UserID); err != nil {
		return util.MapError(err)
	}
	return nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, util.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, util.MapError(err)
	}
	return ticket, nil
}
