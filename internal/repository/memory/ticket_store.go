// Package memory provides in-memory repository implementations used by unit
// tests and local development without postgres/redis.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mfrelance/workflow-service/internal/domain"
	"github.com/mfrelance/workflow-service/internal/repository"
)

// TicketStore implements repository.TicketRepository and
// repository.TicketMessageRepository over maps.
type TicketStore struct {
	mu       sync.Mutex
	nextID   int64
	nextMsg  int64
	tickets  map[int64]*domain.Ticket
	messages map[int64][]domain.TicketMessage
}

// NewTicketStore builds an empty store.
func NewTicketStore() *TicketStore {
	return &TicketStore{
		tickets:  make(map[int64]*domain.Ticket),
		messages: make(map[int64][]domain.TicketMessage),
	}
}

func (s *TicketStore) Create(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ticket.ID = s.nextID
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	s.tickets[ticket.ID] = &clone
	return nil
}

func (s *TicketStore) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (s *TicketStore) ListForUser(_ context.Context, userID int64) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if ticket.HasAccess(userID) {
			result = append(result, *ticket)
		}
	}
	return result, nil
}

func (s *TicketStore) RandomOpenCandidates(_ context.Context, limit int) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 5
	}
	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if ticket.Status == domain.TicketStatusOpen && ticket.AdminID == nil {
			result = append(result, *ticket)
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (s *TicketStore) AssignAdmin(_ context.Context, ticketID, adminID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return false, repository.ErrNoRows
	}
	if ticket.Status != domain.TicketStatusOpen || ticket.AdminID != nil {
		return false, nil
	}
	ticket.AdminID = &adminID
	ticket.UpdatedAt = time.Now()
	return true, nil
}

func (s *TicketStore) Close(_ context.Context, ticketID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return false, repository.ErrNoRows
	}
	if ticket.Status != domain.TicketStatusOpen {
		return false, nil
	}
	ticket.Status = domain.TicketStatusClosed
	ticket.UpdatedAt = time.Now()
	return true, nil
}

func (s *TicketStore) RemoveParticipant(_ context.Context, ticketID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return repository.ErrNoRows
	}
	kept := ticket.AdditionalUsers[:0]
	for _, id := range ticket.AdditionalUsers {
		if id != userID {
			kept = append(kept, id)
		}
	}
	ticket.AdditionalUsers = kept
	return nil
}

func (s *TicketStore) CreateMessage(_ context.Context, msg *domain.TicketMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMsg++
	msg.ID = s.nextMsg
	msg.CreatedAt = time.Now()
	s.messages[msg.TicketID] = append(s.messages[msg.TicketID], *msg)
	return nil
}

func (s *TicketStore) ListByTicket(_ context.Context, ticketID int64, limit, offset int) ([]domain.TicketMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[ticketID]
	return pageCopy(msgs, limit, offset), nil
}

// Messages adapts the store to repository.TicketMessageRepository without
// exposing the combined struct's method set ambiguity.
func (s *TicketStore) Messages() repository.TicketMessageRepository {
	return ticketMessageView{s}
}

type ticketMessageView struct {
	store *TicketStore
}

func (v ticketMessageView) Create(ctx context.Context, msg *domain.TicketMessage) error {
	return v.store.CreateMessage(ctx, msg)
}

func (v ticketMessageView) ListByTicket(ctx context.Context, ticketID int64, limit, offset int) ([]domain.TicketMessage, error) {
	return v.store.ListByTicket(ctx, ticketID, limit, offset)
}

func pageCopy[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return append([]T(nil), items[offset:end]...)
}
