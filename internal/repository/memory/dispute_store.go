package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mfrelance/workflow-service/internal/domain"
	"github.com/mfrelance/workflow-service/internal/repository"
)

// DisputeStore implements repository.DisputeRepository over maps.
type DisputeStore struct {
	mu       sync.Mutex
	nextID   int64
	nextMsg  int64
	disputes map[int64]*domain.Dispute
	messages map[int64][]domain.DisputeMessage
}

// NewDisputeStore builds an empty store.
func NewDisputeStore() *DisputeStore {
	return &DisputeStore{
		disputes: make(map[int64]*domain.Dispute),
		messages: make(map[int64][]domain.DisputeMessage),
	}
}

func (s *DisputeStore) Create(_ context.Context, dispute *domain.Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.disputes {
		if existing.TaskID == dispute.TaskID {
			return repository.ErrDisputeExistsForTask
		}
	}
	s.nextID++
	dispute.ID = s.nextID
	dispute.CreatedAt = time.Now()
	dispute.UpdatedAt = dispute.CreatedAt
	clone := *dispute
	s.disputes[dispute.ID] = &clone
	return nil
}

func (s *DisputeStore) GetByID(_ context.Context, id int64) (*domain.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dispute, ok := s.disputes[id]
	if !ok {
		return nil, repository.ErrNoRows
	}
	clone := *dispute
	return &clone, nil
}

func (s *DisputeStore) GetByTaskID(_ context.Context, taskID int64) (*domain.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dispute := range s.disputes {
		if dispute.TaskID == taskID {
			clone := *dispute
			return &clone, nil
		}
	}
	return nil, repository.ErrNoRows
}

func (s *DisputeStore) ListForParticipant(_ context.Context, userID int64) ([]domain.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Dispute
	for _, dispute := range s.disputes {
		if dispute.Participant(userID) {
			result = append(result, *dispute)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *DisputeStore) ListOpen(_ context.Context) ([]domain.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Dispute
	for _, dispute := range s.disputes {
		if dispute.Status != domain.DisputeStatusResolved {
			result = append(result, *dispute)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *DisputeStore) AssignAdmin(_ context.Context, disputeID, adminID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dispute, ok := s.disputes[disputeID]
	if !ok {
		return false, repository.ErrNoRows
	}
	if !dispute.Assign(adminID) {
		return false, nil
	}
	dispute.UpdatedAt = time.Now()
	return true, nil
}

func (s *DisputeStore) Resolve(_ context.Context, disputeID, adminID int64, resolution string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dispute, ok := s.disputes[disputeID]
	if !ok {
		return false, repository.ErrNoRows
	}
	if !dispute.Resolve(adminID, resolution) {
		return false, nil
	}
	dispute.UpdatedAt = time.Now()
	return true, nil
}

func (s *DisputeStore) CreateMessage(_ context.Context, msg *domain.DisputeMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMsg++
	msg.ID = s.nextMsg
	msg.CreatedAt = time.Now()
	s.messages[msg.DisputeID] = append(s.messages[msg.DisputeID], *msg)
	return nil
}

func (s *DisputeStore) ListMessages(_ context.Context, disputeID int64, limit, offset int) ([]domain.DisputeMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pageCopy(s.messages[disputeID], limit, offset), nil
}
