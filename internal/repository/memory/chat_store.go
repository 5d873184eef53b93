package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mfrelance/workflow-service/internal/domain"
	"github.com/mfrelance/workflow-service/internal/repository"
)

// ChatStore implements repository.ChatRepository over maps.
type ChatStore struct {
	mu       sync.Mutex
	nextReq  int64
	nextRoom int64
	nextMsg  int64
	requests map[int64]*domain.ChatRequest
	rooms    map[int64]*domain.ChatRoom
	messages map[int64][]domain.ChatMessage
}

// NewChatStore builds an empty store.
func NewChatStore() *ChatStore {
	return &ChatStore{
		requests: make(map[int64]*domain.ChatRequest),
		rooms:    make(map[int64]*domain.ChatRoom),
		messages: make(map[int64][]domain.ChatMessage),
	}
}

func (s *ChatStore) CreateRequest(_ context.Context, req *domain.ChatRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.requests {
		if existing.Active() && samePair(existing, req.RequesterID, req.RequestedID) {
			return repository.ErrActivePairExists
		}
	}
	s.nextReq++
	req.ID = s.nextReq
	req.CreatedAt = time.Now()
	clone := *req
	s.requests[req.ID] = &clone
	return nil
}

func samePair(req *domain.ChatRequest, a, b int64) bool {
	return (req.RequesterID == a && req.RequestedID == b) ||
		(req.RequesterID == b && req.RequestedID == a)
}

func (s *ChatStore) GetRequest(_ context.Context, requesterID, requestedID int64) (*domain.ChatRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *domain.ChatRequest
	for _, req := range s.requests {
		if req.RequesterID == requesterID && req.RequestedID == requestedID {
			if latest == nil || req.ID > latest.ID {
				latest = req
			}
		}
	}
	if latest == nil {
		return nil, repository.ErrNoRows
	}
	clone := *latest
	return &clone, nil
}

func (s *ChatStore) ActiveRequestForPair(_ context.Context, a, b int64) (*domain.ChatRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.requests {
		if req.Active() && samePair(req, a, b) {
			clone := *req
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *ChatStore) ListRequestsFor(_ context.Context, userID int64) ([]domain.ChatRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.ChatRequest
	for _, req := range s.requests {
		if req.Involves(userID) {
			result = append(result, *req)
		}
	}
	return result, nil
}

func (s *ChatStore) AcceptRequest(_ context.Context, requestID int64, members []int64) (*domain.ChatRoom, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, false, repository.ErrNoRows
	}
	if req.Status != domain.ChatRequestPending {
		return nil, false, nil
	}

	s.nextRoom++
	room := &domain.ChatRoom{
		ID:        s.nextRoom,
		Members:   append([]int64(nil), members...),
		CreatedAt: time.Now(),
	}
	s.rooms[room.ID] = room

	req.Status = domain.ChatRequestAccepted
	roomID := room.ID
	req.RoomID = &roomID

	clone := *room
	clone.Members = append([]int64(nil), room.Members...)
	return &clone, true, nil
}

func (s *ChatStore) CancelRequest(_ context.Context, requestID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestID]
	if !ok {
		return false, repository.ErrNoRows
	}
	if req.Status != domain.ChatRequestPending {
		return false, nil
	}
	req.Status = domain.ChatRequestCancelled
	return true, nil
}

func (s *ChatStore) GetRoom(_ context.Context, roomID int64) (*domain.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, repository.ErrNoRows
	}
	clone := *room
	clone.Members = append([]int64(nil), room.Members...)
	return &clone, nil
}

func (s *ChatStore) ListRoomsFor(_ context.Context, userID int64) ([]domain.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.ChatRoom
	for _, room := range s.rooms {
		if room.HasMember(userID) {
			clone := *room
			clone.Members = append([]int64(nil), room.Members...)
			result = append(result, clone)
		}
	}
	return result, nil
}

func (s *ChatStore) RemoveMember(_ context.Context, roomID, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return 0, repository.ErrNoRows
	}
	found := false
	kept := room.Members[:0]
	for _, id := range room.Members {
		if id == userID {
			found = true
			continue
		}
		kept = append(kept, id)
	}
	if !found {
		return 0, repository.ErrNoRows
	}
	room.Members = kept
	return len(room.Members), nil
}

func (s *ChatStore) CreateMessage(_ context.Context, msg *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMsg++
	msg.ID = s.nextMsg
	msg.CreatedAt = time.Now()
	s.messages[msg.RoomID] = append(s.messages[msg.RoomID], *msg)
	return nil
}

func (s *ChatStore) ListMessages(_ context.Context, roomID int64, limit, offset int) ([]domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pageCopy(s.messages[roomID], limit, offset), nil
}
