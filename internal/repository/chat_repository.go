package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mfrelance/workflow-service/internal/domain"
)

// ErrActivePairExists is returned when an insert collides with the unique
// active-request index for the unordered user pair.
var ErrActivePairExists = errors.New("active chat request already exists for pair")

// ChatRepository persists requests, rooms, membership and messages. Accept
// is transactional: the room and both memberships appear atomically with the
// pending→accepted transition, and only one concurrent accept can win.
type ChatRepository interface {
	CreateRequest(ctx context.Context, req *domain.ChatRequest) error
	GetRequest(ctx context.Context, requesterID, requestedID int64) (*domain.ChatRequest, error)
	ActiveRequestForPair(ctx context.Context, a, b int64) (*domain.ChatRequest, error)
	ListRequestsFor(ctx context.Context, userID int64) ([]domain.ChatRequest, error)
	AcceptRequest(ctx context.Context, requestID int64, members []int64) (*domain.ChatRoom, bool, error)
	CancelRequest(ctx context.Context, requestID int64) (bool, error)
	GetRoom(ctx context.Context, roomID int64) (*domain.ChatRoom, error)
	ListRoomsFor(ctx context.Context, userID int64) ([]domain.ChatRoom, error)
	RemoveMember(ctx context.Context, roomID, userID int64) (int, error)
	CreateMessage(ctx context.Context, msg *domain.ChatMessage) error
	ListMessages(ctx context.Context, roomID int64, limit, offset int) ([]domain.ChatMessage, error)
}

type chatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository instantiates the pgx-backed repository.
func NewChatRepository(pool *pgxpool.Pool) ChatRepository {
	return &chatRepository{pool: pool}
}

func (r *chatRepository) CreateRequest(ctx context.Context, req *domain.ChatRequest) error {
	const query = `
        INSERT INTO chat_requests (requester_id, requested_id, status)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query, req.RequesterID, req.RequestedID, req.Status).
		Scan(&req.ID, &req.CreatedAt)
	if isUniqueViolation(err) {
		return ErrActivePairExists
	}
	return err
}

func (r *chatRepository) GetRequest(ctx context.Context, requesterID, requestedID int64) (*domain.ChatRequest, error) {
	const query = `
        SELECT id, requester_id, requested_id, status, room_id, created_at
        FROM chat_requests
        WHERE requester_id=$1 AND requested_id=$2
        ORDER BY created_at DESC
        LIMIT 1`
	return r.fetchRequest(ctx, query, requesterID, requestedID)
}

func (r *chatRepository) ActiveRequestForPair(ctx context.Context, a, b int64) (*domain.ChatRequest, error) {
	const query = `
        SELECT id, requester_id, requested_id, status, room_id, created_at
        FROM chat_requests
        WHERE LEAST(requester_id, requested_id)=LEAST($1::bigint,$2::bigint)
          AND GREATEST(requester_id, requested_id)=GREATEST($1::bigint,$2::bigint)
          AND status IN ('pending','accepted')
        LIMIT 1`
	req, err := r.fetchRequest(ctx, query, a, b)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return req, err
}

func (r *chatRepository) fetchRequest(ctx context.Context, query string, args ...any) (*domain.ChatRequest, error) {
	var req domain.ChatRequest
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&req.ID,
		&req.RequesterID,
		&req.RequestedID,
		&req.Status,
		&req.RoomID,
		&req.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *chatRepository) ListRequestsFor(ctx context.Context, userID int64) ([]domain.ChatRequest, error) {
	const query = `
        SELECT id, requester_id, requested_id, status, room_id, created_at
        FROM chat_requests
        WHERE requester_id=$1 OR requested_id=$1
        ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ChatRequest
	for rows.Next() {
		var req domain.ChatRequest
		if err := rows.Scan(&req.ID, &req.RequesterID, &req.RequestedID, &req.Status, &req.RoomID, &req.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func (r *chatRepository) AcceptRequest(ctx context.Context, requestID int64, members []int64) (*domain.ChatRoom, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var room domain.ChatRoom
	if err := tx.QueryRow(ctx, `INSERT INTO chat_rooms DEFAULT VALUES RETURNING id, created_at`).
		Scan(&room.ID, &room.CreatedAt); err != nil {
		return nil, false, err
	}

	for _, userID := range members {
		if _, err := tx.Exec(ctx,
			`INSERT INTO chat_participants (chat_room_id, user_id) VALUES ($1,$2)`,
			room.ID, userID); err != nil {
			return nil, false, err
		}
	}

	cmd, err := tx.Exec(ctx,
		`UPDATE chat_requests SET status='accepted', room_id=$1 WHERE id=$2 AND status='pending'`,
		room.ID, requestID)
	if err != nil {
		return nil, false, err
	}
	if cmd.RowsAffected() == 0 {
		// Lost the race; the rollback discards the room.
		return nil, false, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	room.Members = append([]int64(nil), members...)
	return &room, true, nil
}

func (r *chatRepository) CancelRequest(ctx context.Context, requestID int64) (bool, error) {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE chat_requests SET status='cancelled' WHERE id=$1 AND status='pending'`, requestID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *chatRepository) GetRoom(ctx context.Context, roomID int64) (*domain.ChatRoom, error) {
	var room domain.ChatRoom
	if err := r.pool.QueryRow(ctx,
		`SELECT id, created_at FROM chat_rooms WHERE id=$1`, roomID).
		Scan(&room.ID, &room.CreatedAt); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM chat_participants WHERE chat_room_id=$1 ORDER BY joined_at ASC`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		room.Members = append(room.Members, userID)
	}
	return &room, rows.Err()
}

func (r *chatRepository) ListRoomsFor(ctx context.Context, userID int64) ([]domain.ChatRoom, error) {
	const query = `
        SELECT cr.id, cr.created_at
        FROM chat_rooms cr
        JOIN chat_participants cp ON cp.chat_room_id = cr.id
        WHERE cp.user_id=$1
        ORDER BY cr.created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []domain.ChatRoom
	for rows.Next() {
		var room domain.ChatRoom
		if err := rows.Scan(&room.ID, &room.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range rooms {
		full, err := r.GetRoom(ctx, rooms[i].ID)
		if err != nil {
			return nil, err
		}
		rooms[i].Members = full.Members
	}
	return rooms, nil
}

func (r *chatRepository) RemoveMember(ctx context.Context, roomID, userID int64) (int, error) {
	cmd, err := r.pool.Exec(ctx,
		`DELETE FROM chat_participants WHERE chat_room_id=$1 AND user_id=$2`, roomID, userID)
	if err != nil {
		return 0, err
	}
	if cmd.RowsAffected() == 0 {
		return 0, pgx.ErrNoRows
	}

	var remaining int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chat_participants WHERE chat_room_id=$1`, roomID).
		Scan(&remaining); err != nil {
		return 0, err
	}
	return remaining, nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *domain.ChatMessage) error {
	const query = `
        INSERT INTO chat_messages (chat_room_id, sender_id, message)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, msg.RoomID, msg.SenderID, msg.Message).
		Scan(&msg.ID, &msg.CreatedAt)
}

func (r *chatRepository) ListMessages(ctx context.Context, roomID int64, limit, offset int) ([]domain.ChatMessage, error) {
	limit, offset = normalizePage(limit, offset)
	const query = `
        SELECT id, chat_room_id, sender_id, message, created_at
        FROM chat_messages
        WHERE chat_room_id=$1
        ORDER BY created_at ASC, id ASC
        LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, roomID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
