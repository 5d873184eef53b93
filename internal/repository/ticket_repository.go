package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mfrelance/workflow-service/internal/domain"
)

// TicketRepository encapsulates ticket persistence. Mutations that race
// (close, admin assignment) are conditional updates: the boolean result
// reports whether this caller won the transition.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.Ticket, error)
	RandomOpenCandidates(ctx context.Context, limit int) ([]domain.Ticket, error)
	AssignAdmin(ctx context.Context, ticketID, adminID int64) (bool, error)
	Close(ctx context.Context, ticketID int64) (bool, error)
	RemoveParticipant(ctx context.Context, ticketID, userID int64) error
}

// TicketMessageRepository stores the ordered thread per ticket.
type TicketMessageRepository interface {
	Create(ctx context.Context, msg *domain.TicketMessage) error
	ListByTicket(ctx context.Context, ticketID int64, limit, offset int) ([]domain.TicketMessage, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the pgx-backed repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (user_id, subject, status, additional_users_have_access)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.UserID,
		ticket.Subject,
		ticket.Status,
		ticket.AdditionalUsers,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `
        SELECT id, user_id, admin_id, subject, status, additional_users_have_access, created_at, updated_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.AdminID,
		&ticket.Subject,
		&ticket.Status,
		&ticket.AdditionalUsers,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListForUser(ctx context.Context, userID int64) ([]domain.Ticket, error) {
	const query = `
        SELECT id, user_id, admin_id, subject, status, additional_users_have_access, created_at, updated_at
        FROM tickets
        WHERE user_id=$1 OR admin_id=$1 OR $1 = ANY(additional_users_have_access)
        ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) RandomOpenCandidates(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `
        SELECT id, user_id, admin_id, subject, status, additional_users_have_access, created_at, updated_at
        FROM tickets
        WHERE status='open' AND admin_id IS NULL
        ORDER BY RANDOM()
        LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) AssignAdmin(ctx context.Context, ticketID, adminID int64) (bool, error) {
	const query = `
        UPDATE tickets SET admin_id=$1, updated_at=NOW()
        WHERE id=$2 AND status='open' AND admin_id IS NULL`
	cmd, err := r.pool.Exec(ctx, query, adminID, ticketID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) Close(ctx context.Context, ticketID int64) (bool, error) {
	const query = `
        UPDATE tickets SET status='closed', updated_at=NOW()
        WHERE id=$1 AND status='open'`
	cmd, err := r.pool.Exec(ctx, query, ticketID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) RemoveParticipant(ctx context.Context, ticketID, userID int64) error {
	const query = `
        UPDATE tickets
        SET additional_users_have_access = array_remove(additional_users_have_access, $1),
            updated_at = NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, userID, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.UserID,
			&ticket.AdminID,
			&ticket.Subject,
			&ticket.Status,
			&ticket.AdditionalUsers,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

type ticketMessageRepository struct {
	pool *pgxpool.Pool
}

// NewTicketMessageRepository instantiates the message repository.
func NewTicketMessageRepository(pool *pgxpool.Pool) TicketMessageRepository {
	return &ticketMessageRepository{pool: pool}
}

func (r *ticketMessageRepository) Create(ctx context.Context, msg *domain.TicketMessage) error {
	const query = `
        INSERT INTO ticket_messages (ticket_id, sender_id, message, read)
        VALUES ($1,$2,$3,FALSE)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, msg.TicketID, msg.SenderID, msg.Message).
		Scan(&msg.ID, &msg.CreatedAt)
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID int64, limit, offset int) ([]domain.TicketMessage, error) {
	limit, offset = normalizePage(limit, offset)
	const query = `
        SELECT id, ticket_id, sender_id, message, read, created_at
        FROM ticket_messages
        WHERE ticket_id=$1
        ORDER BY created_at ASC, id ASC
        LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, ticketID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.TicketMessage
	for rows.Next() {
		var m domain.TicketMessage
		if err := rows.Scan(&m.ID, &m.TicketID, &m.SenderID, &m.Message, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// normalizePage applies listing defaults observed at the service boundary:
// default 100, hard cap 1000.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ErrNoRows is the absence sentinel shared by all implementations, so
// services and the memory stores agree on one value.
var ErrNoRows = pgx.ErrNoRows
