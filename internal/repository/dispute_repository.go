package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mfrelance/workflow-service/internal/domain"
)

// ErrDisputeExistsForTask is returned when an insert collides with the
// one-dispute-per-task index.
var ErrDisputeExistsForTask = errors.New("dispute already exists for task")

// DisputeRepository persists disputes and their threads. Assign and Resolve
// are conditional updates so concurrent admins resolve to exactly one winner.
type DisputeRepository interface {
	Create(ctx context.Context, dispute *domain.Dispute) error
	GetByID(ctx context.Context, id int64) (*domain.Dispute, error)
	GetByTaskID(ctx context.Context, taskID int64) (*domain.Dispute, error)
	ListForParticipant(ctx context.Context, userID int64) ([]domain.Dispute, error)
	ListOpen(ctx context.Context) ([]domain.Dispute, error)
	AssignAdmin(ctx context.Context, disputeID, adminID int64) (bool, error)
	Resolve(ctx context.Context, disputeID, adminID int64, resolution string) (bool, error)
	CreateMessage(ctx context.Context, msg *domain.DisputeMessage) error
	ListMessages(ctx context.Context, disputeID int64, limit, offset int) ([]domain.DisputeMessage, error)
}

type disputeRepository struct {
	pool *pgxpool.Pool
}

// NewDisputeRepository instantiates the pgx-backed repository.
func NewDisputeRepository(pool *pgxpool.Pool) DisputeRepository {
	return &disputeRepository{pool: pool}
}

const disputeColumns = `id, task_id, opened_by, client_id, freelancer_id, status, assigned_admin, resolution, created_at, updated_at`

func (r *disputeRepository) Create(ctx context.Context, dispute *domain.Dispute) error {
	const query = `
        INSERT INTO disputes (task_id, opened_by, client_id, freelancer_id, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		dispute.TaskID,
		dispute.OpenedBy,
		dispute.ClientID,
		dispute.FreelancerID,
		dispute.Status,
	).Scan(&dispute.ID, &dispute.CreatedAt, &dispute.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDisputeExistsForTask
	}
	return err
}

func (r *disputeRepository) GetByID(ctx context.Context, id int64) (*domain.Dispute, error) {
	return r.fetchSingle(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id=$1`, id)
}

func (r *disputeRepository) GetByTaskID(ctx context.Context, taskID int64) (*domain.Dispute, error) {
	return r.fetchSingle(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE task_id=$1`, taskID)
}

func (r *disputeRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Dispute, error) {
	var d domain.Dispute
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&d.ID,
		&d.TaskID,
		&d.OpenedBy,
		&d.ClientID,
		&d.FreelancerID,
		&d.Status,
		&d.AssignedAdmin,
		&d.Resolution,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *disputeRepository) ListForParticipant(ctx context.Context, userID int64) ([]domain.Dispute, error) {
	const query = `
        SELECT ` + disputeColumns + `
        FROM disputes
        WHERE opened_by=$1 OR client_id=$1 OR freelancer_id=$1
        ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *disputeRepository) ListOpen(ctx context.Context) ([]domain.Dispute, error) {
	const query = `
        SELECT ` + disputeColumns + `
        FROM disputes
        WHERE status IN ('open','assigned')
        ORDER BY created_at ASC`
	return r.list(ctx, query)
}

func (r *disputeRepository) list(ctx context.Context, query string, args ...any) ([]domain.Dispute, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Dispute
	for rows.Next() {
		var d domain.Dispute
		if err := rows.Scan(
			&d.ID,
			&d.TaskID,
			&d.OpenedBy,
			&d.ClientID,
			&d.FreelancerID,
			&d.Status,
			&d.AssignedAdmin,
			&d.Resolution,
			&d.CreatedAt,
			&d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *disputeRepository) AssignAdmin(ctx context.Context, disputeID, adminID int64) (bool, error) {
	const query = `
        UPDATE disputes SET status='assigned', assigned_admin=$1, updated_at=NOW()
        WHERE id=$2 AND status='open' AND assigned_admin IS NULL`
	cmd, err := r.pool.Exec(ctx, query, adminID, disputeID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *disputeRepository) Resolve(ctx context.Context, disputeID, adminID int64, resolution string) (bool, error) {
	const query = `
        UPDATE disputes SET status='resolved', resolution=$1, updated_at=NOW()
        WHERE id=$2 AND status='assigned' AND assigned_admin=$3`
	cmd, err := r.pool.Exec(ctx, query, resolution, disputeID, adminID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *disputeRepository) CreateMessage(ctx context.Context, msg *domain.DisputeMessage) error {
	const query = `
        INSERT INTO dispute_messages (dispute_id, sender_id, message)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, msg.DisputeID, msg.SenderID, msg.Message).
		Scan(&msg.ID, &msg.CreatedAt)
}

func (r *disputeRepository) ListMessages(ctx context.Context, disputeID int64, limit, offset int) ([]domain.DisputeMessage, error) {
	limit, offset = normalizePage(limit, offset)
	const query = `
        SELECT id, dispute_id, sender_id, message, created_at
        FROM dispute_messages
        WHERE dispute_id=$1
        ORDER BY created_at ASC, id ASC
        LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, disputeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.DisputeMessage
	for rows.Next() {
		var m domain.DisputeMessage
		if err := rows.Scan(&m.ID, &m.DisputeID, &m.SenderID, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
