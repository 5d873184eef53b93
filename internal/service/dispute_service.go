package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mfrelance/workflow-service/internal/domain"
	"github.com/mfrelance/workflow-service/internal/events"
	"github.com/mfrelance/workflow-service/internal/repository"
	util "github.com/mfrelance/workflow-service/pkg/util"
)

// DisputeService coordinates task arbitration.
type DisputeService struct {
	disputes   repository.DisputeRepository
	dispatcher events.Dispatcher
}

// NewDisputeService constructs the service.
func NewDisputeService(disputes repository.DisputeRepository, dispatcher events.Dispatcher) *DisputeService {
	return &DisputeService{disputes: disputes, dispatcher: dispatcher}
}

// DisputeDetails is the full arbitration view: the dispute, the task it
// concerns, the escrow snapshot, the rendered thread and the handling
// admin's display name when one is assigned.
type DisputeDetails struct {
	Dispute   *domain.Dispute
	Task      *domain.Task
	Escrow    *domain.EscrowSnapshot
	Messages  []RenderedMessage
	AdminName string
}

// Create opens a dispute over a task. Only the task's client or the escrow
// counter-party may open one, and a task carries at most one dispute.
func (s *DisputeService) Create(ctx context.Context, actor domain.Actor, scope *Scope, taskID int64, reason string) (*domain.Dispute, error) {
	reason = strings.TrimSpace(reason)
	if taskID <= 0 || reason == "" {
		return nil, util.NewValidationError("task id and reason are required", nil)
	}

	task, err := scope.Tasks.Task(ctx, taskID)
	if err != nil {
		return nil, util.MapError(err)
	}
	escrow, err := scope.Escrows.SnapshotByTask(ctx, taskID)
	if err != nil {
		return nil, util.MapError(err)
	}
	if !CanOpenDispute(actor, task, escrow) {
		return nil, util.NewForbidden("only the task participants may open a dispute")
	}

	dispute := &domain.Dispute{
		TaskID:       taskID,
		OpenedBy:     actor.UserID,
		ClientID:     task.ClientID,
		FreelancerID: escrow.FreelancerID,
		Status:       domain.DisputeStatusOpen,
	}
	if err := s.disputes.Create(ctx, dispute); err != nil {
		if errors.Is(err, repository.ErrDisputeExistsForTask) {
			return nil, util.NewConflict("a dispute already exists for this task",
				map[string]any{"task_id": taskID})
		}
		return nil, util.MapError(err)
	}

	msg := &domain.DisputeMessage{
		DisputeID: dispute.ID,
		SenderID:  actor.UserID,
		Message:   reason,
	}
	if err := s.disputes.CreateMessage(ctx, msg); err != nil {
		return nil, util.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventDisputeOpened,
		ActorID:  actor.UserID,
		EntityID: dispute.ID,
	})
	return dispute, nil
}

// Details assembles the arbitration bundle for one dispute.
func (s *DisputeService) Details(ctx context.Context, actor domain.Actor, scope *Scope, disputeID int64, limit, offset int) (*DisputeDetails, error) {
	dispute, err := s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !CanReadDispute(actor, dispute) {
		return nil, util.NewForbidden("you do not have access to this dispute")
	}

	task, err := scope.Tasks.Task(ctx, dispute.TaskID)
	if err != nil {
		return nil, util.MapError(err)
	}
	escrow, err := scope.Escrows.SnapshotByTask(ctx, dispute.TaskID)
	if err != nil {
		return nil, util.MapError(err)
	}

	msgs, err := s.disputes.ListMessages(ctx, disputeID, limit, offset)
	if err != nil {
		return nil, util.MapError(err)
	}
	entries := make([]threadEntry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, threadEntry{ID: m.ID, SenderID: m.SenderID, Message: m.Message, CreatedAt: m.CreatedAt})
	}

	details := &DisputeDetails{
		Dispute:  dispute,
		Task:     task,
		Escrow:   escrow,
		Messages: renderThread(ctx, scope.Resolver, entries),
	}
	if dispute.AssignedAdmin != nil {
		details.AdminName = scope.Resolver.Resolve(ctx, *dispute.AssignedAdmin)
	}
	return details, nil
}

// PostMessage appends to the dispute thread. Participants and admins may
// write until the dispute is resolved.
func (s *DisputeService) PostMessage(ctx context.Context, actor domain.Actor, disputeID int64, payload string) (*domain.DisputeMessage, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, util.NewValidationError("message is required", nil)
	}
	dispute, err := s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !CanReadDispute(actor, dispute) {
		return nil, util.NewForbidden("you do not have access to this dispute")
	}
	if dispute.Status == domain.DisputeStatusResolved {
		return nil, util.NewInvalidState("dispute is resolved", map[string]any{"dispute_id": disputeID})
	}

	msg := &domain.DisputeMessage{
		DisputeID: disputeID,
		SenderID:  actor.UserID,
		Message:   payload,
	}
	if err := s.disputes.CreateMessage(ctx, msg); err != nil {
		return nil, util.MapError(err)
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventDisputeMessageSent,
		ActorID:  actor.UserID,
		EntityID: disputeID,
	})
	return msg, nil
}

// ListMine returns disputes where the caller appears as opener, client or
// counter-party.
func (s *DisputeService) ListMine(ctx context.Context, actor domain.Actor) ([]domain.Dispute, error) {
	disputes, err := s.disputes.ListForParticipant(ctx, actor.UserID)
	if err != nil {
		return nil, util.MapError(err)
	}
	return disputes, nil
}

// ListOpen returns every unresolved dispute for the admin queue.
func (s *DisputeService) ListOpen(ctx context.Context, actor domain.Actor) ([]domain.Dispute, error) {
	if !actor.Admin {
		return nil, util.NewForbidden("admin role required")
	}
	disputes, err := s.disputes.ListOpen(ctx)
	if err != nil {
		return nil, util.MapError(err)
	}
	return disputes, nil
}

// Assign claims an open dispute for the calling admin. Exactly one of any
// concurrent claims wins; the losers learn who got there first.
func (s *DisputeService) Assign(ctx context.Context, actor domain.Actor, disputeID int64) (*domain.Dispute, error) {
	if !actor.Admin {
		return nil, util.NewForbidden("admin role required")
	}
	dispute, err := s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute.Status == domain.DisputeStatusResolved {
		return nil, util.NewInvalidState("dispute is resolved", map[string]any{"dispute_id": disputeID})
	}
	if dispute.Status == domain.DisputeStatusAssigned {
		if dispute.AssignedAdmin != nil && *dispute.AssignedAdmin == actor.UserID {
			return dispute, util.NewIdempotentNoop(util.CodeAlreadyAssigned, "dispute already assigned to you")
		}
		details := map[string]any{"dispute_id": disputeID}
		if dispute.AssignedAdmin != nil {
			details["assigned_admin"] = *dispute.AssignedAdmin
		}
		return nil, util.NewDomainError(util.CodeAlreadyAssigned,
			"dispute already assigned to another admin", http.StatusConflict, details)
	}

	won, err := s.disputes.AssignAdmin(ctx, disputeID, actor.UserID)
	if err != nil {
		return nil, util.MapError(err)
	}
	if !won {
		return s.Assign(ctx, actor, disputeID)
	}

	dispute, err = s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventDisputeAssigned,
		ActorID:  actor.UserID,
		EntityID: disputeID,
	})
	return dispute, nil
}

// Resolve closes an assigned dispute with a resolution note. Only the
// assigned admin may resolve; an unassigned dispute must be claimed first.
func (s *DisputeService) Resolve(ctx context.Context, actor domain.Actor, disputeID int64, resolution string) (*domain.Dispute, error) {
	if !actor.Admin {
		return nil, util.NewForbidden("admin role required")
	}
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return nil, util.NewValidationError("resolution is required", nil)
	}

	dispute, err := s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	switch dispute.Status {
	case domain.DisputeStatusOpen:
		return nil, util.NewDomainError(util.CodeNotAssigned,
			"dispute must be assigned before it can be resolved", http.StatusConflict,
			map[string]any{"dispute_id": disputeID})
	case domain.DisputeStatusResolved:
		return nil, util.NewInvalidState("dispute is already resolved", map[string]any{"dispute_id": disputeID})
	}
	if dispute.AssignedAdmin == nil || *dispute.AssignedAdmin != actor.UserID {
		return nil, util.NewForbidden("only the assigned admin may resolve")
	}

	won, err := s.disputes.Resolve(ctx, disputeID, actor.UserID, resolution)
	if err != nil {
		return nil, util.MapError(err)
	}
	if !won {
		return s.Resolve(ctx, actor, disputeID, resolution)
	}

	dispute, err = s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventDisputeResolved,
		ActorID:  actor.UserID,
		EntityID: disputeID,
		Payload: events.DisputeResolvedPayload{
			TaskID:     dispute.TaskID,
			Resolution: resolution,
		},
	})
	return dispute, nil
}

func (s *DisputeService) getDispute(ctx context.Context, disputeID int64) (*domain.Dispute, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, util.NewNotFound("dispute", map[string]any{"dispute_id": disputeID})
		}
		return nil, util.MapError(err)
	}
	return dispute, nil
}
