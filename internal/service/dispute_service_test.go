package service

import (
	"context"
	"testing"

	"github.com/mfrelance/workflow-service/internal/domain"
	"github.com/mfrelance/workflow-service/internal/events"
	"github.com/mfrelance/workflow-service/internal/identity"
	"github.com/mfrelance/workflow-service/internal/repository/memory"
	util "github.com/mfrelance/workflow-service/pkg/util"
)

type stubTasks struct {
	tasks map[int64]*domain.Task
}

func (s *stubTasks) Task(_ context.Context, taskID int64) (*domain.Task, error) {
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, util.NewNotFound("task", map[string]any{"task_id": taskID})
	}
	return task, nil
}

type stubEscrows struct {
	snapshots map[int64]*domain.EscrowSnapshot
}

func (s *stubEscrows) SnapshotByTask(_ context.Context, taskID int64) (*domain.EscrowSnapshot, error) {
	snap, ok := s.snapshots[taskID]
	if !ok {
		return nil, util.NewNotFound("escrow", map[string]any{"task_id": taskID})
	}
	return snap, nil
}

const (
	clientID     = int64(10)
	freelancerID = int64(20)
	taskID       = int64(500)
)

func disputeScope(names map[int64]string) *Scope {
	return &Scope{
		Resolver: identity.NewResolver(&stubDirectory{names: names}),
		Tasks: &stubTasks{tasks: map[int64]*domain.Task{
			taskID: {ID: taskID, ClientID: clientID, Title: "landing page", Status: "in_progress"},
		}},
		Escrows: &stubEscrows{snapshots: map[int64]*domain.EscrowSnapshot{
			taskID: {ID: 1, TaskID: taskID, ClientID: clientID, FreelancerID: freelancerID, Amount: 250, Currency: "USD", Status: "funded"},
		}},
	}
}

func newDisputeService() *DisputeService {
	return NewDisputeService(memory.NewDisputeStore(), events.NewInMemoryDispatcher())
}

func TestCreateDisputeParticipantsOnly(t *testing.T) {
	svc := newDisputeService()
	scope := disputeScope(nil)
	client := domain.Actor{UserID: clientID}
	freelancer := domain.Actor{UserID: freelancerID}
	outsider := domain.Actor{UserID: 77}

	if _, err := svc.Create(context.Background(), outsider, scope, taskID, "not my task"); codeOf(t, err) != util.CodeForbidden {
		t.Fatalf("outsider create: got %v, want forbidden", err)
	}
	if _, err := svc.Create(context.Background(), client, scope, 999, "missing"); codeOf(t, err) != util.CodeNotFound {
		t.Fatalf("missing task: got %v, want not found", err)
	}

	dispute, err := svc.Create(context.Background(), client, scope, taskID, "work not delivered")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dispute.Status != domain.DisputeStatusOpen {
		t.Fatalf("status = %s, want open", dispute.Status)
	}
	if dispute.ClientID != clientID || dispute.FreelancerID != freelancerID {
		t.Fatalf("participants not snapshotted: %+v", dispute)
	}

	// One dispute per task, regardless of who tries again.
	if _, err := svc.Create(context.Background(), freelancer, scope, taskID, "counter"); codeOf(t, err) != util.CodeConflict {
		t.Fatalf("duplicate: got %v, want conflict", err)
	}
}

func TestDisputeAssignSingleWinner(t *testing.T) {
	svc := newDisputeService()
	scope := disputeScope(nil)
	client := domain.Actor{UserID: clientID}
	adminA := domain.Actor{UserID: 100, Admin: true}
	adminB := domain.Actor{UserID: 101, Admin: true}

	dispute, err := svc.Create(context.Background(), client, scope, taskID, "reason")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Assign(context.Background(), client, dispute.ID); codeOf(t, err) != util.CodeForbidden {
		t.Fatalf("non-admin assign: got %v, want forbidden", err)
	}

	assigned, err := svc.Assign(context.Background(), adminA, dispute.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.Status != domain.DisputeStatusAssigned || assigned.AssignedAdmin == nil || *assigned.AssignedAdmin != adminA.UserID {
		t.Fatalf("unexpected assignment: %+v", assigned)
	}

	if _, err := svc.Assign(context.Background(), adminB, dispute.ID); codeOf(t, err) != util.CodeAlreadyAssigned {
		t.Fatalf("second admin assign: got %v, want already assigned", err)
	}
	if _, err := svc.Assign(context.Background(), adminB, dispute.ID); util.IsIdempotentNoop(err) {
		t.Fatalf("losing claim must not read as a no-op: %v", err)
	}
	if _, err := svc.Assign(context.Background(), adminA, dispute.ID); !util.IsIdempotentNoop(err) {
		// Re-claiming your own dispute is harmless.
		t.Fatalf("repeat assign: got %v, want idempotent no-op", err)
	}
}

func TestDisputeResolvePolicy(t *testing.T) {
	svc := newDisputeService()
	scope := disputeScope(nil)
	client := domain.Actor{UserID: clientID}
	adminA := domain.Actor{UserID: 100, Admin: true}
	adminB := domain.Actor{UserID: 101, Admin: true}

	dispute, err := svc.Create(context.Background(), client, scope, taskID, "reason")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// An open dispute must be claimed before it resolves.
	if _, err := svc.Resolve(context.Background(), adminA, dispute.ID, "refund"); codeOf(t, err) != util.CodeNotAssigned {
		t.Fatalf("resolve open: got %v, want not assigned", err)
	}

	if _, err := svc.Assign(context.Background(), adminA, dispute.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if _, err := svc.Resolve(context.Background(), adminB, dispute.ID, "refund"); codeOf(t, err) != util.CodeForbidden {
		t.Fatalf("other admin resolve: got %v, want forbidden", err)
	}
	if _, err := svc.Resolve(context.Background(), adminA, dispute.ID, " "); codeOf(t, err) != util.CodeValidation {
		t.Fatalf("blank resolution: got %v, want validation", err)
	}

	resolved, err := svc.Resolve(context.Background(), adminA, dispute.ID, "refund the client")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != domain.DisputeStatusResolved || resolved.Resolution == nil || *resolved.Resolution != "refund the client" {
		t.Fatalf("unexpected resolution: %+v", resolved)
	}

	if _, err := svc.Resolve(context.Background(), adminA, dispute.ID, "again"); codeOf(t, err) != util.CodeInvalidState {
		t.Fatalf("repeat resolve: got %v, want invalid state", err)
	}
	if _, err := svc.PostMessage(context.Background(), client, dispute.ID, "wait"); codeOf(t, err) != util.CodeInvalidState {
		t.Fatalf("post after resolve: got %v, want invalid state", err)
	}
}

func TestDisputeDetailsBundle(t *testing.T) {
	svc := newDisputeService()
	scope := disputeScope(map[int64]string{clientID: "carol", freelancerID: "frank", 100: "arbiter"})
	client := domain.Actor{UserID: clientID}
	freelancer := domain.Actor{UserID: freelancerID}
	admin := domain.Actor{UserID: 100, Admin: true}

	dispute, err := svc.Create(context.Background(), client, scope, taskID, "work not delivered")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.PostMessage(context.Background(), freelancer, dispute.ID, "it was delivered"); err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := svc.Assign(context.Background(), admin, dispute.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	details, err := svc.Details(context.Background(), client, scope, dispute.ID, 0, 0)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if details.Task.ID != taskID || details.Escrow.FreelancerID != freelancerID {
		t.Fatalf("bundle missing task or escrow: %+v", details)
	}
	if len(details.Messages) != 2 {
		t.Fatalf("messages = %d, want 2 (reason plus reply)", len(details.Messages))
	}
	if details.Messages[0].SenderName != "carol" || details.Messages[1].SenderName != "frank" {
		t.Fatalf("unexpected senders: %+v", details.Messages)
	}
	if details.AdminName != "arbiter" {
		t.Fatalf("admin name = %q, want arbiter", details.AdminName)
	}

	if _, err := svc.Details(context.Background(), domain.Actor{UserID: 55}, scope, dispute.ID, 0, 0); codeOf(t, err) != util.CodeForbidden {
		t.Fatalf("outsider details: got %v, want forbidden", err)
	}
}

func TestDisputeListings(t *testing.T) {
	svc := newDisputeService()
	scope := disputeScope(nil)
	client := domain.Actor{UserID: clientID}
	freelancer := domain.Actor{UserID: freelancerID}
	admin := domain.Actor{UserID: 100, Admin: true}

	dispute, err := svc.Create(context.Background(), client, scope, taskID, "reason")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := svc.ListMine(context.Background(), freelancer)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != dispute.ID {
		t.Fatalf("freelancer listing = %+v", mine)
	}

	if _, err := svc.ListOpen(context.Background(), client); codeOf(t, err) != util.CodeForbidden {
		t.Fatalf("non-admin queue: got %v, want forbidden", err)
	}
	queue, err := svc.ListOpen(context.Background(), admin)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(queue) != 1 {
		t.Fatalf("queue = %+v, want the open dispute", queue)
	}

	if _, err := svc.Assign(context.Background(), admin, dispute.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := svc.Resolve(context.Background(), admin, dispute.ID, "split"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	queue, err = svc.ListOpen(context.Background(), admin)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(queue) != 0 {
		t.Fatalf("resolved dispute still queued: %+v", queue)
	}
}
