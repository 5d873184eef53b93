package service

import (
	"context"
	"testing"

	"github.com/mfrelance/workflow-service/internal/attachment"
	"github.com/mfrelance/workflow-service/internal/domain"
	"github.com/mfrelance/workflow-service/internal/events"
	"github.com/mfrelance/workflow-service/internal/identity"
	"github.com/mfrelance/workflow-service/internal/repository/memory"
	util "github.com/mfrelance/workflow-service/pkg/util"
)

type stubDirectory struct {
	names map[int64]string
	calls int
}

func (d *stubDirectory) DisplayName(_ context.Context, userID int64) (string, error) {
	d.calls++
	name, ok := d.names[userID]
	if !ok {
		return "", nil
	}
	return name, nil
}

func testScope(names map[int64]string) *Scope {
	return &Scope{Resolver: identity.NewResolver(&stubDirectory{names: names})}
}

func newTicketService() (*TicketService, *memory.TicketStore) {
	store := memory.NewTicketStore()
	svc := NewTicketService(TicketDependencies{
		TicketRepo:  store,
		MessageRepo: store.Messages(),
		Leases:      memory.NewTriageLease(),
		Dispatcher:  events.NewInMemoryDispatcher(),
	})
	return svc, store
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	return util.CodeOf(err)
}

func TestCreateTicketRequiresSubjectAndMessage(t *testing.T) {
	svc, _ := newTicketService()
	actor := domain.Actor{UserID: 7}

	if _, err := svc.CreateTicket(context.Background(), actor, "  ", "help"); codeOf(t, err) != util.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.CreateTicket(context.Background(), actor, "billing", ""); codeOf(t, err) != util.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateTicketStoresFirstMessage(t *testing.T) {
	svc, store := newTicketService()
	actor := domain.Actor{UserID: 7}

	ticket, err := svc.CreateTicket(context.Background(), actor, "billing", "charged twice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %s, want open", ticket.Status)
	}
	msgs, err := store.ListByTicket(context.Background(), ticket.ID, 0, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Message != "charged twice" || msgs[0].SenderID != 7 {
		t.Fatalf("unexpected first message: %+v", msgs)
	}
}

func TestPostMessageAccessAndState(t *testing.T) {
	svc, _ := newTicketService()
	owner := domain.Actor{UserID: 7}
	stranger := domain.Actor{UserID: 8}
	admin := domain.Actor{UserID: 99, Admin: true}

	ticket, err := svc.CreateTicket(context.Background(), owner, "billing", "charged twice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.PostMessage(context.Background(), stranger, ticket.ID, "hi"); codeOf(t, err) != util.CodeForbidden {
		t.Fatalf("stranger post: got %v, want forbidden", err)
	}
	if _, err := svc.PostMessage(context.Background(), admin, ticket.ID, "looking into it"); err != nil {
		t.Fatalf("admin post: %v", err)
	}
	if _, err := svc.PostMessage(context.Background(), owner, 404, "hi"); codeOf(t, err) != util.CodeNotFound {
		t.Fatalf("missing ticket: got %v, want not found", err)
	}

	if _, err := svc.CloseTicket(context.Background(), owner, ticket.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := svc.PostMessage(context.Background(), owner, ticket.ID, "one more"); codeOf(t, err) != util.CodeInvalidState {
		t.Fatalf("post after close: got %v, want invalid state", err)
	}
}

func TestCloseTicketIdempotent(t *testing.T) {
	svc, _ := newTicketService()
	owner := domain.Actor{UserID: 7}
	stranger := domain.Actor{UserID: 8}

	ticket, err := svc.CreateTicket(context.Background(), owner, "billing", "charged twice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.CloseTicket(context.Background(), stranger, ticket.ID); codeOf(t, err) != util.CodeForbidden {
		t.Fatalf("stranger close: got %v, want forbidden", err)
	}

	closed, err := svc.CloseTicket(context.Background(), owner, ticket.ID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != domain.TicketStatusClosed {
		t.Fatalf("status = %s, want closed", closed.Status)
	}

	again, err := svc.CloseTicket(context.Background(), owner, ticket.ID)
	if !util.IsIdempotentNoop(err) {
		t.Fatalf("second close: got %v, want idempotent no-op", err)
	}
	if again == nil || again.Status != domain.TicketStatusClosed {
		t.Fatalf("second close should still return the ticket, got %+v", again)
	}
}

func TestRandomOpenTicketAssignsOnePerAdmin(t *testing.T) {
	svc, store := newTicketService()
	owner := domain.Actor{UserID: 7}
	for i := 0; i < 2; i++ {
		if _, err := svc.CreateTicket(context.Background(), owner, "subject", "body"); err != nil {
			t.Fatalf("seed ticket: %v", err)
		}
	}

	adminA := domain.Actor{UserID: 100, Admin: true}
	adminB := domain.Actor{UserID: 101, Admin: true}

	first, err := svc.GetRandomOpenTicket(context.Background(), adminA)
	if err != nil {
		t.Fatalf("first draw: %v", err)
	}
	second, err := svc.GetRandomOpenTicket(context.Background(), adminB)
	if err != nil {
		t.Fatalf("second draw: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("both admins drew ticket %d", first.ID)
	}
	if first.AdminID == nil || *first.AdminID != adminA.UserID {
		t.Fatalf("first ticket not assigned to admin A: %+v", first)
	}

	if _, err := svc.GetRandomOpenTicket(context.Background(), adminB); codeOf(t, err) != util.CodeNotFound {
		t.Fatalf("empty pool: got %v, want not found", err)
	}
	if _, err := svc.GetRandomOpenTicket(context.Background(), owner); codeOf(t, err) != util.CodeForbidden {
		t.Fatalf("non-admin draw: got %v, want forbidden", err)
	}

	stored, err := store.GetByID(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.AdminID == nil || *stored.AdminID != adminB.UserID {
		t.Fatalf("assignment not persisted: %+v", stored)
	}
}

func TestRenderMessagesOrderNamesAndKinds(t *testing.T) {
	svc, _ := newTicketService()
	owner := domain.Actor{UserID: 7}
	admin := domain.Actor{UserID: 99, Admin: true}

	ticket, err := svc.CreateTicket(context.Background(), owner, "bug", "first report")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Base64 of a JPEG header renders as an image attachment.
	if _, err := svc.PostMessage(context.Background(), owner, ticket.ID, "/9j/4AAQSkZJRg=="); err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := svc.PostMessage(context.Background(), admin, ticket.ID, "thanks, on it"); err != nil {
		t.Fatalf("post: %v", err)
	}

	scope := testScope(map[int64]string{7: "alice", 99: "mod"})
	rendered, err := svc.RenderMessages(context.Background(), owner, scope, ticket.ID, 0, 0)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(rendered) != 3 {
		t.Fatalf("len = %d, want 3", len(rendered))
	}
	if rendered[0].Message != "first report" || rendered[0].SenderName != "alice" {
		t.Fatalf("first entry: %+v", rendered[0])
	}
	if rendered[1].Kind != attachment.KindJPEG {
		t.Fatalf("second entry kind = %s, want jpeg", rendered[1].Kind)
	}
	if rendered[2].SenderName != "mod" || rendered[2].Kind != attachment.KindText {
		t.Fatalf("third entry: %+v", rendered[2])
	}

	if _, err := svc.RenderMessages(context.Background(), domain.Actor{UserID: 8}, scope, ticket.ID, 0, 0); codeOf(t, err) != util.CodeForbidden {
		t.Fatalf("stranger render: got %v, want forbidden", err)
	}
}

func TestExitTicketRemovesAdditionalParticipant(t *testing.T) {
	svc, store := newTicketService()
	owner := domain.Actor{UserID: 7}
	guest := domain.Actor{UserID: 11}

	ticket := &domain.Ticket{
		UserID:          owner.UserID,
		Subject:         "shared",
		Status:          domain.TicketStatusOpen,
		AdditionalUsers: []int64{guest.UserID},
	}
	if err := store.Create(context.Background(), ticket); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.ExitTicket(context.Background(), guest, ticket.ID); err != nil {
		t.Fatalf("exit: %v", err)
	}
	after, _ := store.GetByID(context.Background(), ticket.ID)
	if after.HasAccess(guest.UserID) {
		t.Fatalf("guest still has access: %+v", after)
	}

	err := svc.ExitTicket(context.Background(), domain.Actor{UserID: 42}, ticket.ID)
	if codeOf(t, err) != util.CodeForbidden {
		t.Fatalf("outsider exit: got %v, want forbidden", err)
	}
}
