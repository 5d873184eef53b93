package service

import (
	"context"
	"testing"

	"github.com/mfrelance/workflow-service/internal/domain"
	"github.com/mfrelance/workflow-service/internal/events"
	"github.com/mfrelance/workflow-service/internal/repository/memory"
	util "github.com/mfrelance/workflow-service/pkg/util"
)

func newChatService() (*ChatService, events.Dispatcher) {
	dispatcher := events.NewInMemoryDispatcher()
	return NewChatService(memory.NewChatStore(), dispatcher), dispatcher
}

func TestCreateRequestRejectsSelfAndDuplicates(t *testing.T) {
	svc, _ := newChatService()
	alice := domain.Actor{UserID: 1}
	bob := domain.Actor{UserID: 2}

	if _, err := svc.CreateRequest(context.Background(), alice, alice.UserID); codeOf(t, err) != util.CodeValidation {
		t.Fatalf("self request: got %v, want validation", err)
	}

	req, err := svc.CreateRequest(context.Background(), alice, bob.UserID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.Status != domain.ChatRequestPending {
		t.Fatalf("status = %s, want pending", req.Status)
	}

	// Same pair, both directions, must be rejected while the first is live.
	if _, err := svc.CreateRequest(context.Background(), alice, bob.UserID); codeOf(t, err) != util.CodeConflict {
		t.Fatalf("duplicate: got %v, want conflict", err)
	}
	if _, err := svc.CreateRequest(context.Background(), bob, alice.UserID); codeOf(t, err) != util.CodeConflict {
		t.Fatalf("reverse duplicate: got %v, want conflict", err)
	}
}

func TestAcceptOpensRoomWithBothMembers(t *testing.T) {
	svc, _ := newChatService()
	alice := domain.Actor{UserID: 1}
	bob := domain.Actor{UserID: 2}

	if _, err := svc.CreateRequest(context.Background(), alice, bob.UserID); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Only the requested party decides.
	if _, err := svc.Accept(context.Background(), alice, alice.UserID); codeOf(t, err) != util.CodeNotFound {
		t.Fatalf("requester self-accept: got %v", err)
	}

	room, err := svc.Accept(context.Background(), bob, alice.UserID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !room.HasMember(alice.UserID) || !room.HasMember(bob.UserID) {
		t.Fatalf("room members = %v, want both parties", room.Members)
	}

	// Repeating the accept is a no-op that hands back the same room.
	again, err := svc.Accept(context.Background(), bob, alice.UserID)
	if !util.IsIdempotentNoop(err) {
		t.Fatalf("repeat accept: got %v, want idempotent no-op", err)
	}
	if again.ID != room.ID {
		t.Fatalf("repeat accept room = %d, want %d", again.ID, room.ID)
	}
}

func TestCancelLifecycle(t *testing.T) {
	svc, _ := newChatService()
	alice := domain.Actor{UserID: 1}
	bob := domain.Actor{UserID: 2}
	eve := domain.Actor{UserID: 3}

	if _, err := svc.CreateRequest(context.Background(), alice, bob.UserID); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), eve, alice.UserID, bob.UserID); codeOf(t, err) != util.CodeForbidden {
		t.Fatalf("outsider cancel: got %v, want forbidden", err)
	}

	req, err := svc.Cancel(context.Background(), alice, alice.UserID, bob.UserID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if req.Status != domain.ChatRequestCancelled {
		t.Fatalf("status = %s, want cancelled", req.Status)
	}

	if _, err := svc.Cancel(context.Background(), bob, alice.UserID, bob.UserID); !util.IsIdempotentNoop(err) {
		t.Fatalf("repeat cancel: got %v, want idempotent no-op", err)
	}

	// A cancelled request cannot be accepted afterwards.
	if _, err := svc.Accept(context.Background(), bob, alice.UserID); codeOf(t, err) != util.CodeInvalidState {
		t.Fatalf("accept after cancel: got %v, want invalid state", err)
	}

	// The pair is free again for a fresh request.
	if _, err := svc.CreateRequest(context.Background(), bob, alice.UserID); err != nil {
		t.Fatalf("re-request after cancel: %v", err)
	}
}

func TestCancelAfterAcceptIsInvalid(t *testing.T) {
	svc, _ := newChatService()
	alice := domain.Actor{UserID: 1}
	bob := domain.Actor{UserID: 2}

	if _, err := svc.CreateRequest(context.Background(), alice, bob.UserID); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Accept(context.Background(), bob, alice.UserID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), alice, alice.UserID, bob.UserID); codeOf(t, err) != util.CodeInvalidState {
		t.Fatalf("cancel accepted: got %v, want invalid state", err)
	}
}

func TestSendMessageRequiresMembership(t *testing.T) {
	svc, _ := newChatService()
	alice := domain.Actor{UserID: 1}
	bob := domain.Actor{UserID: 2}
	eve := domain.Actor{UserID: 3}

	if _, err := svc.CreateRequest(context.Background(), alice, bob.UserID); err != nil {
		t.Fatalf("create: %v", err)
	}
	room, err := svc.Accept(context.Background(), bob, alice.UserID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	if _, err := svc.SendMessage(context.Background(), eve, room.ID, "hi"); codeOf(t, err) != util.CodeForbidden {
		t.Fatalf("outsider send: got %v, want forbidden", err)
	}
	if _, err := svc.SendMessage(context.Background(), alice, room.ID, " "); codeOf(t, err) != util.CodeValidation {
		t.Fatalf("blank send: got %v, want validation", err)
	}
	if _, err := svc.SendMessage(context.Background(), alice, room.ID, "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), bob, room.ID, "hey"); err != nil {
		t.Fatalf("send: %v", err)
	}

	scope := testScope(map[int64]string{1: "alice", 2: "bob"})
	rendered, err := svc.RenderRoomMessages(context.Background(), alice, scope, room.ID, 0, 0)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(rendered) != 2 || rendered[0].SenderName != "alice" || rendered[1].SenderName != "bob" {
		t.Fatalf("unexpected thread: %+v", rendered)
	}
}

func TestListRoomsNamesCounterpart(t *testing.T) {
	svc, _ := newChatService()
	alice := domain.Actor{UserID: 1}
	bob := domain.Actor{UserID: 2}

	if _, err := svc.CreateRequest(context.Background(), alice, bob.UserID); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Accept(context.Background(), bob, alice.UserID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	scope := testScope(map[int64]string{1: "alice", 2: "bob"})
	summaries, err := svc.ListRooms(context.Background(), alice, scope)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Name != "Chat bob" {
		t.Fatalf("summaries = %+v, want one room named after bob", summaries)
	}
}

func TestExitRoomKeepsHistoryAndSignalsEmpty(t *testing.T) {
	svc, dispatcher := newChatService()
	alice := domain.Actor{UserID: 1}
	bob := domain.Actor{UserID: 2}

	var emptied []int64
	dispatcher.Subscribe(events.EventChatRoomEmptied, func(_ context.Context, ev events.Event) error {
		emptied = append(emptied, ev.EntityID)
		return nil
	})

	if _, err := svc.CreateRequest(context.Background(), alice, bob.UserID); err != nil {
		t.Fatalf("create: %v", err)
	}
	room, err := svc.Accept(context.Background(), bob, alice.UserID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), alice, room.ID, "bye"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := svc.ExitRoom(context.Background(), alice, room.ID); err != nil {
		t.Fatalf("exit: %v", err)
	}
	if len(emptied) != 0 {
		t.Fatalf("room reported empty with a member left")
	}
	if err := svc.ExitRoom(context.Background(), alice, room.ID); codeOf(t, err) != util.CodeForbidden {
		t.Fatalf("repeat exit: got %v, want forbidden", err)
	}

	if err := svc.ExitRoom(context.Background(), bob, room.ID); err != nil {
		t.Fatalf("last exit: %v", err)
	}
	if len(emptied) != 1 || emptied[0] != room.ID {
		t.Fatalf("emptied = %v, want [%d]", emptied, room.ID)
	}

	// History survives membership; an admin-style direct read on the store
	// is out of scope here, but the departed member is locked out.
	if _, err := svc.SendMessage(context.Background(), bob, room.ID, "ghost"); codeOf(t, err) != util.CodeForbidden {
		t.Fatalf("send after exit: got %v, want forbidden", err)
	}
}
