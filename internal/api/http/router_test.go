package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mfrelance/workflow-service/internal/api/http/handlers"
	"github.com/mfrelance/workflow-service/internal/auth"
	"github.com/mfrelance/workflow-service/internal/events"
	"github.com/mfrelance/workflow-service/internal/identity"
	"github.com/mfrelance/workflow-service/internal/observability"
	"github.com/mfrelance/workflow-service/internal/repository/memory"
	"github.com/mfrelance/workflow-service/internal/service"
)

type fixedDirectory struct{}

func (fixedDirectory) DisplayName(_ context.Context, userID int64) (string, error) {
	return fmt.Sprintf("user-%d", userID), nil
}

type stubFactory struct{}

func (stubFactory) Profiles(string) identity.Directory  { return fixedDirectory{} }
func (stubFactory) Tasks(string) service.TaskSource     { return nil }
func (stubFactory) Escrows(string) service.EscrowSource { return nil }

func newTestApp(t *testing.T) (*fiber.App, *auth.TokenManager) {
	t.Helper()
	dispatcher := events.NewInMemoryDispatcher()
	tickets := memory.NewTicketStore()
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  tickets,
		MessageRepo: tickets.Messages(),
		Leases:      memory.NewTriageLease(),
		Dispatcher:  dispatcher,
	})
	chatService := service.NewChatService(memory.NewChatStore(), dispatcher)
	disputeService := service.NewDisputeService(memory.NewDisputeStore(), dispatcher)

	tokens := auth.NewTokenManager("test-secret", 60)
	factory := stubFactory{}

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", nil, nil),
		Tickets:        handlers.NewTicketsHandler(ticketService, factory, 1<<20),
		Chat:           handlers.NewChatHandler(chatService, factory, 1<<20),
		Disputes:       handlers.NewDisputesHandler(disputeService, factory, 1<<20),
		AuthMiddleware: auth.NewMiddleware(tokens),
	})
	return app, tokens
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func bearer(t *testing.T, tokens *auth.TokenManager, userID int64, admin bool) string {
	t.Helper()
	token, _, err := tokens.GenerateToken(userID, admin)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestRoutesRejectMissingToken(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/ticket/list", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	errObj, _ := body["error"].(map[string]any)
	if errObj["code"] != "UNAUTHORIZED" {
		t.Fatalf("error envelope = %v", body)
	}
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	app, tokens := newTestApp(t)
	owner := bearer(t, tokens, 7, false)

	resp, body := doJSON(t, app, http.MethodPost, "/api/ticket/create", owner,
		map[string]any{"subject": "billing", "message": "charged twice"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d, body %v", resp.StatusCode, body)
	}
	data := body["data"].(map[string]any)
	ticketID := int64(data["id"].(float64))

	// Closing twice succeeds both times; the transition happens once.
	for i := 0; i < 2; i++ {
		resp, body = doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/api/ticket/%d/close", ticketID), owner, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("close #%d status = %d, body %v", i+1, resp.StatusCode, body)
		}
	}

	// Posting into a closed ticket is a state conflict.
	resp, body = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/ticket/%d/sendMessage", ticketID), owner,
		map[string]any{"message": "late reply"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("post-close status = %d, body %v", resp.StatusCode, body)
	}
	errObj := body["error"].(map[string]any)
	if errObj["code"] != "INVALID_STATE" {
		t.Fatalf("error code = %v", errObj["code"])
	}
}

func TestChatRequestOverHTTP(t *testing.T) {
	app, tokens := newTestApp(t)
	alice := bearer(t, tokens, 1, false)
	bob := bearer(t, tokens, 2, false)

	resp, body := doJSON(t, app, http.MethodPost, "/api/chat/request", alice,
		map[string]any{"requested_id": 2})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("request status = %d, body %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, app, http.MethodPost, "/api/chat/accept", bob,
		map[string]any{"requester_id": 1, "requested_id": 2})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accept status = %d, body %v", resp.StatusCode, body)
	}
	data := body["data"].(map[string]any)
	roomID := int64(data["room_id"].(float64))

	resp, body = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/chat/%d/sendMessage", roomID), alice,
		map[string]any{"message": "hello"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send status = %d, body %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/chat/%d/messages", roomID), bob, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("messages status = %d, body %v", resp.StatusCode, body)
	}
	items := body["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("messages = %v, want one entry", items)
	}
	first := items[0].(map[string]any)
	if first["sender_name"] != "user-1" || first["kind"] != "text" {
		t.Fatalf("unexpected message shape: %v", first)
	}
}

func TestAdminRoutesRequireAdminFlag(t *testing.T) {
	app, tokens := newTestApp(t)
	user := bearer(t, tokens, 7, false)
	admin := bearer(t, tokens, 99, true)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/admin/disputes", user, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("user on admin route: status = %d, want 403", resp.StatusCode)
	}

	resp, body := doJSON(t, app, http.MethodGet, "/api/admin/disputes", admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin queue status = %d, body %v", resp.StatusCode, body)
	}
}
