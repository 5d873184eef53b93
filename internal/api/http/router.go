package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mfrelance/workflow-service/internal/api/http/handlers"
	"github.com/mfrelance/workflow-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Chat           *handlers.ChatHandler
	Disputes       *handlers.DisputesHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/ticket")
	tickets.Post("/create", cfg.Tickets.Create)
	tickets.Get("/list", cfg.Tickets.List)
	tickets.Get("/:id/messages", cfg.Tickets.Messages)
	tickets.Post("/:id/sendMessage", cfg.Tickets.SendMessage)
	tickets.Post("/:id/close", cfg.Tickets.Close)
	tickets.Post("/:id/exit", cfg.Tickets.Exit)

	chat := api.Group("/chat")
	chat.Post("/request", cfg.Chat.CreateRequest)
	chat.Post("/accept", cfg.Chat.Accept)
	chat.Post("/cancel", cfg.Chat.Cancel)
	chat.Get("/requests", cfg.Chat.ListRequests)
	chat.Get("/rooms", cfg.Chat.ListRooms)
	chat.Get("/:id/messages", cfg.Chat.Messages)
	chat.Post("/:id/sendMessage", cfg.Chat.SendMessage)
	chat.Post("/:id/exit", cfg.Chat.Exit)

	disputes := api.Group("/disputes")
	disputes.Post("/create", cfg.Disputes.Create)
	disputes.Get("/my", cfg.Disputes.ListMine)
	disputes.Get("/:id", cfg.Disputes.Details)
	disputes.Post("/:id/sendMessage", cfg.Disputes.SendMessage)

	admin := api.Group("/admin", auth.RequireAdmin())
	admin.Get("/ticket/randomOpen", cfg.Tickets.RandomOpen)
	admin.Get("/disputes", cfg.Disputes.ListOpen)
	admin.Post("/disputes/:id/assign", cfg.Disputes.Assign)
	admin.Post("/disputes/:id/resolve", cfg.Disputes.Resolve)
}
