package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/eaata/helpdesk/internal/api/http/handlers"
	"github.com/eaata/helpdesk/internal/auth"
	"github.com/eaata/helpdesk/internal/realtime"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Metrics  *handlers.MetricsHandler
	Tickets  *handlers.TicketsHandler
	Comments *handlers.CommentsHandler
	History  *handlers.HistoryHandler
	Sectors  *handlers.SectorsHandler
	Uploads  *handlers.UploadsHandler
	Reports  *handlers.ReportHandler
	Config   *handlers.ConfigHandler
	Hub      *realtime.Hub
	Tokens   *auth.TokenManager
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Snapshot)

	if cfg.Hub != nil {
		app.Get("/ws", realtime.RequireUpgrade, cfg.Hub.Handler())
	}

	tickets := app.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/departments", cfg.Tickets.Departments)
	tickets.Get("/report/period", cfg.Tickets.ByPeriod)
	tickets.Patch("/comments/:commentId", cfg.Comments.UpdateComment)
	tickets.Delete("/comments/:commentId", cfg.Comments.DeleteComment)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/pdf", cfg.Tickets.TicketPDF)
	tickets.Get("/:id/history", cfg.History.ListHistory)
	tickets.Post("/:id/comments", cfg.Comments.AddComment)
	tickets.Get("/:id/comments", cfg.Comments.ListComments)

	sectors := app.Group("/sectors")
	sectors.Post("/", cfg.Sectors.CreateSector)
	sectors.Get("/", cfg.Sectors.ListSectors)
	sectors.Get("/:id", cfg.Sectors.GetSector)
	sectors.Delete("/:id", cfg.Sectors.DeleteSector)

	upload := app.Group("/upload")
	upload.Post("/image", cfg.Uploads.UploadImage)
	upload.Delete("/image/:filename", cfg.Uploads.DeleteImage)
	upload.Get("/uploads/:filename", cfg.Uploads.ServeImage)

	report := app.Group("/report")
	report.Post("/generate-pdf", cfg.Reports.GeneratePDF)
	report.Get("/summary", cfg.Reports.Summary)
	report.Get("/pdf", cfg.Reports.PDF)

	configGroup := app.Group("/config")
	configGroup.Get("/db", cfg.Config.GetDatabase)
	configGroup.Post("/db", auth.RequireAdmin(cfg.Tokens), cfg.Config.SaveDatabase)
}
