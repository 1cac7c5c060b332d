package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/eaata/helpdesk/internal/api/dto"
	httptransport "github.com/eaata/helpdesk/internal/api/http"
	"github.com/eaata/helpdesk/internal/api/http/handlers"
	"github.com/eaata/helpdesk/internal/auth"
	"github.com/eaata/helpdesk/internal/config"
	"github.com/eaata/helpdesk/internal/domain"
	"github.com/eaata/helpdesk/internal/events"
	"github.com/eaata/helpdesk/internal/observability"
	"github.com/eaata/helpdesk/internal/persistence"
	"github.com/eaata/helpdesk/internal/realtime"
	"github.com/eaata/helpdesk/internal/repository"
	"github.com/eaata/helpdesk/internal/service"
	"github.com/eaata/helpdesk/internal/storage"
	"github.com/eaata/helpdesk/internal/worker"
)

// multipart framing on top of the largest accepted upload
const bodyLimitMargin = 1 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := persistence.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := persistence.RunMigrations(ctx, db, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	ticketRepo := repository.NewTicketRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	sectorRepo := repository.NewSectorRepository(db)
	historyRepo := repository.NewTicketHistoryRepository(db)

	dispatcher := events.NewInMemoryDispatcher()
	hub := realtime.NewHub(realtime.DefaultBuffer, logger)
	defer hub.Close()

	var publisher realtime.Publisher = hub
	var relay *realtime.RedisRelay
	if redis.Enabled() {
		relay = realtime.NewRedisRelay(redis.Client, cfg.Redis.Channel, hub, logger)
		publisher = relay
	}

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		CommentRepo: commentRepo,
		TicketRepo:  ticketRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	sectorService := service.NewSectorService(sectorRepo)
	reportService := service.NewReportService(service.ReportDependencies{
		TicketRepo: ticketRepo,
		SectorRepo: sectorRepo,
		Location:   cfg.Report.Location(),
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		Publisher:  publisher,
		Presenter: func(t domain.Ticket) any {
			return dto.NewTicketResponse(&t, time.Now().UTC())
		},
		Logger: logger,
	})
	historyService := service.NewHistoryService(service.HistoryDependencies{
		HistoryRepo: historyRepo,
		TicketRepo:  ticketRepo,
		Logger:      logger,
	})
	historyService.RegisterHandlers(dispatcher)
	worker.StartNotificationWorker(ctx, notificationService, relay)

	uploads := storage.NewUploads(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.Storage.MaxUploadBytes + bodyLimitMargin,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, db, redis),
		Metrics:  handlers.NewMetricsHandler(metrics),
		Tickets:  handlers.NewTicketsHandler(ticketService, commentService, reportService, uploads),
		Comments: handlers.NewCommentsHandler(commentService),
		History:  handlers.NewHistoryHandler(historyService),
		Sectors:  handlers.NewSectorsHandler(sectorService),
		Uploads:  handlers.NewUploadsHandler(uploads),
		Reports:  handlers.NewReportHandler(reportService, sectorService),
		Config:   handlers.NewConfigHandler(cfg.App.ConfigFile, logger),
		Hub:      hub,
		Tokens:   tokens,
	})

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("db_driver", cfg.Database.Driver),
			zap.Bool("redis", redis.Enabled()),
		)
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
