package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anchorhub/anchorhub-api/internal/config"
	"github.com/anchorhub/anchorhub-api/internal/database"
	"github.com/anchorhub/anchorhub-api/internal/handlers"
	authmw "github.com/anchorhub/anchorhub-api/internal/middleware"
	"github.com/anchorhub/anchorhub-api/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
)

// dueSoonCycleCap bounds one sweep cycle so a slow database cannot pile up
// overlapping cycles.
const dueSoonCycleCap = 2 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, 15*time.Minute)
	userService := services.NewUserService(db)
	workspaceService := services.NewWorkspaceService(db)
	labelService := services.NewLabelService(db)
	boardService := services.NewBoardService(db)
	itemService := services.NewItemService(db, labelService, workspaceService)

	var sink services.NotificationSink = services.NoopSink{}
	emailSink := services.NewEmailSink(cfg.SMTP, cfg.BaseURL)
	if emailSink.IsConfigured() {
		sink = emailSink
	}
	notificationService := services.NewNotificationService(db, userService, sink)

	updateService := services.NewUpdateService(db, workspaceService, itemService, notificationService)
	automationService := services.NewAutomationService(db, workspaceService, notificationService)
	automationService.Bind(itemService, updateService)
	itemService.RegisterConsumer(automationService)

	timeService := services.NewTimeService(db)
	reportService := services.NewReportService(db)

	boardHandler := handlers.NewBoardHandler(boardService, workspaceService, labelService)
	itemHandler := handlers.NewItemHandler(itemService, boardService, workspaceService)
	updateHandler := handlers.NewUpdateHandler(updateService, itemService, boardService, workspaceService)
	timeEntryHandler := handlers.NewTimeEntryHandler(timeService, itemService, boardService, workspaceService)
	automationHandler := handlers.NewAutomationHandler(automationService, boardService, workspaceService)
	reportHandler := handlers.NewReportHandler(reportService, boardService, workspaceService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())
	app.Use(authmw.Timeout(cfg.RequestTimeout))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	tasks := protected.Group("/tasks")

	tasks.Get("/boards", boardHandler.List)
	tasks.Post("/boards", boardHandler.Create)
	tasks.Get("/boards/:boardId", boardHandler.Get)
	tasks.Patch("/boards/:boardId", boardHandler.Update)
	tasks.Delete("/boards/:boardId", boardHandler.Delete)
	tasks.Post("/boards/:boardId/archive", boardHandler.Archive)
	tasks.Get("/boards/:boardId/view", boardHandler.View)
	tasks.Post("/boards/:boardId/groups", boardHandler.CreateGroup)
	tasks.Patch("/groups/:groupId", boardHandler.UpdateGroup)
	tasks.Delete("/groups/:groupId", boardHandler.DeleteGroup)

	tasks.Post("/groups/:groupId/items", itemHandler.Create)
	tasks.Patch("/items/:itemId", itemHandler.Patch)
	tasks.Post("/items/:itemId/archive", itemHandler.Archive)
	tasks.Delete("/items/:itemId", itemHandler.Delete)
	tasks.Get("/items/:itemId/subitems", itemHandler.ListSubitems)
	tasks.Post("/items/:itemId/subitems", itemHandler.CreateSubitem)
	tasks.Patch("/subitems/:subitemId", itemHandler.PatchSubitem)
	tasks.Delete("/subitems/:subitemId", itemHandler.DeleteSubitem)
	tasks.Get("/items/:itemId/assignees", itemHandler.ListAssignees)
	tasks.Post("/items/:itemId/assignees", itemHandler.AddAssignee)
	tasks.Delete("/items/:itemId/assignees/:userId", itemHandler.RemoveAssignee)

	tasks.Get("/items/:itemId/updates", updateHandler.List)
	tasks.Post("/items/:itemId/updates", updateHandler.Post)
	tasks.Get("/items/:itemId/files", updateHandler.ListFiles)
	tasks.Post("/items/:itemId/files", updateHandler.AddFile)

	tasks.Get("/items/:itemId/time-entries", timeEntryHandler.List)
	tasks.Post("/items/:itemId/time-entries", timeEntryHandler.Create)

	tasks.Get("/boards/:boardId/labels", boardHandler.ListLabels)
	tasks.Post("/boards/:boardId/labels", boardHandler.CreateLabel)

	tasks.Get("/boards/:boardId/automations", automationHandler.List)
	tasks.Post("/boards/:boardId/automations", automationHandler.Create)
	tasks.Patch("/automations/:ruleId", automationHandler.Patch)
	tasks.Delete("/automations/:ruleId", automationHandler.Delete)
	tasks.Get("/automations/:ruleId/logs", automationHandler.Logs)

	reportLimiter := authmw.NewRateLimiter(cfg.ReportRatePerMin, time.Minute)
	reports := tasks.Group("")
	reports.Use(authmw.RateLimit(reportLimiter))
	reports.Post("/reports", reportHandler.Run)
	reports.Get("/boards/:boardId/export.csv", reportHandler.ExportCSV)

	tasks.Get("/my-work", boardHandler.MyWork)

	protected.Get("/notifications", notificationHandler.List)
	protected.Post("/notifications/:notificationId/read", notificationHandler.MarkRead)

	go func() {
		ticker := time.NewTicker(cfg.DueSoonSweep)
		for range ticker.C {
			cycle, cancel := context.WithTimeout(context.Background(), dueSoonCycleCap)
			if err := automationService.RunDueSoonSweep(cycle); err != nil {
				log.Printf("due soon sweep: %v", err)
			}
			cancel()
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.ArchivePurge)
		for range ticker.C {
			purged, err := itemService.PurgeArchived(context.Background(), 30*24*time.Hour)
			if err != nil {
				log.Printf("archive purge: %v", err)
				continue
			}
			if purged > 0 {
				log.Printf("archive purge: removed %d items", purged)
			}
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}
