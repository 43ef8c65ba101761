package main

import (
	"log"

	"collections_flow_go/config"
	"collections_flow_go/db"
	"collections_flow_go/handlers"
	"collections_flow_go/services"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Open the audit database
	auditDB, err := db.OpenAudit(cfg.AuditDBPath, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to open audit database: %v", err)
	}
	defer db.Close(auditDB)

	// Wire the service graph
	storage := services.NewStorage(cfg)
	source := services.NewExcelCaseSource(cfg.SheetPath, cfg.SheetTab)
	store := services.NewFolderStore(storage, cfg)
	engine := services.NewStatusEngine(store, cfg)
	gate := services.NewIntegrityGate(store, engine)
	generator := services.NewMailMergeService(source, store, cfg)
	users := &services.StaticUserResolver{Email: cfg.OperatorEmail}
	processor := services.NewActionProcessor(source, store, store, engine, gate, generator, users, auditDB, cfg)
	diagnostics := services.NewDiagnosticsService(source, storage, auditDB, cfg)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	// Routes
	api := handlers.NewAPI(processor, source, store, engine, diagnostics, auditDB, cfg)
	api.Register(e)

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
