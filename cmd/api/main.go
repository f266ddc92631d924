package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"convohub-platform/internal/actions"
	"convohub-platform/internal/analysis"
	"convohub-platform/internal/audit"
	"convohub-platform/internal/auth"
	"convohub-platform/internal/calls"
	"convohub-platform/internal/config"
	"convohub-platform/internal/contacts"
	"convohub-platform/internal/conversation"
	"convohub-platform/internal/deals"
	"convohub-platform/internal/httpapi"
	"convohub-platform/internal/interactions"
	"convohub-platform/internal/merchants"
	"convohub-platform/internal/pipeline"
	"convohub-platform/internal/reporting"
	"convohub-platform/internal/telephony"
	"convohub-platform/internal/tickets"
	"convohub-platform/pkg/logger"
	"convohub-platform/pkg/utils"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local/dev convenience only; production relies on real env.
	if env := os.Getenv("APP_ENV"); env != "production" {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Stores
	customerRepo := contacts.NewPostgresRepo(db)
	interactionRepo := interactions.NewPostgresRepo(db)
	callRepo := calls.NewPostgresRepo(db)
	dealRepo := deals.NewPostgresRepo(db)
	actionRepo := actions.NewPostgresRepo(db)
	ticketRepo := tickets.NewMemoryRepo() // read-only lookup; external system of record
	directory := merchants.NewPostgresDirectory(db)

	// Services
	resolver := contacts.NewResolver(customerRepo)
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	analyzer := analysis.NewAnalyzer(&analysis.OpenAIProvider{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Client:  &http.Client{Timeout: cfg.AI.RequestTimeout},
	}, log)
	applier := pipeline.NewApplier(resolver, customerRepo, dealRepo, actionRepo, auditSvc, log)
	queue := pipeline.NewRedisQueue(rdb)
	conversations := &conversation.Service{
		Interactions: interactionRepo,
		Calls:        callRepo,
		Customers:    customerRepo,
		Tickets:      ticketRepo,
		Deals:        dealRepo,
	}
	reports := reporting.NewService(callRepo, interactionRepo, dealRepo)
	ingestor := &telephony.Ingestor{
		Interactions: interactionRepo,
		Calls:        callRepo,
		Resolver:     resolver,
		Queue:        queue,
		Logger:       log,
	}

	worker := &pipeline.Worker{
		Queue:       queue,
		Calls:       callRepo,
		Analyzer:    analyzer,
		Applier:     applier,
		Logger:      log,
		Rdb:         rdb,
		MerchantCap: cfg.Worker.MerchantAnalysisCap,
		Concurrency: cfg.Worker.Concurrency,
	}
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(rootCtx)
	}()

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	deps := routeDeps{
		Auth:     authManager,
		Handlers: httpapi.Handlers{Auth: authManager, Conversations: conversations, Calls: callRepo, Analyzer: analyzer, Applier: applier, Reporting: reports},
		Webhooks: telephony.WebhookHandler{Ingestor: ingestor, MerchantIDResolver: numberResolver(directory)},
		DB:       db,
		Redis:    rdb,
	}
	registerRoutes(r, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn("worker did not stop before deadline")
	}
}

// numberResolver adapts the merchant number directory to the webhook
// handler's injection point.
func numberResolver(d merchants.Directory) func(c *gin.Context, toNumber string) (string, error) {
	return func(c *gin.Context, toNumber string) (string, error) {
		return d.ResolveNumber(c.Request.Context(), toNumber)
	}
}
