package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/EmanuelCordobaLion/cuadernito-api/internal/adapter/handler"
	"github.com/EmanuelCordobaLion/cuadernito-api/internal/adapter/middleware"
	"github.com/EmanuelCordobaLion/cuadernito-api/internal/adapter/storage"
	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/config"
	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/ledger"
	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/reconciler"
)

func main() {
	cfg := config.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := storage.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := storage.InitSchema(context.Background(), db); err != nil {
		slog.Error("schema init failed", "error", err)
		os.Exit(1)
	}

	// Repos
	userRepo := storage.NewUserRepository(db)
	categoryRepo := storage.NewCategoryRepository(db)
	debtRepo := storage.NewDebtRepository(db)
	txnRepo := storage.NewTransactionRepository(db)
	idemRepo := storage.NewIdempotencyRepository(db)

	// Core services
	debtService := ledger.NewService(db, debtRepo)
	txnService := reconciler.NewService(db, txnRepo, txnRepo, debtRepo, categoryRepo)

	// Handlers
	authHandler := &handler.AuthHandler{Users: userRepo}
	categoryHandler := &handler.CategoryHandler{Categories: categoryRepo}
	debtHandler := &handler.DebtHandler{Service: debtService}
	txnHandler := &handler.TransactionHandler{Service: txnService}
	healthHandler := &handler.HealthHandler{DB: db.Pool, Env: cfg.Env}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(cors.New())
	app.Use(middleware.RequestID())

	api := app.Group("/api/v1")

	api.Get("/health", healthHandler.Check)
	api.Get("/health/ping", healthHandler.Ping)

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password", authHandler.ResetPassword)

	private := api.Use(middleware.Protected(userRepo))
	private.Post("/auth/change-password", authHandler.ChangePassword)

	private.Post("/categories", categoryHandler.Create)
	private.Get("/categories", categoryHandler.List)
	private.Get("/categories/:id", categoryHandler.Get)
	private.Put("/categories/:id", categoryHandler.Update)

	private.Post("/customer-debts", debtHandler.Create)
	private.Get("/customer-debts", debtHandler.List)
	private.Get("/customer-debts/:id", debtHandler.Get)
	private.Put("/customer-debts/:id", debtHandler.Update)
	private.Delete("/customer-debts/:id", debtHandler.Delete)
	private.Post("/customer-debts/:id/payments", middleware.Idempotency(idemRepo), debtHandler.RegisterPayment)

	private.Post("/transactions", middleware.Idempotency(idemRepo), txnHandler.Create)
	private.Get("/transactions", txnHandler.List)
	private.Get("/transactions/:id", txnHandler.Get)
	private.Put("/transactions/:id", txnHandler.Update)
	private.Delete("/transactions/:id", txnHandler.Delete)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "env", cfg.Env, "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	db.Close()
	slog.Info("server exited")
}
