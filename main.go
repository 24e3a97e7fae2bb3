package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"squadbase/database"
	"squadbase/handlers"
	"squadbase/logging"
	"squadbase/routes"
	"squadbase/services"
	"squadbase/workers"
)

func main() {
	_ = godotenv.Load()

	logger, err := logging.NewLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if os.Getenv("JWT_SECRET") == "" {
		logger.Fatal("JWT_SECRET must be set")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, logger)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		logger.Fatal("failed to create indexes", zap.Error(err))
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Services
	notifier := services.NewNotifier(db.Notifications, logger)
	ledger := services.NewLedger(db.Users, db.Actions, db.Squads, logger)
	rules := services.NewRules(ledger, db.Users, logger)
	squads := services.NewSquads(db.Squads, db.Users, db.Invites, db.JoinRequests,
		notifier, services.DefaultTierConfig(), logger)

	push := handlers.NewPushService(db.PushSubs, logger)
	notifier.OnDeliver(push.Deliver)
	ledger.OnEvent(func(ev services.PointsEvent) {
		logger.Debug("points event",
			zap.String("wallet", ev.WalletAddress),
			zap.Int64("delta", ev.Delta),
			zap.String("reason", ev.Reason))
	})

	reconciler, err := workers.NewReconciler(squads, db.Locks, logger)
	if err != nil {
		logger.Fatal("failed to build reconciler", zap.Error(err))
	}
	if err := reconciler.Start(); err != nil {
		logger.Fatal("failed to start reconciliation jobs", zap.Error(err))
	}

	api := &handlers.API{
		Ledger:     ledger,
		Rules:      rules,
		Squads:     squads,
		Notifier:   notifier,
		Users:      db.Users,
		Actions:    db.Actions,
		Push:       push,
		Reconciler: reconciler,
		DB:         db,
		Log:        logger,
	}

	router := routes.SetupRouter(api)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := reconciler.Stop(); err != nil {
		logger.Warn("scheduler shutdown error", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	if err := db.Disconnect(shutdownCtx); err != nil {
		logger.Warn("mongo disconnect error", zap.Error(err))
	}
	logger.Info("server stopped")
}
