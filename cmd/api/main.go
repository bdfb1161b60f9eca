package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/perkstore/perkstore/internal/config"
	"github.com/perkstore/perkstore/internal/handler"
	"github.com/perkstore/perkstore/internal/logging"
	"github.com/perkstore/perkstore/internal/middleware"
	"github.com/perkstore/perkstore/internal/repository"
	"github.com/perkstore/perkstore/internal/service"
	"github.com/perkstore/perkstore/internal/service/order"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("perkstore-api", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	users := repository.NewUserRepository(db)
	ledger := repository.NewLedgerRepository(db)
	catalog := repository.NewCatalogRepository(db)
	inventory := repository.NewInventoryRepository(db)
	orders := repository.NewOrderRepository(db)

	creditSvc := service.NewCreditService(ledger, users, db)
	catalogSvc := service.NewCatalogService(catalog, inventory)
	inventorySvc := service.NewInventoryService(inventory, catalog, db)
	orderSvc := order.NewService(orders, inventory, ledger, users, catalog, db)

	jwtExpiry := time.Duration(cfg.TokenExpiryMin) * time.Minute

	healthHandler := handler.NewHealthHandler(db)
	authHandler := handler.NewAuthHandler(users, creditSvc, cfg.JWTSecret, jwtExpiry)
	userHandler := handler.NewUserHandler(users, creditSvc)
	productHandler := handler.NewProductHandler(catalogSvc)
	orderHandler := handler.NewOrderHandler(orderSvc)
	adminHandler := handler.NewAdminHandler(orderSvc, creditSvc, inventorySvc, catalogSvc)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.HandleFunc("POST /auth/login", authHandler.Login)

	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(cfg.JWTSecret)(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(cfg.JWTSecret)(middleware.RequireAdmin(h))
	}

	mux.Handle("GET /me", authed(userHandler.Me))
	mux.Handle("GET /me/balance", authed(userHandler.Balance))
	mux.Handle("GET /me/ledger", authed(userHandler.Ledger))

	mux.Handle("GET /products", authed(productHandler.List))
	mux.Handle("GET /products/{id}", authed(productHandler.Get))
	mux.Handle("GET /variants/{id}", authed(productHandler.GetVariant))

	mux.Handle("POST /orders", authed(orderHandler.Create))
	mux.Handle("GET /orders", authed(orderHandler.List))
	mux.Handle("GET /orders/{id}", authed(orderHandler.Get))

	mux.Handle("GET /admin/orders/pending", admin(adminHandler.PendingOrders))
	mux.Handle("POST /admin/orders/{id}/approve", admin(adminHandler.ApproveOrder))
	mux.Handle("POST /admin/orders/{id}/deny", admin(adminHandler.DenyOrder))
	mux.Handle("POST /admin/credits/grant", admin(adminHandler.GrantCredits))
	mux.Handle("POST /admin/credits/adjust", admin(adminHandler.AdjustCredits))
	mux.Handle("GET /admin/users/{id}/balance", admin(adminHandler.UserBalance))
	mux.Handle("GET /admin/users/{id}/ledger", admin(adminHandler.UserLedger))
	mux.Handle("POST /admin/inventory/adjust", admin(adminHandler.AdjustInventory))
	mux.Handle("PUT /admin/inventory/{id}", admin(adminHandler.SetInventory))
	mux.Handle("GET /admin/inventory", admin(adminHandler.InventoryOverview))
	mux.Handle("POST /admin/products", admin(adminHandler.CreateProduct))
	mux.Handle("PATCH /admin/products/{id}", admin(adminHandler.UpdateProduct))
	mux.Handle("POST /admin/products/{id}/variants", admin(adminHandler.CreateVariant))

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
