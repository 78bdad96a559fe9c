// Command todoapp serves the todo-list backend: cookie-based stateless
// sessions, a CSRF double-submit guard on mutating routes, and per-user
// todo CRUD over PostgreSQL.
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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/user/todoapp-go/auth"
	"github.com/user/todoapp-go/config"
	"github.com/user/todoapp-go/db"
	"github.com/user/todoapp-go/todos"
	"github.com/user/todoapp-go/users"
)

const migrationsPath = "./migrations"

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env file not loaded", "err", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(cfg.Database)
	if err != nil {
		slog.Error("failed to create database pool", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.RunMigrations(cfg.Database.URL, migrationsPath); err != nil {
		slog.Error("failed to run migrations", "err", err)
		os.Exit(1)
	}

	sessions := auth.NewSessionManager(*cfg.Auth)

	authService := auth.NewAuthService(auth.NewPostgresUserStore(pool))
	authHandlers := auth.NewHandlers(authService, sessions)

	todoService := todos.NewService(todos.NewPostgresStore(pool))
	todoHandlers := todos.NewHandlers(todoService, sessions)

	userService := users.NewService(users.NewPostgresStore(pool))
	userHandlers := users.NewHandlers(userService, sessions)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Credentials must be allowed for the session cookie to travel, and the
	// CSRF header must be allow-listed or the browser strips it preflight.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", auth.CSRFHeaderName},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handleHealth)

	r.Post("/register", authHandlers.HandleRegister())
	r.Post("/login", authHandlers.HandleLogin())
	r.Post("/logout", authHandlers.HandleLogout())

	r.Route("/todos", todoHandlers.RegisterRoutes)
	r.Route("/users", userHandlers.RegisterRoutes)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// handleHealth reports liveness; it touches nothing downstream.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	auth.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
