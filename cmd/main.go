package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event_service/internal/auth"
	"event_service/internal/config"
	"event_service/internal/events"
	"event_service/internal/guests"
	eventshandler "event_service/internal/http_server/handlers/events"
	guestshandler "event_service/internal/http_server/handlers/guests"
	"event_service/internal/http_server/handlers/guestverify"
	"event_service/internal/http_server/handlers/login"
	"event_service/internal/http_server/handlers/logout"
	"event_service/internal/http_server/handlers/magiclink"
	"event_service/internal/http_server/handlers/profile"
	"event_service/internal/http_server/handlers/refresh"
	"event_service/internal/http_server/handlers/register"
	"event_service/internal/http_server/middleware/authn"
	ratelimit "event_service/internal/middleware/ratelimit"
	"event_service/internal/rabbitmq"
	"event_service/internal/storage/postgres"
	"event_service/internal/users"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting event service", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	if err := postgres.Migrate(postgres.DSN(cfg)); err != nil {
		log.Error("failed to apply migrations", slog.String("err", err.Error()))
		os.Exit(1)
	}

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer msgBroker.Close()

	authService := auth.New(log, storage, storage, storage, msgBroker, cfg.Tokens)
	eventsService := events.New(log, storage)
	guestsService := guests.New(log, storage)
	usersService := users.New(log, storage)

	router := setupRouter(log, cfg, authService, eventsService, guestsService, usersService)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", slog.String("err", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", slog.String("err", err.Error()))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Event service stopped")
}

func setupRouter(
	log *slog.Logger,
	cfg *config.Config,
	authService *auth.Auth,
	eventsService *events.Events,
	guestsService *guests.Guests,
	usersService *users.Users,
) *chi.Mux {
	validate := validator.New()

	session := authn.Session(log, cfg.Tokens.AccessTokenSecret)
	refreshAuthn := authn.Refresh(log, cfg.Tokens.RefreshTokenSecret)
	guestAuthn := authn.Guest(log, cfg.Tokens.GuestTokenSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/auth", func(r chi.Router) {
		r.With(ratelimit.Login()).Post("/login", login.New(log, validate, authService))
		r.With(ratelimit.Register()).Post("/register", register.New(log, validate, authService))
		r.With(refreshAuthn, ratelimit.Refresh()).Post("/refresh", refresh.New(log, authService))
		r.With(session, ratelimit.Logout()).Post("/logout", logout.New(log, authService))

		r.Route("/guest", func(r chi.Router) {
			r.With(ratelimit.MagicLink()).Post("/magiclink", magiclink.New(log, validate, authService))

			// The magic link itself lands here as a GET.
			verify := guestverify.New(log, authService)
			r.With(guestAuthn, ratelimit.GuestVerify()).Get("/verify", verify)
			r.With(guestAuthn, ratelimit.GuestVerify()).Post("/verify", verify)
		})
	})

	r.Route("/users/profile", func(r chi.Router) {
		r.Use(session)
		r.Get("/", profile.NewGet(log, usersService))
		r.Patch("/", profile.NewUpdate(log, validate, usersService))
		r.Delete("/", profile.NewDelete(log, usersService))
	})

	r.Route("/events", func(r chi.Router) {
		r.With(session).Get("/", eventshandler.NewList(log, eventsService))
		r.With(session).Post("/", eventshandler.NewCreate(log, validate, eventsService))

		r.Route("/{eventID}", func(r chi.Router) {
			r.With(session).Get("/", eventshandler.NewGet(log, eventsService))
			r.With(session).Patch("/", eventshandler.NewUpdate(log, validate, eventsService))
			r.With(session).Delete("/", eventshandler.NewDelete(log, eventsService))

			r.Route("/guests", func(r chi.Router) {
				r.With(session).Get("/", guestshandler.NewList(log, guestsService))
				r.With(session).Get("/search", guestshandler.NewSearch(log, guestsService))
				r.With(guestAuthn).Put("/rsvp", guestshandler.NewRSVP(log, validate, guestsService))
				r.With(session).Put("/{guestID}", guestshandler.NewUpsert(log, validate, guestsService))
				r.With(session).Delete("/{guestID}", guestshandler.NewDelete(log, guestsService))
			})
		})
	})

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
