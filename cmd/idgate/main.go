package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	idhttp "github.com/hgrguric/idgate/internal/adapter/http"
	idnats "github.com/hgrguric/idgate/internal/adapter/nats"
	idotel "github.com/hgrguric/idgate/internal/adapter/otel"
	"github.com/hgrguric/idgate/internal/adapter/postgres"
	"github.com/hgrguric/idgate/internal/adapter/smtp"
	"github.com/hgrguric/idgate/internal/config"
	"github.com/hgrguric/idgate/internal/domain"
	"github.com/hgrguric/idgate/internal/domain/user"
	"github.com/hgrguric/idgate/internal/logger"
	"github.com/hgrguric/idgate/internal/middleware"
	"github.com/hgrguric/idgate/internal/port/messagequeue"
	"github.com/hgrguric/idgate/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"log_level", cfg.Logging.Level,
	)

	ctx := context.Background()

	// --- Tracing ---
	shutdownTracer, err := idotel.InitTracer(ctx, cfg.Tracing.Endpoint, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	// --- Infrastructure ---
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	var events messagequeue.Publisher = messagequeue.Nop{}
	if cfg.NATS.URL != "" {
		pub, err := idnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		events = pub
	}
	defer func() { _ = events.Close() }()

	// --- Services ---
	store := postgres.NewStore(pool)
	builder := service.NewClaimsBuilder(store)
	authSvc := service.NewAuthService(store, builder, &cfg.Auth)
	tenantSvc := service.NewTenantService(store, events)
	userSvc := service.NewUserService(store, authSvc, events)
	mailer := smtp.NewMailer(cfg.SMTP)
	inviteSvc := service.NewInviteService(store, authSvc, mailer, events, cfg.Server.BaseURL)
	issuerSvc := service.NewIssuerService(store, &cfg.Issuer, cfg.Server.BaseURL)

	if err := seedBootstrapAdmin(ctx, store, authSvc, &cfg.Auth); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	// --- HTTP ---
	handlers := &idhttp.Handlers{
		Auth:    authSvc,
		Tenants: tenantSvc,
		Users:   userSvc,
		Invites: inviteSvc,
		Issuer:  issuerSvc,
		Cfg:     cfg,
	}

	rl := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := rl.StartCleanup(5*time.Minute, 30*time.Minute)
	defer stopCleanup()

	r := chi.NewRouter()
	r.Use(idhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(idhttp.SecurityHeaders)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(idhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(idotel.HTTPMiddleware(cfg.Logging.Service))
	// Hostname scoping runs on every request that is not on an exempt
	// prefix; scoped requests never reach a handler without a tenant.
	r.Use(middleware.ResolveTenant(store, middleware.DefaultExemptPaths))

	idhttp.MountRoutes(r, handlers, rl)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sweepAuthCodes(gctx, store)
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// sweepAuthCodes periodically removes expired authorization codes. Consumed
// codes delete themselves; this covers codes that were issued but never
// exchanged.
func sweepAuthCodes(ctx context.Context, store *postgres.Store) error {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := store.PurgeExpiredAuthCodes(ctx)
			if err != nil {
				slog.Warn("auth code sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("auth codes purged", "count", n)
			}
		}
	}
}

// seedBootstrapAdmin provisions the first global administrator on a fresh
// install so the portal is reachable before any invite exists.
func seedBootstrapAdmin(ctx context.Context, store interface {
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
}, auth *service.AuthService, cfg *config.Auth) error {
	if cfg.BootstrapEmail == "" || cfg.BootstrapPass == "" {
		return nil
	}

	_, err := store.GetUserByEmail(ctx, cfg.BootstrapEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("lookup bootstrap admin: %w", err)
	}

	u, err := auth.CreateAccount(ctx, &user.CreateRequest{
		Email:    cfg.BootstrapEmail,
		Name:     "Administrator",
		Password: cfg.BootstrapPass,
		Roles:    []string{user.RoleGlobalAdmin},
	})
	if err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	slog.Info("bootstrap admin created", "email", u.Email, "id", u.ID)
	return nil
}
