// Command server runs the paperflow HTTP service: paperwork records,
// status history, and the activity log behind bearer-token auth.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"paperflow/internal/activitylog"
	"paperflow/internal/auth"
	"paperflow/internal/auth/revocation"
	"paperflow/internal/notify"
	"paperflow/internal/paperwork/events"
	"paperflow/internal/paperwork/handler"
	"paperflow/internal/paperwork/history"
	"paperflow/internal/paperwork/service"
	"paperflow/internal/paperwork/store"
	"paperflow/internal/platform/config"
	"paperflow/internal/platform/httpserver"
	"paperflow/internal/platform/logger"
	"paperflow/internal/platform/metrics"
	"paperflow/internal/platform/middleware"
	platformredis "paperflow/internal/platform/redis"
	"paperflow/internal/platform/respond"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Persistence: Postgres when configured, in-memory otherwise.
	var (
		records   store.Store
		histStore history.Store
		db        *sql.DB
	)
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to ping postgres", "error", err)
			return err
		}

		pgRecords := store.NewPostgres(db)
		if err := pgRecords.EnsureSchema(ctx); err != nil {
			log.Error("failed to ensure paperwork schema", "error", err)
			return err
		}
		pgHistory := history.NewPostgres(db)
		if err := pgHistory.EnsureSchema(ctx); err != nil {
			log.Error("failed to ensure history schema", "error", err)
			return err
		}
		records, histStore = pgRecords, pgHistory
		log.Info("using postgres stores")
	} else {
		records, histStore = store.NewMemory(), history.NewMemory()
		log.Warn("no postgres dsn configured, using in-memory stores")
	}

	activity, err := activitylog.New(cfg.ActivityLogDir, log,
		activitylog.WithMaxSize(cfg.ActivityLogMaxSize))
	if err != nil {
		log.Error("failed to open activity log", "error", err)
		return err
	}

	// Session revocation: Redis when configured, in-memory otherwise.
	var revoked auth.RevocationList
	redisClient, err := platformredis.New(ctx, cfg.RedisAddr)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		revoked = revocation.NewRedis(redisClient.Client)
		log.Info("using redis revocation list")
	} else {
		revoked = revocation.NewMemory()
	}
	validator := auth.NewValidator(cfg.JWTSigningKey, revoked)

	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if cfg.SMTPAddr != "" && len(cfg.AdminEmails) > 0 {
		notifier = notify.NewSMTPNotifier(cfg.SMTPAddr, cfg.SMTPFrom, cfg.AdminEmails)
		log.Info("using smtp notifier", "recipients", len(cfg.AdminEmails))
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafka(cfg.KafkaBrokers, log)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kafka.Close(flushCtx); err != nil {
				log.Warn("kafka close failed", "error", err)
			}
		}()
		publisher = kafka
		log.Info("publishing events to kafka", "brokers", cfg.KafkaBrokers)
	}

	var opts []service.Option
	if cfg.GuardConcurrentUpdates {
		opts = append(opts, service.WithConcurrencyGuard())
	}
	if !cfg.RecordUnchangedTransitions {
		opts = append(opts, service.WithoutUnchangedTransitionRows())
	}
	svc := service.New(records, histStore, activity, notifier, publisher, m, log, opts...)

	router := buildRouter(log, m, validator, svc, activity, db, redisClient)
	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

func buildRouter(
	log *slog.Logger,
	m *metrics.Metrics,
	validator *auth.Validator,
	svc *service.Service,
	activity *activitylog.Store,
	db *sql.DB,
	redisClient *platformredis.Client,
) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", healthHandler(db, redisClient))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	auth.NewHandler(validator, log).Register(r)

	paperworkHandler := handler.New(svc, log)
	activityHandler := activitylog.NewHandler(activity, log)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, log))
		paperworkHandler.Register(r)
		activityHandler.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(log))
			paperworkHandler.RegisterAdmin(r)
			activityHandler.RegisterAdmin(r)
		})
	})

	return r
}

// healthHandler reports liveness plus the state of whichever backing
// stores are configured.
func healthHandler(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true
		if db != nil {
			checks["postgres"] = "ok"
			if err := db.PingContext(ctx); err != nil {
				checks["postgres"] = err.Error()
				healthy = false
			}
		}
		if redisClient != nil {
			checks["redis"] = "ok"
			if err := redisClient.Health(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			}
		}

		status := http.StatusOK
		state := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		respond.JSON(w, status, map[string]any{"status": state, "checks": checks})
	}
}
