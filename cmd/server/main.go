package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"docket/internal/checklist/catalog"
	"docket/internal/checklist/credentials"
	"docket/internal/checklist/handler"
	"docket/internal/checklist/metrics"
	"docket/internal/checklist/ports"
	"docket/internal/checklist/service"
	"docket/internal/checklist/store/cache"
	memorystore "docket/internal/checklist/store/memory"
	"docket/internal/checklist/store/postgres"
	"docket/internal/jwttoken"
	"docket/internal/platform/config"
	"docket/internal/platform/httpserver"
	"docket/internal/platform/logger"
	"docket/internal/platform/middleware"
	platformredis "docket/internal/platform/redis"
	"docket/pkg/platform/audit/publisher"
	kafkapub "docket/pkg/platform/audit/publishers/kafka"
	auditmemory "docket/pkg/platform/audit/store/memory"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps
// the server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Error("failed to load catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}

	// Record store: postgres when configured, in-memory otherwise.
	var store ports.RecordStore
	var db *sql.DB
	if cfg.Postgres.URL != "" {
		db, err = sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		store = postgres.NewPostgres(db, cfg.Postgres.Table,
			postgres.WithFieldLimit(cfg.Postgres.FieldLimit))
	} else {
		log.Warn("no postgres URL configured, using in-memory record store")
		store = memorystore.New(cat.FetchFields())
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	var snapshots *cache.SnapshotCache
	if redisClient != nil {
		snapshots = cache.New(redisClient.Client, cfg.Redis.SnapshotTTL)
	}

	// Audit: kafka sink when brokers are configured, in-memory store
	// otherwise.
	var auditPublisher ports.AuditPublisher
	var closers []func()
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := kafkapub.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		auditPublisher = kp
		closers = append(closers, kp.Close)
	} else {
		p := publisher.NewPublisher(auditmemory.NewInMemoryStore(), publisher.WithLogger(log), publisher.WithAsyncBuffer(256))
		auditPublisher = p
		closers = append(closers, func() { p.Close() })
	}

	checklistMetrics := metrics.New()
	svc, err := service.New(cat, store, credentials.NewEnv(cfg.RecordTokenEnv),
		service.WithLogger(log),
		service.WithMetrics(checklistMetrics),
		service.WithAuditPublisher(auditPublisher),
		service.WithSnapshotCache(snapshots),
		service.WithDebounce(cfg.DebounceInterval),
		service.WithRetryBudget(cfg.SaveRetryBudget),
	)
	if err != nil {
		log.Error("failed to build checklist service", "error", err)
		os.Exit(1)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "docket", "docket-api")
	checklistHandler := handler.NewHandler(svc, log)

	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), log))
		checklistHandler.RegisterRoutes(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting docket", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
	}

	for _, close := range closers {
		close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
