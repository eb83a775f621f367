// main wires the report intake and disposition portal: stores, workflow
// services, HTTP surface, and lifecycle. Business logic lives in the
// internal packages.
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

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"fiuportal/internal/assignment"
	assignmenthandler "fiuportal/internal/assignment/handler"
	assignstore "fiuportal/internal/assignment/store"
	"fiuportal/internal/audit"
	audithandler "fiuportal/internal/audit/handler"
	auditstore "fiuportal/internal/audit/store"
	"fiuportal/internal/decision"
	decisionhandler "fiuportal/internal/decision/handler"
	decisionmetrics "fiuportal/internal/decision/metrics"
	"fiuportal/internal/escalation"
	escalationhandler "fiuportal/internal/escalation/handler"
	httpapi "fiuportal/internal/http"
	"fiuportal/internal/identity"
	"fiuportal/internal/intake"
	intakehandler "fiuportal/internal/intake/handler"
	"fiuportal/internal/platform/config"
	"fiuportal/internal/platform/httpserver"
	"fiuportal/internal/platform/logger"
	platformmetrics "fiuportal/internal/platform/metrics"
	platformredis "fiuportal/internal/platform/redis"
	"fiuportal/internal/queue"
	queuehandler "fiuportal/internal/queue/handler"
	"fiuportal/internal/ratelimit"
	reportstore "fiuportal/internal/report/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	metrics := platformmetrics.New()

	var (
		reports      reportstore.Store
		assignments  assignstore.Store
		auditEntries audit.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("postgres unreachable", "error", err)
			os.Exit(1)
		}
		reports = reportstore.NewPostgres(db)
		assignments = assignstore.NewPostgres(db)
		auditEntries = auditstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		reports = reportstore.NewInMemoryStore()
		assignments = assignstore.NewInMemoryStore()
		auditEntries = auditstore.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	var limitStore ratelimit.Store = ratelimit.NewInMemoryStore()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		limitStore = ratelimit.NewRedisStore(redisClient.Client)
		log.Info("using redis rate limit store")
	}
	limiter, err := ratelimit.New(limitStore, cfg.IntakeRateLimit, cfg.IntakeRateWindow, ratelimit.WithLogger(log))
	if err != nil {
		log.Error("rate limiter init failed", "error", err)
		os.Exit(1)
	}

	ledgerOpts := []audit.Option{audit.WithLogger(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka sink init failed", "error", err)
			os.Exit(1)
		}
		ledgerOpts = append(ledgerOpts, audit.WithSink(sink, 256))
		log.Info("audit fan-out enabled", "topic", cfg.Kafka.Topic)
	}
	ledger, err := audit.New(auditEntries, ledgerOpts...)
	if err != nil {
		log.Error("audit ledger init failed", "error", err)
		os.Exit(1)
	}
	defer ledger.Close()

	assignmentSvc, err := assignment.New(assignments, reports,
		assignment.WithLogger(log),
		assignment.WithMetrics(metrics),
		assignment.WithDefaultDeadline(cfg.AssignmentDeadline),
	)
	if err != nil {
		log.Error("assignment manager init failed", "error", err)
		os.Exit(1)
	}

	decisionSvc, err := decision.New(reports, assignmentSvc, ledger,
		decision.WithLogger(log),
		decision.WithMetrics(decisionmetrics.New(prometheus.DefaultRegisterer)),
	)
	if err != nil {
		log.Error("decision engine init failed", "error", err)
		os.Exit(1)
	}

	queueSvc, err := queue.New(reports, assignmentSvc,
		queue.WithLogger(log),
		queue.WithMetrics(metrics),
	)
	if err != nil {
		log.Error("queue resolver init failed", "error", err)
		os.Exit(1)
	}

	escalationSvc, err := escalation.New(decisionSvc, ledger, escalation.WithLogger(log))
	if err != nil {
		log.Error("escalation gate init failed", "error", err)
		os.Exit(1)
	}

	intakeSvc, err := intake.New(reports,
		intake.WithLogger(log),
		intake.WithMetrics(metrics),
		intake.WithLimiter(limiter),
	)
	if err != nil {
		log.Error("intake init failed", "error", err)
		os.Exit(1)
	}

	jwtService := identity.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	router := httpapi.NewRouter(httpapi.Deps{
		Validator:  jwtService,
		Intake:     intakehandler.New(intakeSvc, log),
		Assignment: assignmenthandler.New(assignmentSvc, log),
		Decision:   decisionhandler.New(decisionSvc, log),
		Queue:      queuehandler.New(queueSvc, log),
		Escalation: escalationhandler.New(escalationSvc, log),
		Audit:      audithandler.New(ledger, log),
		Logger:     log,
	})

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting fiu-portal", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
