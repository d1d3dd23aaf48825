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

	"rollcall/internal/attendance/dedup"
	"rollcall/internal/attendance/geo"
	"rollcall/internal/attendance/handler"
	attendancemetrics "rollcall/internal/attendance/metrics"
	"rollcall/internal/attendance/netcheck"
	"rollcall/internal/attendance/service"
	"rollcall/internal/audit"
	"rollcall/internal/jwttoken"
	"rollcall/internal/platform/config"
	"rollcall/internal/platform/httpserver"
	"rollcall/internal/platform/logger"
	"rollcall/internal/platform/metrics"
	"rollcall/internal/platform/redis"

	attendanceledger "rollcall/internal/attendance/ledger"
)

const auditInboxSize = 256

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal packages.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New()

	rdb, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("location store connection failed", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()
	anchors := geo.NewRedisAnchorStore(rdb.Client)

	cgnat, err := netcheck.NewRangeTable(cfg.CGNATRanges)
	if err != nil {
		log.Error("invalid cgnat ranges", "error", err)
		os.Exit(1)
	}
	var knownVPN netcheck.RangeTable
	if cfg.VPNRangesFile != "" {
		cidrs, err := netcheck.LoadRangesFile(cfg.VPNRangesFile)
		if err != nil {
			log.Error("could not load vpn ranges file", "path", cfg.VPNRangesFile, "error", err)
			os.Exit(1)
		}
		if knownVPN, err = netcheck.NewRangeTable(cidrs); err != nil {
			log.Error("invalid vpn ranges file", "path", cfg.VPNRangesFile, "error", err)
			os.Exit(1)
		}
	}
	var reputation netcheck.ReputationClient
	if cfg.ReputationURL != "" {
		reputation = netcheck.NewHTTPReputationClient(cfg.ReputationURL, cfg.ReputationToken, cfg.UpstreamReadTimeout)
	} else {
		log.Warn("reputation api not configured, relying on static range tables")
	}
	classifier := netcheck.NewClassifier(cgnat, knownVPN, reputation, log)

	var store attendanceledger.Store
	if cfg.LedgerBaseURL != "" {
		store = attendanceledger.NewHTTPStore(cfg.LedgerBaseURL, cfg.LedgerToken,
			cfg.UpstreamReadTimeout, cfg.UpstreamWriteTimeout, log)
	} else {
		log.Warn("ledger store not configured, using in-process ledger")
		store = attendanceledger.NewMemoryStore(log)
	}

	policies, err := dedup.ParsePolicies(cfg.DupPolicies)
	if err != nil {
		log.Error("invalid duplicate policies", "error", err)
		os.Exit(1)
	}
	if dedup.HasPolicy(policies, dedup.PolicyIP) {
		// The v1 ledger schema has no IP column, so rows read back from the
		// store never match on it.
		log.Warn("ip duplicate policy enabled but the ledger does not persist addresses; it will not match stored rows")
	}

	auditStore, closeAudit, err := newAuditStore(cfg, log)
	if err != nil {
		log.Error("audit store setup failed", "error", err)
		os.Exit(1)
	}
	defer closeAudit()
	auditInbox := make(chan audit.Event, auditInboxSize)
	auditor := audit.NewPublisher(auditInbox, log)
	auditWorker := audit.NewWorker(auditStore, auditInbox, log)

	svc := service.New(
		anchors,
		anchors,
		store,
		classifier,
		dedup.NewDetector(policies),
		auditor,
		attendancemetrics.New(),
		log,
		service.Config{
			GeofenceRadiusM: cfg.GeofenceRadiusM,
			FlagDuplicates:  cfg.FlagDuplicates,
			RejectVPN:       cfg.RejectVPN,
		},
	)

	router := chi.NewRouter()
	handler.New(svc, jwttoken.New(cfg.JWTSigningKey, "rollcall"), log, metrics.New()).Register(router)

	srv := httpserver.New(cfg.Addr, router)
	metricsSrv := httpserver.New(cfg.MetricsAddr, promhttp.Handler())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting rollcall server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting metrics server", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := auditWorker.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// newAuditStore prefers Postgres and falls back to the in-memory sink when no
// database is configured.
func newAuditStore(cfg config.Config, log *slog.Logger) (audit.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("audit database not configured, events stay in memory")
		return audit.NewMemoryStore(), func() {}, nil
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return audit.NewPostgresStore(db), func() { _ = db.Close() }, nil
}
