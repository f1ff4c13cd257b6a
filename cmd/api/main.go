package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"socialloom.io/internal/asset"
	"socialloom.io/internal/audit"
	"socialloom.io/internal/briefing"
	"socialloom.io/internal/config"
	"socialloom.io/internal/generation"
	"socialloom.io/internal/httpapi"
	"socialloom.io/internal/identity"
	"socialloom.io/internal/jobs"
	"socialloom.io/internal/obs"
	"socialloom.io/internal/sched"
	"socialloom.io/internal/tenant"
	"socialloom.io/internal/workflow"
)

var version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := obs.NewLogger(cfg.Environment)
	obs.Init()

	// Identity store: Postgres when a DSN is configured, otherwise the seeded
	// in-memory demo store.
	var (
		store identity.Store
		db    *sql.DB
	)
	if cfg.Postgres.DSN != "" {
		db, err = sql.Open("pgx", cfg.Postgres.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("open database")
		}
		db.SetMaxOpenConns(cfg.Postgres.MaxOpen)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdle)
		db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
		store = identity.NewPGStore(db)
	} else {
		mem := identity.NewMemoryStore()
		if err := identity.Seed(context.Background(), mem); err != nil {
			log.Fatal().Err(err).Msg("seed demo data")
		}
		store = mem
		log.Info().Msg("using seeded in-memory identity store")
	}

	signer, err := identity.NewTokenSigner(cfg.Auth.TokenSecret, cfg.Auth.Issuer,
		identity.WithTokenTTL(cfg.Auth.TokenTTL))
	if err != nil {
		log.Fatal().Err(err).Msg("token signer")
	}
	identitySvc, err := identity.NewService(store, signer)
	if err != nil {
		log.Fatal().Err(err).Msg("identity service")
	}

	briefings, err := briefing.NewService(tenant.NewRepo[*briefing.Briefing]())
	if err != nil {
		log.Fatal().Err(err).Msg("briefing service")
	}
	workflows, err := workflow.NewEngine(tenant.NewRepo[*workflow.Workflow]())
	if err != nil {
		log.Fatal().Err(err).Msg("workflow engine")
	}

	completer := sched.New()
	defer completer.Close()

	sessions, err := generation.NewService(
		tenant.NewRepo[*generation.Session](), briefings, workflows,
		completer, cfg.Generation.CompletionDelay, log,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("generation service")
	}
	assets, err := asset.NewGenerator(
		tenant.NewRepo[*asset.Asset](), workflows,
		completer, cfg.Generation.VideoDelay, cfg.Generation.CDNBaseURL, log,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("asset generator")
	}

	reaper, err := jobs.NewReaper(sessions, assets,
		cfg.Generation.ReaperSchedule, cfg.Generation.ProcessingDeadline, log)
	if err != nil {
		log.Fatal().Err(err).Msg("reaper")
	}
	if err := reaper.Start(); err != nil {
		log.Fatal().Err(err).Msg("start reaper")
	}

	api := httpapi.New(
		log, identitySvc, briefings, sessions, workflows, assets,
		audit.New(log), httpapi.ReadyProbe{DB: db}, version,
		httpapi.Options{
			MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
			RateBurst:    cfg.HTTP.RateBurst,
			RatePerSec:   cfg.HTTP.RatePerSec,
		},
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           api.Handler(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("starting socialloom-api")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	reaper.Stop()
	if db != nil {
		_ = db.Close()
	}
	log.Info().Msg("stopped")
}
