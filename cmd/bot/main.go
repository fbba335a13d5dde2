package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spok95/montage-bot/internal/access"
	"github.com/Spok95/montage-bot/internal/bot"
	"github.com/Spok95/montage-bot/internal/config"
	"github.com/Spok95/montage-bot/internal/dialog"
	"github.com/Spok95/montage-bot/internal/domain/materials"
	"github.com/Spok95/montage-bot/internal/domain/objects"
	"github.com/Spok95/montage-bot/internal/domain/regions"
	"github.com/Spok95/montage-bot/internal/infra/db"
	httpx "github.com/Spok95/montage-bot/internal/infra/http"
	"github.com/Spok95/montage-bot/internal/infra/logger"
	"github.com/Spok95/montage-bot/internal/scenario"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/subosito/gotenv"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("telegram auth failed", "err", err)
		return
	}
	log.Info("telegram connected", "username", api.Self.UserName)

	loc := time.Local
	if cfg.App.Timezone != "" {
		l, lerr := time.LoadLocation(cfg.App.Timezone)
		if lerr != nil {
			log.Error("bad app.timezone, falling back to local", "tz", cfg.App.Timezone, "err", lerr)
		} else {
			loc = l
		}
	}

	accessRepo := access.NewRepo(pool)
	resolver := access.NewResolver(accessRepo)
	states := dialog.NewRepo(pool)
	engine := scenario.New(states, scenario.Default(loc))
	regionsRepo := regions.NewRepo(pool)
	objectsRepo := objects.NewRepo(pool)
	matsRepo := materials.NewRepo(pool)
	ledger := materials.NewLedger(matsRepo)

	b := bot.New(api, log, accessRepo, resolver, engine,
		regionsRepo, objectsRepo, matsRepo, ledger, cfg.Telegram.MainAdminChatID)

	go func() {
		if err := b.Run(ctx, cfg.Telegram.PollTimeoutSec); err != nil && ctx.Err() == nil {
			log.Error("bot stopped", "err", err)
			stop()
		}
	}()
	log.Info("bot started")

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, pool.Ping)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
