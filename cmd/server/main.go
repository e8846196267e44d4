package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"vn.io.arda/notifengine/internal/application"
	"vn.io.arda/notifengine/internal/config"
	"vn.io.arda/notifengine/internal/domain"
	"vn.io.arda/notifengine/internal/infrastructure/device"
	"vn.io.arda/notifengine/internal/infrastructure/jsonfile"
	"vn.io.arda/notifengine/internal/infrastructure/postgres"
	"vn.io.arda/notifengine/internal/infrastructure/prefs"
	"vn.io.arda/notifengine/internal/infrastructure/sqlite"
	kafkaio "vn.io.arda/notifengine/internal/kafka"
	transporthttp "vn.io.arda/notifengine/internal/transport/http"
)

type flags struct {
	configPath string
	logLevel   string
}

func main() {
	f := &flags{}

	app := &cli.Command{
		Name:  "notifengine",
		Usage: "Aggregate device notifications into badges, conversations and media state",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file (defaults to ./config.yaml)",
				Sources:     cli.EnvVars("NOTIFENGINE_CONFIG"),
				Destination: &f.configPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error); overrides log.level",
				Sources:     cli.EnvVars("NOTIFENGINE_LOG_LEVEL"),
				Destination: &f.logLevel,
			},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			return serve(ctx, f)
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the engine, Kafka consumer and HTTP API",
				Action: func(ctx context.Context, _ *cli.Command) error { return serve(ctx, f) },
			},
			{
				Name:   "conversations",
				Usage:  "Print the persisted conversation document as JSON",
				Action: func(ctx context.Context, c *cli.Command) error { return dumpConversations(ctx, c, f) },
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("notifengine failed")
	}
}

func setupLogging(cfg *config.Config, override string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Server.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	level := cfg.Log.Level
	if override != "" {
		level = override
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func serve(ctx context.Context, f *flags) error {
	// ── Config ───────────────────────────────────────────────────────────────
	loader := config.NewLoader(f.configPath)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// ── Logging ──────────────────────────────────────────────────────────────
	setupLogging(cfg, f.logLevel)
	log.Info().Str("env", cfg.Server.Env).Str("port", cfg.Server.Port).Str("storage", cfg.Storage.Driver).Msg("starting notifengine")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Conversation storage ─────────────────────────────────────────────────
	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	// ── Device mirror & action producer ──────────────────────────────────────
	producer, err := kafkaio.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ActionTopic)
	if err != nil {
		return fmt.Errorf("create kafka producer: %w", err)
	}
	defer producer.Close()

	mirror := device.New(producer)

	// ── Preferences ──────────────────────────────────────────────────────────
	preferences := prefs.New(cfg.Allowlist.Badge, cfg.Allowlist.Conversation, cfg.Display.Preferences())

	// ── Engine ───────────────────────────────────────────────────────────────
	svc := application.NewService(mirror, repo, preferences)
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		if err := svc.Run(ctx); err != nil {
			log.Error().Err(err).Msg("engine stopped with error")
		}
	}()

	loader.Watch(func(next *config.Config) {
		display := preferences.SetDisplay(next.Display.Preferences())
		badge := preferences.SetBadgeAllowlist(next.Allowlist.Badge)
		conversation := preferences.SetConversationAllowlist(next.Allowlist.Conversation)
		if display || badge {
			if err := svc.RefreshBadgeState(ctx); err != nil {
				log.Warn().Err(err).Msg("badge refresh after reload failed")
			}
		}
		if conversation {
			if err := svc.RefreshConversationState(ctx); err != nil {
				log.Warn().Err(err).Msg("conversation refresh after reload failed")
			}
		}
	})

	// ── Kafka Consumer ────────────────────────────────────────────────────────
	consumer, err := kafkaio.New(
		cfg.Kafka.Brokers,
		cfg.Kafka.ConsumerGroupID,
		kafkaio.Topics{
			Device:     cfg.Kafka.DeviceTopic,
			Media:      cfg.Kafka.MediaTopic,
			Preference: cfg.Kafka.PreferenceTopic,
		},
		kafkaio.NewDispatcher(mirror, svc, preferences),
	)
	if err != nil {
		return fmt.Errorf("create kafka consumer: %w", err)
	}
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		consumer.Start(ctx)
	}()

	// ── HTTP Server & SSE Hub ────────────────────────────────────────────────
	hub := transporthttp.NewHub()
	go transporthttp.Relay(ctx, hub, "badges", svc.Badges())
	go transporthttp.Relay(ctx, hub, "conversations", svc.Conversations())

	handler := transporthttp.NewHandler(svc, hub)
	router := transporthttp.NewRouter(handler, cfg.Auth.JWTSecret)

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := router.Start(":" + cfg.Server.Port); err != nil {
			log.Info().Msg("HTTP server stopped")
		}
	}()

	// ── Graceful Shutdown ─────────────────────────────────────────────────────
	<-ctx.Done()
	log.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	<-consumerDone
	<-engineDone

	log.Info().Msg("notifengine stopped")
	return nil
}

func dumpConversations(ctx context.Context, c *cli.Command, f *flags) error {
	cfg, err := config.NewLoader(f.configPath).Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	setupLogging(cfg, f.logLevel)

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	doc, err := repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load conversations: %w", err)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.Root().Writer, string(out))
	return err
}

// openRepository builds the configured conversation backend.
func openRepository(ctx context.Context, cfg *config.Config) (domain.ConversationRepository, func(), error) {
	switch cfg.Storage.Driver {
	case "", "file":
		return jsonfile.New(cfg.Storage.FilePath()), func() {}, nil

	case "sqlite":
		repo, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return repo, func() { _ = repo.Close() }, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres ping: %w", err)
		}
		repo := postgres.New(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info().Msg("postgres connected")
		return repo, pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
