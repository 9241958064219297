// Command bot runs the course registry bot: it keeps the registry of
// provisioned courses, syncs role membership from reactions on announcement
// messages, and serves an ops endpoint with health and metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"coursebot/internal/course/cache"
	"coursebot/internal/course/importer"
	coursemetrics "coursebot/internal/course/metrics"
	"coursebot/internal/course/service"
	"coursebot/internal/course/store"
	"coursebot/internal/gateway/discord"
	"coursebot/internal/platform/config"
	"coursebot/internal/platform/httpserver"
	"coursebot/internal/platform/logger"
	"coursebot/internal/platform/postgres"
)

func main() {
	importFile := flag.String("import", "", "course list JSON to import after startup, then keep running")
	flag.Parse()

	log := logger.New()
	if err := run(context.Background(), log, *importFile); err != nil {
		log.Error("bot exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, importFile string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	m := coursemetrics.New()

	registry, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	lookup, err := cache.New(registry, cache.DefaultCapacity, cache.WithMetrics(m))
	if err != nil {
		return err
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent

	// REST works before the websocket opens; resolve our own identity now so
	// the runtime is complete before any event can arrive.
	me, err := session.User("@me")
	if err != nil {
		return fmt.Errorf("resolve bot identity: %w", err)
	}

	runtime := service.Runtime{
		GuildID:       cfg.GuildID,
		ListChannelID: cfg.ListChannelID,
		CategoryID:    cfg.CategoryID,
		ModRoleID:     cfg.ModRoleID,
		ReactEmoji:    cfg.ReactEmoji,
		BotUserID:     me.ID,
		AdminUserID:   cfg.AdminID,
	}

	gateway, err := discord.New(session, cfg.GuildID)
	if err != nil {
		return err
	}
	svc, err := service.New(registry, lookup, gateway, runtime,
		service.WithLogger(log),
		service.WithMetrics(m),
	)
	if err != nil {
		return err
	}
	events, err := discord.NewEvents(svc, cfg.GuildID, log)
	if err != nil {
		return err
	}
	events.Register(session)

	if err := session.Open(); err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer session.Close()
	log.Info("logged in", "user", me.Username, "id", me.ID)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpserver.New(cfg.OpsAddr)
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("ops server listening", "addr", cfg.OpsAddr)
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

	if importFile != "" {
		group.Go(func() error {
			imp, err := importer.New(svc,
				importer.WithLogger(log),
				importer.WithDelay(cfg.ImportDelay),
			)
			if err != nil {
				return err
			}
			// Continue-on-error by default: one bad course must not stop
			// the rest of the list.
			return imp.RunFile(groupCtx, importFile)
		})
	}

	return group.Wait()
}

// buildStore picks the registry backend. The in-memory store exists for local
// runs and tests; production uses PostgreSQL.
func buildStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	if cfg.Store == "memory" {
		return store.NewInMemory(), func() {}, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	pg := store.NewPostgres(db)
	if err := pg.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return pg, func() { _ = db.Close() }, nil
}
