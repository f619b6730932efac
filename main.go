package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/plantcare-ai/plantcare-bot/internal/bot"
	"github.com/plantcare-ai/plantcare-bot/internal/capability"
	"github.com/plantcare-ai/plantcare-bot/internal/config"
	"github.com/plantcare-ai/plantcare-bot/internal/plantapi"
	"github.com/plantcare-ai/plantcare-bot/internal/storage"
	"github.com/plantcare-ai/plantcare-bot/internal/version"
	"github.com/plantcare-ai/plantcare-bot/internal/web"
)

const logFileName = "plantcare-bot.log"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	config.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		config.FatalWithWait("failed to parse config: %v", err)
	}

	if missing := cfg.MissingBotConfig(); len(missing) > 0 {
		if config.IsInteractiveTerminal() {
			if !config.RunSetupWizard() {
				config.WaitOnWindows()
				os.Exit(1)
			}
			if cfg, err = config.Load(); err != nil {
				config.FatalWithWait("failed to parse config: %v", err)
			}
		} else {
			config.FatalWithWait("missing required config: %s", strings.Join(missing, ", "))
		}
	}
	if err := cfg.Validate(true); err != nil {
		config.FatalWithWait("invalid config: %v", err)
	}

	// JOURNAL_STREAM is set by systemd; journald keeps the logs there.
	if _, underSystemd := os.LookupEnv("JOURNAL_STREAM"); underSystemd {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			config.FatalWithWait("failed to open log file: %v", err)
		}
		defer logFile.Close()

		consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
		fileWriter := zerolog.ConsoleWriter{Out: logFile, NoColor: true}
		log.Logger = log.Output(io.MultiWriter(consoleWriter, fileWriter))

		log.Info().Str("logFile", logFileName).Msg("logging to file")
	}
	log.Info().Str("version", version.Version).Str("built", version.BuildTime).Msg("starting plantcare bot")

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		config.FatalWithWait("failed to initialize store: %v", err)
	}
	defer store.Close()
	log.Info().Str("dbPath", cfg.DBPath).Msg("store initialized")

	client := plantapi.NewClient(plantapi.ClientOpts{BaseURL: cfg.APIURL})
	api := plantapi.NewCachedClient(client, store, cfg.AnalysisCacheTTL)
	log.Info().Str("apiURL", client.BaseURL()).Dur("cacheTTL", cfg.AnalysisCacheTTL).Msg("backend client initialized")

	registry := capability.NewRegistry()

	tg, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		config.FatalWithWait("failed to initialize telegram bot: %v", err)
	}
	tg.Debug = false
	log.Info().Str("username", tg.Self.UserName).Msg("authorized on account")

	bot.RegisterCommands(tg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	b := bot.NewBot(tg, store, api, registry, cfg.AdminTelegramID, client.BaseURL())
	g.Go(func() error {
		return runBot(ctx, tg, b)
	})

	poller := capability.NewPoller(client, registry, cfg.PollInterval)
	g.Go(func() error {
		poller.Run(ctx)
		return nil
	})

	if cfg.WebAddr != "" {
		srv := web.NewServer(api, registry, client.BaseURL(), cfg.WebSessionTTL)
		g.Go(func() error {
			return srv.ListenAndServe(ctx, cfg.WebAddr)
		})
	}

	if cfg.AnalysisCacheTTL > 0 {
		g.Go(func() error {
			pruneAnalysisCache(ctx, store, cfg.AnalysisCacheTTL)
			return nil
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

func runBot(ctx context.Context, tg *tgbotapi.BotAPI, b *bot.Bot) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := tg.GetUpdatesChan(updateConfig)

	var wg sync.WaitGroup
	defer b.Shutdown()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping bot update loop")
			tg.StopReceivingUpdates()
			log.Info().Msg("waiting for active handlers to finish")
			wg.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				log.Warn().Msg("updates channel closed")
				wg.Wait()
				return nil
			}
			wg.Add(1)
			go func(u tgbotapi.Update) {
				defer wg.Done()
				b.HandleUpdate(ctx, u)
			}(update)
		}
	}
}

// pruneAnalysisCache removes expired analysis results once a day.
func pruneAnalysisCache(ctx context.Context, store *storage.SQLiteStore, maxAge time.Duration) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PruneAnalysisCache(maxAge)
			if err != nil {
				log.Warn().Err(err).Msg("failed to prune analysis cache")
				continue
			}
			log.Info().Int64("removed", n).Msg("pruned analysis cache")
		}
	}
}
