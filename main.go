package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mymmrac/telego"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/barbashov/chatguard/config"
	"github.com/barbashov/chatguard/internal/bayes"
	"github.com/barbashov/chatguard/internal/chatstore"
	"github.com/barbashov/chatguard/internal/llmclient"
	"github.com/barbashov/chatguard/internal/pipeline"
	"github.com/barbashov/chatguard/internal/platform"
	"github.com/barbashov/chatguard/internal/ratelimit"
	"github.com/barbashov/chatguard/internal/search"
	"github.com/barbashov/chatguard/internal/settings"
	"github.com/barbashov/chatguard/internal/spamengine"
	"github.com/barbashov/chatguard/internal/tokenizer"
	"github.com/barbashov/chatguard/internal/urlfetch"
	"github.com/barbashov/chatguard/internal/weather"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("failed to load .env")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := initSchema(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to init database schema")
	}

	limiter := ratelimit.NewRegistry(cfg.RateLimits)

	settingsStore := settings.NewSQLStore(db)
	userStore := chatstore.NewSQLUserStore(db)
	historyStore := chatstore.NewSQLMessageHistoryStore(db)
	spamHamStore := chatstore.NewSQLSpamHamStore(db)

	bayesStorage := bayes.NewSQLStorage(db, logger)
	classifier := bayes.NewClassifier(bayesStorage, bayes.DefaultConfig(), tokenizer.DefaultConfig())

	bot, err := telego.NewBot(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to construct telegram bot")
	}
	adapter := platform.NewTelegramAdapter(bot)

	scheduler := pipeline.NewDelayedTaskQueue(logger)

	engine := spamengine.New(settingsStore, userStore, historyStore, spamHamStore, classifier, adapter, scheduler)

	llmClient := llmclient.New(cfg.OpenAIAPIKey, logger, nil)

	rawCache := urlfetch.NewMemoryRawCache(1000, time.Hour)
	condensedCache := urlfetch.NewSQLCondensedCache(db, 1000, 24*time.Hour, logger)
	fetcher := urlfetch.NewFetcher(limiter, nil, rawCache, condensedCache, llmClient)

	weatherClient := weather.NewClient(nil, limiter, cfg.GeocodeAPIKey, cfg.OpenWeatherAPIKey,
		weather.NewGeocodeCache(1000, 24*time.Hour), weather.NewWeatherCache(500, 30*time.Minute))

	searchClient := search.NewClient(cfg.SearchBaseURL, cfg.SearchAPIKey, limiter)

	registry := pipeline.NewRegistry()
	registry.Register(pipeline.NewSpamCommandHandler(settingsStore, engine, adapter))
	registry.Register(pipeline.NewSearchCommandHandler(searchClient, adapter))
	registry.Register(pipeline.NewWeatherHandler(weatherClient, adapter))
	registry.Register(pipeline.NewLinkHandler(fetcher, settingsStore, adapter))

	wizard := pipeline.NewSettingsWizard(settingsStore, adapter)
	orchestrator := pipeline.New(settingsStore, engine, registry, wizard, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go scheduler.Run(ctx)

	updates, err := bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start long polling")
	}

	go runUpdateLoop(ctx, updates, orchestrator, logger)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	cancel()
	logger.Info().Msg("shutdown complete")
}

// runUpdateLoop dispatches every inbound update to the orchestrator (§4.13).
func runUpdateLoop(ctx context.Context, updates <-chan telego.Update, orchestrator *pipeline.Orchestrator, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			dispatchUpdate(ctx, update, orchestrator, log)
		}
	}
}

func dispatchUpdate(ctx context.Context, update telego.Update, orchestrator *pipeline.Orchestrator, log zerolog.Logger) {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		if cq.Message == nil {
			return
		}
		built, err := platform.BuildCallbackQuery(cq.ID, cq.From.ID, int64(cq.Message.GetMessageID()), cq.Data)
		if err != nil {
			log.Warn().Err(err).Msg("malformed callback data")
			return
		}
		orchestrator.HandleCallback(ctx, built)

	case update.Message != nil || update.ChannelPost != nil:
		env, ok := platform.BuildEnvelope(update)
		if !ok {
			return
		}
		orchestrator.Handle(ctx, env, chatKind(update))
	}
}

func chatKind(update telego.Update) pipeline.ChatKind {
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg != nil && msg.Chat.Type == telego.ChatTypePrivate {
		return pipeline.ChatPrivate
	}
	return pipeline.ChatGroup
}

func initSchema(db *sql.DB) error {
	if err := settings.InitSchema(db); err != nil {
		return err
	}
	if err := chatstore.InitUserSchema(db); err != nil {
		return err
	}
	if err := chatstore.InitMessageSchema(db); err != nil {
		return err
	}
	if err := chatstore.InitSpamSchema(db); err != nil {
		return err
	}
	return bayes.InitSchema(db)
}
