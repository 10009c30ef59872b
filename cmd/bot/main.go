package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"bettersaved/internal/bot"
	"bettersaved/internal/config"
	"bettersaved/internal/database"
	"bettersaved/internal/events"
	"bettersaved/internal/google"
	"bettersaved/internal/localization"
	"bettersaved/internal/logging"
	"bettersaved/internal/models"
	"bettersaved/internal/repository"
	"bettersaved/internal/service"
	"bettersaved/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	locales, err := localization.Load()
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка загрузки локализации")
		return err
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if count, err := db.CountAccounts(ctx); err == nil {
		logger.Info().Int64("accounts", count).Msg("База данных готова")
	}

	auth, err := google.NewAuthenticator(cfg.Google.CredentialsFile)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации Google OAuth")
		return err
	}

	// Один лимитер на все вызовы Google API
	googleLimiter := rate.NewLimiter(rate.Limit(cfg.Google.RateLimitRPS), cfg.Google.RateBurst)
	driveClient := google.NewDriveClient(googleLimiter)
	sheetsClient := google.NewSheetsClient(googleLimiter)

	redisClient, stateService := initStateService(ctx, cfg, &logger)
	defer func() { _ = repository.Close(redisClient) }()

	eventBus := events.NewEventBus()

	linkService := service.NewLinkService(db, auth, driveClient, sheetsClient, eventBus, &logger, cfg.Google.RootFolderName)
	accountService := service.NewAccountService(db, locales, eventBus, &logger)
	saveService := service.NewSaveService(db, auth, driveClient, eventBus, &logger)
	sheetSyncer := service.NewSheetSyncer(db, auth, sheetsClient, linkService, &logger)

	retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
	workerLogger := logger.With().Str("component", "sheets-worker").Logger()
	sheetsWorker := worker.NewSheetsWorker(db, sheetSyncer, redisClient, retryPolicy, &workerLogger)
	go sheetsWorker.Start(ctx)

	subscribeSaveEvents(ctx, eventBus, sheetsWorker, &logger)

	metrics := bot.NewMetrics()

	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	return startBot(ctx, cfg, stateService, accountService, linkService, saveService, sheetsWorker, eventBus, locales, metrics, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}
	return nil
}

func initStateService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *service.StateService) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	primaryRepo := repository.NewRedisStateRepository(redisClient, models.DefaultStateTTL)
	fallbackRepo := repository.NewMemoryStateRepository(models.DefaultStateTTL)
	stateRepo := repository.NewFailoverStateRepository(primaryRepo, fallbackRepo, logger)
	return redisClient, service.NewStateService(stateRepo, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Int("port", port).Msg("Metrics server started")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("Metrics server error")
	}
}

func startBot(
	ctx context.Context,
	cfg *config.Config,
	stateService *service.StateService,
	accountService *service.AccountService,
	linkService *service.LinkService,
	saveService *service.SaveService,
	sheetsWorker *worker.SheetsWorker,
	eventBus *events.EventBus,
	locales *localization.Table,
	metrics *bot.Metrics,
	logger *zerolog.Logger,
) error {
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	botWrapper := bot.NewBotWrapper(botAPI)
	tgService := service.NewTelegramService(botWrapper)

	telegramBot, err := bot.NewBot(
		tgService, cfg, stateService, accountService,
		linkService, saveService, sheetsWorker, eventBus,
		locales, metrics, logger,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}

	logger.Info().Msg("Бот запущен...")
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}

// subscribeSaveEvents превращает события сохранения в задачи воркера.
func subscribeSaveEvents(
	ctx context.Context,
	bus *events.EventBus,
	sheetsWorker *worker.SheetsWorker,
	logger *zerolog.Logger,
) {
	if bus == nil || sheetsWorker == nil {
		return
	}

	bus.Subscribe(events.EventItemSaved, func(ev *events.Event) error {
		var payload events.ItemSavedPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}

		// Без привязанного Google аккаунта дописывать нечего
		if !payload.HasDrive {
			return nil
		}

		if err := sheetsWorker.EnqueueTask(ctx, models.TaskAppendRow, payload.AccountID, payload.ItemID); err != nil {
			logger.Error().Err(err).Int64("item_id", payload.ItemID).Msg("event bus: enqueue append")
		}
		return nil
	})
}
