package bot

import (
	"context"
	"os"
	"time"

	"bettersaved/internal/config"
	"bettersaved/internal/domain"
	"bettersaved/internal/events"
	"bettersaved/internal/localization"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Bot struct {
	tgService      domain.TelegramService
	config         *config.Config
	stateService   domain.StateManager
	accountService domain.AccountService
	linkService    domain.LinkService
	saveService    domain.SaveService
	sheetsWorker   domain.SyncWorker
	eventBus       domain.EventPublisher
	locales        *localization.Table
	metrics        *Metrics
	logger         *zerolog.Logger
}

func NewBot(
	tgService domain.TelegramService,
	config *config.Config,
	stateService domain.StateManager,
	accountService domain.AccountService,
	linkService domain.LinkService,
	saveService domain.SaveService,
	sheetsWorker domain.SyncWorker,
	eventBus domain.EventPublisher,
	locales *localization.Table,
	metrics *Metrics,
	logger *zerolog.Logger,
) (*Bot, error) {
	if eventBus == nil {
		eventBus = events.NewEventBus()
	}

	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	return &Bot{
		tgService:      tgService,
		config:         config,
		stateService:   stateService,
		accountService: accountService,
		linkService:    linkService,
		saveService:    saveService,
		sheetsWorker:   sheetsWorker,
		eventBus:       eventBus,
		locales:        locales,
		metrics:        metrics,
		logger:         logger,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")
	b.registerCommands()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
		}
	}()

	// Загрузка файла в Drive может быть долгой, таймаут с запасом
	updateCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		var userID int64
		if update.Message != nil {
			userID = update.Message.From.ID
		} else if update.CallbackQuery != nil {
			userID = update.CallbackQuery.From.ID
		}

		if userID == 0 {
			return
		}

		allowed, err := b.stateService.CheckRateLimit(updateCtx, userID,
			b.config.Bot.RateLimitMessages, time.Duration(b.config.Bot.RateLimitWindow)*time.Second)
		if err != nil {
			b.logger.Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
		} else if !allowed {
			b.logger.Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
			if update.Message != nil {
				b.reply(updateCtx, update.Message.Chat.ID, userID, "rate.limited", nil)
			}
			return
		}

		if update.CallbackQuery != nil {
			b.handleCallbackQuery(updateCtx, update)
			return
		}

		if update.Message == nil {
			return
		}

		b.handleMessage(updateCtx, update)
	})
}

// render собирает локализованный текст для пользователя.
func (b *Bot) render(ctx context.Context, userID int64, key string, args map[string]string) string {
	lang := localization.DefaultLang
	if account, err := b.accountService.Get(ctx, userID); err == nil {
		lang = account.Lang
	}
	return b.locales.Render(lang, key, args)
}

// reply отправляет локализованный ответ пользователю.
func (b *Bot) reply(ctx context.Context, chatID, userID int64, key string, args map[string]string) {
	if _, err := b.tgService.SendMessage(chatID, b.render(ctx, userID, key, args)); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}
