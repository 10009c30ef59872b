package bot

import (
	"context"
	"testing"
	"time"

	"bettersaved/internal/config"
	"bettersaved/internal/database"
	"bettersaved/internal/events"
	"bettersaved/internal/localization"
	"bettersaved/internal/models"
	"bettersaved/internal/repository"
	"bettersaved/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTelegram записывает исходящие вызовы вместо похода в Telegram API.
type stubTelegram struct {
	sent      []string
	keyboards []tgbotapi.InlineKeyboardMarkup
	edits     []string
	requests  []tgbotapi.Chattable
	answered  []string
	nextID    int
}

func (s *stubTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.nextID++
	return tgbotapi.Message{MessageID: s.nextID}, nil
}

func (s *stubTelegram) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.requests = append(s.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (s *stubTelegram) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	s.sent = append(s.sent, text)
	s.nextID++
	return tgbotapi.Message{MessageID: s.nextID}, nil
}

func (s *stubTelegram) SendHTML(chatID int64, text string) (tgbotapi.Message, error) {
	return s.SendMessage(chatID, text)
}

func (s *stubTelegram) SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	s.keyboards = append(s.keyboards, keyboard)
	return s.SendMessage(chatID, text)
}

func (s *stubTelegram) EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	s.edits = append(s.edits, text)
	if keyboard != nil {
		s.keyboards = append(s.keyboards, *keyboard)
	}
	return tgbotapi.Message{MessageID: messageID}, nil
}

func (s *stubTelegram) DeleteMessage(chatID int64, messageID int) error { return nil }

func (s *stubTelegram) DeleteAfter(chatID int64, messageID int, delay time.Duration) {}

func (s *stubTelegram) AnswerCallback(callbackID string, text string) error {
	s.answered = append(s.answered, callbackID)
	return nil
}

func (s *stubTelegram) GetFileDirectURL(fileID string) (string, error) {
	return "https://files.local/" + fileID, nil
}

func (s *stubTelegram) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (s *stubTelegram) GetSelf() tgbotapi.User {
	return tgbotapi.User{UserName: "bettersaved_bot"}
}

func (s *stubTelegram) StopReceivingUpdates() {}

func setupBot(t *testing.T) (*Bot, *stubTelegram, *database.DB) {
	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	locales, err := localization.Load()
	require.NoError(t, err)

	logger := zerolog.Nop()
	bus := events.NewEventBus()
	tg := &stubTelegram{}

	stateService := service.NewStateService(repository.NewMemoryStateRepository(models.DefaultStateTTL), &logger)
	accountService := service.NewAccountService(db, locales, bus, &logger)
	saveService := service.NewSaveService(db, nil, nil, bus, &logger)

	cfg := &config.Config{Bot: config.BotConfig{
		RateLimitMessages: 100,
		RateLimitWindow:   60,
		StatusMessageTTL:  1,
	}}

	b, err := NewBot(tg, cfg, stateService, accountService, nil, saveService, nil, bus, locales, nil, &logger)
	require.NoError(t, err)
	return b, tg, db
}

func commandUpdate(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, FirstName: "Ivan", LanguageCode: "en"},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}}
}

func keyboardHasCallback(keyboard tgbotapi.InlineKeyboardMarkup, data string) bool {
	for _, row := range keyboard.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil && *btn.CallbackData == data {
				return true
			}
		}
	}
	return false
}

func TestStartSendsMainMenu(t *testing.T) {
	b, tg, _ := setupBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, commandUpdate(100, "/start"))

	require.Len(t, tg.keyboards, 1)
	assert.True(t, keyboardHasCallback(tg.keyboards[0], "menu:connect"))
	assert.True(t, keyboardHasCallback(tg.keyboards[0], "menu:settings"))

	require.Len(t, tg.sent, 1)
	assert.Contains(t, tg.sent[0], "Ivan")
}

func TestCancelClearsStateAndConfirms(t *testing.T) {
	b, tg, _ := setupBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, commandUpdate(101, "/start"))
	require.NoError(t, b.stateService.SetUserState(ctx, 101, models.StepAwaitingNukeReply, nil))

	b.handleMessage(ctx, commandUpdate(101, "/cancel"))

	state, err := b.stateService.GetUserState(ctx, 101)
	require.NoError(t, err)
	assert.Nil(t, state)
	require.NotEmpty(t, tg.sent)
	assert.Equal(t, "Cancelled.", tg.sent[len(tg.sent)-1])
}

func TestCallbackWithoutMessage(t *testing.T) {
	b, tg, _ := setupBot(t)
	ctx := context.Background()

	// Для сообщений старше 48 часов Telegram присылает callback без Message
	update := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: &tgbotapi.User{ID: 102},
		Data: "menu:settings",
	}}

	assert.NotPanics(t, func() { b.handleCallbackQuery(ctx, update) })
	assert.Equal(t, []string{"cb1"}, tg.answered)
	assert.Empty(t, tg.edits)
}

func TestAttachmentWithoutDriveIsRejected(t *testing.T) {
	b, tg, db := setupBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, commandUpdate(103, "/start"))

	update := tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 2,
		From:      &tgbotapi.User{ID: 103, FirstName: "Ivan", LanguageCode: "en"},
		Chat:      &tgbotapi.Chat{ID: 103},
		Photo:     []tgbotapi.PhotoSize{{FileID: "p1", Width: 1280}},
	}}
	b.handleMessage(ctx, update)

	require.NotEmpty(t, tg.sent)
	assert.Contains(t, tg.sent[len(tg.sent)-1], "/connect_drive")

	account, err := db.GetAccountByTelegramID(ctx, 103)
	require.NoError(t, err)
	count, err := db.CountSavedItems(ctx, account.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBotCommandsIncludeCancel(t *testing.T) {
	commands := botCommands()

	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		names = append(names, cmd.Command)
	}
	assert.Contains(t, names, "start")
	assert.Contains(t, names, "cancel")
	assert.Contains(t, names, "connect_drive")
	assert.Contains(t, names, "nuke_user")
}

func TestRegisterCommands(t *testing.T) {
	b, tg, _ := setupBot(t)

	b.registerCommands()

	require.Len(t, tg.requests, 1)
	_, ok := tg.requests[0].(tgbotapi.SetMyCommandsConfig)
	assert.True(t, ok)
}
