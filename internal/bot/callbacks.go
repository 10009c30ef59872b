package bot

import (
	"context"
	"strings"

	"bettersaved/internal/localization"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	callback := update.CallbackQuery

	if err := b.tgService.AnswerCallback(callback.ID, ""); err != nil {
		b.logger.Warn().Err(err).Str("callback_id", callback.ID).Msg("Failed to answer callback")
	}

	// Для сообщений старше 48 часов Telegram не присылает Message
	if callback.Message == nil {
		b.logger.Warn().Str("data", callback.Data).Msg("Callback without message")
		return
	}

	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	switch {
	case callback.Data == "disconnect:confirm":
		b.handleDisconnectConfirm(ctx, chatID, userID, messageID)

	case callback.Data == "disconnect:cancel":
		if err := b.stateService.ClearUserState(ctx, userID); err != nil {
			b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to clear user state")
		}
		b.editTo(ctx, chatID, userID, messageID, "disconnect.cancelled", nil)

	case strings.HasPrefix(callback.Data, "lang:"):
		b.handleLanguageChoice(ctx, chatID, userID, messageID, strings.TrimPrefix(callback.Data, "lang:"))

	case strings.HasPrefix(callback.Data, "menu:"):
		b.handleMenu(ctx, chatID, userID, messageID, strings.TrimPrefix(callback.Data, "menu:"))

	default:
		b.logger.Warn().Str("data", callback.Data).Msg("Unknown callback data")
	}
}

// handleMenu обрабатывает кнопки главного меню и меню настроек.
func (b *Bot) handleMenu(ctx context.Context, chatID, userID int64, messageID int, action string) {
	lang := b.userLang(ctx, userID)

	switch action {
	case "connect":
		b.handleConnectDrive(ctx, chatID, userID)

	case "user":
		b.handleUserInfo(ctx, chatID, userID)

	case "settings":
		b.editWithKeyboard(chatID, messageID, b.locales.Render(lang, "settings.title", nil), b.settingsKeyboard(lang))

	case "about":
		b.editWithKeyboard(chatID, messageID, b.locales.Render(lang, "about", nil), b.backKeyboard(lang))

	case "back":
		b.editWithKeyboard(chatID, messageID, b.locales.Render(lang, "menu.title", nil), b.mainMenuKeyboard(lang))

	case "language":
		b.editWithKeyboard(chatID, messageID, b.locales.Render(lang, "lang.prompt", nil), languageKeyboard())

	case "fix":
		b.handleFixSpreadsheet(ctx, chatID, userID)

	case "disconnect":
		account, err := b.accountService.Get(ctx, userID)
		if err != nil {
			b.sendError(chatID, userID, err)
			return
		}
		b.handleDisconnectDrive(ctx, chatID, userID, account)

	case "nuke":
		b.handleNukeWarning(ctx, chatID, userID)

	default:
		b.logger.Warn().Str("action", action).Msg("Unknown menu action")
	}
}

func (b *Bot) handleDisconnectConfirm(ctx context.Context, chatID, userID int64, messageID int) {
	if err := b.stateService.ClearUserState(ctx, userID); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to clear user state")
	}

	if err := b.linkService.Disconnect(ctx, userID); err != nil {
		b.editTo(ctx, chatID, userID, messageID, errorKey(err), nil)
		return
	}

	if b.metrics != nil {
		b.metrics.AccountsUnlinked.Inc()
	}
	b.editTo(ctx, chatID, userID, messageID, "disconnect.done", nil)
}

func (b *Bot) handleLanguageChoice(ctx context.Context, chatID, userID int64, messageID int, lang string) {
	if err := b.accountService.SetLanguage(ctx, userID, lang); err != nil {
		b.editTo(ctx, chatID, userID, messageID, errorKey(err), nil)
		return
	}

	// Подтверждение приходит уже на выбранном языке
	text := b.locales.Render(lang, "lang.set", nil)
	if _, err := b.tgService.EditMessage(chatID, messageID, text, nil); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to edit message")
	}
}

// userLang возвращает язык аккаунта или язык по умолчанию.
func (b *Bot) userLang(ctx context.Context, userID int64) string {
	if account, err := b.accountService.Get(ctx, userID); err == nil {
		return account.Lang
	}
	return localization.DefaultLang
}

// editTo заменяет текст сообщения локализованным и убирает клавиатуру.
func (b *Bot) editTo(ctx context.Context, chatID, userID int64, messageID int, key string, args map[string]string) {
	text := b.render(ctx, userID, key, args)
	if _, err := b.tgService.EditMessage(chatID, messageID, text, nil); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to edit message")
	}
}

// editWithKeyboard заменяет текст сообщения и его клавиатуру.
func (b *Bot) editWithKeyboard(chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	if _, err := b.tgService.EditMessage(chatID, messageID, text, &keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to edit message")
	}
}
