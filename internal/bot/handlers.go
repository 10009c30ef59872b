package bot

import (
	"context"
	"strings"

	"bettersaved/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	userID := msg.From.ID
	chatID := msg.Chat.ID

	account, isNew, err := b.accountService.RegisterOrRefresh(ctx, userID, displayName(msg.From), msg.From.LanguageCode)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to register account")
		b.sendError(chatID, userID, err)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, account, isNew)
		return
	}

	state, err := b.stateService.GetUserState(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to get user state")
	}

	if state != nil && msg.Text != "" {
		switch state.CurrentStep {
		case models.StepAwaitingAuthCode:
			b.handleAuthCode(ctx, msg, account)
			return
		case models.StepAwaitingNukeReply:
			b.handleNukeReply(ctx, msg, account)
			return
		}
	}

	if msg.Text != "" {
		b.handleTextSave(ctx, msg, account)
		return
	}

	if b.handleAttachment(ctx, msg, account) {
		return
	}

	b.reply(ctx, chatID, userID, "save.unsupported", nil)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, account *models.Account, isNew bool) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	command := msg.Command()

	if b.metrics != nil {
		b.metrics.CommandsProcessed.WithLabelValues(command).Inc()
	}

	// Любая команда обрывает начатый диалог
	if err := b.stateService.ClearUserState(ctx, userID); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to clear user state")
	}

	switch command {
	case "start":
		key := "start.returning"
		if isNew {
			key = "start.welcome"
		}
		text := b.locales.Render(account.Lang, key, map[string]string{"name": account.Name})
		if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, b.mainMenuKeyboard(account.Lang)); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
		}

	case "help":
		if _, err := b.tgService.SendHTML(chatID, b.render(ctx, userID, "help", nil)); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
		}

	case "user":
		b.handleUserInfo(ctx, chatID, userID)

	case "connect_drive":
		b.handleConnectDrive(ctx, chatID, userID)

	case "disconnect_drive":
		b.handleDisconnectDrive(ctx, chatID, userID, account)

	case "fix_spreadsheet":
		b.handleFixSpreadsheet(ctx, chatID, userID)

	case "nuke_user":
		b.handleNukeWarning(ctx, chatID, userID)

	case "language":
		b.handleLanguage(ctx, chatID, userID)

	case "export":
		b.handleExport(ctx, chatID, userID, account)

	case "cancel":
		// Состояние уже сброшено выше, осталось подтвердить
		b.reply(ctx, chatID, userID, "cancel.done", nil)

	default:
		b.reply(ctx, chatID, userID, "unknown.command", nil)
	}
}

// handleNukeWarning показывает предупреждение и ждёт контрольную фразу.
func (b *Bot) handleNukeWarning(ctx context.Context, chatID, userID int64) {
	b.reply(ctx, chatID, userID, "nuke.prompt", map[string]string{"phrase": models.NukeConfirmPhrase})
	if err := b.stateService.SetUserState(ctx, userID, models.StepAwaitingNukeReply, nil); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to set user state")
	}
}

func (b *Bot) handleUserInfo(ctx context.Context, chatID, userID int64) {
	account, err := b.accountService.Get(ctx, userID)
	if err != nil {
		b.sendError(chatID, userID, err)
		return
	}

	driveKey := "user.drive.not_linked"
	if account.DriveLinked() {
		driveKey = "user.drive.linked"
	}

	text := b.locales.Render(account.Lang, "user.info", map[string]string{
		"name":         account.Name,
		"lang":         account.Lang,
		"drive_status": b.locales.Render(account.Lang, driveKey, nil),
		"count":        itoa(account.MessageCount),
	})
	if account.FolderURL != "" {
		text += "\n" + b.locales.Render(account.Lang, "user.folder", map[string]string{"url": account.FolderURL})
	}
	if account.SpreadsheetURL != "" {
		text += "\n" + b.locales.Render(account.Lang, "user.spreadsheet", map[string]string{"url": account.SpreadsheetURL})
	}

	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) handleConnectDrive(ctx context.Context, chatID, userID int64) {
	authURL, err := b.linkService.BeginLink(ctx, userID)
	if err != nil {
		b.sendError(chatID, userID, err)
		return
	}

	b.reply(ctx, chatID, userID, "connect.prompt", map[string]string{"auth_url": authURL})
	if err := b.stateService.SetUserState(ctx, userID, models.StepAwaitingAuthCode, nil); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to set user state")
	}
}

func (b *Bot) handleAuthCode(ctx context.Context, msg *tgbotapi.Message, account *models.Account) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	// Код авторизации не должен оставаться в истории чата
	if err := b.tgService.DeleteMessage(chatID, msg.MessageID); err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to delete auth code message")
	}

	if err := b.stateService.ClearUserState(ctx, userID); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to clear user state")
	}

	linked, err := b.linkService.CompleteLink(ctx, userID, msg.Text)
	if err != nil {
		b.sendError(chatID, userID, err)
		return
	}

	if b.metrics != nil {
		b.metrics.AccountsLinked.Inc()
	}
	b.reply(ctx, chatID, userID, "connect.success", map[string]string{
		"folder_url":      linked.FolderURL,
		"spreadsheet_url": linked.SpreadsheetURL,
	})
}

func (b *Bot) handleDisconnectDrive(ctx context.Context, chatID, userID int64, account *models.Account) {
	if !account.DriveLinked() {
		b.reply(ctx, chatID, userID, "disconnect.not_linked", nil)
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				b.locales.Render(account.Lang, "disconnect.confirm_button", nil), "disconnect:confirm"),
			tgbotapi.NewInlineKeyboardButtonData(
				b.locales.Render(account.Lang, "disconnect.cancel_button", nil), "disconnect:cancel"),
		),
	)

	text := b.locales.Render(account.Lang, "disconnect.prompt", nil)
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
		return
	}

	if err := b.stateService.SetUserState(ctx, userID, models.StepAwaitingDisconnectReply, nil); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to set user state")
	}
}

func (b *Bot) handleFixSpreadsheet(ctx context.Context, chatID, userID int64) {
	status, err := b.tgService.SendMessage(chatID, b.render(ctx, userID, "fix.checking", nil))
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}

	url, repaired, err := b.linkService.FixSpreadsheet(ctx, userID)

	if status.MessageID != 0 {
		_ = b.tgService.DeleteMessage(chatID, status.MessageID)
	}

	if err != nil {
		b.sendError(chatID, userID, err)
		return
	}

	key := "fix.ok"
	if repaired {
		key = "fix.repaired"
	}
	b.reply(ctx, chatID, userID, key, map[string]string{"url": url})
}

// handleNukeReply сверяет присланный текст с контрольной фразой.
// Любое расхождение, включая регистр, отменяет удаление.
func (b *Bot) handleNukeReply(ctx context.Context, msg *tgbotapi.Message, account *models.Account) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if err := b.stateService.ClearUserState(ctx, userID); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to clear user state")
	}

	if msg.Text != models.NukeConfirmPhrase {
		b.reply(ctx, chatID, userID, "nuke.mismatch", nil)
		return
	}

	// Текст ответа рендерится до удаления: после Nuke языка аккаунта уже нет
	doneText := b.locales.Render(account.Lang, "nuke.done", nil)

	if account.DriveLinked() {
		// Отзываем доступ к Drive, сами файлы не трогаем
		if err := b.linkService.Disconnect(ctx, userID); err != nil {
			b.logger.Warn().Err(err).Int64("user_id", userID).Msg("Failed to disconnect before nuke")
		}
	}

	if err := b.accountService.Nuke(ctx, userID); err != nil {
		b.sendError(chatID, userID, err)
		return
	}

	if b.metrics != nil {
		b.metrics.AccountsDeleted.Inc()
	}
	if _, err := b.tgService.SendMessage(chatID, doneText); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) handleLanguage(ctx context.Context, chatID, userID int64) {
	text := b.render(ctx, userID, "lang.prompt", nil)
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, languageKeyboard()); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) handleTextSave(ctx context.Context, msg *tgbotapi.Message, account *models.Account) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	status, err := b.tgService.SendMessage(chatID, b.locales.Render(account.Lang, "save.in_progress", nil))
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}

	item, err := b.saveService.SaveText(ctx, userID, msg.Text, b.messageSource(msg, account))
	if err != nil {
		if status.MessageID != 0 {
			_ = b.tgService.DeleteMessage(chatID, status.MessageID)
		}
		b.sendError(chatID, userID, err)
		return
	}

	if b.metrics != nil {
		b.metrics.ItemsSaved.WithLabelValues(item.Kind).Inc()
	}

	doneKey := "save.text_done"
	if !account.DriveLinked() {
		doneKey = "save.local_only"
	}
	if status.MessageID != 0 {
		if _, err := b.tgService.EditMessage(chatID, status.MessageID, b.locales.Render(account.Lang, doneKey, nil), nil); err == nil {
			b.tgService.DeleteAfter(chatID, status.MessageID, b.statusTTL())
		}
	}

	b.maybeShowConnectHint(ctx, chatID, account)
}

// maybeShowConnectHint один раз напоминает о /connect_drive тем, кто
// пишет боту без привязанного аккаунта.
func (b *Bot) maybeShowConnectHint(ctx context.Context, chatID int64, account *models.Account) {
	if account.DriveLinked() || account.ConnectHintShown {
		return
	}

	if _, err := b.tgService.SendMessage(chatID, b.locales.Render(account.Lang, "connect.hint", nil)); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
		return
	}
	if err := b.accountService.MarkConnectHintShown(ctx, account.TelegramID); err != nil {
		b.logger.Error().Err(err).Int64("telegram_id", account.TelegramID).Msg("Failed to mark hint shown")
	}
	account.ConnectHintShown = true
}

// sourceBotChat — колонка Source для сообщений, написанных боту напрямую.
const sourceBotChat = "Telegram Bot Chat"

// messageSource собирает значение колонки Source: обычные сообщения
// помечаются как чат с ботом, пересланные — именем исходного автора.
func (b *Bot) messageSource(msg *tgbotapi.Message, account *models.Account) string {
	if name := forwardName(msg); name != "" {
		return b.locales.Render(account.Lang, "save.forwarded_from", map[string]string{"source": name})
	}
	return sourceBotChat
}

// forwardName возвращает имя источника пересланного сообщения.
func forwardName(msg *tgbotapi.Message) string {
	switch {
	case msg.ForwardFromChat != nil && msg.ForwardFromChat.Title != "":
		return msg.ForwardFromChat.Title
	case msg.ForwardFrom != nil:
		return displayName(msg.ForwardFrom)
	case msg.ForwardSenderName != "":
		return msg.ForwardSenderName
	default:
		return ""
	}
}

func displayName(user *tgbotapi.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.UserName
	}
	return name
}
