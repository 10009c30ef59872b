package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// mainMenuKeyboard — кнопки под приветствием: подключение, профиль,
// настройки и справка о боте.
func (b *Bot) mainMenuKeyboard(lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.locales.Render(lang, "btn.connect", nil), "menu:connect"),
			tgbotapi.NewInlineKeyboardButtonData(b.locales.Render(lang, "btn.user", nil), "menu:user"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.locales.Render(lang, "btn.settings", nil), "menu:settings"),
			tgbotapi.NewInlineKeyboardButtonData(b.locales.Render(lang, "btn.about", nil), "menu:about"),
		),
	)
}

// settingsKeyboard — подменю настроек.
func (b *Bot) settingsKeyboard(lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.locales.Render(lang, "btn.language", nil), "menu:language"),
			tgbotapi.NewInlineKeyboardButtonData(b.locales.Render(lang, "btn.fix", nil), "menu:fix"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.locales.Render(lang, "btn.disconnect", nil), "menu:disconnect"),
			tgbotapi.NewInlineKeyboardButtonData(b.locales.Render(lang, "btn.nuke", nil), "menu:nuke"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.locales.Render(lang, "btn.back", nil), "menu:back"),
		),
	)
}

// backKeyboard — одиночная кнопка возврата в главное меню.
func (b *Bot) backKeyboard(lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.locales.Render(lang, "btn.back", nil), "menu:back"),
		),
	)
}

func languageKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("English", "lang:en"),
			tgbotapi.NewInlineKeyboardButtonData("Русский", "lang:ru"),
		),
	)
}

// botCommands — список команд для меню Telegram-клиента.
func botCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "help", Description: "How the bot works"},
		{Command: "user", Description: "Your account info"},
		{Command: "connect_drive", Description: "Link your Google account"},
		{Command: "disconnect_drive", Description: "Unlink your Google account"},
		{Command: "fix_spreadsheet", Description: "Repair your spreadsheet"},
		{Command: "language", Description: "Change language"},
		{Command: "export", Description: "Export saved messages to xlsx"},
		{Command: "cancel", Description: "Cancel the current action"},
		{Command: "nuke_user", Description: "Delete your account"},
	}
}

// registerCommands публикует меню команд в клиенте Telegram.
func (b *Bot) registerCommands() {
	if _, err := b.tgService.Request(tgbotapi.NewSetMyCommands(botCommands()...)); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to register bot commands")
	}
}
