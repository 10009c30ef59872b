package bot

import (
	"strconv"
	"time"
)

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

// statusTTL возвращает время жизни статусных сообщений.
func (b *Bot) statusTTL() time.Duration {
	return time.Duration(b.config.Bot.StatusMessageTTL) * time.Second
}
