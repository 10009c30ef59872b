package bot

import (
	"context"
	"errors"
	"time"

	"bettersaved/internal/database"
	"bettersaved/internal/service"
)

// errorKey подбирает ключ локализации под ошибку сервисного слоя.
func errorKey(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidAuthCode):
		return "connect.invalid_code"
	case errors.Is(err, service.ErrAlreadyLinked):
		return "connect.already_linked"
	case errors.Is(err, service.ErrNoDriveToken):
		return "fix.not_linked"
	case errors.Is(err, service.ErrDriveUnavailable):
		return "error.drive"
	case errors.Is(err, database.ErrAccountNotFound):
		return "error.generic"
	default:
		return "error.generic"
	}
}

func (b *Bot) sendError(chatID, userID int64, err error) {
	if b.metrics != nil {
		b.metrics.ErrorsTotal.Inc()
	}
	b.logger.Error().Err(err).Int64("user_id", userID).Msg("Request failed")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b.reply(ctx, chatID, userID, errorKey(err), nil)
}
