package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bettersaved/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// attachmentMeta описывает вложение до скачивания.
type attachmentMeta struct {
	fileID string
	kind   string
	name   string
	mime   string
}

// handleAttachment сохраняет вложение поддерживаемого типа. Возвращает
// false, если в сообщении нет вложения, которое бот умеет сохранять.
func (b *Bot) handleAttachment(ctx context.Context, msg *tgbotapi.Message, account *models.Account) bool {
	meta, ok := extractAttachment(msg)
	if !ok {
		return false
	}

	userID := msg.From.ID
	chatID := msg.Chat.ID

	// Файлы некуда класть без подключённого Google аккаунта
	if !account.DriveLinked() {
		b.reply(ctx, chatID, userID, "fix.not_linked", nil)
		return true
	}

	status, err := b.tgService.SendMessage(chatID, b.locales.Render(account.Lang, "save.in_progress", nil))
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}

	item, err := b.saveAttachment(ctx, userID, msg, meta, account)

	if err != nil {
		if status.MessageID != 0 {
			_ = b.tgService.DeleteMessage(chatID, status.MessageID)
		}
		if b.metrics != nil {
			b.metrics.DriveUploads.WithLabelValues("error").Inc()
		}
		b.sendError(chatID, userID, err)
		return true
	}

	if b.metrics != nil {
		b.metrics.ItemsSaved.WithLabelValues(item.Kind).Inc()
		b.metrics.DriveUploads.WithLabelValues("ok").Inc()
	}

	args := map[string]string{"name": meta.name}
	if status.MessageID != 0 {
		if _, err := b.tgService.EditMessage(chatID, status.MessageID, b.locales.Render(account.Lang, "save.file_done", args), nil); err == nil {
			b.tgService.DeleteAfter(chatID, status.MessageID, b.statusTTL())
		}
	}

	return true
}

func (b *Bot) saveAttachment(ctx context.Context, userID int64, msg *tgbotapi.Message, meta attachmentMeta, account *models.Account) (*models.SavedItem, error) {
	upload := &models.Upload{
		Kind:    meta.kind,
		Name:    meta.name,
		MIME:    meta.mime,
		Caption: msg.Caption,
		Source:  b.messageSource(msg, account),
	}

	fileURL, err := b.tgService.GetFileDirectURL(meta.fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}

	upload.Body = resp.Body

	return b.saveService.SaveFile(ctx, userID, upload)
}

// extractAttachment распознаёт вложение и выбирает для него категорию.
func extractAttachment(msg *tgbotapi.Message) (attachmentMeta, bool) {
	stamp := time.Now().Format("20060102_150405")

	switch {
	case len(msg.Photo) > 0:
		// Telegram присылает варианты по возрастанию, берём самый крупный
		photo := msg.Photo[len(msg.Photo)-1]
		return attachmentMeta{
			fileID: photo.FileID,
			kind:   models.KindImage,
			name:   fmt.Sprintf("photo_%s.jpg", stamp),
			mime:   "image/jpeg",
		}, true

	case msg.Video != nil:
		name := msg.Video.FileName
		if name == "" {
			name = fmt.Sprintf("video_%s.mp4", stamp)
		}
		return attachmentMeta{
			fileID: msg.Video.FileID,
			kind:   models.KindVideo,
			name:   name,
			mime:   msg.Video.MimeType,
		}, true

	case msg.Audio != nil:
		name := msg.Audio.FileName
		if name == "" {
			name = fmt.Sprintf("audio_%s.mp3", stamp)
		}
		return attachmentMeta{
			fileID: msg.Audio.FileID,
			kind:   models.KindAudio,
			name:   name,
			mime:   msg.Audio.MimeType,
		}, true

	case msg.Voice != nil:
		return attachmentMeta{
			fileID: msg.Voice.FileID,
			kind:   models.KindVoice,
			name:   fmt.Sprintf("voice_%s.ogg", stamp),
			mime:   msg.Voice.MimeType,
		}, true

	case msg.VideoNote != nil:
		return attachmentMeta{
			fileID: msg.VideoNote.FileID,
			kind:   models.KindVideo,
			name:   fmt.Sprintf("video_note_%s.mp4", stamp),
			mime:   "video/mp4",
		}, true

	case msg.Document != nil:
		kind := models.KindDocument
		if msg.Document.MimeType == "application/pdf" ||
			strings.HasSuffix(strings.ToLower(msg.Document.FileName), ".pdf") {
			kind = models.KindPDF
		}
		name := msg.Document.FileName
		if name == "" {
			name = fmt.Sprintf("document_%s", stamp)
		}
		return attachmentMeta{
			fileID: msg.Document.FileID,
			kind:   kind,
			name:   name,
			mime:   msg.Document.MimeType,
		}, true
	}

	return attachmentMeta{}, false
}
