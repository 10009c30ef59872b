package bot

import (
	"errors"
	"fmt"
	"testing"

	"bettersaved/internal/database"
	"bettersaved/internal/localization"
	"bettersaved/internal/models"
	"bettersaved/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAttachment(t *testing.T) {
	t.Run("PhotoPicksLargestVariant", func(t *testing.T) {
		msg := &tgbotapi.Message{
			Photo: []tgbotapi.PhotoSize{
				{FileID: "small", Width: 90},
				{FileID: "medium", Width: 320},
				{FileID: "large", Width: 1280},
			},
		}

		meta, ok := extractAttachment(msg)
		require.True(t, ok)
		assert.Equal(t, "large", meta.fileID)
		assert.Equal(t, models.KindImage, meta.kind)
		assert.Equal(t, "image/jpeg", meta.mime)
		assert.Contains(t, meta.name, "photo_")
	})

	t.Run("VideoKeepsOriginalName", func(t *testing.T) {
		msg := &tgbotapi.Message{
			Video: &tgbotapi.Video{FileID: "v1", FileName: "holiday.mp4", MimeType: "video/mp4"},
		}

		meta, ok := extractAttachment(msg)
		require.True(t, ok)
		assert.Equal(t, models.KindVideo, meta.kind)
		assert.Equal(t, "holiday.mp4", meta.name)
	})

	t.Run("VoiceGetsGeneratedName", func(t *testing.T) {
		msg := &tgbotapi.Message{
			Voice: &tgbotapi.Voice{FileID: "vo1", MimeType: "audio/ogg"},
		}

		meta, ok := extractAttachment(msg)
		require.True(t, ok)
		assert.Equal(t, models.KindVoice, meta.kind)
		assert.Contains(t, meta.name, ".ogg")
	})

	t.Run("PdfDocumentByMime", func(t *testing.T) {
		msg := &tgbotapi.Message{
			Document: &tgbotapi.Document{FileID: "d1", FileName: "report.bin", MimeType: "application/pdf"},
		}

		meta, ok := extractAttachment(msg)
		require.True(t, ok)
		assert.Equal(t, models.KindPDF, meta.kind)
	})

	t.Run("PdfDocumentByExtension", func(t *testing.T) {
		msg := &tgbotapi.Message{
			Document: &tgbotapi.Document{FileID: "d2", FileName: "Scan.PDF", MimeType: "application/octet-stream"},
		}

		meta, ok := extractAttachment(msg)
		require.True(t, ok)
		assert.Equal(t, models.KindPDF, meta.kind)
	})

	t.Run("PlainDocument", func(t *testing.T) {
		msg := &tgbotapi.Message{
			Document: &tgbotapi.Document{FileID: "d3", FileName: "notes.txt", MimeType: "text/plain"},
		}

		meta, ok := extractAttachment(msg)
		require.True(t, ok)
		assert.Equal(t, models.KindDocument, meta.kind)
		assert.Equal(t, "notes.txt", meta.name)
	})

	t.Run("VideoNoteGetsGeneratedName", func(t *testing.T) {
		msg := &tgbotapi.Message{
			VideoNote: &tgbotapi.VideoNote{FileID: "vn1"},
		}

		meta, ok := extractAttachment(msg)
		require.True(t, ok)
		assert.Equal(t, models.KindVideo, meta.kind)
		assert.Equal(t, "video/mp4", meta.mime)
		assert.Contains(t, meta.name, "video_note_")
		assert.Contains(t, meta.name, ".mp4")
	})

	t.Run("UnsupportedMessage", func(t *testing.T) {
		_, ok := extractAttachment(&tgbotapi.Message{Sticker: &tgbotapi.Sticker{FileID: "s1"}})
		assert.False(t, ok)
	})
}

func TestForwardName(t *testing.T) {
	t.Run("ChannelTitleWins", func(t *testing.T) {
		msg := &tgbotapi.Message{
			ForwardFromChat: &tgbotapi.Chat{Title: "Go News"},
			ForwardFrom:     &tgbotapi.User{FirstName: "Ivan"},
		}
		assert.Equal(t, "Go News", forwardName(msg))
	})

	t.Run("UserFullName", func(t *testing.T) {
		msg := &tgbotapi.Message{
			ForwardFrom: &tgbotapi.User{FirstName: "Ivan", LastName: "Petrov"},
		}
		assert.Equal(t, "Ivan Petrov", forwardName(msg))
	})

	t.Run("HiddenSenderName", func(t *testing.T) {
		msg := &tgbotapi.Message{ForwardSenderName: "Anonymous"}
		assert.Equal(t, "Anonymous", forwardName(msg))
	})

	t.Run("NotForwarded", func(t *testing.T) {
		assert.Equal(t, "", forwardName(&tgbotapi.Message{Text: "hi"}))
	})
}

func TestMessageSource(t *testing.T) {
	locales, err := localization.Load()
	require.NoError(t, err)
	b := &Bot{locales: locales}
	account := &models.Account{Lang: "en"}

	t.Run("DirectMessage", func(t *testing.T) {
		src := b.messageSource(&tgbotapi.Message{Text: "hi"}, account)
		assert.Equal(t, "Telegram Bot Chat", src)
	})

	t.Run("ForwardedMessage", func(t *testing.T) {
		msg := &tgbotapi.Message{
			Text:        "hi",
			ForwardFrom: &tgbotapi.User{FirstName: "Ivan", LastName: "Petrov"},
		}
		assert.Equal(t, "Forwarded from Ivan Petrov", b.messageSource(msg, account))
	})

	t.Run("ForwardedFromChannel", func(t *testing.T) {
		msg := &tgbotapi.Message{
			Text:            "hi",
			ForwardFromChat: &tgbotapi.Chat{Title: "Go News"},
		}
		assert.Equal(t, "Forwarded from Go News", b.messageSource(msg, account))
	})
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ivan Petrov", displayName(&tgbotapi.User{FirstName: "Ivan", LastName: "Petrov"}))
	assert.Equal(t, "Ivan", displayName(&tgbotapi.User{FirstName: "Ivan"}))
	assert.Equal(t, "ivan42", displayName(&tgbotapi.User{UserName: "ivan42"}))
}

func TestErrorKey(t *testing.T) {
	assert.Equal(t, "connect.invalid_code", errorKey(service.ErrInvalidAuthCode))
	assert.Equal(t, "connect.already_linked", errorKey(service.ErrAlreadyLinked))
	assert.Equal(t, "fix.not_linked", errorKey(service.ErrNoDriveToken))
	assert.Equal(t, "error.drive", errorKey(service.ErrDriveUnavailable))
	assert.Equal(t, "error.generic", errorKey(database.ErrAccountNotFound))
	assert.Equal(t, "error.generic", errorKey(errors.New("boom")))

	// Обёрнутые ошибки тоже распознаются
	assert.Equal(t, "connect.invalid_code", errorKey(fmt.Errorf("handle update: %w", service.ErrInvalidAuthCode)))
}

func TestNukeConfirmPhraseMatching(t *testing.T) {
	// Точное совпадение обязательно, вариации отклоняются
	assert.Equal(t, "DELETE MY ACCOUNT", models.NukeConfirmPhrase)

	for _, text := range []string{"delete my account", "DELETE MY ACCOUNT ", " DELETE MY ACCOUNT", "DELETE  MY ACCOUNT", "DELETE MY ACCOUNT!"} {
		assert.NotEqual(t, models.NukeConfirmPhrase, text)
	}
}
