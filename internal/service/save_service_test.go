package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"bettersaved/internal/database"
	"bettersaved/internal/events"
	"bettersaved/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupSaveService(t *testing.T) (*SaveService, *database.DB, *MockAuthenticator, *MockDriveClient, *events.EventBus) {
	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	auth := new(MockAuthenticator)
	drive := new(MockDriveClient)
	bus := events.NewEventBus()
	logger := zerolog.Nop()

	svc := NewSaveService(db, auth, drive, bus, &logger)
	return svc, db, auth, drive, bus
}

func TestSaveText(t *testing.T) {
	svc, db, _, _, bus := setupSaveService(t)
	ctx := context.Background()
	registerAccount(t, db, 500)

	var payloads []string
	bus.Subscribe(events.EventItemSaved, func(event *events.Event) error {
		payloads = append(payloads, string(event.Payload))
		return nil
	})

	item, err := svc.SaveText(ctx, 500, "запомни это", "user")
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, models.KindText, item.Kind)
	assert.Equal(t, "запомни это", item.Content)

	require.Len(t, payloads, 1)
	assert.Contains(t, payloads[0], `"has_drive":false`)

	count, err := db.CountSavedItems(ctx, item.AccountID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSaveFileWithoutDrive(t *testing.T) {
	svc, db, _, drive, _ := setupSaveService(t)
	ctx := context.Background()
	registerAccount(t, db, 501)

	item, err := svc.SaveFile(ctx, 501, &models.Upload{
		Kind:    models.KindImage,
		Name:    "photo.jpg",
		MIME:    "image/jpeg",
		Caption: "sunset",
		Source:  "user",
		Body:    strings.NewReader("jpeg-bytes"),
	})
	require.ErrorIs(t, err, ErrNoDriveToken)
	assert.Nil(t, item)
	drive.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// Без Drive файл некуда положить, запись не создаётся
	account, err := db.GetAccountByTelegramID(ctx, 501)
	require.NoError(t, err)
	count, err := db.CountSavedItems(ctx, account.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSaveFileDriveDown(t *testing.T) {
	svc, db, auth, drive, _ := setupSaveService(t)
	ctx := context.Background()
	registerAccount(t, db, 504)
	require.NoError(t, db.SetDriveLink(ctx, 504, `{"access_token":"at"}`, "root", "fu", "sid", "su"))

	auth.On("TokenSource", mock.Anything, mock.Anything).Return()
	drive.On("EnsureFolder", ctx, mock.Anything, "root", "Images").
		Return("", errors.New("googleapi: 503")).Once()

	item, err := svc.SaveFile(ctx, 504, &models.Upload{
		Kind:   models.KindImage,
		Name:   "photo.jpg",
		Source: "user",
		Body:   strings.NewReader("jpeg-bytes"),
	})
	require.ErrorIs(t, err, ErrDriveUnavailable)
	assert.Nil(t, item)

	account, err := db.GetAccountByTelegramID(ctx, 504)
	require.NoError(t, err)
	count, err := db.CountSavedItems(ctx, account.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSaveFileWithDrive(t *testing.T) {
	svc, db, auth, drive, bus := setupSaveService(t)
	ctx := context.Background()
	registerAccount(t, db, 502)
	require.NoError(t, db.SetDriveLink(ctx, 502, `{"access_token":"at"}`, "root", "fu", "sid", "su"))

	month := time.Now().Format("2006-01")
	auth.On("TokenSource", mock.Anything, mock.Anything).Return()
	drive.On("EnsureFolder", ctx, mock.Anything, "root", "Images").Return("img", nil).Once()
	drive.On("EnsureFolder", ctx, mock.Anything, "img", month).Return("month", nil).Once()
	drive.On("Upload", ctx, mock.Anything, "month", mock.AnythingOfType("*models.Upload")).
		Return("file-id", "https://drive.google.com/file/d/file-id", nil).Once()

	var payloads []string
	bus.Subscribe(events.EventItemSaved, func(event *events.Event) error {
		payloads = append(payloads, string(event.Payload))
		return nil
	})

	item, err := svc.SaveFile(ctx, 502, &models.Upload{
		Kind:   models.KindImage,
		Name:   "photo.jpg",
		MIME:   "image/jpeg",
		Source: "user",
		Body:   strings.NewReader("jpeg-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/file/d/file-id", item.FileURL)

	require.Len(t, payloads, 1)
	assert.Contains(t, payloads[0], `"has_drive":true`)

	drive.AssertExpectations(t)
}

func TestSaveFileUnknownKindFallsBackToFiles(t *testing.T) {
	svc, db, auth, drive, _ := setupSaveService(t)
	ctx := context.Background()
	registerAccount(t, db, 503)
	require.NoError(t, db.SetDriveLink(ctx, 503, `{"access_token":"at"}`, "root", "fu", "sid", "su"))

	auth.On("TokenSource", mock.Anything, mock.Anything).Return()
	drive.On("EnsureFolder", ctx, mock.Anything, "root", "Files").Return("files", nil).Once()
	drive.On("EnsureFolder", ctx, mock.Anything, "files", mock.AnythingOfType("string")).Return("month", nil).Once()
	drive.On("Upload", ctx, mock.Anything, "month", mock.Anything).Return("id", "url", nil).Once()

	_, err := svc.SaveFile(ctx, 503, &models.Upload{
		Kind:   "sticker",
		Name:   "s.webp",
		Source: "user",
		Body:   strings.NewReader("x"),
	})
	require.NoError(t, err)
	drive.AssertExpectations(t)
}
