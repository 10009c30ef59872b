package service

import (
	"context"
	"fmt"
	"time"

	"bettersaved/internal/domain"
	"bettersaved/internal/events"
	"bettersaved/internal/models"

	"github.com/rs/zerolog"
)

// SaveService записывает входящие сообщения: всё попадает в локальную
// БД сразу, загрузка в Drive идёт синхронно, а строка в Sheets
// дописывается воркером через очередь.
type SaveService struct {
	repo   domain.Repository
	auth   domain.Authenticator
	drive  domain.DriveClient
	bus    domain.EventPublisher
	logger *zerolog.Logger
}

func NewSaveService(repo domain.Repository, auth domain.Authenticator, drive domain.DriveClient, bus domain.EventPublisher, logger *zerolog.Logger) *SaveService {
	return &SaveService{
		repo:   repo,
		auth:   auth,
		drive:  drive,
		bus:    bus,
		logger: logger,
	}
}

// SaveText сохраняет текстовое сообщение.
func (s *SaveService) SaveText(ctx context.Context, telegramID int64, text, source string) (*models.SavedItem, error) {
	account, err := s.repo.GetAccountByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	item := &models.SavedItem{
		AccountID: account.ID,
		Kind:      models.KindText,
		Content:   text,
		Source:    source,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateSavedItem(ctx, item); err != nil {
		return nil, err
	}

	s.publishSaved(item, account.DriveLinked())
	return item, nil
}

// SaveFile загружает вложение в папку вида <Категория>/<ГГГГ-ММ> и
// сохраняет запись с ссылкой на файл. Вложения принимаются только от
// аккаунтов с подключённым Google: локальная БД не хранит содержимое
// файлов, сохранять было бы нечего.
func (s *SaveService) SaveFile(ctx context.Context, telegramID int64, upload *models.Upload) (*models.SavedItem, error) {
	account, err := s.repo.GetAccountByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if !account.DriveLinked() {
		return nil, ErrNoDriveToken
	}

	fileURL, err := s.uploadToDrive(ctx, account, upload)
	if err != nil {
		return nil, err
	}

	item := &models.SavedItem{
		AccountID: account.ID,
		Kind:      upload.Kind,
		Content:   upload.Caption,
		Source:    upload.Source,
		FileURL:   fileURL,
		CreatedAt: time.Now(),
	}

	if err := s.repo.CreateSavedItem(ctx, item); err != nil {
		return nil, err
	}

	s.publishSaved(item, true)
	return item, nil
}

func (s *SaveService) uploadToDrive(ctx context.Context, account *models.Account, upload *models.Upload) (string, error) {
	ts, err := newPersistingTokenSource(ctx, s.auth, s.repo, account)
	if err != nil {
		return "", err
	}

	kindFolder, ok := models.KindFolders[upload.Kind]
	if !ok {
		kindFolder = models.KindFolders[models.KindDocument]
	}

	kindFolderID, err := s.drive.EnsureFolder(ctx, ts, account.FolderID, kindFolder)
	if err != nil {
		s.logger.Warn().Err(err).Int64("account_id", account.ID).Msg("ensure kind folder failed")
		return "", fmt.Errorf("ensure kind folder: %w", ErrDriveUnavailable)
	}

	// Файлы раскладываются по месяцам, чтобы папки не разрастались
	monthFolderID, err := s.drive.EnsureFolder(ctx, ts, kindFolderID, time.Now().Format("2006-01"))
	if err != nil {
		s.logger.Warn().Err(err).Int64("account_id", account.ID).Msg("ensure month folder failed")
		return "", fmt.Errorf("ensure month folder: %w", ErrDriveUnavailable)
	}

	_, fileURL, err := s.drive.Upload(ctx, ts, monthFolderID, upload)
	if err != nil {
		s.logger.Warn().Err(err).Int64("account_id", account.ID).Str("name", upload.Name).Msg("drive upload failed")
		return "", fmt.Errorf("upload %s: %w", upload.Name, ErrDriveUnavailable)
	}

	s.logger.Debug().
		Int64("account_id", account.ID).
		Str("kind", upload.Kind).
		Str("name", upload.Name).
		Msg("file uploaded to drive")

	return fileURL, nil
}

func (s *SaveService) publishSaved(item *models.SavedItem, hasDrive bool) {
	_ = s.bus.PublishJSON(events.EventItemSaved, events.ItemSavedPayload{
		ItemID:    item.ID,
		AccountID: item.AccountID,
		Kind:      item.Kind,
		HasDrive:  hasDrive,
	})
}
