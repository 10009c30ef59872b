package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"bettersaved/internal/domain"
	"bettersaved/internal/events"
	"bettersaved/internal/models"

	"github.com/rs/zerolog"
)

// LinkService ведёт жизненный цикл привязки Google аккаунта:
// выдача ссылки, обмен кода, отключение и починка таблицы.
type LinkService struct {
	repo           domain.Repository
	auth           domain.Authenticator
	drive          domain.DriveClient
	sheets         domain.SheetsClient
	bus            domain.EventPublisher
	logger         *zerolog.Logger
	rootFolderName string
}

func NewLinkService(
	repo domain.Repository,
	auth domain.Authenticator,
	drive domain.DriveClient,
	sheets domain.SheetsClient,
	bus domain.EventPublisher,
	logger *zerolog.Logger,
	rootFolderName string,
) *LinkService {
	return &LinkService{
		repo:           repo,
		auth:           auth,
		drive:          drive,
		sheets:         sheets,
		bus:            bus,
		logger:         logger,
		rootFolderName: rootFolderName,
	}
}

// BeginLink возвращает ссылку авторизации для аккаунта.
func (s *LinkService) BeginLink(ctx context.Context, telegramID int64) (string, error) {
	account, err := s.repo.GetAccountByTelegramID(ctx, telegramID)
	if err != nil {
		return "", err
	}
	if account.DriveLinked() {
		return "", ErrAlreadyLinked
	}

	return s.auth.AuthCodeURL(strconv.FormatInt(telegramID, 10)), nil
}

// CompleteLink обменивает присланный код на токен и готовит
// инфраструктуру пользователя: корневую папку, подпапки по типам
// вложений и таблицу-журнал.
func (s *LinkService) CompleteLink(ctx context.Context, telegramID int64, code string) (*models.Account, error) {
	account, err := s.repo.GetAccountByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	token, err := s.auth.Exchange(ctx, normalizeAuthCode(code))
	if err != nil {
		s.logger.Warn().Err(err).Int64("telegram_id", telegramID).Msg("auth code exchange failed")
		return nil, ErrInvalidAuthCode
	}

	ts := s.auth.TokenSource(ctx, token)

	folderID, folderURL, err := s.drive.EnsureRootFolder(ctx, ts, s.rootFolderName)
	if err != nil {
		return nil, fmt.Errorf("ensure root folder: %w", err)
	}

	for _, name := range kindFolderNames() {
		if _, err := s.drive.EnsureFolder(ctx, ts, folderID, name); err != nil {
			return nil, fmt.Errorf("ensure folder %s: %w", name, err)
		}
	}

	spreadsheetID, spreadsheetURL := account.SpreadsheetID, account.SpreadsheetURL
	exists, err := s.sheets.SpreadsheetExists(ctx, ts, spreadsheetID)
	if err != nil {
		return nil, err
	}
	if !exists {
		spreadsheetID, spreadsheetURL, err = s.sheets.EnsureSpreadsheet(ctx, ts, folderID)
		if err != nil {
			return nil, fmt.Errorf("ensure spreadsheet: %w", err)
		}
	}

	encoded, err := encodeToken(token)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetDriveLink(ctx, telegramID, encoded, folderID, folderURL, spreadsheetID, spreadsheetURL); err != nil {
		return nil, err
	}

	account.DriveToken = encoded
	account.FolderID, account.FolderURL = folderID, folderURL
	account.SpreadsheetID, account.SpreadsheetURL = spreadsheetID, spreadsheetURL

	s.logger.Info().Int64("telegram_id", telegramID).Msg("google account linked")
	_ = s.bus.PublishJSON(events.EventAccountLinked, events.AccountEventPayload{
		AccountID:  account.ID,
		TelegramID: telegramID,
	})

	return account, nil
}

// Disconnect отзывает токен и стирает его из БД. Папка и таблица
// остаются у пользователя.
func (s *LinkService) Disconnect(ctx context.Context, telegramID int64) error {
	account, err := s.repo.GetAccountByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}
	if !account.DriveLinked() {
		return ErrNoDriveToken
	}

	token, err := decodeToken(account.DriveToken)
	if err == nil {
		if err := s.auth.Revoke(ctx, token); err != nil {
			// Токен мог уже протухнуть, отключение всё равно продолжается
			s.logger.Warn().Err(err).Int64("telegram_id", telegramID).Msg("token revoke failed")
		}
	}

	if err := s.repo.ClearDriveLink(ctx, telegramID); err != nil {
		return err
	}

	s.logger.Info().Int64("telegram_id", telegramID).Msg("google account disconnected")
	return s.bus.PublishJSON(events.EventAccountUnlinked, events.AccountEventPayload{
		AccountID:  account.ID,
		TelegramID: telegramID,
	})
}

// FixSpreadsheet проверяет таблицу аккаунта и пересоздаёт её, если она
// удалена. Повторный вызов на здоровой таблице ничего не меняет.
func (s *LinkService) FixSpreadsheet(ctx context.Context, telegramID int64) (string, bool, error) {
	account, err := s.repo.GetAccountByTelegramID(ctx, telegramID)
	if err != nil {
		return "", false, err
	}
	if !account.DriveLinked() {
		return "", false, ErrNoDriveToken
	}

	ts, err := newPersistingTokenSource(ctx, s.auth, s.repo, account)
	if err != nil {
		return "", false, err
	}

	exists, err := s.sheets.SpreadsheetExists(ctx, ts, account.SpreadsheetID)
	if err != nil {
		return "", false, err
	}
	if exists {
		return account.SpreadsheetURL, false, nil
	}

	folderID := account.FolderID
	if ok, err := s.drive.FolderExists(ctx, ts, folderID); err != nil || !ok {
		if err != nil {
			return "", false, err
		}
		folderID, _, err = s.drive.EnsureRootFolder(ctx, ts, s.rootFolderName)
		if err != nil {
			return "", false, err
		}
	}

	spreadsheetID, spreadsheetURL, err := s.sheets.EnsureSpreadsheet(ctx, ts, folderID)
	if err != nil {
		return "", false, err
	}

	if err := s.repo.UpdateSpreadsheet(ctx, telegramID, spreadsheetID, spreadsheetURL); err != nil {
		return "", false, err
	}

	s.logger.Info().Int64("telegram_id", telegramID).Str("spreadsheet_id", spreadsheetID).Msg("spreadsheet repaired")
	_ = s.bus.PublishJSON(events.EventSpreadsheetFixed, events.AccountEventPayload{
		AccountID:  account.ID,
		TelegramID: telegramID,
	})

	return spreadsheetURL, true, nil
}

// kindFolderNames возвращает уникальные имена подпапок в стабильном порядке.
func kindFolderNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, kind := range []string{models.KindImage, models.KindVideo, models.KindAudio, models.KindPDF, models.KindDocument} {
		name := models.KindFolders[kind]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// normalizeAuthCode убирает пробелы и случайно скопированный префикс ссылки.
func normalizeAuthCode(code string) string {
	code = strings.TrimSpace(code)
	if idx := strings.LastIndex(code, "code="); idx >= 0 {
		code = code[idx+len("code="):]
	}
	return code
}
