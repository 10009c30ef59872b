package service

import (
	"context"

	"bettersaved/internal/domain"

	"github.com/rs/zerolog"
)

// SheetSyncer выполняет задачи воркера: дописывает строки журнала в
// таблицу пользователя и чинит таблицу по задаче fix_spreadsheet.
type SheetSyncer struct {
	repo   domain.Repository
	auth   domain.Authenticator
	sheets domain.SheetsClient
	link   domain.LinkService
	logger *zerolog.Logger
}

func NewSheetSyncer(repo domain.Repository, auth domain.Authenticator, sheets domain.SheetsClient, link domain.LinkService, logger *zerolog.Logger) *SheetSyncer {
	return &SheetSyncer{
		repo:   repo,
		auth:   auth,
		sheets: sheets,
		link:   link,
		logger: logger,
	}
}

// AppendItem дописывает запись в таблицу аккаунта. Запись без
// привязанного аккаунта просто пропускается: она уже лежит в БД.
func (s *SheetSyncer) AppendItem(ctx context.Context, accountID, itemID int64) error {
	account, err := s.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !account.DriveLinked() || account.SpreadsheetID == "" {
		return nil
	}

	item, err := s.repo.GetSavedItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.SheetRange != "" {
		// Уже записано, повторная задача после рестарта
		return nil
	}

	ts, err := newPersistingTokenSource(ctx, s.auth, s.repo, account)
	if err != nil {
		return err
	}

	updatedRange, err := s.sheets.AppendRow(ctx, ts, account.SpreadsheetID, item.SheetRow())
	if err != nil {
		return err
	}

	if err := s.repo.UpdateSavedItemSheetRange(ctx, itemID, updatedRange); err != nil {
		return err
	}

	s.logger.Debug().
		Int64("account_id", accountID).
		Int64("item_id", itemID).
		Str("range", updatedRange).
		Msg("row appended to spreadsheet")
	return nil
}

// RepairSpreadsheet чинит таблицу аккаунта в фоне.
func (s *SheetSyncer) RepairSpreadsheet(ctx context.Context, accountID int64) error {
	account, err := s.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	_, _, err = s.link.FixSpreadsheet(ctx, account.TelegramID)
	return err
}
