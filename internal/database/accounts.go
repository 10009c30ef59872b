package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bettersaved/internal/models"
)

// ErrAccountNotFound возвращается, когда аккаунт отсутствует в БД.
var ErrAccountNotFound = errors.New("account not found")

const accountColumns = `id, telegram_id, name, lang, drive_token, folder_id, folder_url,
        spreadsheet_id, spreadsheet_url, connect_hint_shown, created_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID,
		&a.TelegramID,
		&a.Name,
		&a.Lang,
		&a.DriveToken,
		&a.FolderID,
		&a.FolderURL,
		&a.SpreadsheetID,
		&a.SpreadsheetURL,
		&a.ConnectHintShown,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateOrUpdateAccount создает аккаунт или обновляет имя существующего.
// Токен и ссылки на Drive при обновлении не трогаются.
func (db *DB) CreateOrUpdateAccount(ctx context.Context, account *models.Account) error {
	query := `
        INSERT INTO accounts (telegram_id, name, lang, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(telegram_id) DO UPDATE SET
            name = excluded.name,
            updated_at = excluded.updated_at
    `

	now := time.Now()
	if account.Lang == "" {
		account.Lang = "en"
	}
	_, err := db.db.ExecContext(ctx, query,
		account.TelegramID,
		account.Name,
		account.Lang,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}

	stored, err := db.GetAccountByTelegramID(ctx, account.TelegramID)
	if err != nil {
		return err
	}
	*account = *stored
	return nil
}

// GetAccountByTelegramID возвращает аккаунт по Telegram ID.
func (db *DB) GetAccountByTelegramID(ctx context.Context, telegramID int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE telegram_id = ?`
	return scanAccount(db.db.QueryRowContext(ctx, query, telegramID))
}

// GetAccountByID возвращает аккаунт по внутреннему ID.
func (db *DB) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	return scanAccount(db.db.QueryRowContext(ctx, query, id))
}

// SetDriveLink сохраняет токен и ссылки после подключения Google аккаунта.
func (db *DB) SetDriveLink(ctx context.Context, telegramID int64, token, folderID, folderURL, spreadsheetID, spreadsheetURL string) error {
	query := `UPDATE accounts
        SET drive_token = ?, folder_id = ?, folder_url = ?,
            spreadsheet_id = ?, spreadsheet_url = ?, updated_at = ?
        WHERE telegram_id = ?`

	res, err := db.db.ExecContext(ctx, query, token, folderID, folderURL, spreadsheetID, spreadsheetURL, time.Now(), telegramID)
	if err != nil {
		return fmt.Errorf("failed to set drive link: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// UpdateDriveToken перезаписывает токен после обновления refresh-потоком.
func (db *DB) UpdateDriveToken(ctx context.Context, telegramID int64, token string) error {
	query := `UPDATE accounts SET drive_token = ?, updated_at = ? WHERE telegram_id = ?`

	_, err := db.db.ExecContext(ctx, query, token, time.Now(), telegramID)
	return err
}

// ClearDriveLink стирает токен. Ссылки сохраняются, чтобы /user мог их
// показывать и чтобы повторное подключение нашло ту же папку.
func (db *DB) ClearDriveLink(ctx context.Context, telegramID int64) error {
	query := `UPDATE accounts SET drive_token = '', updated_at = ? WHERE telegram_id = ?`

	res, err := db.db.ExecContext(ctx, query, time.Now(), telegramID)
	if err != nil {
		return fmt.Errorf("failed to clear drive link: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// UpdateSpreadsheet обновляет ссылку на таблицу после /fix_spreadsheet.
func (db *DB) UpdateSpreadsheet(ctx context.Context, telegramID int64, spreadsheetID, spreadsheetURL string) error {
	query := `UPDATE accounts SET spreadsheet_id = ?, spreadsheet_url = ?, updated_at = ? WHERE telegram_id = ?`

	_, err := db.db.ExecContext(ctx, query, spreadsheetID, spreadsheetURL, time.Now(), telegramID)
	return err
}

// SetLanguage сохраняет выбранный язык.
func (db *DB) SetLanguage(ctx context.Context, telegramID int64, lang string) error {
	query := `UPDATE accounts SET lang = ?, updated_at = ? WHERE telegram_id = ?`

	_, err := db.db.ExecContext(ctx, query, lang, time.Now(), telegramID)
	return err
}

// MarkConnectHintShown отмечает, что подсказка про /connect_drive показана.
func (db *DB) MarkConnectHintShown(ctx context.Context, telegramID int64) error {
	query := `UPDATE accounts SET connect_hint_shown = 1, updated_at = ? WHERE telegram_id = ?`

	_, err := db.db.ExecContext(ctx, query, time.Now(), telegramID)
	return err
}

// DeleteAccount удаляет аккаунт, его записи и его задачи синхронизации.
// Файлы в Google Drive пользователя не затрагиваются.
func (db *DB) DeleteAccount(ctx context.Context, telegramID int64) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	account, err := scanAccount(tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE telegram_id = ?`, telegramID))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM saved_items WHERE account_id = ?`, account.ID); err != nil {
		return fmt.Errorf("failed to delete saved items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sync_queue WHERE account_id = ?`, account.ID); err != nil {
		return fmt.Errorf("failed to delete sync tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, account.ID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	return tx.Commit()
}

// CountAccounts возвращает число аккаунтов.
func (db *DB) CountAccounts(ctx context.Context) (int64, error) {
	var count int64
	err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count)
	return count, err
}
