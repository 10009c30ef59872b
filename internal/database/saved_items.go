package database

import (
	"context"
	"fmt"
	"time"

	"bettersaved/internal/models"
)

// CreateSavedItem записывает новую запись журнала и проставляет id.
func (db *DB) CreateSavedItem(ctx context.Context, item *models.SavedItem) error {
	query := `INSERT INTO saved_items (account_id, kind, content, source, file_url, sheet_range, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`

	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	result, err := db.db.ExecContext(ctx, query,
		item.AccountID,
		item.Kind,
		item.Content,
		item.Source,
		item.FileURL,
		item.SheetRange,
		item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create saved item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	return nil
}

// GetSavedItem возвращает запись по ID.
func (db *DB) GetSavedItem(ctx context.Context, id int64) (*models.SavedItem, error) {
	query := `SELECT id, account_id, kind, content, source, file_url, sheet_range, created_at
              FROM saved_items WHERE id = ?`

	var item models.SavedItem
	err := db.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID,
		&item.AccountID,
		&item.Kind,
		&item.Content,
		&item.Source,
		&item.FileURL,
		&item.SheetRange,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateSavedItemSheetRange сохраняет диапазон строки после записи в таблицу.
func (db *DB) UpdateSavedItemSheetRange(ctx context.Context, id int64, sheetRange string) error {
	query := `UPDATE saved_items SET sheet_range = ? WHERE id = ?`

	_, err := db.db.ExecContext(ctx, query, sheetRange, id)
	return err
}

// CountSavedItems возвращает число записей аккаунта.
func (db *DB) CountSavedItems(ctx context.Context, accountID int64) (int64, error) {
	var count int64
	err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saved_items WHERE account_id = ?`, accountID).Scan(&count)
	return count, err
}

// GetAccountItems возвращает записи аккаунта, новые первыми.
func (db *DB) GetAccountItems(ctx context.Context, accountID int64, limit int) ([]models.SavedItem, error) {
	query := `SELECT id, account_id, kind, content, source, file_url, sheet_range, created_at
              FROM saved_items WHERE account_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := db.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.SavedItem
	for rows.Next() {
		var item models.SavedItem
		err := rows.Scan(
			&item.ID,
			&item.AccountID,
			&item.Kind,
			&item.Content,
			&item.Source,
			&item.FileURL,
			&item.SheetRange,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
