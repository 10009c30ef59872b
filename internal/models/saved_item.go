package models

import (
	"io"
	"time"
)

// SavedItem is a single logged message or uploaded file. Items are append-only:
// they are never mutated after creation except for SheetRange, which the sync
// worker fills in once the row lands in the user's spreadsheet. Deleting an
// account removes its items from the local store but never touches Drive files.
type SavedItem struct {
	ID         int64     `json:"id"`
	AccountID  int64     `json:"account_id"`
	Kind       string    `json:"kind"`
	Content    string    `json:"content"`
	Source     string    `json:"source"`
	FileURL    string    `json:"file_url,omitempty"`
	SheetRange string    `json:"sheet_range,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Upload describes an attachment pulled from Telegram that should be stored
// in the user's Drive folder.
type Upload struct {
	Kind    string
	Name    string
	MIME    string
	Caption string
	Source  string
	Body    io.Reader
}

// SheetRow renders the item as the spreadsheet row
// [Timestamp, Source, Category, Content, Link].
func (i *SavedItem) SheetRow() []interface{} {
	return []interface{}{
		i.CreatedAt.Format("2006-01-02 15:04:05"),
		i.Source,
		i.Kind,
		i.Content,
		i.FileURL,
	}
}
