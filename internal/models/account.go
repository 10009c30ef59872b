package models

import "time"

// Account is a registered bot user together with their Google Drive linkage.
// DriveToken holds the serialized OAuth2 token; an empty string means the
// account is not linked and the folder/spreadsheet identifiers are stale.
type Account struct {
	ID               int64     `json:"id"`
	TelegramID       int64     `json:"telegram_id"`
	Name             string    `json:"name"`
	Lang             string    `json:"lang"`
	DriveToken       string    `json:"-"`
	FolderID         string    `json:"folder_id"`
	FolderURL        string    `json:"folder_url"`
	SpreadsheetID    string    `json:"spreadsheet_id"`
	SpreadsheetURL   string    `json:"spreadsheet_url"`
	ConnectHintShown bool      `json:"connect_hint_shown"`
	MessageCount     int64     `json:"message_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DriveLinked reports whether the account has completed OAuth authorization.
func (a *Account) DriveLinked() bool {
	return a != nil && a.DriveToken != ""
}
