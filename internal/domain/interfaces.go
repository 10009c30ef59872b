package domain

import (
	"context"
	"time"

	"bettersaved/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/oauth2"
)

type Repository interface {
	CreateOrUpdateAccount(ctx context.Context, account *models.Account) error
	GetAccountByTelegramID(ctx context.Context, telegramID int64) (*models.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	SetDriveLink(ctx context.Context, telegramID int64, token, folderID, folderURL, spreadsheetID, spreadsheetURL string) error
	UpdateDriveToken(ctx context.Context, telegramID int64, token string) error
	ClearDriveLink(ctx context.Context, telegramID int64) error
	UpdateSpreadsheet(ctx context.Context, telegramID int64, spreadsheetID, spreadsheetURL string) error
	SetLanguage(ctx context.Context, telegramID int64, lang string) error
	MarkConnectHintShown(ctx context.Context, telegramID int64) error
	DeleteAccount(ctx context.Context, telegramID int64) error

	CreateSavedItem(ctx context.Context, item *models.SavedItem) error
	GetSavedItem(ctx context.Context, id int64) (*models.SavedItem, error)
	UpdateSavedItemSheetRange(ctx context.Context, id int64, sheetRange string) error
	CountSavedItems(ctx context.Context, accountID int64) (int64, error)
	GetAccountItems(ctx context.Context, accountID int64, limit int) ([]models.SavedItem, error)
}

type StateRepository interface {
	GetState(ctx context.Context, userID int64) (*models.UserState, error)
	SetState(ctx context.Context, state *models.UserState) error
	ClearState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type StateManager interface {
	GetUserState(ctx context.Context, userID int64) (*models.UserState, error)
	SetUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) error
	ClearUserState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendHTML(chatID int64, text string) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	DeleteMessage(chatID int64, messageID int) error
	DeleteAfter(chatID int64, messageID int, delay time.Duration)
	AnswerCallback(callbackID string, text string) error
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

// Authenticator ведёт OAuth-поток подключения Google аккаунта.
type Authenticator interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Revoke(ctx context.Context, token *oauth2.Token) error
	TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource
}

// DriveClient управляет папками и файлами пользователя на Google Drive.
type DriveClient interface {
	EnsureRootFolder(ctx context.Context, ts oauth2.TokenSource, name string) (id, url string, err error)
	EnsureFolder(ctx context.Context, ts oauth2.TokenSource, parentID, name string) (string, error)
	Upload(ctx context.Context, ts oauth2.TokenSource, parentID string, upload *models.Upload) (id, url string, err error)
	FolderExists(ctx context.Context, ts oauth2.TokenSource, id string) (bool, error)
}

// SheetsClient управляет таблицей-журналом пользователя.
type SheetsClient interface {
	EnsureSpreadsheet(ctx context.Context, ts oauth2.TokenSource, folderID string) (id, url string, err error)
	SpreadsheetExists(ctx context.Context, ts oauth2.TokenSource, id string) (bool, error)
	AppendRow(ctx context.Context, ts oauth2.TokenSource, spreadsheetID string, row []interface{}) (string, error)
}

type AccountService interface {
	RegisterOrRefresh(ctx context.Context, telegramID int64, name, langCode string) (*models.Account, bool, error)
	Get(ctx context.Context, telegramID int64) (*models.Account, error)
	Items(ctx context.Context, telegramID int64, limit int) ([]models.SavedItem, error)
	SetLanguage(ctx context.Context, telegramID int64, lang string) error
	MarkConnectHintShown(ctx context.Context, telegramID int64) error
	Nuke(ctx context.Context, telegramID int64) error
}

type LinkService interface {
	BeginLink(ctx context.Context, telegramID int64) (authURL string, err error)
	CompleteLink(ctx context.Context, telegramID int64, code string) (*models.Account, error)
	Disconnect(ctx context.Context, telegramID int64) error
	FixSpreadsheet(ctx context.Context, telegramID int64) (url string, repaired bool, err error)
}

type SaveService interface {
	SaveText(ctx context.Context, telegramID int64, text, source string) (*models.SavedItem, error)
	SaveFile(ctx context.Context, telegramID int64, upload *models.Upload) (*models.SavedItem, error)
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, accountID, itemID int64) error
}

type SheetSyncer interface {
	AppendItem(ctx context.Context, accountID, itemID int64) error
	RepairSpreadsheet(ctx context.Context, accountID int64) error
}
