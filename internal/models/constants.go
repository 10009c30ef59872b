package models

import "time"

// Conversation steps.
const (
	StepIdle                    = ""
	StepAwaitingAuthCode        = "awaiting_auth_code"
	StepAwaitingDisconnectReply = "awaiting_disconnect_confirm"
	StepAwaitingNukeReply       = "awaiting_nuke_confirm"
)

// NukeConfirmPhrase must be sent verbatim to delete an account.
const NukeConfirmPhrase = "DELETE MY ACCOUNT"

// Saved item kinds.
const (
	KindText     = "text"
	KindImage    = "image"
	KindVideo    = "video"
	KindAudio    = "audio"
	KindVoice    = "voice"
	KindPDF      = "pdf"
	KindDocument = "document"
)

// Drive folder names per item kind.
var KindFolders = map[string]string{
	KindImage:    "Images",
	KindVideo:    "Video",
	KindAudio:    "Audio",
	KindVoice:    "Audio",
	KindPDF:      "PDF",
	KindDocument: "Files",
}

// Spreadsheet layout.
const (
	SpreadsheetTitle = "BetterSavedMessages"
	SheetName        = "Messages"
)

// SheetHeader is the first row of the Messages sheet.
var SheetHeader = []interface{}{"Timestamp", "Source", "Category", "Content", "Link"}

const (
	DefaultStateTTL  = 30 * time.Minute
	DefaultRateLimit = 20
	RateLimitWindow  = time.Minute
)

const (
	ParseModeHTML     = "HTML"
	ParseModeMarkdown = "Markdown"
)
