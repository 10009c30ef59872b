package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"bettersaved/internal/models"
)

// SheetsClient создаёт и наполняет таблицу-журнал пользователя.
type SheetsClient struct {
	limiter *rate.Limiter
}

func NewSheetsClient(limiter *rate.Limiter) *SheetsClient {
	return &SheetsClient{limiter: limiter}
}

func (c *SheetsClient) service(ctx context.Context, ts oauth2.TokenSource) (*sheets.Service, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	svc, err := sheets.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// EnsureSpreadsheet создаёт таблицу с листом журнала, оформляет шапку
// и переносит файл в папку бота.
func (c *SheetsClient) EnsureSpreadsheet(ctx context.Context, ts oauth2.TokenSource, folderID string) (string, string, error) {
	svc, err := c.service(ctx, ts)
	if err != nil {
		return "", "", err
	}

	created, err := svc.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: models.SpreadsheetTitle},
		Sheets: []*sheets.Sheet{{
			Properties: &sheets.SheetProperties{Title: models.SheetName},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("create spreadsheet: %w", err)
	}

	spreadsheetID := created.SpreadsheetId
	sheetID := created.Sheets[0].Properties.SheetId

	header := make([][]interface{}, 1)
	header[0] = models.SheetHeader
	_, err = svc.Spreadsheets.Values.Update(spreadsheetID, models.SheetName+"!A1",
		&sheets.ValueRange{Values: header}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("write header: %w", err)
	}

	// Шапка: зафиксирована, жирный текст, серый фон
	_, err = svc.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId:        sheetID,
						GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
			{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:       sheetID,
						StartRowIndex: 0,
						EndRowIndex:   1,
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							TextFormat: &sheets.TextFormat{Bold: true},
							BackgroundColor: &sheets.Color{
								Red: 0.9, Green: 0.9, Blue: 0.9,
							},
						},
					},
					Fields: "userEnteredFormat(textFormat,backgroundColor)",
				},
			},
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("format header: %w", err)
	}

	if folderID != "" {
		if err := c.moveToFolder(ctx, ts, spreadsheetID, folderID); err != nil {
			return "", "", err
		}
	}

	url := created.SpreadsheetUrl
	if url == "" {
		url = "https://docs.google.com/spreadsheets/d/" + spreadsheetID
	}
	return spreadsheetID, url, nil
}

// moveToFolder переносит таблицу из корня Drive в папку бота.
func (c *SheetsClient) moveToFolder(ctx context.Context, ts oauth2.TokenSource, fileID, folderID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	driveSvc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return fmt.Errorf("create drive service: %w", err)
	}

	file, err := driveSvc.Files.Get(fileID).Fields("parents").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet parents: %w", err)
	}

	call := driveSvc.Files.Update(fileID, nil).AddParents(folderID)
	for _, parent := range file.Parents {
		call = call.RemoveParents(parent)
	}
	if _, err := call.Context(ctx).Do(); err != nil {
		return fmt.Errorf("move spreadsheet to folder: %w", err)
	}
	return nil
}

// SpreadsheetExists проверяет, что таблица доступна.
func (c *SheetsClient) SpreadsheetExists(ctx context.Context, ts oauth2.TokenSource, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	svc, err := c.service(ctx, ts)
	if err != nil {
		return false, err
	}

	_, err = svc.Spreadsheets.Get(id).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// AppendRow дописывает строку в конец журнала и возвращает диапазон,
// который занял добавленный ряд.
func (c *SheetsClient) AppendRow(ctx context.Context, ts oauth2.TokenSource, spreadsheetID string, row []interface{}) (string, error) {
	svc, err := c.service(ctx, ts)
	if err != nil {
		return "", err
	}

	resp, err := svc.Spreadsheets.Values.Append(spreadsheetID, models.SheetName+"!A:E",
		&sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append row: %w", err)
	}

	if resp.Updates != nil {
		return resp.Updates.UpdatedRange, nil
	}
	return "", nil
}
