package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bettersaved/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"
)

const exportLimit = 10000

// handleExport выгружает журнал пользователя в Excel и отправляет файлом.
func (b *Bot) handleExport(ctx context.Context, chatID, userID int64, account *models.Account) {
	items, err := b.accountService.Items(ctx, userID, exportLimit)
	if err != nil {
		b.sendError(chatID, userID, err)
		return
	}

	filePath, err := b.exportToExcel(account, items)
	if err != nil {
		b.sendError(chatID, userID, err)
		return
	}
	defer os.Remove(filePath)

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(filePath))
	if _, err := b.tgService.Send(doc); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send export file")
		b.sendError(chatID, userID, err)
	}
}

// exportToExcel создает Excel файл с записями журнала
func (b *Bot) exportToExcel(account *models.Account, items []models.SavedItem) (string, error) {
	// Создаем папку для экспорта, если не существует
	if err := os.MkdirAll(b.config.Exports.Path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := models.SheetName
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	// Заголовки совпадают с шапкой Google-таблицы
	for i, header := range models.SheetHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	lastHeaderCell, _ := excelize.CoordinatesToCellName(len(models.SheetHeader), 1)
	_ = f.SetCellStyle(sheetName, "A1", lastHeaderCell, headerStyle)

	for i, item := range items {
		row := i + 2
		for col, value := range item.SheetRow() {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, value)
		}
	}

	// Настраиваем ширину колонок
	_ = f.SetColWidth(sheetName, "A", "A", 20)
	_ = f.SetColWidth(sheetName, "B", "B", 20)
	_ = f.SetColWidth(sheetName, "C", "C", 12)
	_ = f.SetColWidth(sheetName, "D", "D", 60)
	_ = f.SetColWidth(sheetName, "E", "E", 40)

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("export_%d_%s.xlsx", account.TelegramID, time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(b.config.Exports.Path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	b.logger.Info().Str("file_path", filePath).Msg("Excel file created")
	return filePath, nil
}
