package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"pirouette/internal/format"
	"pirouette/internal/schedule"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// exportApplications выгружает все заявки в xlsx и отправляет файл
// администратору документом.
func (b *Bot) exportApplications(ctx context.Context, chatID int64) {
	l := zerolog.Ctx(ctx)

	apps, err := b.store.GetAllApplications(ctx)
	if err != nil {
		l.Error().Err(err).Msg("Failed to load applications for export")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}
	if len(apps) == 0 {
		b.sendText(chatID, "📭 Заявок пока нет, экспортировать нечего.")
		return
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			l.Warn().Err(err).Msg("Failed to close excel file")
		}
	}()

	const sheet = "Заявки"
	index, err := f.NewSheet(sheet)
	if err != nil {
		l.Error().Err(err).Msg("Failed to create excel sheet")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}

	headers := []string{"ID", "Дата", "Имя", "Телефон", "Программа", "Сумма", "Статус", "Способ оплаты", "Комментарий"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			l.Warn().Err(err).Str("cell", cell).Msg("Failed to write header cell")
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, "A1", last, style)
	}

	titles := make(map[int64]string)
	for row, a := range apps {
		title, ok := titles[a.ProgramID]
		if !ok {
			title = fmt.Sprintf("Программа #%d", a.ProgramID)
			if p, err := b.store.GetProgramByID(ctx, a.ProgramID); err == nil {
				title = p.Title
			}
			titles[a.ProgramID] = title
		}

		values := []interface{}{
			a.ID,
			schedule.FormatDate(a.CreatedAt),
			a.UserName,
			a.UserPhone,
			title,
			a.Amount,
			format.StatusLabel(a.Status),
			format.PaymentMethodLabel(a.PaymentMethod),
			a.UserNotes,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				l.Warn().Err(err).Str("cell", cell).Msg("Failed to write cell")
			}
		}
	}

	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		l.Warn().Err(err).Msg("Failed to delete default sheet")
	}

	if err := os.MkdirAll(b.config.Exports.Path, 0o755); err != nil {
		l.Error().Err(err).Str("path", b.config.Exports.Path).Msg("Failed to create exports dir")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}
	path := filepath.Join(b.config.Exports.Path,
		fmt.Sprintf("applications_%s.xlsx", timeNow().Format("2006-01-02_15-04-05")))
	if err := f.SaveAs(path); err != nil {
		l.Error().Err(err).Str("path", path).Msg("Failed to save excel file")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}

	caption := fmt.Sprintf("📤 Экспорт заявок: %d шт.", len(apps))
	if err := b.tgService.SendDocument(chatID, path, caption); err != nil {
		l.Error().Err(err).Str("path", path).Msg("Failed to send export document")
		b.sendText(chatID, "❌ Не удалось отправить файл. Он сохранён на сервере: "+path)
	}
}
