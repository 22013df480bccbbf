package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/unclebandit/cardscan-backend/internal/repository"
)

// ExportService produces XLSX workbooks of a user's cards.
type ExportService struct {
	CardRepo repository.CardRepositoryInterface
	Logger   *slog.Logger
}

func NewExportService(cards repository.CardRepositoryInterface, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{CardRepo: cards, Logger: logger}
}

var exportHeaders = []string{
	"Name", "Email", "Phone", "Company", "Job Title", "Address", "Website", "Notes", "Synced", "Scanned At",
}

// ExportCardsXLSX returns every card of the user as an XLSX workbook.
func (s *ExportService) ExportCardsXLSX(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	start := time.Now()

	cards, err := s.CardRepo.ListAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Cards"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, style)
	}

	for i, c := range cards {
		row := i + 2
		synced := "no"
		if c.Synced {
			synced = "yes"
		}
		values := []any{
			c.Name, c.Email, c.Phone, c.Company, c.JobTitle, c.Address, c.Website, c.Notes,
			synced, c.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 24) // name
	_ = f.SetColWidth(sheet, "B", "B", 30) // email
	_ = f.SetColWidth(sheet, "C", "C", 18)
	_ = f.SetColWidth(sheet, "D", "E", 26)
	_ = f.SetColWidth(sheet, "F", "F", 40) // address
	_ = f.SetColWidth(sheet, "G", "H", 30)
	_ = f.SetColWidth(sheet, "I", "J", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.Logger.Info("export.cards.ok",
		"user_id", userID,
		"rows", len(cards),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
