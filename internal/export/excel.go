package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"velora/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

// Writer renders reservation sets into Excel files for the back office.
type Writer struct {
	dir    string
	logger *zerolog.Logger
}

func NewWriter(dir string, logger *zerolog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Write saves the bookings to a timestamped .xlsx file and returns its path.
func (w *Writer) Write(bookings []models.Booking) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Booking ID", "Service", "Category", "Date", "Time", "Guest", "Email",
		"Phone", "Add-Ons", "Base Price", "Add-On Total", "Total", "Currency", "Notes",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, b := range bookings {
		row := i + 2
		values := []interface{}{
			b.BookingID, b.Name, b.ServiceCategory, b.Date, b.Time, b.GuestName,
			b.GuestEmail, b.GuestPhone, addOnNames(b.AddOns), b.BasePrice,
			b.AddOnTotal, b.TotalPrice, b.Currency, b.Notes,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "I", 20)
	_ = f.SetColWidth(sheetName, "J", "M", 12)
	_ = f.SetColWidth(sheetName, "N", "N", 30)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_export_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(w.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	w.logger.Info().Str("file_path", filePath).Int("count", len(bookings)).Msg("Excel file created")
	return filePath, nil
}

func addOnNames(addOns []models.AddOn) string {
	if len(addOns) == 0 {
		return ""
	}
	names := make([]string, 0, len(addOns))
	for _, a := range addOns {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}
