package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"holidayhub/internal/domain/leave"
)

var columns = []struct {
	title string
	width float64
}{
	{"Year", 20},
	{"Category", 70},
	{"Total", 30},
	{"Used", 30},
	{"Remaining", 30},
}

// CreditStatement writes a one-page PDF listing credits in the given order.
func CreditStatement(w io.Writer, person leave.Person, credits []leave.Credit, generated time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Holiday credit statement", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Holiday credit statement")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Employee: %s", person.Name)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", person.Email))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", generated.UTC().Format(leave.DateLayout)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 11)
	for _, col := range columns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	if len(credits) == 0 {
		pdf.CellFormat(180, 8, "No credits on record", "1", 1, "C", false, 0, "")
	}
	for _, c := range credits {
		name := c.CategoryName
		if name == "" {
			name = leave.CategoryName(c.Category)
		}
		pdf.CellFormat(columns[0].width, 8, strconv.Itoa(c.Year), "1", 0, "C", false, 0, "")
		pdf.CellFormat(columns[1].width, 8, tr(name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(columns[2].width, 8, formatDays(c.TotalDays), "1", 0, "R", false, 0, "")
		pdf.CellFormat(columns[3].width, 8, formatDays(c.UsedDays), "1", 0, "R", false, 0, "")
		pdf.CellFormat(columns[4].width, 8, formatDays(c.RemainingDays), "1", 1, "R", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render statement: %w", err)
	}
	return nil
}

func formatDays(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
