// Package report renders the transaction list as a paginated tabular
// PDF document. Generation is pure: the same snapshot and clock value
// always produce the same bytes.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"tally/internal/core"
)

// Filename is the fixed download name of the exported report.
const Filename = "financial-report.pdf"

const (
	pageBreakY = 270 // mm; below this a new page is started before the next row
	rowHeight  = 8
)

// Column layout is part of the export contract: Date, Description,
// Type, Amount, in that order.
var columns = []struct {
	title string
	width float64
	align string
}{
	{"Date", 30, "L"},
	{"Description", 80, "L"},
	{"Type", 30, "L"},
	{"Amount", 30, "R"},
}

// Generate writes the PDF report for the given snapshot. The slice is
// rendered in the order given (store order, createdAt descending); now
// is the generation timestamp, the only non-deterministic input.
func Generate(w io.Writer, txs []core.Transaction, now time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Financial Report", false)
	pdf.SetCreationDate(now)
	pdf.SetModificationDate(now)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Financial Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 6, "Generated "+now.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	tableHeader(pdf)
	for _, tx := range txs {
		if pdf.GetY() > pageBreakY {
			pdf.AddPage()
			tableHeader(pdf)
		}
		row := formatRow(tx)
		pdf.SetFont("Helvetica", "", 10)
		for i, col := range columns {
			pdf.CellFormat(col.width, rowHeight, row[i], "B", 0, col.align, false, 0, "")
		}
		pdf.Ln(rowHeight)
	}

	if pdf.GetY() > pageBreakY-3*rowHeight {
		pdf.AddPage()
	}
	pdf.Ln(4)
	totals := core.Summarize(txs)
	summaryLine(pdf, "Total Income", "+"+core.FormatAmount(totals.Income), false)
	summaryLine(pdf, "Total Expense", "-"+core.FormatAmount(totals.Expense), false)
	summaryLine(pdf, "Net Profit", FormatProfit(totals.Profit), true)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func tableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	for _, col := range columns {
		pdf.CellFormat(col.width, rowHeight, col.title, "B", 0, col.align, false, 0, "")
	}
	pdf.Ln(rowHeight)
}

func summaryLine(pdf *fpdf.Fpdf, label, value string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, 11)
	pdf.CellFormat(110, rowHeight, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(60, rowHeight, value, "", 1, "R", false, 0, "")
}

// formatRow maps a transaction onto the four table columns: date or
// the pending placeholder, caption, uppercased type, signed amount
// with two decimals.
func formatRow(tx core.Transaction) [4]string {
	return [4]string{
		tx.CreatedAt.Label(),
		tx.Caption,
		strings.ToUpper(string(tx.Type)),
		tx.Type.Sign() + core.FormatAmount(tx.Amount),
	}
}

// FormatProfit renders the net profit with a leading plus when it is
// non-negative; losses carry the minus from the number itself.
func FormatProfit(profit float64) string {
	if profit >= 0 {
		return "+" + core.FormatAmount(profit)
	}
	return core.FormatAmount(profit)
}
