package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX renders a generated report as an XLSX workbook. The workbook is
// a faithful projection of the structured report; print mechanics stay with
// the external renderer.
func ExportXLSX(r Report, currencySymbol string) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Report"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	row := 1
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
	writeLine := func(values ...any) {
		for i, v := range values {
			write(i+1, v)
		}
		row++
	}

	writeLine(r.Title())
	writeLine("Factory", r.FactoryFilter)
	writeLine("Period", r.PeriodLabel())
	writeLine("Generated", r.GeneratedAt.Format("2006-01-02 15:04"))
	row++

	if r.Empty {
		writeLine(NoDataMessage)
		return workbookBytes(f)
	}

	writeLine("Total", r.Total.Format(currencySymbol))
	writeLine("Transactions", r.TransactionCount)
	if r.Kind == KindStandard {
		writeLine("Average transaction", r.Average.Format(currencySymbol))
	}
	row++

	switch r.Kind {
	case KindTax:
		writeLine("Tax Bucket", "Total", "Transactions", "Documents")
		for _, line := range r.TaxLines {
			writeLine(line.Bucket, line.Total.Format(currencySymbol), line.Count, line.Documents)
		}
	default:
		writeLine("Category", "Total", "Transactions", "% of Total")
		for _, line := range r.Categories {
			writeLine(line.Category, line.Total.Format(currencySymbol), line.Count, fmt.Sprintf("%.1f%%", line.Percent))
		}
	}
	row++

	if r.Kind == KindStandard {
		writeLine("Date", "Factory", "Category", "Description", "Vendor", "Reference", "Amount", "Receipts")
		for _, d := range r.Details {
			writeLine(
				d.Date.Format("2006-01-02"),
				d.FactoryID,
				d.Category,
				d.Description,
				d.Vendor,
				d.Reference,
				d.Amount.Format(currencySymbol),
				d.Attachments,
			)
		}
		row++
	}

	writeLine("Receipt Documentation")
	writeLine("Attachments", r.Receipts.AttachmentCount)
	writeLine("Documented records", fmt.Sprintf("%d of %d", r.Receipts.DocumentedRecords, r.Receipts.TotalRecords))
	writeLine("Documentation rate", fmt.Sprintf("%.1f%%", r.Receipts.DocumentationRate))
	writeLine("Receipt storage", r.Receipts.StorageHuman)
	row++

	for _, line := range r.Framing {
		writeLine(line)
	}

	_ = f.SetColWidth(sheet, "A", "A", 22)
	_ = f.SetColWidth(sheet, "B", "C", 16)
	_ = f.SetColWidth(sheet, "D", "D", 40)
	_ = f.SetColWidth(sheet, "E", "F", 18)

	return workbookBytes(f)
}

func workbookBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
