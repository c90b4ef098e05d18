package report

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"registro/internal/core"
)

func TestExportXLSX(t *testing.T) {
	records := []core.Expense{
		exp("textiles", "labor", 10000, core.NewDate(2024, 3, 1)),
		exp("textiles", "rent", 5000, core.NewDate(2024, 3, 2)),
	}
	r := Generate(records, Options{Kind: KindStandard, FactoryFilter: "textiles", Now: testNow})

	out, err := ExportXLSX(r, "€")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected workbook bytes")
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	title, err := f.GetCellValue("Report", "A1")
	if err != nil {
		t.Fatalf("read title: %v", err)
	}
	if title != "Expense Report" {
		t.Fatalf("expected report title in A1, got %q", title)
	}

	rows, err := f.GetRows("Report")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	var foundCategoryHeader, foundReceiptFooter bool
	for _, row := range rows {
		if len(row) > 0 && row[0] == "Category" {
			foundCategoryHeader = true
		}
		if len(row) > 0 && row[0] == "Receipt Documentation" {
			foundReceiptFooter = true
		}
	}
	if !foundCategoryHeader || !foundReceiptFooter {
		t.Fatalf("workbook missing sections: category=%v receipts=%v", foundCategoryHeader, foundReceiptFooter)
	}
}

func TestExportXLSXEmptyReport(t *testing.T) {
	r := Generate(nil, Options{Kind: KindBank, FactoryFilter: core.FactoryBoth, Now: testNow})
	out, err := ExportXLSX(r, "€")
	if err != nil {
		t.Fatalf("export empty: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows("Report")
	var found bool
	for _, row := range rows {
		if len(row) > 0 && row[0] == NoDataMessage {
			found = true
		}
	}
	if !found {
		t.Fatal("empty report must carry the no-data message")
	}
}
