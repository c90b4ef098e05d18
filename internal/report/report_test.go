package report

import (
	"math"
	"testing"
	"time"

	"registro/internal/aggregate"
	"registro/internal/core"
)

var testNow = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

func exp(factory, category string, cents int64, date core.Date, atts ...core.Attachment) core.Expense {
	return core.Expense{
		ID:          factory + "/" + category + "/" + date.Format("2006-01-02"),
		Date:        date,
		FactoryID:   factory,
		Category:    category,
		Description: category,
		Amount:      core.Money{Cents: cents},
		Attachments: atts,
	}
}

func TestStandardReportAverage(t *testing.T) {
	// 100 + 50 -> average 75.00.
	records := []core.Expense{
		exp("investments", "labor", 10000, core.NewDate(2024, 3, 1)),
		exp("textiles", "labor", 5000, core.NewDate(2024, 3, 15)),
	}
	r := Generate(records, Options{Kind: KindStandard, FactoryFilter: core.FactoryBoth, Now: testNow})
	if r.Empty {
		t.Fatal("expected data")
	}
	if r.Total.Cents != 15000 || r.TransactionCount != 2 {
		t.Fatalf("totals: %+v", r)
	}
	if r.Average.Cents != 7500 {
		t.Fatalf("expected average 7500, got %d", r.Average.Cents)
	}
	if len(r.Categories) != 1 || r.Categories[0].Percent != 100.0 {
		t.Fatalf("categories: %+v", r.Categories)
	}
}

func TestEmptySetIsTerminalNoData(t *testing.T) {
	for _, kind := range []Kind{KindStandard, KindBank, KindTax} {
		r := Generate(nil, Options{Kind: kind, FactoryFilter: core.FactoryBoth, Now: testNow})
		if !r.Empty {
			t.Fatalf("%s: expected Empty", kind)
		}
		if r.TransactionCount != 0 || r.Average.Cents != 0 {
			t.Fatalf("%s: empty report must not carry figures: %+v", kind, r)
		}
		if len(r.Framing) != 1 || r.Framing[0] != NoDataMessage {
			t.Fatalf("%s: expected the no-data message, got %v", kind, r.Framing)
		}
	}
}

func TestPercentagesSumToHundred(t *testing.T) {
	records := []core.Expense{
		exp("textiles", "labor", 3333, core.NewDate(2024, 3, 1)),
		exp("textiles", "rent", 3333, core.NewDate(2024, 3, 2)),
		exp("textiles", "utilities", 3334, core.NewDate(2024, 3, 3)),
		exp("investments", "transport", 799, core.NewDate(2024, 3, 4)),
		exp("investments", "marketing", 12405, core.NewDate(2024, 3, 5)),
	}
	r := Generate(records, Options{Kind: KindStandard, FactoryFilter: core.FactoryBoth, Now: testNow})
	var sum float64
	for _, line := range r.Categories {
		sum += line.Percent
	}
	if math.Abs(sum-100.0) > 0.1 {
		t.Fatalf("percentages sum to %.2f, want 100.0 ± 0.1", sum)
	}
}

func TestReportHonorsFilters(t *testing.T) {
	records := []core.Expense{
		exp("textiles", "labor", 100, core.NewDate(2024, 3, 1)),
		exp("investments", "labor", 200, core.NewDate(2024, 3, 2)),
		exp("textiles", "labor", 400, core.NewDate(2023, 3, 3)),
	}
	r := Generate(records, Options{
		Kind:          KindStandard,
		FactoryFilter: "textiles",
		Period:        aggregate.Period{Year: 2024, Month: 3},
		Now:           testNow,
	})
	if r.TransactionCount != 1 || r.Total.Cents != 100 {
		t.Fatalf("filter leaked records: %+v", r)
	}
}

func TestDetailListingSortedByDateDesc(t *testing.T) {
	records := []core.Expense{
		exp("textiles", "labor", 100, core.NewDate(2024, 1, 5)),
		exp("textiles", "rent", 200, core.NewDate(2024, 3, 5)),
		exp("textiles", "utilities", 300, core.NewDate(2024, 2, 5)),
	}
	r := Generate(records, Options{Kind: KindStandard, FactoryFilter: core.FactoryBoth, Now: testNow})
	if len(r.Details) != 3 {
		t.Fatalf("expected 3 detail lines, got %d", len(r.Details))
	}
	for i := 1; i < len(r.Details); i++ {
		if r.Details[i].Date.After(r.Details[i-1].Date.Time) {
			t.Fatalf("detail listing not descending at %d", i)
		}
	}
}

func TestBankReportHasNoDetail(t *testing.T) {
	records := []core.Expense{
		exp("textiles", "labor", 10000, core.NewDate(2024, 3, 1)),
		exp("textiles", "rent", 5000, core.NewDate(2024, 3, 2)),
	}
	r := Generate(records, Options{Kind: KindBank, FactoryFilter: core.FactoryBoth, Now: testNow})
	if len(r.Details) != 0 {
		t.Fatal("bank report must not carry per-transaction detail")
	}
	if len(r.Categories) != 2 {
		t.Fatalf("expected 2 category rows, got %d", len(r.Categories))
	}
	if r.Categories[0].Count != 1 {
		t.Fatalf("expected counts on bank rows, got %+v", r.Categories[0])
	}
	if len(r.Framing) == 0 {
		t.Fatal("bank report must carry its framing text")
	}
	if r.Receipts.TotalRecords != 2 {
		t.Fatalf("bank report must keep the receipt summary footer: %+v", r.Receipts)
	}
}

func TestTaxBucketMapping(t *testing.T) {
	cases := map[string]string{
		"raw-materials":   TaxBucketGoods,
		"labor":           TaxBucketWages,
		"utilities":       TaxBucketOccupancy,
		"rent":            TaxBucketOccupancy,
		"maintenance":     TaxBucketMaintenance,
		"equipment":       TaxBucketCapital,
		"transport":       TaxBucketAdmin,
		"marketing":       TaxBucketAdmin,
		"office-supplies": TaxBucketAdmin,
		"insurance":       TaxBucketOther,
		"taxes-fees":      TaxBucketOther,
		// Outside the table: the catch-all fallback is intended behavior.
		"consulting": TaxBucketOther,
		"":           TaxBucketOther,
	}
	for category, want := range cases {
		if got := TaxBucket(category); got != want {
			t.Fatalf("TaxBucket(%q) = %q, want %q", category, got, want)
		}
	}
}

func TestTaxReportBuckets(t *testing.T) {
	withReceipt := core.Attachment{ID: "a1", Name: "r.pdf", SizeBytes: 10}
	records := []core.Expense{
		exp("textiles", "utilities", 100, core.NewDate(2024, 3, 1), withReceipt),
		exp("textiles", "rent", 200, core.NewDate(2024, 3, 2)),
		exp("investments", "labor", 400, core.NewDate(2024, 3, 3)),
		exp("investments", "mystery-category", 800, core.NewDate(2024, 3, 4)),
	}
	r := Generate(records, Options{Kind: KindTax, FactoryFilter: core.FactoryBoth, Now: testNow})
	if len(r.TaxLines) != 3 {
		t.Fatalf("expected 3 buckets, got %+v", r.TaxLines)
	}
	// Canonical bucket order: wages before occupancy before catch-all.
	if r.TaxLines[0].Bucket != TaxBucketWages || r.TaxLines[1].Bucket != TaxBucketOccupancy || r.TaxLines[2].Bucket != TaxBucketOther {
		t.Fatalf("bucket order: %+v", r.TaxLines)
	}
	occupancy := r.TaxLines[1]
	if occupancy.Total.Cents != 300 || occupancy.Count != 2 || occupancy.Documents != 1 {
		t.Fatalf("occupancy bucket: %+v", occupancy)
	}
	other := r.TaxLines[2]
	if other.Total.Cents != 800 {
		t.Fatalf("unmapped category must land in the catch-all: %+v", other)
	}
	if len(r.Framing) == 0 {
		t.Fatal("tax report must carry its declaration block")
	}
}

func TestReceiptSummary(t *testing.T) {
	records := []core.Expense{
		exp("textiles", "labor", 100, core.NewDate(2024, 3, 1),
			core.Attachment{ID: "a", Name: "a.png", SizeBytes: 1024},
			core.Attachment{ID: "b", Name: "b.png", SizeBytes: 1024}),
		exp("textiles", "rent", 200, core.NewDate(2024, 3, 2)),
		exp("textiles", "utilities", 300, core.NewDate(2024, 3, 3),
			core.Attachment{ID: "c", Name: "c.pdf", SizeBytes: 2048}),
	}
	r := Generate(records, Options{Kind: KindStandard, FactoryFilter: core.FactoryBoth, Now: testNow})
	s := r.Receipts
	if s.AttachmentCount != 3 || s.DocumentedRecords != 2 || s.TotalRecords != 3 {
		t.Fatalf("receipt summary: %+v", s)
	}
	if s.DocumentationRate != 66.7 {
		t.Fatalf("expected rate 66.7, got %v", s.DocumentationRate)
	}
	if s.StorageBytes != 4096 {
		t.Fatalf("expected 4096 bytes, got %d", s.StorageBytes)
	}
	if s.StorageHuman != "4.0 KiB" {
		t.Fatalf("expected human-readable size, got %q", s.StorageHuman)
	}
}
