// Package report produces the three structured report variants from an
// aggregated expense set. Generation is pure: the same records, filter and
// clock always yield the same report, and the ledger is never touched.
package report

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"registro/internal/aggregate"
	"registro/internal/core"
)

type Kind string

const (
	KindStandard Kind = "standard"
	KindBank     Kind = "bank"
	KindTax      Kind = "tax"
)

// NoDataMessage is the terminal result for an empty filtered set. Reports
// over nothing are a normal outcome, never an error.
const NoDataMessage = "No matching expense records for the selected period."

var bankFraming = []string{
	"Expense summary prepared for banking review.",
	"Figures are aggregated per category from the company expense ledger.",
	"Individual transaction detail is available in the standard report.",
}

var taxDeclaration = []string{
	"Revenue and tax summary prepared from the company expense ledger.",
	"Expense categories are grouped into tax-relevant buckets.",
	"Supporting documents are retained as encoded receipt attachments.",
	"The undersigned declares the figures above to be complete and accurate.",
}

type (
	// Options select the variant and the slice of the ledger to report on.
	Options struct {
		Kind          Kind
		FactoryFilter string
		Period        aggregate.Period
		Now           time.Time
	}

	// CategoryLine is one row of the category breakdown.
	CategoryLine struct {
		Category string
		Total    core.Money
		Count    int
		Percent  float64 // share of the grand total, one decimal
	}

	// DetailLine is one row of the full transaction listing.
	DetailLine struct {
		Date        core.Date
		FactoryID   string
		Category    string
		Description string
		Vendor      string
		Reference   string
		Amount      core.Money
		Attachments int
	}

	// TaxLine is one tax bucket with its supporting-document count.
	TaxLine struct {
		Bucket    string
		Total     core.Money
		Count     int
		Documents int
	}

	// ReceiptSummary describes how well the reported records are documented.
	ReceiptSummary struct {
		AttachmentCount   int
		DocumentedRecords int
		TotalRecords      int
		DocumentationRate float64 // percent, one decimal
		StorageBytes      int64
		StorageHuman      string
	}

	// Report is the structured projection handed to the external renderer.
	Report struct {
		Kind          Kind
		FactoryFilter string
		Period        aggregate.Period
		GeneratedAt   time.Time

		// Empty marks the "no matching records" terminal result; all other
		// sections are zero when it is set.
		Empty bool

		Total            core.Money
		TransactionCount int
		Average          core.Money

		Categories []CategoryLine
		Details    []DetailLine
		TaxLines   []TaxLine
		Framing    []string
		Receipts   ReceiptSummary
	}
)

// Generate builds the requested report variant over the records matching the
// factory filter and period.
func Generate(records []core.Expense, opts Options) Report {
	filtered := aggregate.FilterByPeriod(
		aggregate.FilterByFactory(records, opts.FactoryFilter), opts.Period)

	r := Report{
		Kind:          opts.Kind,
		FactoryFilter: opts.FactoryFilter,
		Period:        opts.Period,
		GeneratedAt:   opts.Now,
	}

	if len(filtered) == 0 {
		r.Empty = true
		r.Framing = []string{NoDataMessage}
		return r
	}

	r.Total = aggregate.SumAmount(filtered)
	r.TransactionCount = len(filtered)
	// Guarded above: the filtered set is non-empty, so the average can never
	// divide by zero.
	r.Average = core.Money{Cents: roundedDiv(r.Total.Cents, int64(len(filtered)))}
	r.Receipts = summarizeReceipts(filtered)

	switch opts.Kind {
	case KindBank:
		r.Categories = categoryLines(filtered, r.Total.Cents)
		r.Framing = bankFraming
	case KindTax:
		r.TaxLines = taxLines(filtered)
		r.Framing = taxDeclaration
	default:
		r.Categories = categoryLines(filtered, r.Total.Cents)
		r.Details = detailLines(filtered)
	}
	return r
}

// Title returns the printable heading for the report variant.
func (r Report) Title() string {
	switch r.Kind {
	case KindBank:
		return "Bank Expense Summary"
	case KindTax:
		return "Revenue & Tax Summary"
	default:
		return "Expense Report"
	}
}

// PeriodLabel renders the covered period for headers, e.g. "3/2024".
func (r Report) PeriodLabel() string {
	switch {
	case r.Period.Year == 0 && r.Period.Month == 0:
		return "all records"
	case r.Period.Month == 0:
		return fmt.Sprintf("%d", r.Period.Year)
	default:
		return fmt.Sprintf("%d/%d", r.Period.Month, r.Period.Year)
	}
}

func categoryLines(records []core.Expense, grandCents int64) []CategoryLine {
	rows := aggregate.GroupByCategoryWithCounts(records)
	out := make([]CategoryLine, len(rows))
	for i, row := range rows {
		out[i] = CategoryLine{
			Category: row.Category,
			Total:    row.Total,
			Count:    row.Count,
			Percent:  roundOneDecimal(float64(row.Total.Cents) / float64(grandCents) * 100),
		}
	}
	return out
}

func detailLines(records []core.Expense) []DetailLine {
	sorted := aggregate.SortByDateDesc(records)
	out := make([]DetailLine, len(sorted))
	for i, e := range sorted {
		out[i] = DetailLine{
			Date:        e.Date,
			FactoryID:   e.FactoryID,
			Category:    e.Category,
			Description: e.Description,
			Vendor:      e.Vendor,
			Reference:   e.Reference,
			Amount:      e.Amount,
			Attachments: len(e.Attachments),
		}
	}
	return out
}

func summarizeReceipts(records []core.Expense) ReceiptSummary {
	s := ReceiptSummary{TotalRecords: len(records)}
	for _, e := range records {
		s.AttachmentCount += len(e.Attachments)
		s.StorageBytes += e.AttachmentBytes()
		if e.Documented() {
			s.DocumentedRecords++
		}
	}
	s.DocumentationRate = roundOneDecimal(float64(s.DocumentedRecords) / float64(s.TotalRecords) * 100)
	s.StorageHuman = humanize.IBytes(uint64(s.StorageBytes))
	return s
}

// roundedDiv divides cents half-up, for the average transaction amount.
func roundedDiv(cents, n int64) int64 {
	return (cents + n/2) / n
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
