package report

import "registro/internal/core"

// Tax-relevant buckets, in the order they appear on the report.
const (
	TaxBucketGoods       = "Cost of Goods Sold"
	TaxBucketWages       = "Employee Compensation"
	TaxBucketOccupancy   = "Occupancy & Utilities"
	TaxBucketMaintenance = "Repairs & Maintenance"
	TaxBucketCapital     = "Capital Expenditure"
	TaxBucketAdmin       = "Selling & Administrative"
	TaxBucketOther       = "Other Deductible"
)

var taxBucketOrder = []string{
	TaxBucketGoods,
	TaxBucketWages,
	TaxBucketOccupancy,
	TaxBucketMaintenance,
	TaxBucketCapital,
	TaxBucketAdmin,
	TaxBucketOther,
}

// taxBucketByCategory maps the eleven ledger categories onto tax buckets.
// The table is deliberately fixed and partial: anything outside it falls
// into the catch-all bucket, which is intended behavior, not an oversight.
var taxBucketByCategory = map[string]string{
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
}

// TaxBucket returns the tax bucket for an expense category.
func TaxBucket(category string) string {
	if b, ok := taxBucketByCategory[category]; ok {
		return b
	}
	return TaxBucketOther
}

// taxLines folds the records into tax buckets, reported in canonical bucket
// order with empty buckets omitted.
func taxLines(records []core.Expense) []TaxLine {
	byBucket := make(map[string]*TaxLine)
	for _, e := range records {
		bucket := TaxBucket(e.Category)
		line, ok := byBucket[bucket]
		if !ok {
			line = &TaxLine{Bucket: bucket}
			byBucket[bucket] = line
		}
		line.Total.Cents += e.Amount.Cents
		line.Count++
		line.Documents += len(e.Attachments)
	}

	out := make([]TaxLine, 0, len(byBucket))
	for _, bucket := range taxBucketOrder {
		if line, ok := byBucket[bucket]; ok {
			out = append(out, *line)
		}
	}
	return out
}
