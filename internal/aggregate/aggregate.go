// Package aggregate provides pure, stateless filtering and summarization
// over a ledger snapshot. The dashboard and all report variants consume the
// same functions, so their numbers can never disagree.
package aggregate

import (
	"sort"
	"time"

	"registro/internal/core"
)

// Period bounds a filter to a calendar year and/or month (1-12). A zero
// field means "all".
type Period struct {
	Year  int
	Month int
}

// CategoryTotal is one row of a category grouping.
type CategoryTotal struct {
	Category string
	Total    core.Money
}

// CategoryBreakdown adds the transaction count to a category grouping row.
type CategoryBreakdown struct {
	Category string
	Total    core.Money
	Count    int
}

// Snapshot is the dashboard summary, computed relative to an injected "now"
// so it stays a pure function of its inputs.
type Snapshot struct {
	MonthlyTotal     core.Money
	YearlyTotal      core.Money
	TransactionCount int
}

// FilterByFactory keeps records attributed to the given factory.
// core.FactoryBoth (or an empty filter) passes everything through.
func FilterByFactory(records []core.Expense, factoryID string) []core.Expense {
	if factoryID == "" || factoryID == core.FactoryBoth {
		return append([]core.Expense(nil), records...)
	}
	out := make([]core.Expense, 0, len(records))
	for _, e := range records {
		if e.FactoryID == factoryID {
			out = append(out, e)
		}
	}
	return out
}

// FilterByPeriod keeps records inside the period's bounds.
func FilterByPeriod(records []core.Expense, p Period) []core.Expense {
	out := make([]core.Expense, 0, len(records))
	for _, e := range records {
		if p.Year != 0 && e.Date.Year() != p.Year {
			continue
		}
		if p.Month != 0 && e.Date.Month() != p.Month {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SumAmount totals the amounts of all records.
func SumAmount(records []core.Expense) core.Money {
	var cents int64
	for _, e := range records {
		cents += e.Amount.Cents
	}
	return core.Money{Cents: cents}
}

// GroupByCategory totals records per category, sorted by descending total.
// Ties keep first-encountered order.
func GroupByCategory(records []core.Expense) []CategoryTotal {
	rows := GroupByCategoryWithCounts(records)
	out := make([]CategoryTotal, len(rows))
	for i, r := range rows {
		out[i] = CategoryTotal{Category: r.Category, Total: r.Total}
	}
	return out
}

// GroupByCategoryWithCounts totals and counts records per category, sorted
// by descending total with first-encountered order on ties.
func GroupByCategoryWithCounts(records []core.Expense) []CategoryBreakdown {
	index := make(map[string]int)
	var rows []CategoryBreakdown
	for _, e := range records {
		i, ok := index[e.Category]
		if !ok {
			i = len(rows)
			index[e.Category] = i
			rows = append(rows, CategoryBreakdown{Category: e.Category})
		}
		rows[i].Total.Cents += e.Amount.Cents
		rows[i].Count++
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].Total.Cents > rows[b].Total.Cents
	})
	return rows
}

// SortByDateDesc returns a copy sorted by descending date, the order used by
// detailed expense listings. Records sharing a date keep their relative
// (newest-first) ledger order.
func SortByDateDesc(records []core.Expense) []core.Expense {
	out := append([]core.Expense(nil), records...)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Date.After(out[b].Date.Time)
	})
	return out
}

// DashboardSnapshot summarizes the records for the dashboard: totals for
// now's calendar month and year, and the overall transaction count for the
// factory filter.
func DashboardSnapshot(records []core.Expense, factoryFilter string, now time.Time) Snapshot {
	filtered := FilterByFactory(records, factoryFilter)

	month := FilterByPeriod(filtered, Period{Year: now.Year(), Month: int(now.Month())})
	year := FilterByPeriod(filtered, Period{Year: now.Year()})

	return Snapshot{
		MonthlyTotal:     SumAmount(month),
		YearlyTotal:      SumAmount(year),
		TransactionCount: len(filtered),
	}
}
