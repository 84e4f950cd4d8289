package summary

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/model"
)

// Totals holds the summed amount of each record kind.
type Totals struct {
	Expenses    decimal.Decimal `json:"expenses"`
	Income      decimal.Decimal `json:"income"`
	Investments decimal.Decimal `json:"investments"`
}

// NetWorth is income minus expenses minus investments.
func (t Totals) NetWorth() decimal.Decimal {
	return t.Income.Sub(t.Expenses).Sub(t.Investments)
}

// CategoryTotal is the sum of one category within a record kind.
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

// Breakdown groups category totals by record kind.
type Breakdown struct {
	Expenses    []CategoryTotal `json:"expenses"`
	Income      []CategoryTotal `json:"income"`
	Investments []CategoryTotal `json:"investments"`
}

// Point is one chart sample. Expenses and investments are negative.
type Point struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// Chart is a time series per record kind sharing one label axis.
type Chart struct {
	Labels      []string `json:"labels"`
	Expenses    []Point  `json:"expenses"`
	Income      []Point  `json:"income"`
	Investments []Point  `json:"investments"`
}

// Summary is the derived view of a user's records for one window.
type Summary struct {
	Window     Window          `json:"window"`
	Totals     Totals          `json:"totals"`
	NetWorth   decimal.Decimal `json:"net_worth"`
	Categories Breakdown       `json:"categories"`
	Chart      Chart           `json:"chart"`
}

// Build filters the three collections to the window and aggregates them.
func Build(expenses, incomes, investments []*model.Record, w Window, now time.Time) Summary {
	expenses = Filter(expenses, w, now)
	incomes = Filter(incomes, w, now)
	investments = Filter(investments, w, now)

	totals := Totals{
		Expenses:    Sum(expenses),
		Income:      Sum(incomes),
		Investments: Sum(investments),
	}

	return Summary{
		Window:   w,
		Totals:   totals,
		NetWorth: totals.NetWorth(),
		Categories: Breakdown{
			Expenses:    ByCategory(expenses),
			Income:      ByCategory(incomes),
			Investments: ByCategory(investments),
		},
		Chart: BuildChart(expenses, incomes, investments, now.Location()),
	}
}

// Sum adds up the amounts of records.
func Sum(records []*model.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// ByCategory totals records per category, largest amount first.
func ByCategory(records []*model.Record) []CategoryTotal {
	index := make(map[string]int)
	out := make([]CategoryTotal, 0)

	for _, r := range records {
		i, ok := index[r.Category]
		if !ok {
			i = len(out)
			index[r.Category] = i
			out = append(out, CategoryTotal{Category: r.Category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(r.Amount)
		out[i].Count++
	}

	slices.SortFunc(out, func(a, b CategoryTotal) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})

	return out
}

// BuildChart produces one signed point per record, ascending by date, and
// the sorted union of calendar dates in loc as labels.
func BuildChart(expenses, incomes, investments []*model.Record, loc *time.Location) Chart {
	seen := make(map[string]bool)
	labels := make([]string, 0)

	points := func(records []*model.Record, negative bool) []Point {
		sorted := slices.Clone(records)
		slices.SortStableFunc(sorted, func(a, b *model.Record) int {
			if c := a.Date.Compare(b.Date); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})

		out := make([]Point, 0, len(sorted))
		for _, r := range sorted {
			amount := r.Amount
			if negative {
				amount = amount.Neg()
			}
			out = append(out, Point{Date: r.Date, Amount: amount})

			label := r.Date.In(loc).Format(dateLayout)
			if !seen[label] {
				seen[label] = true
				labels = append(labels, label)
			}
		}
		return out
	}

	chart := Chart{
		Expenses:    points(expenses, true),
		Income:      points(incomes, false),
		Investments: points(investments, true),
	}

	slices.Sort(labels)
	chart.Labels = labels

	return chart
}
