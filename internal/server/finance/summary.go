package finance

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/shopspring/decimal"
)

// Palette is cycled over categories in the order they first appear.
var Palette = []string{
	"#818cf8",
	"#c084fc",
	"#e879f9",
	"#22d3ee",
	"#34d399",
	"#f472b6",
}

type Summary struct {
	Income       decimal.Decimal      `json:"income"`
	Expense      decimal.Decimal      `json:"expense"`
	Balance      decimal.Decimal      `json:"balance"`
	Transactions []models.Transaction `json:"transactions"`
}

// Summarize totals txs; it keeps their order.
func Summarize(txs []models.Transaction) Summary {
	s := Summary{Income: decimal.Zero, Expense: decimal.Zero, Transactions: txs}
	for _, t := range txs {
		switch t.Kind {
		case models.TransactionIncome:
			s.Income = s.Income.Add(t.Amount)
		case models.TransactionExpense:
			s.Expense = s.Expense.Add(t.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	if s.Transactions == nil {
		s.Transactions = []models.Transaction{}
	}
	return s
}

type CategoryTotal struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
	Color string          `json:"color"`
}

// CategoryBreakdown sums expenses per category, largest first. Colours
// follow first-appearance order, so they stay put when totals reorder.
func CategoryBreakdown(txs []models.Transaction) []CategoryTotal {
	index := make(map[string]int)
	result := make([]CategoryTotal, 0)

	for _, t := range txs {
		if t.Kind != models.TransactionExpense {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(result)
			index[t.Category] = i
			result = append(result, CategoryTotal{
				Name:  t.Category,
				Value: decimal.Zero,
				Color: Palette[i%len(Palette)],
			})
		}
		result[i].Value = result[i].Value.Add(t.Amount)
	}

	sort.SliceStable(result, func(a, b int) bool {
		return result[a].Value.GreaterThan(result[b].Value)
	})
	return result
}

type DayFlow struct {
	Day     int             `json:"day"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// DailyFlow produces exactly days buckets for days 1..days. A transaction
// lands on the day written in the DD part of its date; rows whose day is
// out of range or unreadable are skipped.
func DailyFlow(txs []models.Transaction, days int) []DayFlow {
	if days < 0 {
		days = 0
	}
	buckets := make([]DayFlow, days)
	for i := range buckets {
		buckets[i] = DayFlow{Day: i + 1, Income: decimal.Zero, Expense: decimal.Zero, Net: decimal.Zero}
	}

	for _, t := range txs {
		day, ok := dayOfMonth(t.Date)
		if !ok || day < 1 || day > days {
			continue
		}
		b := &buckets[day-1]
		switch t.Kind {
		case models.TransactionIncome:
			b.Income = b.Income.Add(t.Amount)
		case models.TransactionExpense:
			b.Expense = b.Expense.Add(t.Amount)
		}
	}

	for i := range buckets {
		buckets[i].Net = buckets[i].Income.Sub(buckets[i].Expense)
	}
	return buckets
}

func dayOfMonth(date string) (int, bool) {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return 0, false
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, false
	}
	return day, true
}
