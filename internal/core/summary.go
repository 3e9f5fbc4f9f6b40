package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"` // 1-12
	Income     Money            `json:"income"`
	Expense    Money            `json:"expense"`
	Net        Money            `json:"net"`
	ByCategory []CategoryAmount `json:"by_category"`
}

// Overview folds a month's transactions into totals. Only expense-side
// entries contribute to the category breakdown.
func Overview(year, month int, txs []Transaction) MonthOverview {
	ov := MonthOverview{Year: year, Month: month}
	idx := map[string]int{}
	for _, t := range txs {
		if !t.Date.InMonth(year, month) {
			continue
		}
		switch {
		case t.CountsAsIncome():
			ov.Income = ov.Income.Add(t.Amount)
		case t.CountsAsExpense():
			ov.Expense = ov.Expense.Add(t.Amount)
			name := t.CategoryOrKind()
			i, ok := idx[name]
			if !ok {
				i = len(ov.ByCategory)
				idx[name] = i
				ov.ByCategory = append(ov.ByCategory, CategoryAmount{Name: name})
			}
			ov.ByCategory[i].Amount = ov.ByCategory[i].Amount.Add(t.Amount)
		}
	}
	sort.SliceStable(ov.ByCategory, func(i, j int) bool {
		if ov.ByCategory[i].Amount.Cents != ov.ByCategory[j].Amount.Cents {
			return ov.ByCategory[i].Amount.Cents > ov.ByCategory[j].Amount.Cents
		}
		return ov.ByCategory[i].Name < ov.ByCategory[j].Name
	})
	ov.Net = ov.Income.Sub(ov.Expense)
	return ov
}
