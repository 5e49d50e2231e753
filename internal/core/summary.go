package core

// CategoryTotal is the summed expense amount for one category, paired with a
// stable display color. Derived data: recomputed from the transaction list,
// never stored.
type CategoryTotal struct {
	Category string
	Total    Money
	Color    string
}

// Summary holds the derived totals for a transaction list.
type Summary struct {
	Balance        Money
	IncomeTotal    Money
	ExpenseTotal   Money
	CategoryTotals []CategoryTotal
}

// CategoryPalette is the fixed color cycle for category breakdowns. Colors
// are assigned by first-seen category order and reused cyclically when
// categories outnumber the palette.
var CategoryPalette = []string{
	"#0ea5e9",
	"#f59e0b",
	"#10b981",
	"#ef4444",
	"#8b5cf6",
	"#9333ea",
	"#6366f1",
	"#ec4899",
	"#94a3b8",
}

// Summarize computes balance, income and expense totals, and the per-category
// expense breakdown for a transaction list. It is a pure function of its
// input: category order follows first occurrence in the list, and only
// categories with at least one expense transaction appear.
func Summarize(transactions []Transaction) Summary {
	var s Summary
	index := make(map[string]int)
	for _, t := range transactions {
		switch t.Type {
		case Income:
			s.IncomeTotal.Cents += t.Amount.Cents
		case Expense:
			s.ExpenseTotal.Cents += t.Amount.Cents
			i, seen := index[t.Category]
			if !seen {
				i = len(s.CategoryTotals)
				index[t.Category] = i
				s.CategoryTotals = append(s.CategoryTotals, CategoryTotal{
					Category: t.Category,
					Color:    CategoryPalette[i%len(CategoryPalette)],
				})
			}
			s.CategoryTotals[i].Total.Cents += t.Amount.Cents
		}
	}
	s.Balance.Cents = s.IncomeTotal.Cents - s.ExpenseTotal.Cents
	return s
}
