package google

import (
	"testing"

	"worklife/internal/core"
)

func TestParseRows(t *testing.T) {
	values := [][]any{
		{"ID", "Date", "Kind", "Category", "Description", "Amount", "From", "To"},
		{float64(1), "2025-10-03", "expense", "food", "groceries", float64(12.5), float64(1), ""},
		{},
		{float64(2), "2025-10-04", "income", "", "salary", "1500,00", "", float64(2)},
		{float64(3), "not a date", "expense", "x", "y", float64(1), float64(1)},
		{float64(4), "2025-10-05", "bribe", "x", "y", float64(1), float64(1)},
	}

	got := parseRows(values)
	if len(got) != 2 {
		t.Fatalf("parsed %d rows, want 2: %+v", len(got), got)
	}

	first := got[0]
	if first.ID != 1 || first.Kind != core.TxExpense || first.Amount.Cents != 1250 {
		t.Errorf("first row = %+v", first)
	}
	if first.FromAccount == nil || *first.FromAccount != 1 || first.ToAccount != nil {
		t.Errorf("first row accounts = %v %v", first.FromAccount, first.ToAccount)
	}

	second := got[1]
	if second.Kind != core.TxIncome || second.Amount.Cents != 150000 {
		t.Errorf("second row = %+v", second)
	}
	if second.ToAccount == nil || *second.ToAccount != 2 {
		t.Errorf("second row to account = %v", second.ToAccount)
	}
}

func TestToStringsAvoidsExponent(t *testing.T) {
	got := toStrings([]any{float64(12345678), " x "})
	if got[0] != "12345678" || got[1] != "x" {
		t.Errorf("toStrings() = %q", got)
	}
}
