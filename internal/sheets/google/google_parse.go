package google

import (
	"fmt"
	"strconv"
	"strings"

	"worklife/internal/core"
)

// parseRows converts a values matrix (as returned by the Sheets API) back
// into transactions. Header, cleared and unparseable rows are skipped.
func parseRows(values [][]any) []core.Transaction {
	var out []core.Transaction
	for _, row := range values {
		if t, ok := parseRow(toStrings(row)); ok {
			out = append(out, t)
		}
	}
	return out
}

func parseRow(cols []string) (core.Transaction, bool) {
	if len(cols) < 6 {
		return core.Transaction{}, false
	}
	id, err := strconv.ParseInt(cols[0], 10, 64)
	if err != nil {
		return core.Transaction{}, false
	}
	date, err := core.ParseDate(cols[1])
	if err != nil {
		return core.Transaction{}, false
	}
	kind, err := core.ParseTransactionKind(cols[2])
	if err != nil {
		return core.Transaction{}, false
	}
	amount, err := core.ParseMoney(cols[5])
	if err != nil {
		return core.Transaction{}, false
	}
	return core.Transaction{
		ID:          id,
		Date:        date,
		Kind:        kind,
		Category:    cols[3],
		Description: cols[4],
		Amount:      amount,
		FromAccount: parseAccount(safeGet(cols, 6)),
		ToAccount:   parseAccount(safeGet(cols, 7)),
	}, true
}

func parseAccount(s string) *int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			// Unformatted numbers arrive as float64; avoid exponent notation.
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
