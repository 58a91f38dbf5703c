package expense

import (
	"sort"
	"strings"

	"github.com/frahmantamala/expense-tracker/internal/core/money"
)

type CategoryTotal struct {
	Category   string
	TotalMinor int64
	Count      int
}

type Summary struct {
	TotalMinor int64
	Count      int
	Categories []CategoryTotal
}

// Summarize groups expenses by category, case-insensitively, labelling each
// group with the spelling of its first expense. Sums stay in minor units.
// Groups are ordered by total DESC, then label ASC.
func Summarize(expenses []*Expense) *Summary {
	summary := &Summary{Categories: make([]CategoryTotal, 0)}
	index := make(map[string]int)

	for _, e := range expenses {
		summary.TotalMinor += e.AmountMinor
		summary.Count++

		key := strings.ToLower(e.Category)
		i, ok := index[key]
		if !ok {
			i = len(summary.Categories)
			index[key] = i
			summary.Categories = append(summary.Categories, CategoryTotal{Category: e.Category})
		}
		summary.Categories[i].TotalMinor += e.AmountMinor
		summary.Categories[i].Count++
	}

	sort.SliceStable(summary.Categories, func(i, j int) bool {
		a, b := summary.Categories[i], summary.Categories[j]
		if a.TotalMinor != b.TotalMinor {
			return a.TotalMinor > b.TotalMinor
		}
		return a.Category < b.Category
	})

	return summary
}

func (s *Summary) ToResponse() SummaryResponse {
	resp := SummaryResponse{
		Total:      money.ToMajorUnits(s.TotalMinor),
		Count:      s.Count,
		Categories: make([]CategoryTotalResponse, len(s.Categories)),
	}
	for i, c := range s.Categories {
		resp.Categories[i] = CategoryTotalResponse{
			Category: c.Category,
			Total:    money.ToMajorUnits(c.TotalMinor),
			Count:    c.Count,
		}
	}
	return resp
}
