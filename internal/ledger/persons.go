package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
)

// PersonSortColumn selects the column a person summary is ordered by.
type PersonSortColumn string

const (
	// SortDefault orders by name, then main category, then larger totals first.
	SortDefault PersonSortColumn = ""
	// SortByName orders lexically by name.
	SortByName PersonSortColumn = "name"
	// SortByTotal orders numerically by total amount.
	SortByTotal PersonSortColumn = "total"
)

// ParsePersonSortColumn accepts "name", "total" or an empty string.
func ParsePersonSortColumn(s string) (PersonSortColumn, error) {
	switch col := PersonSortColumn(strings.ToLower(strings.TrimSpace(s))); col {
	case SortDefault, SortByName, SortByTotal:
		return col, nil
	default:
		return "", fmt.Errorf("unknown sort column %q (want name or total)", s)
	}
}

// PersonQuery selects and shapes a per-person income summary.
type PersonQuery struct {
	StartDate        *time.Time
	EndDate          *time.Time
	MainCategory     string
	SubCategory      string
	SortBy           PersonSortColumn
	Detailed         bool // Split each person's total by (main, sub) category
	Descending       bool
	ExcludeAnonymous bool
}

// PersonLedger is every income entry of one giver.
type PersonLedger struct {
	Name    string
	Entries []model.Income
	Total   int64
}

// PersonSummary groups income by giver name, and by category when q.Detailed.
func (s *ReportService) PersonSummary(ctx context.Context, q PersonQuery) ([]service.PersonTotal, error) {
	rows, err := s.store.ListIncome(ctx, service.EntryFilter{
		StartDate:    q.StartDate,
		EndDate:      q.EndDate,
		MainCategory: q.MainCategory,
		SubCategory:  q.SubCategory,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list income: %w", err)
	}

	totals := aggregatePersons(rows, q.Detailed, q.ExcludeAnonymous)
	sortPersons(totals, q)
	return totals, nil
}

func aggregatePersons(rows []model.Income, detailed, excludeAnonymous bool) []service.PersonTotal {
	type key struct{ name, main, sub string }

	index := make(map[key]int)
	totals := []service.PersonTotal{}

	for _, row := range rows {
		if excludeAnonymous && row.IsAnonymous() {
			continue
		}

		k := key{name: labelOrUnclassified(row.Name1)}
		if detailed {
			k.main = labelOrUnclassified(row.MainCategory)
			k.sub = labelOrUnclassified(row.SubCategory)
		}

		i, ok := index[k]
		if !ok {
			i = len(totals)
			index[k] = i
			totals = append(totals, service.PersonTotal{Name: k.name, MainCategory: k.main, SubCategory: k.sub})
		}
		totals[i].TotalAmount += row.Amount
		totals[i].Count++
	}

	return totals
}

func sortPersons(totals []service.PersonTotal, q PersonQuery) {
	byName := func(a, b service.PersonTotal) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		if c := strings.Compare(a.MainCategory, b.MainCategory); c != 0 {
			return c
		}
		return strings.Compare(a.SubCategory, b.SubCategory)
	}

	var less func(a, b service.PersonTotal) bool
	switch q.SortBy {
	case SortByName:
		less = func(a, b service.PersonTotal) bool {
			if q.Descending {
				return byName(a, b) > 0
			}
			return byName(a, b) < 0
		}
	case SortByTotal:
		less = func(a, b service.PersonTotal) bool {
			if a.TotalAmount != b.TotalAmount {
				if q.Descending {
					return a.TotalAmount > b.TotalAmount
				}
				return a.TotalAmount < b.TotalAmount
			}
			return byName(a, b) < 0
		}
	default:
		less = func(a, b service.PersonTotal) bool {
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			if a.MainCategory != b.MainCategory {
				return a.MainCategory < b.MainCategory
			}
			if a.TotalAmount != b.TotalAmount {
				return a.TotalAmount > b.TotalAmount
			}
			return a.SubCategory < b.SubCategory
		}
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return less(totals[i], totals[j])
	})
}

// DonorNames returns each name once, in order, leaving out anonymous gifts.
// The result is meant to be pasted into a bulletin or receipt list.
func DonorNames(totals []service.PersonTotal) []string {
	seen := make(map[string]bool)
	names := []string{}
	for _, t := range totals {
		if t.Name == model.AnonymousName || seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		names = append(names, t.Name)
	}
	return names
}

// SearchPerson returns every income entry recorded under name1 within the
// optional date bounds, newest first.
func (s *ReportService) SearchPerson(ctx context.Context, name string, start, end *time.Time) (*PersonLedger, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrInvalidEntry)
	}

	rows, err := s.store.ListIncome(ctx, service.EntryFilter{StartDate: start, EndDate: end, Name1: name})
	if err != nil {
		return nil, fmt.Errorf("failed to list income for %s: %w", name, err)
	}

	ledger := &PersonLedger{Name: name, Entries: rows}
	for _, row := range rows {
		ledger.Total += row.Amount
	}
	return ledger, nil
}

func labelOrUnclassified(s string) string {
	if strings.TrimSpace(s) == "" {
		return model.UnclassifiedLabel
	}
	return s
}
