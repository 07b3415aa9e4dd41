package storage

import (
	"strings"
	"sync"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
)

// predicate is one optional WHERE condition of an entry listing.
type predicate struct {
	arg    any
	field  string
	clause string
}

// entryPredicates turns the populated fields of filter into predicates in a
// fixed order, so equal filter shapes always produce the same SQL.
func entryPredicates(filter service.EntryFilter, withName bool) []predicate {
	preds := make([]predicate, 0, 5)
	if filter.StartDate != nil {
		preds = append(preds, predicate{field: "start", clause: "date >= ?", arg: model.FormatDate(*filter.StartDate)})
	}
	if filter.EndDate != nil {
		preds = append(preds, predicate{field: "end", clause: "date <= ?", arg: model.FormatDate(*filter.EndDate)})
	}
	if filter.MainCategory != "" {
		preds = append(preds, predicate{field: "main", clause: "main_category = ?", arg: filter.MainCategory})
	}
	if filter.SubCategory != "" {
		preds = append(preds, predicate{field: "sub", clause: "sub_category = ?", arg: filter.SubCategory})
	}
	if withName && filter.Name1 != "" {
		preds = append(preds, predicate{field: "name1", clause: "name1 = ?", arg: filter.Name1})
	}
	return preds
}

// queryCache holds compiled listing SQL keyed by table and filter shape.
type queryCache struct {
	queries map[string]string
	mu      sync.Mutex
}

func newQueryCache() *queryCache {
	return &queryCache{queries: make(map[string]string)}
}

func (c *queryCache) get(key string, build func() string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if query, ok := c.queries[key]; ok {
		return query
	}
	query := build()
	c.queries[key] = query
	return query
}

func (c *queryCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queries)
}

// listQuery returns the listing SQL for table and the bound arguments. Rows
// come back newest first, ties broken by descending id.
func (s *SQLiteStorage) listQuery(table, columns string, preds []predicate) (string, []any) {
	fields := make([]string, len(preds))
	args := make([]any, len(preds))
	for i, p := range preds {
		fields[i] = p.field
		args[i] = p.arg
	}

	key := table + "|" + strings.Join(fields, ",")
	query := s.queries.get(key, func() string {
		var b strings.Builder
		b.WriteString("SELECT ")
		b.WriteString(columns)
		b.WriteString(" FROM ")
		b.WriteString(table)
		for i, p := range preds {
			if i == 0 {
				b.WriteString(" WHERE ")
			} else {
				b.WriteString(" AND ")
			}
			b.WriteString(p.clause)
		}
		b.WriteString(" ORDER BY date DESC, id DESC")
		return b.String()
	})

	return query, args
}
