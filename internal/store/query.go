package store

import (
	"context"
	"fmt"
	"strings"

	"artemis/internal/task"
)

// Filter is a set of independent predicates composed with AND. Zero
// values mean "not filtered". Today must be set (YYYY-MM-DD) when
// Overdue is true.
type Filter struct {
	Status              string
	Priority            string
	ProductArea         string
	Assignee            string
	TitleContains       string
	DescriptionContains string
	DueOn               string
	DueBefore           string
	DueAfter            string
	StartOn             string
	Overdue             bool
	Today               string
}

// Query returns tasks matching the filter, sorted by due date ascending
// with tasks lacking a due date last.
func (s *Store) Query(ctx context.Context, f Filter) ([]task.Task, error) {
	var where []string
	var args []any

	add := func(clause string, vals ...any) {
		where = append(where, clause)
		args = append(args, vals...)
	}

	if f.Status != "" {
		add("status = ?", f.Status)
	}
	if f.Priority != "" {
		add("priority = ?", f.Priority)
	}
	if f.ProductArea != "" {
		add("product_area = ?", f.ProductArea)
	}
	if f.Assignee != "" {
		add("EXISTS (SELECT 1 FROM json_each(tasks.assignees) WHERE json_each.value = ?)", f.Assignee)
	}
	if f.TitleContains != "" {
		add("title LIKE ?", "%"+f.TitleContains+"%")
	}
	if f.DescriptionContains != "" {
		add("description LIKE ?", "%"+f.DescriptionContains+"%")
	}
	if f.DueOn != "" {
		add("due_date = ?", f.DueOn)
	}
	if f.DueBefore != "" {
		add("due_date IS NOT NULL AND due_date <= ?", f.DueBefore)
	}
	if f.DueAfter != "" {
		add("due_date IS NOT NULL AND due_date >= ?", f.DueAfter)
	}
	if f.StartOn != "" {
		add("start_date = ?", f.StartOn)
	}
	if f.Overdue {
		if f.Today == "" {
			return nil, fmt.Errorf("overdue filter requires today's date")
		}
		closed := task.ClosedStatuses()
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(closed)), ", ")
		add("due_date IS NOT NULL AND due_date < ? AND status NOT IN ("+placeholders+")",
			append([]any{f.Today}, toAnySlice(closed)...)...)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY (due_date IS NULL) ASC, due_date ASC, status, "order"`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func toAnySlice(list []string) []any {
	out := make([]any, len(list))
	for i, v := range list {
		out[i] = v
	}
	return out
}
