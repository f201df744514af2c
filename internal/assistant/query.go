package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"artemis/internal/store"
	"artemis/internal/task"
)

// RunQuery composes the model-emitted filters into a store query and
// summarizes the result set into fixed-format lines for presentation.
func (e *Executor) RunQuery(ctx context.Context, params *QueryParams) (string, error) {
	filter := store.Filter{
		Status:              params.Status,
		Priority:            params.Priority,
		ProductArea:         params.ProductArea,
		Assignee:            params.Assignee,
		TitleContains:       params.TitleContains,
		DescriptionContains: params.DescriptionContains,
		DueOn:               params.DueDateEquals,
		DueBefore:           params.DueDateBefore,
		DueAfter:            params.DueDateAfter,
		StartOn:             params.StartDateEquals,
		Overdue:             params.IsOverdue,
	}
	if filter.Overdue {
		filter.Today = e.now().Format(task.DateLayout)
	}

	tasks, err := e.store.Query(ctx, filter)
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "I couldn't find any tasks matching your criteria.", nil
	}

	var b strings.Builder
	b.WriteString("Here are the tasks I found:\n")
	for i, t := range tasks {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(summarizeTask(t))
	}
	return b.String(), nil
}

// summarizeTask renders one result line: title, short id, then the
// fields that are set.
func summarizeTask(t task.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %q (ID: %s)", t.Title, shortID(t.ID))
	if t.Status != "" {
		fmt.Fprintf(&b, ", Status: %s", t.Status)
	}
	if t.Priority != "" {
		fmt.Fprintf(&b, ", Priority: %s", t.Priority)
	}
	if t.DueDate != "" {
		fmt.Fprintf(&b, ", Due: %s", t.DueDate)
	}
	if len(t.Assignees) > 0 {
		fmt.Fprintf(&b, ", Assignees: %s", strings.Join(t.Assignees, ", "))
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 6 {
		return id[:6]
	}
	return id
}

// Today returns the executor's notion of the current calendar date.
// Exposed for the pipeline so prompt building and overdue queries agree.
func (e *Executor) Today() time.Time {
	return e.now()
}
