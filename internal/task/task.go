// Package task defines the board's central entity and the rules that
// constrain it: calendar-date validation, dependency-graph acyclicity,
// and taxonomy membership for enum-like fields.
package task

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date wire format used throughout the board.
const DateLayout = "2006-01-02"

// Task is the central entity. Dates are calendar dates in DateLayout;
// an empty string means absent. Order positions the task within its
// status lane.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	Assignees   []string  `json:"assignees,omitempty"`
	StartDate   string    `json:"startDate,omitempty"`
	DueDate     string    `json:"dueDate,omitempty"`
	Effort      string    `json:"effort,omitempty"`
	ProductArea string    `json:"productArea,omitempty"`
	Order       int       `json:"order"`
	DependsOn   []string  `json:"dependsOn,omitempty"`
	Reporter    string    `json:"reporter,omitempty"`
	ParentID    string    `json:"parentId,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// Patch is a partial update. Nil fields are left untouched; a non-nil
// pointer to a zero value clears the field.
type Patch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	Assignees   *[]string `json:"assignees,omitempty"`
	StartDate   *string   `json:"startDate,omitempty"`
	DueDate     *string   `json:"dueDate,omitempty"`
	Effort      *string   `json:"effort,omitempty"`
	ProductArea *string   `json:"productArea,omitempty"`
	Order       *int      `json:"order,omitempty"`
	DependsOn   *[]string `json:"dependsOn,omitempty"`
	Reporter    *string   `json:"reporter,omitempty"`
	ParentID    *string   `json:"parentId,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p *Patch) IsZero() bool {
	return p == nil || *p == (Patch{})
}

// Apply merges the patch into a copy of t and returns it. The updated
// task carries a fresh UpdatedAt.
func (p *Patch) Apply(t Task) Task {
	if p == nil {
		return t
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Assignees != nil {
		t.Assignees = *p.Assignees
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Effort != nil {
		t.Effort = *p.Effort
	}
	if p.ProductArea != nil {
		t.ProductArea = *p.ProductArea
	}
	if p.Order != nil {
		t.Order = *p.Order
	}
	if p.DependsOn != nil {
		t.DependsOn = *p.DependsOn
	}
	if p.Reporter != nil {
		t.Reporter = *p.Reporter
	}
	if p.ParentID != nil {
		t.ParentID = *p.ParentID
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
	t.UpdatedAt = time.Now().UTC()
	return t
}

// ParseDate parses a calendar date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}

// ValidateDates checks the editing-boundary invariant dueDate >= startDate.
// Either date may be absent (empty string); malformed dates are rejected.
func ValidateDates(startDate, dueDate string) error {
	var start, due time.Time
	var err error
	if startDate != "" {
		if start, err = ParseDate(startDate); err != nil {
			return err
		}
	}
	if dueDate != "" {
		if due, err = ParseDate(dueDate); err != nil {
			return err
		}
	}
	if startDate != "" && dueDate != "" && due.Before(start) {
		return fmt.Errorf("due date %s is before start date %s", dueDate, startDate)
	}
	return nil
}

// Validate checks the invariants enforced at the editing boundary:
// non-empty title, well-ordered dates, and no self-parenting.
func (t Task) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("task title is required")
	}
	if err := ValidateDates(t.StartDate, t.DueDate); err != nil {
		return err
	}
	if t.ParentID != "" && t.ParentID == t.ID {
		return fmt.Errorf("task %s cannot be its own parent", t.ID)
	}
	return nil
}
