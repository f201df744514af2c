package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestPatchApply(t *testing.T) {
	base := Task{
		ID:       "t1",
		Title:    "Fix login flow",
		Status:   "To Do",
		Priority: "Medium",
	}

	t.Run("only set fields change", func(t *testing.T) {
		p := &Patch{Status: strPtr("In Progress")}
		got := p.Apply(base)
		assert.Equal(t, "In Progress", got.Status)
		assert.Equal(t, "Fix login flow", got.Title)
		assert.Equal(t, "Medium", got.Priority)
		assert.False(t, got.UpdatedAt.IsZero())
	})

	t.Run("nil patch is a no-op", func(t *testing.T) {
		var p *Patch
		assert.Equal(t, base, p.Apply(base))
		assert.True(t, p.IsZero())
	})

	t.Run("explicit zero value clears", func(t *testing.T) {
		p := &Patch{DueDate: strPtr("")}
		got := p.Apply(Task{Title: "x", DueDate: "2026-09-05"})
		assert.Empty(t, got.DueDate)
	})
}

func TestValidateDates(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		due     string
		wantErr bool
	}{
		{"both absent", "", "", false},
		{"due only", "", "2026-09-10", false},
		{"start only", "2026-09-10", "", false},
		{"due after start", "2026-09-01", "2026-09-10", false},
		{"due equals start", "2026-09-01", "2026-09-01", false},
		{"due before start", "2026-09-10", "2026-09-01", true},
		{"malformed start", "tomorrow", "2026-09-01", true},
		{"malformed due", "2026-09-01", "09/01/2026", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDates(tt.start, tt.due)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTaskValidate(t *testing.T) {
	t.Run("title required", func(t *testing.T) {
		err := Task{}.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "title")
	})

	t.Run("self parent rejected", func(t *testing.T) {
		err := Task{ID: "a", Title: "x", ParentID: "a"}.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "own parent")
	})

	t.Run("valid task", func(t *testing.T) {
		err := Task{ID: "a", Title: "x", StartDate: "2026-09-01", DueDate: "2026-09-02"}.Validate()
		assert.NoError(t, err)
	})
}

func TestTaxonomyDefaults(t *testing.T) {
	tax := Taxonomy{
		Statuses:   []string{"New", "Backlog", "To Do", "In Progress", "Done", "Completed"},
		Priorities: []string{"Highest", "High", "Medium", "Low"},
	}

	assert.Equal(t, "To Do", tax.DefaultStatus())
	assert.Equal(t, "Medium", tax.DefaultPriority())

	t.Run("falls back to first open status", func(t *testing.T) {
		tax := Taxonomy{Statuses: []string{"Triage", "Doing", "Done"}}
		assert.Equal(t, "Triage", tax.DefaultStatus())
	})

	t.Run("normalize downgrades unknown values", func(t *testing.T) {
		assert.Equal(t, "To Do", tax.NormalizeStatus("Sprint 9"))
		assert.Equal(t, "Medium", tax.NormalizePriority("Urgent!!"))
		assert.Equal(t, "In Progress", tax.NormalizeStatus("In Progress"))
		assert.Equal(t, "Low", tax.NormalizePriority("Low"))
	})
}

func TestIsClosedStatus(t *testing.T) {
	assert.True(t, IsClosedStatus("Done"))
	assert.True(t, IsClosedStatus("Completed"))
	assert.False(t, IsClosedStatus("In Review"))
}
