package store

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"artemis/internal/task"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustInsert(t *testing.T, s *Store, tk task.Task) task.Task {
	t.Helper()
	if tk.ID == "" {
		tk.ID = uuid.NewString()
	}
	created, err := s.Insert(context.Background(), tk)
	require.NoError(t, err)
	return created
}

func TestInsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := mustInsert(t, s, task.Task{
		Title:     "Ship onboarding emails",
		Status:    "To Do",
		Priority:  "High",
		Assignees: []string{"Alice", "Bob"},
		DueDate:   "2026-09-12",
		DependsOn: []string{"other-id"},
		Tags:      []string{"email"},
		Reporter:  "Alice",
	})

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.CreatedAt.IsZero())

	// Timestamps lose sub-second precision through the text column.
	diff := cmp.Diff(created, got, cmpopts.IgnoreFields(task.Task{}, "CreatedAt", "UpdatedAt"))
	assert.Empty(t, diff)

	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePatchesOnlySetFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := mustInsert(t, s, task.Task{Title: "Write docs", Status: "To Do", Priority: "Low"})

	status := "In Progress"
	updated, err := s.Update(ctx, created.ID, &task.Patch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "In Progress", updated.Status)
	assert.Equal(t, "Write docs", updated.Title)
	assert.Equal(t, "Low", updated.Priority)

	_, err = s.Update(ctx, "missing", &task.Patch{Status: &status})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNextOrderInStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Empty lane starts at 0.
	next, err := s.NextOrderInStatus(ctx, "To Do")
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	for i := 0; i < 3; i++ {
		mustInsert(t, s, task.Task{Title: "t", Status: "To Do", Order: i})
	}
	mustInsert(t, s, task.Task{Title: "elsewhere", Status: "Done", Order: 9})

	// Lane-scoped, not global.
	next, err = s.NextOrderInStatus(ctx, "To Do")
	require.NoError(t, err)
	assert.Equal(t, 3, next)
}

func TestDeletePrunesReferences(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	target := mustInsert(t, s, task.Task{Title: "Parent work", Status: "To Do"})
	dependent := mustInsert(t, s, task.Task{
		Title: "Blocked work", Status: "To Do",
		DependsOn: []string{target.ID, "keep-me"},
	})
	child := mustInsert(t, s, task.Task{Title: "Subtask", Status: "To Do", ParentID: target.ID})

	require.NoError(t, s.Delete(ctx, target.ID))

	_, err := s.Get(ctx, target.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	gotDep, err := s.Get(ctx, dependent.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep-me"}, gotDep.DependsOn)

	gotChild, err := s.Get(ctx, child.ID)
	require.NoError(t, err)
	assert.Empty(t, gotChild.ParentID)

	assert.ErrorIs(t, s.Delete(ctx, target.ID), ErrNotFound)
}

func TestQueryFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustInsert(t, s, task.Task{Title: "Fix login bug", Status: "In Progress", Priority: "High",
		Assignees: []string{"Alice"}, DueDate: "2026-08-20"})
	mustInsert(t, s, task.Task{Title: "Login page polish", Status: "Completed", Priority: "Low",
		DueDate: "2026-08-20"})
	mustInsert(t, s, task.Task{Title: "Quarterly report", Status: "To Do", Priority: "Medium",
		Assignees: []string{"Bob"}, DueDate: "2026-09-15"})
	mustInsert(t, s, task.Task{Title: "Undated chore", Status: "To Do", Priority: "Low"})

	t.Run("status and priority", func(t *testing.T) {
		got, err := s.Query(ctx, Filter{Status: "In Progress", Priority: "High"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Fix login bug", got[0].Title)
	})

	t.Run("assignee membership", func(t *testing.T) {
		got, err := s.Query(ctx, Filter{Assignee: "Bob"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Quarterly report", got[0].Title)
	})

	t.Run("title contains is case-insensitive", func(t *testing.T) {
		got, err := s.Query(ctx, Filter{TitleContains: "login"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("overdue excludes closed statuses", func(t *testing.T) {
		got, err := s.Query(ctx, Filter{Overdue: true, Today: "2026-09-01"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Fix login bug", got[0].Title)
	})

	t.Run("overdue requires today", func(t *testing.T) {
		_, err := s.Query(ctx, Filter{Overdue: true})
		assert.Error(t, err)
	})

	t.Run("sorted by due date with undated last", func(t *testing.T) {
		got, err := s.Query(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, got, 4)
		assert.Equal(t, "2026-08-20", got[0].DueDate)
		assert.Equal(t, "2026-09-15", got[2].DueDate)
		assert.Empty(t, got[3].DueDate)
	})

	t.Run("due date window", func(t *testing.T) {
		got, err := s.Query(ctx, Filter{DueAfter: "2026-09-01", DueBefore: "2026-09-30"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Quarterly report", got[0].Title)
	})
}
