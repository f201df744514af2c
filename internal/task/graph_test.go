package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWouldCreateCycle(t *testing.T) {
	tasks := []Task{
		{ID: "a", Title: "A", DependsOn: []string{"b"}},
		{ID: "b", Title: "B", DependsOn: []string{"c"}},
		{ID: "c", Title: "C"},
		{ID: "d", Title: "D"},
	}

	t.Run("direct two-node cycle", func(t *testing.T) {
		// a depends on b already; b -> a closes the loop.
		assert.True(t, WouldCreateCycle(tasks, "b", "a"))
	})

	t.Run("transitive cycle", func(t *testing.T) {
		// c is reachable from a via b; c -> a closes the loop.
		assert.True(t, WouldCreateCycle(tasks, "c", "a"))
	})

	t.Run("self edge", func(t *testing.T) {
		assert.True(t, WouldCreateCycle(tasks, "d", "d"))
	})

	t.Run("safe edge", func(t *testing.T) {
		assert.False(t, WouldCreateCycle(tasks, "a", "d"))
		assert.False(t, WouldCreateCycle(tasks, "d", "c"))
	})

	t.Run("unknown dependency id", func(t *testing.T) {
		assert.False(t, WouldCreateCycle(tasks, "a", "missing"))
	})
}
