package task

// WouldCreateCycle reports whether adding the edge taskID -> dependencyID
// would make taskID reachable from itself through dependsOn edges. The
// walk runs over the supplied snapshot before anything is mutated.
func WouldCreateCycle(tasks []Task, taskID, dependencyID string) bool {
	if taskID == dependencyID {
		return true
	}
	byID := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	// Walk from the proposed dependency; if taskID is reachable, the new
	// edge closes a loop.
	seen := map[string]bool{}
	stack := []string{dependencyID}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == taskID {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if t, ok := byID[cur]; ok {
			stack = append(stack, t.DependsOn...)
		}
	}
	return false
}
