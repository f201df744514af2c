package assistant

import (
	"strings"

	"artemis/internal/task"
)

// MatchKind classifies a task reference resolution.
type MatchKind int

const (
	NoMatch MatchKind = iota
	SingleMatch
	AmbiguousMatch
)

// Resolution is the outcome of resolving a user-supplied identifier.
// Task is set only for SingleMatch; Candidates only for AmbiguousMatch.
type Resolution struct {
	Kind       MatchKind
	Task       *task.Task
	Candidates []task.Task
}

// Resolve maps an identifier string to a task. An exact id match always
// wins and short-circuits the title search; otherwise the identifier is
// matched case-insensitively as a substring of titles. Multiple title
// matches are never silently narrowed to one.
func Resolve(tasks []task.Task, identifier string) Resolution {
	for i := range tasks {
		if tasks[i].ID == identifier {
			return Resolution{Kind: SingleMatch, Task: &tasks[i]}
		}
	}

	needle := strings.ToLower(strings.TrimSpace(identifier))
	if needle == "" {
		return Resolution{Kind: NoMatch}
	}

	var matches []task.Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), needle) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return Resolution{Kind: NoMatch}
	case 1:
		m := matches[0]
		return Resolution{Kind: SingleMatch, Task: &m}
	default:
		return Resolution{Kind: AmbiguousMatch, Candidates: matches}
	}
}
