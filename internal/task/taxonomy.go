package task

import "slices"

// Fallbacks used when the configured taxonomy does not carry the
// conventional lane names.
const (
	fallbackStatus   = "To Do"
	fallbackPriority = "Medium"
)

// closedStatuses are lanes whose tasks never count as overdue.
var closedStatuses = []string{"Done", "Completed"}

// Taxonomy is an immutable snapshot of the configured enumerations that
// constrain enum-like task fields. It is passed into the prompt builder
// and the action normalizer at call time, never reached into globally.
type Taxonomy struct {
	Statuses     []string
	Priorities   []string
	EffortSizes  []string
	ProductAreas []string
	TeamMembers  []string
}

func (x Taxonomy) HasStatus(s string) bool      { return slices.Contains(x.Statuses, s) }
func (x Taxonomy) HasPriority(p string) bool    { return slices.Contains(x.Priorities, p) }
func (x Taxonomy) HasProductArea(a string) bool { return slices.Contains(x.ProductAreas, a) }
func (x Taxonomy) HasMember(m string) bool      { return slices.Contains(x.TeamMembers, m) }

// DefaultStatus returns the lane new tasks land in when the model leaves
// status unset: "To Do" when configured, else the first open status.
func (x Taxonomy) DefaultStatus() string {
	if x.HasStatus(fallbackStatus) {
		return fallbackStatus
	}
	for _, s := range x.Statuses {
		if !IsClosedStatus(s) {
			return s
		}
	}
	if len(x.Statuses) > 0 {
		return x.Statuses[0]
	}
	return fallbackStatus
}

// DefaultPriority returns the fixed medium default, falling back to the
// first configured priority if "Medium" is not in the taxonomy.
func (x Taxonomy) DefaultPriority() string {
	if x.HasPriority(fallbackPriority) {
		return fallbackPriority
	}
	if len(x.Priorities) > 0 {
		return x.Priorities[0]
	}
	return fallbackPriority
}

// NormalizeStatus downgrades out-of-taxonomy status values to the
// default lane rather than persisting whatever string the model emitted.
func (x Taxonomy) NormalizeStatus(s string) string {
	if s == "" || !x.HasStatus(s) {
		return x.DefaultStatus()
	}
	return s
}

// NormalizePriority downgrades out-of-taxonomy priorities to the default.
func (x Taxonomy) NormalizePriority(p string) string {
	if p == "" || !x.HasPriority(p) {
		return x.DefaultPriority()
	}
	return p
}

// IsClosedStatus reports whether a status means the task is finished.
func IsClosedStatus(s string) bool {
	return slices.Contains(closedStatuses, s)
}

// ClosedStatuses returns the lanes excluded from overdue queries.
func ClosedStatuses() []string {
	return slices.Clone(closedStatuses)
}
