package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"artemis/internal/metrics"
	"artemis/internal/store"
	"artemis/internal/task"
)

// Summary aggregates per-operation outcomes of a confirmed proposal.
// AllSuccessful is true only when every operation succeeded; partial
// failure is reported per operation, never rolled back.
type Summary struct {
	AllSuccessful bool     `json:"allSuccessful"`
	Messages      []string `json:"messages"`
}

// Text joins the per-operation messages in submission order.
func (s Summary) Text() string {
	return strings.Join(s.Messages, "\n")
}

// Executor applies confirmed proposals against the task store. Batches
// are best-effort: operations run sequentially, independently, and a
// failed operation never aborts its siblings.
type Executor struct {
	store  *store.Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewExecutor creates an executor over the given store.
func NewExecutor(st *store.Store, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		store:  st,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Execute runs a confirmed proposal and aggregates the results.
func (e *Executor) Execute(ctx context.Context, p *Proposal, speaker string, tax task.Taxonomy) Summary {
	switch p.Action {
	case ActionProposeConfigChange:
		return e.executeConfigChange(p.ConfigChange)
	case ActionProposeTaskOperations:
		return e.executeOperations(ctx, p.Operations, speaker, tax)
	default:
		return Summary{Messages: []string{fmt.Sprintf("I can't execute a %q proposal.", p.Action)}}
	}
}

// executeConfigChange records the request without mutating shared
// configuration: a request handler has no authority to rewrite the
// taxonomy, so the change is noted for an administrator.
func (e *Executor) executeConfigChange(cc *ConfigChange) Summary {
	if cc == nil {
		return Summary{Messages: []string{"The configuration proposal was empty."}}
	}
	e.logger.Info("configuration change noted",
		zap.String("change", cc.ChangeType),
		zap.String("target", cc.Target),
		zap.String("item", cc.ItemName))
	return Summary{
		AllSuccessful: true,
		Messages: []string{fmt.Sprintf(
			"I've noted the request to %s %s %q for an administrator to apply.",
			cc.ChangeType, describeTarget(cc.Target), cc.ItemName)},
	}
}

func describeTarget(target string) string {
	switch target {
	case "productArea":
		return "product area"
	case "assignee":
		return "assignee"
	default:
		return target
	}
}

func (e *Executor) executeOperations(ctx context.Context, ops []Operation, speaker string, tax task.Taxonomy) Summary {
	summary := Summary{AllSuccessful: true}

	record := func(opType OpType, msg string, ok bool) {
		summary.Messages = append(summary.Messages, msg)
		if !ok {
			summary.AllSuccessful = false
		}
		metrics.OperationsExecuted.WithLabelValues(string(opType), resultLabel(ok)).Inc()
	}

	for _, op := range ops {
		switch op.Type {
		case OpCreate:
			msg, ok := e.create(ctx, op.TaskDetails, speaker, tax)
			record(OpCreate, msg, ok)
		case OpUpdate:
			msg, ok := e.update(ctx, op.TaskIdentifier, op.Updates, tax)
			record(OpUpdate, msg, ok)
		case OpDelete:
			msg, ok := e.delete(ctx, op.TaskIdentifier)
			record(OpDelete, msg, ok)
		default:
			record(op.Type, fmt.Sprintf("Skipped an operation of unknown type %q.", op.Type), false)
		}
	}
	return summary
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (e *Executor) create(ctx context.Context, details *TaskDetails, speaker string, tax task.Taxonomy) (string, bool) {
	if details == nil || strings.TrimSpace(details.Title) == "" {
		return "Could not create a task: the proposal was missing a title.", false
	}

	// The proposal round-trips through the client, so defaults are
	// re-applied here rather than trusted from the echoed payload.
	t := task.Task{
		ID:          e.newID(),
		Title:       strings.TrimSpace(details.Title),
		Description: details.Description,
		Status:      tax.NormalizeStatus(details.Status),
		Priority:    tax.NormalizePriority(details.Priority),
		Assignees:   details.Assignees,
		StartDate:   details.StartDate,
		DueDate:     details.DueDate,
		Effort:      details.Effort,
		ProductArea: details.ProductArea,
		Reporter:    details.Reporter,
		ParentID:    details.ParentID,
		Tags:        details.Tags,
	}
	if t.Reporter == "" {
		t.Reporter = speaker
	}

	if err := t.Validate(); err != nil {
		return fmt.Sprintf("Could not create task %q: %v.", t.Title, err), false
	}

	order, err := e.store.NextOrderInStatus(ctx, t.Status)
	if err != nil {
		return fmt.Sprintf("Could not create task %q: %v.", t.Title, err), false
	}
	t.Order = order

	created, err := e.store.Insert(ctx, t)
	if err != nil {
		return fmt.Sprintf("Could not create task %q: %v.", t.Title, err), false
	}

	e.logger.Info("task created", zap.String("id", created.ID), zap.String("title", created.Title))
	return fmt.Sprintf("Created task %q in %s.", created.Title, created.Status), true
}

func (e *Executor) update(ctx context.Context, identifier string, patch *task.Patch, tax task.Taxonomy) (string, bool) {
	target, msg, ok := e.resolveOne(ctx, identifier)
	if !ok {
		return msg, false
	}
	if patch.IsZero() {
		return fmt.Sprintf("No changes were given for task %q.", target.Title), false
	}

	if patch.Status != nil {
		s := tax.NormalizeStatus(*patch.Status)
		patch.Status = &s
	}
	if patch.Priority != nil {
		p := tax.NormalizePriority(*patch.Priority)
		patch.Priority = &p
	}

	preview := patch.Apply(*target)
	if err := preview.Validate(); err != nil {
		return fmt.Sprintf("Could not update task %q: %v.", target.Title, err), false
	}
	if patch.DependsOn != nil {
		if msg, ok := e.checkDependencies(ctx, target, *patch.DependsOn); !ok {
			return msg, false
		}
	}

	updated, err := e.store.Update(ctx, target.ID, patch)
	if err != nil {
		return fmt.Sprintf("Could not update task %q: %v.", target.Title, err), false
	}

	e.logger.Info("task updated", zap.String("id", updated.ID), zap.String("title", updated.Title))
	return fmt.Sprintf("Updated task %q.", updated.Title), true
}

// checkDependencies walks the dependency graph before any edge is
// written; a cycle leaves the graph unchanged.
func (e *Executor) checkDependencies(ctx context.Context, target *task.Task, edges []string) (string, bool) {
	all, err := e.store.List(ctx)
	if err != nil {
		return fmt.Sprintf("Could not update task %q: %v.", target.Title, err), false
	}
	for _, dep := range edges {
		if task.WouldCreateCycle(all, target.ID, dep) {
			return fmt.Sprintf("Could not update task %q: depending on %q would create a circular dependency.",
				target.Title, dep), false
		}
	}
	return "", true
}

func (e *Executor) delete(ctx context.Context, identifier string) (string, bool) {
	target, msg, ok := e.resolveOne(ctx, identifier)
	if !ok {
		return msg, false
	}

	if err := e.store.Delete(ctx, target.ID); err != nil {
		return fmt.Sprintf("Could not delete task %q: %v.", target.Title, err), false
	}

	e.logger.Info("task deleted", zap.String("id", target.ID), zap.String("title", target.Title))
	return fmt.Sprintf("Deleted task %q.", target.Title), true
}

// resolveOne narrows an identifier to exactly one task, producing an
// actionable failure message for the zero and many cases.
func (e *Executor) resolveOne(ctx context.Context, identifier string) (*task.Task, string, bool) {
	all, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Sprintf("I couldn't look up %q: %v.", identifier, err), false
	}

	res := Resolve(all, identifier)
	switch res.Kind {
	case SingleMatch:
		return res.Task, "", true
	case AmbiguousMatch:
		return nil, fmt.Sprintf(
			"I found %d tasks matching %q. Please give me an ID or a more specific title.",
			len(res.Candidates), identifier), false
	default:
		return nil, fmt.Sprintf("I couldn't find a task matching %q.", identifier), false
	}
}
