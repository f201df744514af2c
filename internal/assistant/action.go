package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"artemis/internal/task"
)

// ActionType discriminates the closed set of model responses.
type ActionType string

const (
	ActionProposeTaskOperations ActionType = "PROPOSE_TASK_OPERATIONS"
	ActionProposeConfigChange   ActionType = "PROPOSE_CONFIGURATION_CHANGE"
	ActionQueryTasks            ActionType = "QUERY_TASKS"
	ActionGeneralChat           ActionType = "GENERAL_CHAT"
)

// OpType discriminates operations inside a task-operations proposal.
type OpType string

const (
	OpCreate OpType = "CREATE"
	OpUpdate OpType = "UPDATE"
	OpDelete OpType = "DELETE"
)

// TaskDetails carries full creation details for a CREATE operation.
// Identity and lane order are assigned by the executor, never by the
// model.
type TaskDetails struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Assignees   []string `json:"assignees,omitempty"`
	StartDate   string   `json:"startDate,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"`
	Effort      string   `json:"effort,omitempty"`
	ProductArea string   `json:"productArea,omitempty"`
	Reporter    string   `json:"reporter,omitempty"`
	ParentID    string   `json:"parentId,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Operation is one step of a task-operations proposal.
type Operation struct {
	Type           OpType       `json:"type"`
	TaskDetails    *TaskDetails `json:"taskDetails,omitempty"`
	TaskIdentifier string       `json:"taskIdentifier,omitempty"`
	Updates        *task.Patch  `json:"updates,omitempty"`
}

// ConfigChange is a proposed taxonomy mutation.
type ConfigChange struct {
	ChangeType string `json:"changeType"` // add | remove
	Target     string `json:"target"`     // productArea | assignee
	ItemName   string `json:"itemName"`
}

// Proposal is a batch of pending mutations awaiting explicit user
// confirmation. It round-trips through the client verbatim: the server
// holds no session state across the confirm exchange.
type Proposal struct {
	Action       ActionType    `json:"action"`
	Operations   []Operation   `json:"operations,omitempty"`
	ConfigChange *ConfigChange `json:"configChange,omitempty"`
	ResponseText string        `json:"responseText,omitempty"`
}

// QueryParams are the model-emitted task query filters. Field names
// follow the wire grammar the prompt specifies.
type QueryParams struct {
	Status              string `json:"status,omitempty"`
	Priority            string `json:"priority,omitempty"`
	Assignee            string `json:"assignee,omitempty"`
	ProductArea         string `json:"productArea,omitempty"`
	TitleContains       string `json:"title_contains,omitempty"`
	DescriptionContains string `json:"description_contains,omitempty"`
	DueDateEquals       string `json:"dueDate_equals,omitempty"`
	DueDateBefore       string `json:"dueDate_before,omitempty"`
	DueDateAfter        string `json:"dueDate_after,omitempty"`
	StartDateEquals     string `json:"startDate_equals,omitempty"`
	IsOverdue           bool   `json:"is_overdue,omitempty"`
}

// Outcome is the validated result of one model response: exactly one of
// Proposal, Query, or a direct Reply.
type Outcome struct {
	Proposal *Proposal
	Query    *QueryParams
	Reply    string
}

// modelResponse is the loose envelope the model emits; ParseAction
// tightens it into an Outcome.
type modelResponse struct {
	Action       string        `json:"action"`
	Operations   []Operation   `json:"operations"`
	ConfigChange *ConfigChange `json:"configChange"`
	Params       *QueryParams  `json:"params"`
	ResponseText string        `json:"responseText"`
}

// ParseAction parses extracted JSON into one of the closed set of action
// variants, fills defaulted fields (reporter, status, priority), and
// rejects malformed shapes. Enum-like fields are re-validated against
// the live taxonomy; out-of-taxonomy values are downgraded to defaults
// rather than persisted verbatim.
func ParseAction(raw json.RawMessage, speaker string, tax task.Taxonomy) (*Outcome, error) {
	var resp modelResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCompletion, err)
	}

	switch ActionType(resp.Action) {
	case ActionProposeTaskOperations:
		if len(resp.Operations) == 0 {
			return nil, fmt.Errorf("%w: proposal carries no operations", ErrMissingField)
		}
		ops := make([]Operation, 0, len(resp.Operations))
		for i, op := range resp.Operations {
			normalized, err := normalizeOperation(op, speaker, tax)
			if err != nil {
				return nil, fmt.Errorf("operation %d: %w", i+1, err)
			}
			ops = append(ops, normalized)
		}
		return &Outcome{Proposal: &Proposal{
			Action:       ActionProposeTaskOperations,
			Operations:   ops,
			ResponseText: resp.ResponseText,
		}}, nil

	case ActionProposeConfigChange:
		cc := resp.ConfigChange
		if cc == nil || cc.ItemName == "" {
			return nil, fmt.Errorf("%w: configuration change needs an item name", ErrMissingField)
		}
		switch cc.ChangeType {
		case "add", "remove":
		default:
			return nil, fmt.Errorf("%w: configuration changeType %q", ErrUnknownAction, cc.ChangeType)
		}
		switch cc.Target {
		case "productArea", "assignee":
		default:
			return nil, fmt.Errorf("%w: configuration target %q", ErrUnknownAction, cc.Target)
		}
		return &Outcome{Proposal: &Proposal{
			Action:       ActionProposeConfigChange,
			ConfigChange: cc,
			ResponseText: resp.ResponseText,
		}}, nil

	case ActionQueryTasks:
		params := resp.Params
		if params == nil {
			params = &QueryParams{}
		}
		return &Outcome{Query: params, Reply: resp.ResponseText}, nil

	case ActionGeneralChat:
		reply := resp.ResponseText
		if reply == "" {
			reply = "I'm not sure how to help with that yet."
		}
		return &Outcome{Reply: reply}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, resp.Action)
	}
}

func normalizeOperation(op Operation, speaker string, tax task.Taxonomy) (Operation, error) {
	switch op.Type {
	case OpCreate:
		if op.TaskDetails == nil || strings.TrimSpace(op.TaskDetails.Title) == "" {
			return Operation{}, fmt.Errorf("%w: CREATE needs a task title", ErrMissingField)
		}
		d := *op.TaskDetails
		if d.Reporter == "" {
			d.Reporter = speaker
		}
		d.Status = tax.NormalizeStatus(d.Status)
		d.Priority = tax.NormalizePriority(d.Priority)
		op.TaskDetails = &d
		return op, nil

	case OpUpdate:
		if strings.TrimSpace(op.TaskIdentifier) == "" {
			return Operation{}, fmt.Errorf("%w: UPDATE needs a task identifier", ErrMissingField)
		}
		if op.Updates.IsZero() {
			return Operation{}, fmt.Errorf("%w: UPDATE needs at least one field change", ErrMissingField)
		}
		if op.Updates.Status != nil {
			s := tax.NormalizeStatus(*op.Updates.Status)
			op.Updates.Status = &s
		}
		if op.Updates.Priority != nil {
			p := tax.NormalizePriority(*op.Updates.Priority)
			op.Updates.Priority = &p
		}
		return op, nil

	case OpDelete:
		if strings.TrimSpace(op.TaskIdentifier) == "" {
			return Operation{}, fmt.Errorf("%w: DELETE needs a task identifier", ErrMissingField)
		}
		return op, nil

	default:
		return Operation{}, fmt.Errorf("%w: operation type %q", ErrUnknownAction, op.Type)
	}
}
