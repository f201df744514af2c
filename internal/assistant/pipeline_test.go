package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"artemis/internal/task"
)

// scriptedLLM returns canned completions in order, or a fixed error.
type scriptedLLM struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (s *scriptedLLM) Complete(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp, nil
}

func newTestPipeline(t *testing.T, llm LLMClient) (*Pipeline, *Executor) {
	t.Helper()
	e, _ := newTestExecutor(t)
	e.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }
	p := NewPipeline(llm, e, func() task.Taxonomy { return testTaxonomy() }, zap.NewNop())
	return p, e
}

func TestPipelineProposalFlow(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"```json\n" + `{
		"action": "PROPOSE_TASK_OPERATIONS",
		"operations": [{"type": "CREATE", "taskDetails": {"title": "Ship beta"}}],
		"responseText": "Shall I create it?"
	}` + "\n```"}}
	p, _ := newTestPipeline(t, llm)

	res, err := p.HandleMessage(context.Background(), "Alice", "create a task to ship the beta")
	require.NoError(t, err)
	require.NotNil(t, res.Proposal)
	assert.Equal(t, "Shall I create it?", res.ResponseText)
	assert.Equal(t, ActionProposeTaskOperations, res.Proposal.Action)

	// The prompt carried the speaker and today's date.
	assert.Contains(t, llm.prompts[0], "speaking with Alice")
	assert.Contains(t, llm.prompts[0], "2026-09-01")

	// Confirming executes against the store.
	summary := p.Confirm(context.Background(), "Alice", res.Proposal)
	assert.True(t, summary.AllSuccessful)
	assert.Contains(t, summary.Text(), "Ship beta")
}

func TestPipelineDirectChat(t *testing.T) {
	llm := &scriptedLLM{responses: []string{`{"action":"GENERAL_CHAT","responseText":"Hello, Alice!"}`}}
	p, _ := newTestPipeline(t, llm)

	res, err := p.HandleMessage(context.Background(), "Alice", "hi")
	require.NoError(t, err)
	assert.Nil(t, res.Proposal)
	assert.Equal(t, "Hello, Alice!", res.ResponseText)
}

func TestPipelineQueryFlow(t *testing.T) {
	llm := &scriptedLLM{responses: []string{`{"action":"QUERY_TASKS","params":{"is_overdue":true}}`}}
	p, e := newTestPipeline(t, llm)

	seedTaskForPipeline(t, e, task.Task{Title: "Late delivery", Status: "In Progress", DueDate: "2026-08-15"})
	seedTaskForPipeline(t, e, task.Task{Title: "Done already", Status: "Completed", DueDate: "2026-08-15"})

	res, err := p.HandleMessage(context.Background(), "Bob", "what is overdue?")
	require.NoError(t, err)
	assert.Contains(t, res.ResponseText, "Late delivery")
	assert.NotContains(t, res.ResponseText, "Done already")
}

func seedTaskForPipeline(t *testing.T, e *Executor, tk task.Task) {
	t.Helper()
	summary := e.Execute(context.Background(), &Proposal{
		Action: ActionProposeTaskOperations,
		Operations: []Operation{{Type: OpCreate, TaskDetails: &TaskDetails{
			Title: tk.Title, Status: tk.Status, DueDate: tk.DueDate,
		}}},
	}, "seed", testTaxonomy())
	require.True(t, summary.AllSuccessful, summary.Text())
}

func TestPipelineErrorTaxonomy(t *testing.T) {
	t.Run("upstream failure", func(t *testing.T) {
		llm := &scriptedLLM{err: ErrUpstream}
		p, _ := newTestPipeline(t, llm)
		_, err := p.HandleMessage(context.Background(), "Alice", "hi")
		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("malformed completion", func(t *testing.T) {
		llm := &scriptedLLM{responses: []string{"I would love to help but here is prose."}}
		p, _ := newTestPipeline(t, llm)
		_, err := p.HandleMessage(context.Background(), "Alice", "hi")
		assert.ErrorIs(t, err, ErrMalformedCompletion)
	})

	t.Run("unknown action", func(t *testing.T) {
		llm := &scriptedLLM{responses: []string{`{"action":"LAUNCH_MISSILES"}`}}
		p, _ := newTestPipeline(t, llm)
		_, err := p.HandleMessage(context.Background(), "Alice", "hi")
		assert.ErrorIs(t, err, ErrUnknownAction)
	})
}
