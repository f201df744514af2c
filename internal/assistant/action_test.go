package assistant

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, body string) (*Outcome, error) {
	t.Helper()
	return ParseAction(json.RawMessage(body), "Alice", testTaxonomy())
}

func TestParseActionTaskOperations(t *testing.T) {
	t.Run("reporter defaults to the speaker", func(t *testing.T) {
		out, err := parse(t, `{
			"action": "PROPOSE_TASK_OPERATIONS",
			"operations": [{"type": "CREATE", "taskDetails": {"title": "Ship it"}}],
			"responseText": "Shall I proceed?"
		}`)
		require.NoError(t, err)
		require.NotNil(t, out.Proposal)
		require.Len(t, out.Proposal.Operations, 1)

		d := out.Proposal.Operations[0].TaskDetails
		assert.Equal(t, "Alice", d.Reporter)
		assert.Equal(t, "To Do", d.Status)
		assert.Equal(t, "Medium", d.Priority)
	})

	t.Run("explicit reporter is kept", func(t *testing.T) {
		out, err := parse(t, `{
			"action": "PROPOSE_TASK_OPERATIONS",
			"operations": [{"type": "CREATE", "taskDetails": {"title": "x", "reporter": "Bob"}}]
		}`)
		require.NoError(t, err)
		assert.Equal(t, "Bob", out.Proposal.Operations[0].TaskDetails.Reporter)
	})

	t.Run("out-of-taxonomy enums downgrade to defaults", func(t *testing.T) {
		out, err := parse(t, `{
			"action": "PROPOSE_TASK_OPERATIONS",
			"operations": [{"type": "CREATE", "taskDetails": {"title": "x", "status": "Sprint 9", "priority": "ASAP"}}]
		}`)
		require.NoError(t, err)
		d := out.Proposal.Operations[0].TaskDetails
		assert.Equal(t, "To Do", d.Status)
		assert.Equal(t, "Medium", d.Priority)
	})

	t.Run("CREATE without title is rejected", func(t *testing.T) {
		_, err := parse(t, `{
			"action": "PROPOSE_TASK_OPERATIONS",
			"operations": [{"type": "CREATE", "taskDetails": {"description": "no title"}}]
		}`)
		assert.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("UPDATE without identifier is rejected", func(t *testing.T) {
		_, err := parse(t, `{
			"action": "PROPOSE_TASK_OPERATIONS",
			"operations": [{"type": "UPDATE", "updates": {"status": "Done"}}]
		}`)
		assert.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("UPDATE without changes is rejected", func(t *testing.T) {
		_, err := parse(t, `{
			"action": "PROPOSE_TASK_OPERATIONS",
			"operations": [{"type": "UPDATE", "taskIdentifier": "x"}]
		}`)
		assert.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("empty operations list is rejected", func(t *testing.T) {
		_, err := parse(t, `{"action": "PROPOSE_TASK_OPERATIONS", "operations": []}`)
		assert.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("unknown operation type is rejected", func(t *testing.T) {
		_, err := parse(t, `{
			"action": "PROPOSE_TASK_OPERATIONS",
			"operations": [{"type": "ARCHIVE", "taskIdentifier": "x"}]
		}`)
		assert.ErrorIs(t, err, ErrUnknownAction)
	})
}

func TestParseActionConfigChange(t *testing.T) {
	t.Run("valid change", func(t *testing.T) {
		out, err := parse(t, `{
			"action": "PROPOSE_CONFIGURATION_CHANGE",
			"configChange": {"changeType": "add", "target": "productArea", "itemName": "Billing"},
			"responseText": "Add Billing?"
		}`)
		require.NoError(t, err)
		require.NotNil(t, out.Proposal)
		assert.Equal(t, ActionProposeConfigChange, out.Proposal.Action)
		assert.Equal(t, "Billing", out.Proposal.ConfigChange.ItemName)
	})

	t.Run("missing item name", func(t *testing.T) {
		_, err := parse(t, `{
			"action": "PROPOSE_CONFIGURATION_CHANGE",
			"configChange": {"changeType": "add", "target": "assignee"}
		}`)
		assert.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("bad changeType", func(t *testing.T) {
		_, err := parse(t, `{
			"action": "PROPOSE_CONFIGURATION_CHANGE",
			"configChange": {"changeType": "rename", "target": "assignee", "itemName": "Bob"}
		}`)
		assert.ErrorIs(t, err, ErrUnknownAction)
	})
}

func TestParseActionQueryAndChat(t *testing.T) {
	t.Run("query params pass through", func(t *testing.T) {
		out, err := parse(t, `{
			"action": "QUERY_TASKS",
			"params": {"status": "To Do", "is_overdue": true},
			"responseText": "Checking..."
		}`)
		require.NoError(t, err)
		require.NotNil(t, out.Query)
		assert.Equal(t, "To Do", out.Query.Status)
		assert.True(t, out.Query.IsOverdue)
	})

	t.Run("query without params means no filters", func(t *testing.T) {
		out, err := parse(t, `{"action": "QUERY_TASKS"}`)
		require.NoError(t, err)
		require.NotNil(t, out.Query)
		assert.Equal(t, QueryParams{}, *out.Query)
	})

	t.Run("general chat", func(t *testing.T) {
		out, err := parse(t, `{"action": "GENERAL_CHAT", "responseText": "Hello!"}`)
		require.NoError(t, err)
		assert.Nil(t, out.Proposal)
		assert.Equal(t, "Hello!", out.Reply)
	})

	t.Run("unknown action tag is a typed error", func(t *testing.T) {
		_, err := parse(t, `{"action": "SELF_DESTRUCT"}`)
		assert.ErrorIs(t, err, ErrUnknownAction)
	})
}
