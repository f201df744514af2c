// Package assistant implements the natural-language-to-structured-action
// bridge: prompt construction, completion, JSON extraction, action
// validation, the confirm/cancel proposal flow, and batch execution
// against the task store.
package assistant

import "context"

// LLMClient is the completion-service collaborator: text in, text out.
// Implementations wrap transport failures in ErrUpstream. Calls are not
// retried; a single failure surfaces as a user-visible message.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
