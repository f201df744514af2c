package assistant

import "errors"

// Pipeline error taxonomy. Every one of these resolves to a normal
// conversational reply at the HTTP boundary; nothing here is fatal.
var (
	// ErrUpstream marks a completion-service transport or quota failure.
	ErrUpstream = errors.New("completion service failed")

	// ErrMalformedCompletion means no parseable JSON object could be
	// located in the model's raw output.
	ErrMalformedCompletion = errors.New("malformed completion")

	// ErrUnknownAction means the action discriminator matched no known tag.
	ErrUnknownAction = errors.New("unknown action")

	// ErrMissingField means an operation lacked its identifying fields.
	ErrMissingField = errors.New("missing required field")
)
