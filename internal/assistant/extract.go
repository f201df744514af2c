package assistant

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON pulls a single JSON object out of a raw model response,
// tolerating surrounding commentary or code-fence wrapping. A fenced
// block is tried first; failing that, the whole text must parse. No
// partial recovery: truncated JSON is never repaired.
func ExtractJSON(raw string) (json.RawMessage, error) {
	if m := fencedJSONRe.FindStringSubmatch(raw); m != nil {
		candidate := strings.TrimSpace(m[1])
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
		return nil, fmt.Errorf("%w: fenced block is not valid JSON", ErrMalformedCompletion)
	}

	trimmed := strings.TrimSpace(raw)
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}
	return nil, fmt.Errorf("%w: no JSON object found in response", ErrMalformedCompletion)
}
