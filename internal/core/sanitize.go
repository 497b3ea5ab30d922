package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotJSONObject is returned by ParseJSONObject when the text is valid
// JSON but not an object.
var ErrNotJSONObject = errors.New("model output is not a JSON object")

const fence = "```"

// StripCodeFence removes a markdown code fence the model may wrap around
// its answer, including a leading "json" language tag.  Text that does not
// start with a fence is returned unchanged.
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, fence) {
		return raw
	}
	text = strings.TrimSpace(strings.Trim(text, "`"))
	if len(text) >= 4 && strings.EqualFold(text[:4], "json") {
		text = strings.TrimSpace(text[4:])
	}
	return text
}

// ParseJSONObject checks that text is a single JSON object and returns it
// compacted.  Key order is preserved.
func ParseJSONObject(text string) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, errors.Wrap(err, "decode model output")
	}
	if obj == nil {
		return nil, ErrNotJSONObject
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(text)); err != nil {
		return nil, errors.Wrap(err, "compact model output")
	}
	return buf.Bytes(), nil
}
