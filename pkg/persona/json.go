package persona

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// unmarshalJSON unmarshals data into v, attempting to repair malformed JSON.
// If the initial unmarshal fails with a syntax error, the payload is run
// through jsonrepair before retrying.
func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, err := jsonrepair.JSONRepair(string(data))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}

var fenceRE = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// stripFences unwraps a payload the model wrapped in a markdown code block.
func stripFences(text string) string {
	if m := fenceRE.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}
