package llm

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// schemaFor returns the JSON schema of v's type with every field required.
func schemaFor(v any) any {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return r.Reflect(reflect.New(t).Interface())
}

// decodeReply unmarshals a model reply into out. Code fences, double
// encoding and malformed JSON are tolerated.
func decodeReply(reply string, out any) error {
	text := stripFence(strings.TrimSpace(reply))
	if text == "" {
		return fmt.Errorf("empty reply")
	}
	if err := json.Unmarshal([]byte(text), out); err == nil {
		return nil
	}

	var inner string
	if err := json.Unmarshal([]byte(text), &inner); err == nil {
		text = strings.TrimSpace(inner)
		if err := json.Unmarshal([]byte(text), out); err == nil {
			return nil
		}
	}

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return fmt.Errorf("repairing reply: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("decoding repaired reply: %w", err)
	}
	return nil
}

func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	end := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	return strings.Join(lines[1:end], "\n")
}

// number accepts a JSON number or a numeric string.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return err
	}
	*n = number(f)
	return nil
}

// JSONSchema describes number as a plain JSON number.
func (number) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number"}
}
