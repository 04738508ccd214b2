package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/zero-day-ai/memrouter/cmd/memrouter/internal"
	"github.com/zero-day-ai/memrouter/internal/governance"
)

// readPayload decodes --data. "-" reads the object from in.
func readPayload(data string, in io.Reader) (governance.Payload, error) {
	if data == "" {
		return nil, internal.NewCLIError(internal.ExitError, "--data is required")
	}
	var r io.Reader = strings.NewReader(data)
	if data == "-" {
		r = in
	}

	var payload governance.Payload
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, internal.WrapError(internal.ExitError, "--data must be a JSON object", err)
	}
	if payload == nil {
		return nil, internal.NewCLIError(internal.ExitError, "--data must be a JSON object")
	}
	return payload, nil
}

// parseFilters turns repeated key=value flags into a filter. Values that parse
// as a JSON scalar keep that type, so count=3 matches numbers and
// done=true matches booleans. Anything else is a string.
func parseFilters(pairs []string) (map[string]any, error) {
	filter := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, internal.NewCLIError(internal.ExitError, "invalid --filter "+pair+" (want key=value)")
		}
		filter[key] = scalarValue(raw)
	}
	return filter, nil
}

func scalarValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		switch v.(type) {
		case string, float64, bool:
			return v
		}
	}
	return raw
}
