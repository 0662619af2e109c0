package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// printJSON writes v as indented JSON, filtered through query when set.
func printJSON(w io.Writer, query string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	var out any = json.RawMessage(raw)
	if q := strings.TrimSpace(query); q != "" {
		// JMESPath works on plain maps and slices, not structs.
		var data any
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("decode output: %w", err)
		}
		if _, err := jmespath.Compile(q); err != nil {
			return fmt.Errorf("invalid --query: %w", err)
		}
		out, err = jmespath.Search(q, data)
		if err != nil {
			return fmt.Errorf("evaluate --query: %w", err)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
