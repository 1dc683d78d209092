package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// printValue writes v as JSON or YAML, or calls table for the default format
func printValue(out io.Writer, format string, v any, table func(w *tabwriter.Writer)) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		table(w)
		return w.Flush()
	default:
		return fmt.Errorf("unknown output format '%s', must be one of: table, json, yaml", format)
	}
}

func tableHeader(w io.Writer, headers []string) {
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	rules := make([]string, len(headers))
	for i, h := range headers {
		rules[i] = strings.Repeat("─", len([]rune(h)))
	}
	fmt.Fprintln(w, strings.Join(rules, "\t"))
}
