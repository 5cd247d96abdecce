package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// printStructured writes v as YAML or JSON using its JSON field names
func printStructured(w io.Writer, v interface{}, format string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	switch format {
	case "json":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml", "":
		// JSON is valid YAML; round-tripping through a node keeps key order and nulls
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return fmt.Errorf("failed to convert output to yaml: %w", err)
		}
		blockStyle(&node)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return fmt.Errorf("failed to write yaml: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported output format %q", format)
}

// blockStyle drops the flow/quoted styles inherited from the JSON input
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
