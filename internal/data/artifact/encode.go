package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Encode renders v as indented JSON or YAML.
func Encode(format string, v any) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unsupported artifact format %q", format)
}

// FileName swaps the extension of a ".json" artifact name for the format.
func FileName(name, format string) string {
	if strings.ToLower(format) != FormatYAML {
		return name
	}
	return strings.TrimSuffix(name, ".json") + ".yaml"
}
