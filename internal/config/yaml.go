package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	dserrors "github.com/systmms/kvboot/internal/errors"
	"gopkg.in/yaml.v3"
)

func readYAMLFile(path string, optional bool) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if optional {
				return nil, nil
			}
			return nil, dserrors.ConfigError{
				Field:      "path",
				Value:      path,
				Message:    "configuration file not found",
				Suggestion: "Create the file or point --config at the directory holding appsettings.yaml",
			}
		}
		return nil, dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	values, err := parseYAML(data)
	if err != nil {
		return nil, dserrors.ConfigError{
			Field:      "path",
			Value:      path,
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}
	return values, nil
}

// parseYAML flattens a YAML document into delimiter-joined keys. Sequence
// elements are keyed by their index.
func parseYAML(data []byte) (map[string]string, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for k, v := range doc {
		flatten(out, k, v)
	}
	return out, nil
}

func flatten(out map[string]string, prefix string, v interface{}) {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, child := range val {
			flatten(out, prefix+KeyDelimiter+k, child)
		}
	case map[interface{}]interface{}:
		for k, child := range val {
			flatten(out, prefix+KeyDelimiter+fmt.Sprint(k), child)
		}
	case []interface{}:
		for i, child := range val {
			flatten(out, prefix+KeyDelimiter+strconv.Itoa(i), child)
		}
	case nil:
		out[prefix] = ""
	case string:
		out[prefix] = val
	default:
		out[prefix] = strings.TrimSpace(fmt.Sprint(val))
	}
}
