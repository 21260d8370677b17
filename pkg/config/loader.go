package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/reshape/pkg/errors"
)

// Load reads, parses, and validates a spec document. JSON is the primary
// format; files ending in .yaml or .yml parse as YAML with the same shape.
// Environment references of the form ${VAR} are substituted before parsing.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read spec document").
			WithDetail("path", path)
	}

	spec, err := Parse(data, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return nil, e.WithDetail("path", path)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse spec document").
			WithDetail("path", path)
	}
	return spec, nil
}

// Parse parses and validates a spec document from memory. The ext argument
// selects the syntax (".yaml"/".yml" for YAML, anything else JSON).
func Parse(data []byte, ext string) (*Spec, error) {
	content := substituteEnvVars(string(data))

	var spec Spec
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal([]byte(content), &spec); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML spec document")
		}
	default:
		if err := json.Unmarshal([]byte(content), &spec); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse JSON spec document")
		}
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
