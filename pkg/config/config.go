// Package config models the declarative transformation spec document: the
// target schema, the ordered operation steps, and the structural validation
// applied before any operation is compiled.
package config

import (
	"github.com/ajitpratap0/reshape/pkg/errors"
)

// SupportedConfigVersion is the only spec document version this build accepts.
const SupportedConfigVersion = "1.0"

// ParseOptions tune raw-text parsing for a single step.
type ParseOptions struct {
	// Locale names the number grouping convention of the source data,
	// e.g. "en_US" strips commas before decimal parsing.
	Locale string `json:"locale,omitempty" yaml:"locale,omitempty"`
}

// Step is one operation descriptor in the transformations list. Operation
// selects the kind; the remaining fields are kind-specific and validated
// when the step is compiled.
type Step struct {
	Operation     string   `json:"operation" yaml:"operation"`
	SourceColumn  string   `json:"source_column,omitempty" yaml:"source_column,omitempty"`
	SourceColumns []string `json:"source_columns,omitempty" yaml:"source_columns,omitempty"`
	TargetColumn  string   `json:"target_column" yaml:"target_column"`
	TargetType    string   `json:"target_type,omitempty" yaml:"target_type,omitempty"`
	// Value is a pointer so a step that omits the literal can be told apart
	// from one that fixes an empty string.
	Value        *string       `json:"value,omitempty" yaml:"value,omitempty"`
	DateFormat   string        `json:"date_format,omitempty" yaml:"date_format,omitempty"`
	ParseOptions *ParseOptions `json:"parse_options,omitempty" yaml:"parse_options,omitempty"`
}

// Locale returns the step's parse locale, or empty when none is declared.
func (s *Step) Locale() string {
	if s.ParseOptions == nil {
		return ""
	}
	return s.ParseOptions.Locale
}

// Spec is the parsed transformation spec document. It is immutable once
// loaded; the whole run shares one value read-only.
type Spec struct {
	ConfigVersion   string   `json:"config_version" yaml:"config_version"`
	TargetColumns   []string `json:"target_columns" yaml:"target_columns"`
	Transformations []Step   `json:"transformations" yaml:"transformations"`
}

// Validate checks the document-level structure: version gate, a non-empty
// duplicate-free target schema, and a non-empty step list where every step
// names its operation kind. Kind-specific fields are the registry's concern.
func (s *Spec) Validate() error {
	if s.ConfigVersion != SupportedConfigVersion {
		return errors.Newf(errors.ErrorTypeConfig,
			"unsupported config_version %q (supported: %s)", s.ConfigVersion, SupportedConfigVersion)
	}

	if len(s.TargetColumns) == 0 {
		return errors.New(errors.ErrorTypeConfig, "target_columns must be a non-empty list")
	}
	seen := make(map[string]bool, len(s.TargetColumns))
	for i, col := range s.TargetColumns {
		if col == "" {
			return errors.Newf(errors.ErrorTypeConfig, "target_columns[%d] is empty", i)
		}
		if seen[col] {
			return errors.Newf(errors.ErrorTypeConfig, "duplicate target column %q", col)
		}
		seen[col] = true
	}

	if len(s.Transformations) == 0 {
		return errors.New(errors.ErrorTypeConfig, "transformations must be a non-empty list")
	}
	for i := range s.Transformations {
		if s.Transformations[i].Operation == "" {
			return errors.Newf(errors.ErrorTypeConfig,
				"transformation step %d is missing the operation kind", i)
		}
	}

	return nil
}
