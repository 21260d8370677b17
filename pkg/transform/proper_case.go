package transform

import (
	"strings"
	"unicode"

	"github.com/ajitpratap0/reshape/pkg/coerce"
	"github.com/ajitpratap0/reshape/pkg/config"
	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/record"
)

func init() {
	mustRegister(KindInfo{
		Name:           "rename_proper_case_and_parse",
		Description:    "Copy a source column into a target column, title-cased then parsed to the target type",
		RequiredFields: []string{"source_column", "target_column", "target_type"},
	}, newRenameProperCaseAndParse)
}

// renameProperCaseAndParse title-cases the source value before coercion:
// first letter of each whitespace-delimited word upper, the rest lower.
// Acronyms are not special-cased.
type renameProperCaseAndParse struct {
	sourceColumn string
	targetColumn string
	targetType   coerce.Kind
	parse        coerce.Parser
}

func newRenameProperCaseAndParse(step *config.Step) (FieldOperation, error) {
	if step.SourceColumn == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "rename_proper_case_and_parse requires source_column")
	}
	kind, parse, err := compileParser(step)
	if err != nil {
		return nil, err
	}
	return &renameProperCaseAndParse{
		sourceColumn: step.SourceColumn,
		targetColumn: step.TargetColumn,
		targetType:   kind,
		parse:        parse,
	}, nil
}

func (o *renameProperCaseAndParse) TargetColumn() string { return o.targetColumn }

func (o *renameProperCaseAndParse) Apply(r *record.Record) (interface{}, *OperationError) {
	raw, ok := r.Get(o.sourceColumn)
	if !ok {
		return nil, missingColumn(o.targetColumn, o.sourceColumn)
	}
	cased := properCase(raw)
	v, err := o.parse(cased)
	if err != nil {
		return nil, parseFailure(o.targetColumn, err, cased, string(o.targetType))
	}
	return v, nil
}

// properCase upper-cases the first rune of each whitespace-delimited word
// and lower-cases the rest, preserving the original whitespace runs.
func properCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	wordStart := true
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			wordStart = true
			b.WriteRune(r)
		case wordStart:
			wordStart = false
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
