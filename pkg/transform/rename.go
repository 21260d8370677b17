package transform

import (
	"github.com/ajitpratap0/reshape/pkg/coerce"
	"github.com/ajitpratap0/reshape/pkg/config"
	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/record"
)

func init() {
	mustRegister(KindInfo{
		Name:           "rename_and_parse",
		Description:    "Copy a source column into a target column, parsed to the target type",
		RequiredFields: []string{"source_column", "target_column", "target_type"},
	}, newRenameAndParse)
}

// renameAndParse reads one source column and coerces its raw text into the
// declared target type. The parse function is resolved once at compile
// time, including locale grouping and the compiled date format.
type renameAndParse struct {
	sourceColumn string
	targetColumn string
	targetType   coerce.Kind
	parse        coerce.Parser
}

func newRenameAndParse(step *config.Step) (FieldOperation, error) {
	if step.SourceColumn == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "rename_and_parse requires source_column")
	}
	kind, parse, err := compileParser(step)
	if err != nil {
		return nil, err
	}
	return &renameAndParse{
		sourceColumn: step.SourceColumn,
		targetColumn: step.TargetColumn,
		targetType:   kind,
		parse:        parse,
	}, nil
}

func (o *renameAndParse) TargetColumn() string { return o.targetColumn }

func (o *renameAndParse) Apply(r *record.Record) (interface{}, *OperationError) {
	raw, ok := r.Get(o.sourceColumn)
	if !ok {
		return nil, missingColumn(o.targetColumn, o.sourceColumn)
	}
	v, err := o.parse(raw)
	if err != nil {
		return nil, parseFailure(o.targetColumn, err, raw, string(o.targetType))
	}
	return v, nil
}

// compileParser resolves the shared target_column/target_type descriptor
// fields into a compiled parse function. Used by every kind that coerces
// a single text value.
func compileParser(step *config.Step) (coerce.Kind, coerce.Parser, error) {
	if step.TargetColumn == "" {
		return "", nil, errors.Newf(errors.ErrorTypeConfig, "%s requires target_column", step.Operation)
	}
	kind, err := coerce.ParseKind(step.TargetType)
	if err != nil {
		return "", nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid target_type").
			WithDetail("target_column", step.TargetColumn)
	}

	var opts coerce.Options
	if kind == coerce.KindDecimal {
		opts.Grouper, err = coerce.GrouperForLocale(step.Locale())
		if err != nil {
			return "", nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid parse_options").
				WithDetail("target_column", step.TargetColumn)
		}
	}
	if kind == coerce.KindDate {
		if step.DateFormat == "" {
			return "", nil, errors.Newf(errors.ErrorTypeConfig,
				"%s requires date_format when target_type is date", step.Operation)
		}
		opts.Date, err = coerce.CompileDateFormat(step.DateFormat)
		if err != nil {
			return "", nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid date_format").
				WithDetail("target_column", step.TargetColumn)
		}
	}

	return kind, coerce.ParserFor(kind, opts), nil
}
