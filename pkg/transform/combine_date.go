package transform

import (
	"strings"

	"github.com/ajitpratap0/reshape/pkg/coerce"
	"github.com/ajitpratap0/reshape/pkg/config"
	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/record"
)

func init() {
	mustRegister(KindInfo{
		Name:           "combine_and_parse_date",
		Description:    "Join several source columns with '-' and parse the result as a calendar date",
		RequiredFields: []string{"source_columns", "target_column", "date_format"},
	}, newCombineAndParseDate)
}

// combineAndParseDate joins the source columns in declared order with a
// hyphen and parses the combined string against the compiled date format.
// A missing or blank component fails the row before any parse is attempted.
type combineAndParseDate struct {
	sourceColumns []string
	targetColumn  string
	format        *coerce.DateFormat
}

func newCombineAndParseDate(step *config.Step) (FieldOperation, error) {
	if len(step.SourceColumns) == 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "combine_and_parse_date requires source_columns")
	}
	if step.TargetColumn == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "combine_and_parse_date requires target_column")
	}
	format, err := coerce.CompileDateFormat(step.DateFormat)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid date_format").
			WithDetail("target_column", step.TargetColumn)
	}
	return &combineAndParseDate{
		sourceColumns: step.SourceColumns,
		targetColumn:  step.TargetColumn,
		format:        format,
	}, nil
}

func (o *combineAndParseDate) TargetColumn() string { return o.targetColumn }

func (o *combineAndParseDate) Apply(r *record.Record) (interface{}, *OperationError) {
	parts := make([]string, 0, len(o.sourceColumns))
	for _, col := range o.sourceColumns {
		raw, ok := r.Get(col)
		if !ok {
			return nil, missingColumn(o.targetColumn, col)
		}
		part := strings.TrimSpace(raw)
		if part == "" {
			return nil, opError(o.targetColumn, "empty value in source column '%s'", col)
		}
		parts = append(parts, part)
	}

	combined := strings.Join(parts, "-")
	t, err := o.format.Parse(combined)
	if err != nil {
		return nil, parseFailure(o.targetColumn, err, combined, string(coerce.KindDate))
	}
	return t, nil
}
