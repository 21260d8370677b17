package transform

import (
	"github.com/ajitpratap0/reshape/pkg/config"
	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/record"
)

func init() {
	mustRegister(KindInfo{
		Name:           "add_fixed_value",
		Description:    "Write a constant literal, parsed once at compile time, to every row",
		RequiredFields: []string{"target_column", "value", "target_type"},
	}, newAddFixedValue)
}

// addFixedValue returns the same typed constant on every row. The literal
// is parsed during compilation; a malformed literal aborts the run before
// any row is processed, since the value is row-independent.
type addFixedValue struct {
	targetColumn string
	value        interface{}
}

func newAddFixedValue(step *config.Step) (FieldOperation, error) {
	if step.Value == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "add_fixed_value requires value")
	}
	kind, parse, err := compileParser(step)
	if err != nil {
		return nil, err
	}

	v, err := parse(*step.Value)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeConfig,
			"invalid fixed value: %v parsing '%s' as %s", err, *step.Value, kind).
			WithDetail("target_column", step.TargetColumn)
	}
	return &addFixedValue{targetColumn: step.TargetColumn, value: v}, nil
}

func (o *addFixedValue) TargetColumn() string { return o.targetColumn }

func (o *addFixedValue) Apply(_ *record.Record) (interface{}, *OperationError) {
	return o.value, nil
}
