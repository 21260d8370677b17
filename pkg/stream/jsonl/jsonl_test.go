package jsonl

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/record"
)

func TestSourcePreservesMemberOrder(t *testing.T) {
	input := `{"Order Number":"1001","Count":12500,"Active":true,"Note":null}` + "\n\n" +
		`{"Order Number":"1002","Count":"7"}` + "\n"
	src := NewSource(strings.NewReader(input))

	r1, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1), r1.Number)
	assert.Equal(t, []string{"Order Number", "Count", "Active", "Note"}, r1.Columns())
	assert.Equal(t, []string{"Order Number", "Count", "Active", "Note"}, src.Columns())

	v, _ := r1.Get("Count")
	assert.Equal(t, "12500", v, "numbers keep their literal form")
	v, _ = r1.Get("Active")
	assert.Equal(t, "true", v)
	v, ok := r1.Get("Note")
	require.True(t, ok)
	assert.Equal(t, "", v, "null becomes empty")
	r1.Release()

	// The blank line is skipped without consuming a row number.
	r2, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(2), r2.Number)
	r2.Release()

	_, err = src.Next()
	assert.Equal(t, io.EOF, err)
}

func TestSourceRejectsNestedValues(t *testing.T) {
	src := NewSource(strings.NewReader(`{"a":{"b":1}}` + "\n"))
	_, err := src.Next()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestSourceRejectsNonObjectLine(t *testing.T) {
	src := NewSource(strings.NewReader("[1,2]\n"))
	_, err := src.Next()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestSinkTypedValues(t *testing.T) {
	var buf bytes.Buffer
	targets := []string{"OrderID", "OrderDate", "Quantity", "Unit"}
	sink := NewSink(&buf, targets)

	out := record.AcquireOutput(targets)
	out.Set("OrderID", int64(1001))
	out.Set("OrderDate", time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC))
	out.Set("Quantity", decimal.RequireFromString("12500.5"))
	out.Set("Unit", "kg")
	require.NoError(t, sink.Write(out))
	out.Release()
	require.NoError(t, sink.Close())

	assert.Equal(t,
		`{"OrderID":1001,"OrderDate":"2024-03-07","Quantity":12500.5,"Unit":"kg"}`+"\n",
		buf.String())
}

func TestDiagnosticSinkMirrorsCSVLayout(t *testing.T) {
	var buf bytes.Buffer
	sink := NewDiagnosticSink(&buf, []string{"Year", "Month"})

	orig := record.New([]string{"Year", "Month"}, map[string]string{"Month": "03"})
	require.NoError(t, sink.Write(&record.Diagnostic{
		RowNumber:    4,
		FailedColumn: "OrderDate",
		ErrorMessage: "missing source column 'Year'",
		Original:     orig,
	}))
	require.NoError(t, sink.Close())

	assert.Equal(t,
		`{"row_number":4,"error_message":"missing source column 'Year'","failed_column":"OrderDate","original_Year":"","original_Month":"03"}`+"\n",
		buf.String())
}
