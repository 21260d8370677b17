package csv

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

func TestSourceReadsHeaderAndRows(t *testing.T) {
	input := "Order Number,Count\n1001,\"12,500\"\n1002,7\n"
	src, err := NewSource(strings.NewReader(input))
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	assert.Equal(t, []string{"Order Number", "Count"}, src.Columns())

	r1, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1), r1.Number)
	v, ok := r1.Get("Count")
	require.True(t, ok)
	assert.Equal(t, "12,500", v)
	r1.Release()

	r2, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(2), r2.Number)
	v, _ = r2.Get("Order Number")
	assert.Equal(t, "1002", v)
	r2.Release()

	_, err = src.Next()
	assert.Equal(t, io.EOF, err)
}

func TestSourceEmptyInput(t *testing.T) {
	_, err := NewSource(strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestSourceRaggedRow(t *testing.T) {
	src, err := NewSource(strings.NewReader("a,b\n1\n"))
	require.NoError(t, err)

	_, err = src.Next()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestSinkWritesTypedRowInOrder(t *testing.T) {
	var buf bytes.Buffer
	targets := []string{"OrderID", "OrderDate", "Quantity", "Unit"}
	sink, err := NewSink(&buf, targets)
	require.NoError(t, err)

	out := record.AcquireOutput(targets)
	out.Set("OrderID", int64(1001))
	out.Set("OrderDate", time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC))
	out.Set("Quantity", decimal.NewFromInt(12500))
	out.Set("Unit", "kg")
	require.NoError(t, sink.Write(out))
	out.Release()
	require.NoError(t, sink.Close())

	assert.Equal(t,
		"OrderID,OrderDate,Quantity,Unit\n1001,2024-03-07,12500,kg\n",
		buf.String())
}

func TestDiagnosticSinkLayout(t *testing.T) {
	var buf bytes.Buffer
	sink, err := NewDiagnosticSink(&buf, []string{"Year", "Month"})
	require.NoError(t, err)

	orig := record.New([]string{"Year", "Month"}, map[string]string{"Month": "03"})
	require.NoError(t, sink.Write(&record.Diagnostic{
		RowNumber:    4,
		FailedColumn: "OrderDate",
		ErrorMessage: "missing source column 'Year'",
		Original:     orig,
	}))
	require.NoError(t, sink.Close())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "row_number,error_message,failed_column,original_Year,original_Month", lines[0])
	assert.Equal(t, "4,missing source column 'Year',OrderDate,,03", lines[1])
}

func TestDiagnosticSinkAdoptsRecordColumns(t *testing.T) {
	// A source without an up-front schema (JSON Lines input) builds the
	// sink with nil columns; the first diagnostic's record supplies them.
	var buf bytes.Buffer
	sink, err := NewDiagnosticSink(&buf, nil)
	require.NoError(t, err)

	orig := record.New([]string{"Year", "Month"}, map[string]string{"Year": "2024", "Month": "03"})
	require.NoError(t, sink.Write(&record.Diagnostic{
		RowNumber:    1,
		FailedColumn: "OrderDate",
		ErrorMessage: "missing source column 'Day'",
		Original:     orig,
	}))

	later := record.New([]string{"Year", "Month"}, map[string]string{"Year": "2025", "Month": "11"})
	require.NoError(t, sink.Write(&record.Diagnostic{
		RowNumber:    3,
		FailedColumn: "OrderDate",
		ErrorMessage: "missing source column 'Day'",
		Original:     later,
	}))
	require.NoError(t, sink.Close())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "row_number,error_message,failed_column,original_Year,original_Month", lines[0])
	assert.Equal(t, "1,missing source column 'Day',OrderDate,2024,03", lines[1])
	assert.Equal(t, "3,missing source column 'Day',OrderDate,2025,11", lines[2])
}

func TestDiagnosticSinkNoRejectsStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	sink, err := NewDiagnosticSink(&buf, nil)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	assert.Equal(t, "row_number,error_message,failed_column\n", buf.String())
}
