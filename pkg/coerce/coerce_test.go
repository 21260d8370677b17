package coerce

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, valid := range []string{"integer", "decimal", "string", "date"} {
		k, err := ParseKind(valid)
		require.NoError(t, err)
		assert.Equal(t, Kind(valid), k)
	}

	_, err := ParseKind("float")
	assert.Error(t, err)
	_, err = ParseKind("")
	assert.Error(t, err)
}

func TestGrouperForLocale(t *testing.T) {
	g, err := GrouperForLocale("")
	require.NoError(t, err)
	assert.Equal(t, "", g)

	g, err = GrouperForLocale("en_US")
	require.NoError(t, err)
	assert.Equal(t, ",", g)

	_, err = GrouperForLocale("de_DE")
	assert.Error(t, err)
}

func TestParseInteger(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int64
		wantErr string
	}{
		{name: "plain", raw: "1001", want: 1001},
		{name: "trimmed", raw: "  42  ", want: 42},
		{name: "positive sign", raw: "+7", want: 7},
		{name: "negative sign", raw: "-7", want: -7},
		{name: "zero", raw: "0", want: 0},
		{name: "trailing garbage", raw: "12x", wantErr: "invalid integer syntax"},
		{name: "decimal point", raw: "12.0", wantErr: "invalid integer syntax"},
		{name: "grouped digits", raw: "12,500", wantErr: "invalid integer syntax"},
		{name: "underscore", raw: "1_2", wantErr: "invalid integer syntax"},
		{name: "empty", raw: "", wantErr: "value is empty"},
		{name: "whitespace only", raw: "   ", wantErr: "value is empty"},
		{name: "overflow", raw: "9223372036854775808", wantErr: "integer out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInteger(tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		grouper string
		want    string
		wantErr string
	}{
		{name: "grouped en_US", raw: "12,500", grouper: ",", want: "12500"},
		{name: "plain", raw: "3.14", want: "3.14"},
		{name: "negative", raw: "-0.5", want: "-0.5"},
		{name: "trimmed", raw: " 10 ", want: "10"},
		{name: "exponent", raw: "1.5e3", want: "1500"},
		{name: "odd grouping still parses", raw: "1,2,3", grouper: ",", want: "123"},
		{name: "comma without grouper", raw: "12,500", wantErr: "invalid decimal syntax"},
		{name: "letters", raw: "abc", wantErr: "invalid decimal syntax"},
		{name: "empty", raw: "", wantErr: "value is empty"},
		{name: "whitespace only", raw: "  ", wantErr: "value is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimal(tt.raw, tt.grouper)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s want %s", got, tt.want)
		})
	}
}

func TestParseString(t *testing.T) {
	got, err := ParseString("  steel rod  ")
	require.NoError(t, err)
	assert.Equal(t, "steel rod", got)

	got, err = ParseString("")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestCompileDateFormat(t *testing.T) {
	f, err := CompileDateFormat("%Y-%m-%d")
	require.NoError(t, err)
	assert.Equal(t, "%Y-%m-%d", f.Pattern())

	_, err = CompileDateFormat("")
	assert.Error(t, err)

	_, err = CompileDateFormat("%Q")
	assert.Error(t, err)
}

func TestDateFormatParse(t *testing.T) {
	f, err := CompileDateFormat("%Y-%m-%d")
	require.NoError(t, err)

	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr string
	}{
		{name: "iso", raw: "2024-03-07", want: time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)},
		{name: "trimmed", raw: " 2024-03-07 ", want: time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)},
		{name: "month thirteen", raw: "2024-13-01", wantErr: "invalid date for format '%Y-%m-%d'"},
		{name: "february thirtieth", raw: "2023-02-30", wantErr: "invalid date for format '%Y-%m-%d'"},
		{name: "wrong shape", raw: "07/03/2024", wantErr: "invalid date for format '%Y-%m-%d'"},
		{name: "empty", raw: "", wantErr: "value is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Parse(tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func TestDateFormatParseAlternateLayout(t *testing.T) {
	f, err := CompileDateFormat("%d/%m/%Y")
	require.NoError(t, err)

	got, err := f.Parse("07/03/2024")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC), got)
}

func TestParserFor(t *testing.T) {
	t.Run("integer", func(t *testing.T) {
		p := ParserFor(KindInteger, Options{})
		v, err := p("1001")
		require.NoError(t, err)
		assert.Equal(t, int64(1001), v)
	})

	t.Run("decimal with grouper", func(t *testing.T) {
		p := ParserFor(KindDecimal, Options{Grouper: ","})
		v, err := p("12,500")
		require.NoError(t, err)
		assert.True(t, v.(decimal.Decimal).Equal(decimal.RequireFromString("12500")))
	})

	t.Run("string", func(t *testing.T) {
		p := ParserFor(KindString, Options{})
		v, err := p(" kg ")
		require.NoError(t, err)
		assert.Equal(t, "kg", v)
	})

	t.Run("date with compiled format", func(t *testing.T) {
		f, err := CompileDateFormat("%Y-%m-%d")
		require.NoError(t, err)

		p := ParserFor(KindDate, Options{Date: f})
		v, err := p("2024-03-07")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC), v)
	})
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{name: "string", in: "Steel Rod", want: "Steel Rod"},
		{name: "int64", in: int64(1001), want: "1001"},
		{name: "decimal", in: decimal.RequireFromString("12500"), want: "12500"},
		{name: "decimal fraction", in: decimal.RequireFromString("0.25"), want: "0.25"},
		{name: "date", in: time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC), want: "2024-03-07"},
		{name: "nil", in: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.in))
		})
	}
}
