// Package coerce implements the typed parsing rules shared by every field
// operation: strict integers, exact decimals with locale-aware grouping,
// trimmed strings, and calendar-checked dates under strftime-style formats.
//
// Parse errors carry the failure reason only; callers wrap them into the
// row-level message format.
package coerce

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
	"github.com/shopspring/decimal"
)

// Kind identifies the value type a target column declares.
type Kind string

const (
	KindInteger Kind = "integer"
	KindDecimal Kind = "decimal"
	KindString  Kind = "string"
	KindDate    Kind = "date"
)

// DateLayout is the serialization layout for date values.
const DateLayout = "2006-01-02"

// errEmpty is the shared reason for blank input where a value is required.
var errEmpty = fmt.Errorf("value is empty")

// ParseKind validates a target_type string from a spec document.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindInteger, KindDecimal, KindString, KindDate:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unsupported target_type %q", s)
	}
}

// localeGroupers maps a parse_options.locale to the grouping separator
// stripped before decimal parsing.
var localeGroupers = map[string]string{
	"en_US": ",",
}

// GrouperForLocale resolves the grouping separator for a locale. An empty
// locale means no grouping handling. Unknown locales are configuration
// errors, surfaced at compile time rather than per row.
func GrouperForLocale(locale string) (string, error) {
	if locale == "" {
		return "", nil
	}
	g, ok := localeGroupers[locale]
	if !ok {
		return "", fmt.Errorf("unsupported parse_options.locale %q", locale)
	}
	return g, nil
}

// ParseInteger parses a strict base-10 integer from the trimmed raw text.
// Only an optional leading sign and digits are accepted; blank input fails.
func ParseInteger(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, errEmpty
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, fmt.Errorf("integer out of range")
		}
		return 0, fmt.Errorf("invalid integer syntax")
	}
	return v, nil
}

// ParseDecimal parses an exact decimal from the trimmed raw text after
// removing the locale's grouping separator, if any.
func ParseDecimal(raw, grouper string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, errEmpty
	}
	if grouper != "" {
		s = strings.ReplaceAll(s, grouper, "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid decimal syntax")
	}
	return d, nil
}

// ParseString trims leading and trailing whitespace and passes the value
// through otherwise unchanged. Blank input is a legal empty string.
func ParseString(raw string) (string, error) {
	return strings.TrimSpace(raw), nil
}

// DateFormat is a strftime-style pattern compiled once into a Go layout.
type DateFormat struct {
	pattern string
	layout  string
}

// CompileDateFormat converts a strftime-style pattern (e.g. %Y-%m-%d) to a
// compiled format. Patterns that cannot be expressed as a Go layout are
// configuration errors.
func CompileDateFormat(pattern string) (*DateFormat, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty date_format")
	}
	layout, err := strftime.Layout(pattern)
	if err != nil {
		return nil, fmt.Errorf("unsupported date_format %q: %w", pattern, err)
	}
	return &DateFormat{pattern: pattern, layout: layout}, nil
}

// Pattern returns the original strftime-style pattern.
func (f *DateFormat) Pattern() string {
	return f.pattern
}

// Parse parses the trimmed raw text against the compiled format. Both
// shape mismatches and impossible calendar dates (month 13, Feb 30) fail.
func (f *DateFormat) Parse(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errEmpty
	}
	t, err := time.Parse(f.layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date for format '%s'", f.pattern)
	}
	return t, nil
}

// Options adjust parsing for a single compiled operation.
type Options struct {
	// Grouper is the grouping separator stripped before decimal parsing.
	Grouper string
	// Date is the compiled format used when the target kind is date.
	// Operation compilation guarantees it is set for that kind.
	Date *DateFormat
}

// Parser is a compiled parse function for one target type. The returned
// value is one of int64, decimal.Decimal, string, or time.Time.
type Parser func(raw string) (interface{}, error)

// ParserFor returns the parse function for a kind, resolved once at
// operation compile time so row execution never re-examines configuration.
func ParserFor(kind Kind, opts Options) Parser {
	switch kind {
	case KindInteger:
		return func(raw string) (interface{}, error) {
			return ParseInteger(raw)
		}
	case KindDecimal:
		grouper := opts.Grouper
		return func(raw string) (interface{}, error) {
			return ParseDecimal(raw, grouper)
		}
	case KindDate:
		format := opts.Date
		return func(raw string) (interface{}, error) {
			return format.Parse(raw)
		}
	default:
		return func(raw string) (interface{}, error) {
			return ParseString(raw)
		}
	}
}

// Format renders a typed value in its canonical text form: integers in
// base 10, decimals exactly, dates as YYYY-MM-DD, strings verbatim.
func Format(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.Format(DateLayout)
	default:
		return fmt.Sprint(t)
	}
}
