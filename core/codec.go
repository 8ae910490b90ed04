package core

import (
	"database/sql/driver"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// nullToken marks a NULL field. Backslashes of non-null values are always
// doubled, so no value can ever encode to this token.
const nullToken = `\N`

// bytesPrefix is prepended to hex encoded binary values (postgres bytea style).
const bytesPrefix = `\x`

// Field is a single undecoded field of an encoded row.
type Field struct {
	Value string
	Null  bool
}

// RowCodec converts rows to the string representation of a Consumable and back.
// A codec always produces exactly one string per row.
type RowCodec interface {
	Format() DataFormat
	// Encode converts a single row. Failures are reported as *DecodeError
	// with Row set to -1.
	Encode(row Row) (string, error)
	// Split breaks an encoded row into unescaped fields.
	Split(line string) ([]Field, error)
	// Decode splits the line and parses each field according to its kind.
	Decode(line string, kinds []ColumnKind) (Row, error)
}

// NewRowCodec returns the codec for the given format.
func NewRowCodec(format DataFormat) (RowCodec, error) {
	switch format {
	case DataFormatCSV:
		return NewCSVCodec(), nil
	case DataFormatText:
		return NewTextCodec(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDataFormat, format)
	}
}

// EncodeRows converts all rows in order. If any value can't be converted, the
// whole conversion fails with a *DecodeError addressed by row and column and
// no rows are returned.
func EncodeRows(codec RowCodec, rows []Row) ([]string, error) {
	out := make([]string, 0, len(rows))
	for i, row := range rows {
		line, err := codec.Encode(row)
		if err != nil {
			return nil, withRow(err, i)
		}
		out = append(out, line)
	}
	return out, nil
}

// DecodeRows parses every entry of the consumable using the column kinds.
func DecodeRows(codec RowCodec, c *Consumable, kinds []ColumnKind) ([]Row, error) {
	if c.Format() != codec.Format() {
		return nil, fmt.Errorf("%w: consumable is %s, codec is %s", ErrUnsupportedDataFormat, c.Format(), codec.Format())
	}

	out := make([]Row, 0, c.Len())
	for i, line := range c.All() {
		row, err := codec.Decode(line, kinds)
		if err != nil {
			return nil, withRow(err, i)
		}
		out = append(out, row)
	}
	return out, nil
}

func withRow(err error, row int) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return &DecodeError{Row: row, Column: de.Column, Value: de.Value, Err: de.Err}
	}
	return &DecodeError{Row: row, Column: -1, Err: err}
}

// encodeFields converts every value of the row to its raw text form.
// escape is applied to non-null values only.
func encodeFields(row Row, escape func(string) string) ([]string, error) {
	fields := make([]string, len(row))
	for i, v := range row {
		text, null, err := encodeValue(v)
		if err != nil {
			return nil, &DecodeError{Row: -1, Column: i, Value: v, Err: err}
		}
		if null {
			fields[i] = nullToken
			continue
		}
		fields[i] = escape(text)
	}
	return fields, nil
}

func encodeValue(v any) (text string, null bool, err error) {
	if elem, null, ok := derefValue(v); ok {
		if null {
			return "", true, nil
		}
		return encodeValue(elem)
	}

	switch val := v.(type) {
	case nil:
		return "", true, nil
	case string:
		return val, false, nil
	case []byte:
		return bytesPrefix + hex.EncodeToString(val), false, nil
	case bool:
		return strconv.FormatBool(val), false, nil
	case int:
		return strconv.FormatInt(int64(val), 10), false, nil
	case int8:
		return strconv.FormatInt(int64(val), 10), false, nil
	case int16:
		return strconv.FormatInt(int64(val), 10), false, nil
	case int32:
		return strconv.FormatInt(int64(val), 10), false, nil
	case int64:
		return strconv.FormatInt(val, 10), false, nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), false, nil
	case uint8:
		return strconv.FormatUint(uint64(val), 10), false, nil
	case uint16:
		return strconv.FormatUint(uint64(val), 10), false, nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), false, nil
	case uint64:
		return strconv.FormatUint(val, 10), false, nil
	case float32:
		return formatFloat(float64(val), 32), false, nil
	case float64:
		return formatFloat(val, 64), false, nil
	case time.Time:
		return val.Format(time.RFC3339Nano), false, nil
	case driver.Valuer:
		dv, err := val.Value()
		if err != nil {
			return "", false, fmt.Errorf("%T.Value: %w", val, err)
		}
		if _, ok := dv.(driver.Valuer); ok {
			return "", false, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
		}
		return encodeValue(dv)
	case fmt.Stringer:
		return val.String(), false, nil
	default:
		return "", false, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// derefValue unwraps pointers, which some drivers hand out for nullable
// columns. ok is false when v is not a pointer, or when the pointed-to
// value loses the methods that made the pointer encodable.
func derefValue(v any) (elem any, null, ok bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return nil, false, false
	}
	if rv.IsNil() {
		return nil, true, true
	}

	elem = rv.Elem().Interface()
	if !encodable(elem) && encodable(v) {
		// methods declared on the pointer receiver
		return nil, false, false
	}
	return elem, false, true
}

func encodable(v any) bool {
	switch v.(type) {
	case string, []byte, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64,
		time.Time, driver.Valuer, fmt.Stringer:
		return true
	}
	return reflect.ValueOf(v).Kind() == reflect.Pointer
}

// formatFloat uses the shortest representation that parses back to the
// exact same value. Special values use the spelling postgres accepts.
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, bitSize)
}

// decodeFields parses split fields into a row.
func decodeFields(line string, fields []Field, kinds []ColumnKind) (Row, error) {
	// an empty line is a row without columns
	if line == "" && len(kinds) == 0 {
		return Row{}, nil
	}

	if len(fields) != len(kinds) {
		return nil, &DecodeError{
			Row:    -1,
			Column: min(len(fields), len(kinds)),
			Err:    fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedField, len(kinds), len(fields)),
		}
	}

	row := make(Row, len(fields))
	for i, f := range fields {
		if f.Null {
			row[i] = nil
			continue
		}

		val, err := decodeValue(f.Value, kinds[i])
		if err != nil {
			return nil, &DecodeError{Row: -1, Column: i, Value: f.Value, Err: err}
		}
		row[i] = val
	}

	return row, nil
}

func decodeValue(s string, kind ColumnKind) (any, error) {
	switch kind {
	case KindText:
		return s, nil
	case KindInteger:
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return i, nil
		}
		u, uerr := strconv.ParseUint(s, 10, 64)
		if uerr == nil {
			return u, nil
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedField, kind, err)
	case KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedField, kind, err)
		}
		return f, nil
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedField, kind, err)
		}
		return b, nil
	case KindBytes:
		hexPart, ok := strings.CutPrefix(s, bytesPrefix)
		if !ok {
			return nil, fmt.Errorf("%w: %s: missing %q prefix", ErrMalformedField, kind, bytesPrefix)
		}
		b, err := hex.DecodeString(hexPart)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedField, kind, err)
		}
		return b, nil
	case KindTime:
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedField, kind, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: unknown column kind %s", ErrMalformedField, kind)
	}
}

// unescape reverses the backslash escaping of both codecs.
func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}

		i++
		if i >= len(s) {
			return "", fmt.Errorf("%w: trailing backslash", ErrMalformedField)
		}
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			return "", fmt.Errorf("%w: unknown escape sequence \\%c", ErrMalformedField, s[i])
		}
	}
	return b.String(), nil
}

func splitField(raw string) (Field, error) {
	if raw == nullToken {
		return Field{Null: true}, nil
	}
	v, err := unescape(raw)
	if err != nil {
		return Field{}, err
	}
	return Field{Value: v}, nil
}
