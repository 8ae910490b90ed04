package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var _ RowCodec = (*CSVCodec)(nil)

// csv readers drop the carriage return of "\r\n", even in quoted fields.
var csvEscaper = strings.NewReplacer(`\`, `\\`, "\r", `\r`)

// CSVCodec encodes a row as a single comma separated record.
type CSVCodec struct{}

func NewCSVCodec() *CSVCodec {
	return &CSVCodec{}
}

func (*CSVCodec) Format() DataFormat {
	return DataFormatCSV
}

func (*CSVCodec) Encode(row Row) (string, error) {
	fields, err := encodeFields(row, csvEscaper.Replace)
	if err != nil {
		return "", err
	}

	// csv writes a lone empty field as an empty line, which readers skip
	if len(fields) == 1 && fields[0] == "" {
		return `""`, nil
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(fields); err != nil {
		return "", fmt.Errorf("w.Write: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("w.Flush: %w", err)
	}

	return strings.TrimSuffix(b.String(), "\n"), nil
}

func (*CSVCodec) Split(line string) ([]Field, error) {
	if line == "" {
		return []Field{}, nil
	}

	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1

	record, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedField, err)
	}
	if _, err := r.Read(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: line holds more than one record", ErrMalformedField)
	}

	fields := make([]Field, len(record))
	for i, raw := range record {
		f, err := splitField(raw)
		if err != nil {
			return nil, &DecodeError{Row: -1, Column: i, Value: raw, Err: err}
		}
		fields[i] = f
	}
	return fields, nil
}

func (c *CSVCodec) Decode(line string, kinds []ColumnKind) (Row, error) {
	fields, err := c.Split(line)
	if err != nil {
		return nil, err
	}
	return decodeFields(line, fields, kinds)
}
