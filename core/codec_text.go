package core

import (
	"strings"
)

var _ RowCodec = (*TextCodec)(nil)

var textEscaper = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)

// TextCodec encodes a row the way postgres COPY does in text format:
// tab separated fields, backslash escapes and \N for NULL.
type TextCodec struct{}

func NewTextCodec() *TextCodec {
	return &TextCodec{}
}

func (*TextCodec) Format() DataFormat {
	return DataFormatText
}

func (*TextCodec) Encode(row Row) (string, error) {
	fields, err := encodeFields(row, textEscaper.Replace)
	if err != nil {
		return "", err
	}
	return strings.Join(fields, "\t"), nil
}

// Split never sees a raw tab inside a field, since Encode escapes them.
func (*TextCodec) Split(line string) ([]Field, error) {
	raw := strings.Split(line, "\t")

	fields := make([]Field, len(raw))
	for i, r := range raw {
		f, err := splitField(r)
		if err != nil {
			return nil, &DecodeError{Row: -1, Column: i, Value: r, Err: err}
		}
		fields[i] = f
	}
	return fields, nil
}

func (c *TextCodec) Decode(line string, kinds []ColumnKind) (Row, error) {
	fields, err := c.Split(line)
	if err != nil {
		return nil, err
	}
	return decodeFields(line, fields, kinds)
}
