package core

import (
	"fmt"
	"strings"
)

type SchemaType int

const (
	SchemaFul SchemaType = iota
	SchemaLess
)

type (
	// FormatterOptions provide various options for formatters
	FormatterOptions struct {
		// SchemaLess renders rows without column names
		SchemaType SchemaType
		// ChunkStart is the index of the first row, when rows are a window
		// of a larger result
		ChunkStart int
	}

	// Formatter converts header and rows to bytes
	Formatter interface {
		Format(header Header, rows []Row, opts *FormatterOptions) ([]byte, error)
	}
)

type (
	// Row and Header are attributes of ResultStream iterator
	Row    []any
	Header []string

	// ResultStream is a result from executed query and has a form of an iterator
	ResultStream interface {
		Header() Header
		Columns() []*Column
		Next() (Row, error)
		HasNext() bool
		Close()
	}
)

// DataFormat tags the layout of the strings held by a Consumable.
type DataFormat int

const (
	// DataFormatCSV is a comma separated row with RFC 4180 quoting.
	DataFormatCSV DataFormat = iota
	// DataFormatText is the tab separated, backslash escaped layout used by
	// postgres COPY ... (FORMAT text).
	DataFormatText
)

func (f DataFormat) String() string {
	switch f {
	case DataFormatCSV:
		return "csv"
	case DataFormatText:
		return "text"
	default:
		return fmt.Sprintf("DataFormat(%d)", int(f))
	}
}

// ParseDataFormat is the inverse of DataFormat.String.
func ParseDataFormat(s string) (DataFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return DataFormatCSV, nil
	case "text", "tsv":
		return DataFormatText, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedDataFormat, s)
	}
}

// ColumnKind says how a single encoded field is decoded back to a value.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInteger
	KindFloat
	KindBool
	KindBytes
	KindTime
)

func (k ColumnKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("ColumnKind(%d)", int(k))
	}
}

// Column is a single column of a table or a result set.
type Column struct {
	// Name to be displayed
	Name string
	// Type as reported by the database (e.g. "INT4", "varchar(255)")
	Type string
}

// Kind maps the database type name to a decoding kind.
// Unknown types decode as text.
func (c *Column) Kind() ColumnKind {
	return KindFromDatabaseType(c.Type)
}

// KindFromDatabaseType maps a database type name to a ColumnKind.
func KindFromDatabaseType(typ string) ColumnKind {
	t := strings.ToLower(strings.TrimSpace(typ))
	// clickhouse wrappers: "Nullable(Float64)", "LowCardinality(String)"
	for _, wrapper := range []string{"nullable(", "lowcardinality("} {
		if strings.HasPrefix(t, wrapper) && strings.HasSuffix(t, ")") {
			t = strings.TrimSpace(t[len(wrapper) : len(t)-1])
		}
	}
	// drop length/precision modifiers: "varchar(255)", "numeric(10,2)"
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch t {
	case "int", "integer", "int2", "int4", "int8", "smallint", "bigint", "tinyint", "mediumint",
		"serial", "bigserial", "smallserial", "serial4", "serial8",
		"int16", "int32", "int64", "uint8", "uint16", "uint32", "uint64",
		"unsigned int", "unsigned bigint", "unsigned smallint", "unsigned tinyint", "unsigned bit",
		"hugeint", "ubigint", "uinteger", "usmallint", "utinyint":
		return KindInteger
	case "float", "float4", "float8", "real", "double", "double precision",
		"float32", "float64", "binary_float", "binary_double":
		return KindFloat
	case "bool", "boolean", "bit":
		return KindBool
	case "bytea", "blob", "binary", "varbinary", "longblob", "mediumblob", "tinyblob", "image", "raw":
		return KindBytes
	case "timestamp", "timestamptz", "timestamp with time zone", "timestamp without time zone",
		"datetime", "datetime2", "datetimeoffset", "date", "datetime64", "date32":
		return KindTime
	default:
		return KindText
	}
}
