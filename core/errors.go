package core

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedValue      = errors.New("unsupported value type")
	ErrMalformedField        = errors.New("malformed field")
	ErrUnsupportedDataFormat = errors.New("unsupported data format")
	ErrClientClosed          = errors.New("client is closed")
)

// ConnectionError is returned when a backend could not be reached.
// Constructors that fail with it never return a client.
type ConnectionError struct {
	Type string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s backend failed: %v", e.Type, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError is returned when a read query fails.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %q failed: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// DecodeError addresses a single field that could not be converted.
// Row is -1 when the field was converted outside of a row set.
type DecodeError struct {
	Row    int
	Column int
	Value  any
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode row %d column %d: %v", e.Row, e.Column, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// MalformedSchemaError is returned when a schema descriptor has no table name.
type MalformedSchemaError struct {
	Reason string
}

func (e *MalformedSchemaError) Error() string {
	return "malformed schema: " + e.Reason
}

// ExecutionError is returned when a statement was rejected by the backend.
type ExecutionError struct {
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing %q failed: %v", e.Statement, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
