package mock

import (
	"context"

	"github.com/foundation-data/datalib/core"
)

type clientConfig struct {
	defaultTable     string
	format           core.DataFormat
	querySideEffects map[string]func(context.Context) error
	tables           map[string]*table
}

type ClientOption func(*clientConfig)

// ClientWithQuerySideEffect runs sideEffect before the query (or DDL
// statement) is served. A returned error fails the call.
func ClientWithQuerySideEffect(query string, sideEffect func(context.Context) error) ClientOption {
	return func(c *clientConfig) {
		_, ok := c.querySideEffects[query]
		if ok {
			panic("side effect already registered for query: " + query)
		}

		c.querySideEffects[query] = sideEffect
	}
}

func ClientWithTable(name string, columns []*core.Column, rows []core.Row) ClientOption {
	return func(c *clientConfig) {
		_, ok := c.tables[name]
		if ok {
			panic("table already registered: " + name)
		}

		c.tables[name] = &table{columns: columns, rows: rows}
	}
}

func ClientWithDefaultTable(name string) ClientOption {
	return func(c *clientConfig) {
		c.defaultTable = name
	}
}

func ClientWithDataFormat(format core.DataFormat) ClientOption {
	return func(c *clientConfig) {
		c.format = format
	}
}
