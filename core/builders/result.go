package builders

import (
	"errors"
	"fmt"
	"sync"

	"github.com/foundation-data/datalib/core"
)

var _ core.ResultStream = (*ResultStream)(nil)

// ResultStream fills core.ResultStream interface for all sql dbs
type ResultStream struct {
	next    func() (core.Row, error)
	hasNext func() bool
	err     func() error
	close   func()
	header  core.Header
	columns []*core.Column
	once    sync.Once
}

func (r *ResultStream) Header() core.Header {
	return r.header
}

func (r *ResultStream) Columns() []*core.Column {
	return r.columns
}

func (r *ResultStream) HasNext() bool {
	return r.hasNext()
}

func (r *ResultStream) Next() (core.Row, error) {
	rows, err := r.next()
	if err != nil || rows == nil {
		r.Close()
		return nil, err
	}
	return rows, nil
}

// Err reports an error that ended the iteration early.
func (r *ResultStream) Err() error {
	return r.err()
}

func (r *ResultStream) Close() {
	r.once.Do(func() {
		r.close()
	})
	r.hasNext = func() bool {
		return false
	}
}

// ResultStreamBuilder builds the rows
type ResultStreamBuilder struct {
	next    func() (core.Row, error)
	hasNext func() bool
	err     func() error
	header  core.Header
	columns []*core.Column
	close   func()
}

func NewResultStreamBuilder() *ResultStreamBuilder {
	return &ResultStreamBuilder{
		next:    func() (core.Row, error) { return nil, errors.New("no next row") },
		hasNext: func() bool { return false },
		err:     func() error { return nil },
		header:  core.Header{},
		close:   func() {},
	}
}

func (b *ResultStreamBuilder) WithNextFunc(fn func() (core.Row, error), has func() bool) *ResultStreamBuilder {
	b.next = fn
	b.hasNext = has
	return b
}

func (b *ResultStreamBuilder) WithHeader(header core.Header) *ResultStreamBuilder {
	b.header = header
	return b
}

// WithColumns sets column metadata. Without it, every header entry becomes
// a column of unknown type.
func (b *ResultStreamBuilder) WithColumns(columns []*core.Column) *ResultStreamBuilder {
	b.columns = columns
	return b
}

func (b *ResultStreamBuilder) WithErrFunc(fn func() error) *ResultStreamBuilder {
	b.err = fn
	return b
}

func (b *ResultStreamBuilder) WithCloseFunc(fn func()) *ResultStreamBuilder {
	b.close = fn
	return b
}

func (b *ResultStreamBuilder) Build() *ResultStream {
	columns := b.columns
	if columns == nil {
		columns = make([]*core.Column, len(b.header))
		for i, h := range b.header {
			columns[i] = &core.Column{Name: h}
		}
	}

	return &ResultStream{
		next:    b.next,
		hasNext: b.hasNext,
		err:     b.err,
		header:  b.header,
		columns: columns,
		close:   b.close,
	}
}

// Collect drains the stream and closes it.
func Collect(stream core.ResultStream) ([]core.Row, error) {
	defer stream.Close()

	rows := make([]core.Row, 0)
	for stream.HasNext() {
		row, err := stream.Next()
		if err != nil {
			return nil, fmt.Errorf("stream.Next: %w", err)
		}
		rows = append(rows, row)
	}

	if s, ok := stream.(interface{ Err() error }); ok {
		if err := s.Err(); err != nil {
			return nil, fmt.Errorf("stream.Err: %w", err)
		}
	}

	return rows, nil
}
