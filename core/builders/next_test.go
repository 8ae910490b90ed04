package builders_test

import (
	"testing"

	"gotest.tools/assert"

	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/core/builders"
)

func TestNextRows(t *testing.T) {
	rows := []core.Row{{"first", "row"}, {"second"}, {"third"}, {"and", "last", "row"}}

	next, hasNext := builders.NextRows(rows)

	i := 0
	for hasNext() {
		row, err := next()
		assert.NilError(t, err)
		assert.DeepEqual(t, rows[i], row)
		i++
	}
	assert.Equal(t, len(rows), i)

	_, err := next()
	assert.ErrorContains(t, err, "no next row")
}

func TestNextSingle(t *testing.T) {
	next, hasNext := builders.NextSingle(int64(3))

	assert.Assert(t, hasNext())
	row, err := next()
	assert.NilError(t, err)
	assert.DeepEqual(t, core.Row{int64(3)}, row)

	assert.Assert(t, !hasNext())
	_, err = next()
	assert.ErrorContains(t, err, "no next row")
}

func TestNextNil(t *testing.T) {
	next, hasNext := builders.NextNil()

	assert.Assert(t, !hasNext())
	_, err := next()
	assert.ErrorContains(t, err, "no next row")
}

func TestResultStream_CloseRunsOnce(t *testing.T) {
	closed := 0

	next, hasNext := builders.NextRows([]core.Row{{1}, {2}})
	stream := builders.NewResultStreamBuilder().
		WithNextFunc(next, hasNext).
		WithHeader(core.Header{"n"}).
		WithCloseFunc(func() { closed++ }).
		Build()

	rows, err := builders.Collect(stream)
	assert.NilError(t, err)
	assert.Equal(t, 2, len(rows))

	stream.Close()
	assert.Equal(t, 1, closed)
	assert.Assert(t, !stream.HasNext())

	// header without explicit columns becomes untyped columns
	assert.DeepEqual(t, []*core.Column{{Name: "n"}}, stream.Columns())
}
