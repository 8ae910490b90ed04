package core

import "context"

// DefaultTable is read by DataClient.GetDataByTitle unless configured otherwise.
const DefaultTable = "materials_list"

// DataClient is the common interface of all backend clients, so that data can
// be accessed and manipulated the same way regardless of the storage.
// R is the native row type of the backend.
type DataClient[R any] interface {
	// GetDataByTitle runs the backend's default read and returns it as a
	// Consumable. Failures are *ConnectionError or *QueryError.
	GetDataByTitle(ctx context.Context) (*Consumable, error)

	// GetConsumableFromData converts native rows without touching the backend.
	GetConsumableFromData(rows []R) (*Consumable, error)

	// ImportData treats the consumable as a schema descriptor and creates
	// the table it describes. Failures are *MalformedSchemaError or *ExecutionError.
	ImportData(ctx context.Context, data *Consumable) error

	// Close releases the connection. Only the first call has an effect.
	Close() error
}
