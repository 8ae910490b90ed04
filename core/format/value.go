package format

import (
	"encoding/hex"
	"fmt"
	"time"
)

const nullDisplay = "NULL"

// display renders a decoded value for humans.
func display(v any) string {
	switch val := v.(type) {
	case nil:
		return nullDisplay
	case []byte:
		return `\x` + hex.EncodeToString(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}

// jsonValue keeps values json can represent natively.
func jsonValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return display(val)
	default:
		return val
	}
}
