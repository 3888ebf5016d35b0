package executor

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Placeholder replaces a single cell whose registered stringifier fails.
// A bad cell never aborts the row.
const Placeholder = "[unrepresentable]"

// Stringifier converts one driver value into its transport string form.
// Returning ok=false falls back to the placeholder.
type Stringifier func(value any) (string, bool)

// stringifiers maps concrete driver types to their string form. New
// driver-specific types get an entry here instead of a case in the
// executor.
var stringifiers = map[reflect.Type]Stringifier{
	reflect.TypeOf(uuid.UUID{}): func(value any) (string, bool) {
		return value.(uuid.UUID).String(), true
	},
	reflect.TypeOf([16]byte{}): func(value any) (string, bool) {
		return uuid.UUID(value.([16]byte)).String(), true
	},
	reflect.TypeOf(time.Time{}): func(value any) (string, bool) {
		return value.(time.Time).Format(time.RFC3339), true
	},
	reflect.TypeOf([]byte(nil)): func(value any) (string, bool) {
		return string(value.([]byte)), true
	},
}

// RegisterStringifier adds or replaces the conversion for one concrete
// type. Intended for driver-specific types discovered at wiring time;
// not safe to call concurrently with query execution.
func RegisterStringifier(t reflect.Type, fn Stringifier) {
	stringifiers[t] = fn
}

// NormalizeValue passes JSON-native values through untouched and
// stringifies everything else.
func NormalizeValue(value any) any {
	switch value.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return value
	}

	if fn, ok := stringifiers[reflect.TypeOf(value)]; ok {
		converted, ok := fn(value)
		if !ok {
			return Placeholder
		}
		return converted
	}

	return fmt.Sprintf("%v", value)
}
