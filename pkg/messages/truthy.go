package messages

import (
	"math"
	"reflect"
)

// Collection lets callers expose flag sources that are not plain maps (form
// controllers, validation results) to the selection engine.
type Collection interface {
	Lookup(key string) (any, bool)
}

// IsCollection reports whether flags is an associative snapshot the engine
// can read keys from. Anything else is treated as "no flag is set".
func IsCollection(flags any) bool {
	switch flags.(type) {
	case nil:
		return false
	case map[string]any, map[string]bool, Collection:
		return true
	}
	rv, ok := indirect(reflect.ValueOf(flags))
	if !ok {
		return false
	}
	return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
}

// Lookup reads key from a flag snapshot. It returns false when the key is
// absent or the snapshot is not associative.
func Lookup(flags any, key string) (any, bool) {
	switch typed := flags.(type) {
	case nil:
		return nil, false
	case map[string]any:
		value, ok := typed[key]
		return value, ok
	case map[string]bool:
		value, ok := typed[key]
		return value, ok
	case Collection:
		return typed.Lookup(key)
	}

	rv, ok := indirect(reflect.ValueOf(flags))
	if !ok || rv.Kind() != reflect.Map {
		return nil, false
	}
	keyType := rv.Type().Key()
	if keyType.Kind() != reflect.String {
		return nil, false
	}
	value := rv.MapIndex(reflect.ValueOf(key).Convert(keyType))
	if !value.IsValid() {
		return nil, false
	}
	return value.Interface(), true
}

// Truthy applies generic truthy coercion: nil, false, numeric zero (NaN
// included) and "" are falsy. Pointers and interfaces are followed; a nil
// pointer is falsy. Every other value is truthy, including empty maps,
// slices and structs.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0 && !math.IsNaN(v)
	case map[string]any, []any:
		return true
	}

	rv, ok := indirect(reflect.ValueOf(value))
	if !ok {
		return false
	}
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Complex64, reflect.Complex128:
		return rv.Complex() != 0
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return !rv.IsNil()
	default:
		return true
	}
}

// indirect follows pointers and interfaces. It reports false when it hits a
// nil along the way.
func indirect(rv reflect.Value) (reflect.Value, bool) {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}
