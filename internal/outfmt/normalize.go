package outfmt

import (
	"encoding/json"
	"reflect"
)

// normalizeJSONOutput wraps top-level slices in {"items": ...} so list
// output always has a stable object shape for jq queries. A nil slice
// becomes an empty list instead of null. Scalars, structs, raw JSON,
// and byte slices pass through untouched.
func normalizeJSONOutput(v any) any {
	if v == nil {
		return v
	}
	switch v.(type) {
	case []byte, json.RawMessage:
		return v
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return v
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		if rv.IsNil() {
			return map[string]any{"items": []any{}}
		}
		return map[string]any{"items": rv.Interface()}
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		return map[string]any{"items": rv.Interface()}
	default:
		return v
	}
}
