package atomq

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// hashKey serializes a query or mutation key into a stable string used as
// the cache identity of an observer. Maps are serialized with sorted keys
// so logically equal keys always hash equally regardless of insertion
// order. The result is only compared, never parsed.
func hashKey(key []any) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, part := range key {
		if i > 0 {
			sb.WriteByte(',')
		}
		stableEncode(&sb, part)
	}
	sb.WriteByte(']')
	return sb.String()
}

func stableEncode(sb *strings.Builder, v any) {
	if v == nil {
		sb.WriteString("null")
		return
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		vals := make(map[string]reflect.Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, k)
			vals[k] = iter.Value()
		}
		sort.Strings(keys)

		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			encodeJSON(sb, k)
			sb.WriteByte(':')
			stableEncode(sb, vals[k].Interface())
		}
		sb.WriteByte('}')

	case reflect.Slice, reflect.Array:
		sb.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				sb.WriteByte(',')
			}
			stableEncode(sb, rv.Index(i).Interface())
		}
		sb.WriteByte(']')

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			sb.WriteString("null")
			return
		}
		stableEncode(sb, rv.Elem().Interface())

	default:
		// Scalars and structs; struct field order is stable in Go.
		encodeJSON(sb, v)
	}
}

func encodeJSON(sb *strings.Builder, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		// Unmarshalable key parts (funcs, channels) still need a stable
		// identity; fall back to the type name and formatted value.
		fmt.Fprintf(sb, "%q", fmt.Sprintf("%T(%v)", v, v))
		return
	}
	sb.Write(data)
}
