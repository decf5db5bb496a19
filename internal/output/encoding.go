package output

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// RoundFloat clamps a float to at most 6 decimal places.
func RoundFloat(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}

// FormatFloat renders a rounded float without trailing zeros.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(RoundFloat(f), 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// DeterministicEncode marshals v so equal inputs give byte-equal JSON:
// map keys sorted, floats clamped to 6 decimals, nil fields dropped.
// Empty non-nil slices encode as [] so array-valued fields stay visible.
func DeterministicEncode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalize(reflect.ValueOf(v))); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DeterministicEncodeIndented is DeterministicEncode with indentation.
func DeterministicEncodeIndented(v interface{}, indent string) ([]byte, error) {
	return json.MarshalIndent(normalize(reflect.ValueOf(v)), "", indent)
}

// normalize rewrites rv into maps, slices, and rounded scalars that
// encoding/json renders deterministically. Values with their own JSON
// form (time.Time and friends) keep it; decomposing them into fields
// would lose the representation.
func normalize(rv reflect.Value) interface{} {
	if !rv.IsValid() {
		return nil
	}
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if m, ok := rv.Interface().(json.Marshaler); ok {
		return m
	}
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return RoundFloat(rv.Float())
	case reflect.Map:
		return normalizeMap(rv)
	case reflect.Slice, reflect.Array:
		return normalizeSlice(rv)
	case reflect.Struct:
		return normalizeStruct(rv)
	}
	return rv.Interface()
}

// normalizeMap drops nil-valued entries; key sorting happens in
// encoding/json, which marshals string-keyed maps in key order.
func normalizeMap(rv reflect.Value) interface{} {
	out := make(map[string]interface{}, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		if v := normalize(iter.Value()); v != nil {
			out[iter.Key().String()] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// normalizeSlice normalizes elements in place order. Nil slices
// normalize to nil and get omitted; empty non-nil slices stay [].
func normalizeSlice(rv reflect.Value) interface{} {
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = normalize(rv.Index(i))
	}
	return out
}

// normalizeStruct flattens a struct into a map, honoring json tags and
// omitempty the way encoding/json would.
func normalizeStruct(rv reflect.Value) interface{} {
	out := make(map[string]interface{})
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, omitEmpty := fieldName(f)
		if name == "" {
			continue
		}
		v := normalize(rv.Field(i))
		if v == nil || (omitEmpty && isEmpty(v)) {
			continue
		}
		out[name] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// fieldName resolves a field's encoded name and omitempty flag from its
// json tag. An empty name means the field is skipped.
func fieldName(f reflect.StructField) (name string, omitEmpty bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name, strings.Contains(","+opts+",", ",omitempty,")
}

// isEmpty reports whether a normalized value counts as empty for
// omitempty purposes.
func isEmpty(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return !val
	case string:
		return val == ""
	case float64:
		return val == 0
	case time.Time:
		return val.IsZero()
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	}
	return false
}
