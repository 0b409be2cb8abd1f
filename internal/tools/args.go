package tools

import (
	"encoding/json"
	"math"
)

// Args holds the arguments of a call after validation and defaulting.
// Accessors assume validation already happened: a missing key yields the
// zero value.
type Args map[string]any

// String returns the string argument key.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Int returns the integer argument key. JSON numbers arrive as float64.
func (a Args) Int(key string) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(math.Round(v))
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}

// Has reports whether key is present.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// enumArg converts a schema-validated string argument into its variant type.
func enumArg[T ~string](a Args, key string) T {
	return T(a.String(key))
}
