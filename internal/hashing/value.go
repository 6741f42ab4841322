// Package hashing provides deterministic canonicalization and content
// hashing for the JSON-like values that flow through the planner: input
// payloads, artefact outputs, and id sets. Every hash in the system is
// derived from the canonical encoding defined here so that two equal
// values always hash identically, regardless of key order, host, or
// encoding round-trip.
package hashing

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Value is a tagged sum over the JSON data model. Producers and the
// blueprint loader decode external payloads into Value before handing them
// to the planner, so that canonicalization never depends on a specific
// decoder's intermediate representation (map[string]any, json.Number, ...).
type Value struct {
	kind    valueKind
	boolean bool
	number  float64
	text    string
	array   []Value
	object  map[string]Value
}

type valueKind int

const (
	kindNull valueKind = iota
	kindBool
	kindNumber
	kindString
	kindArray
	kindObject
)

// Null returns the Value representing JSON null.
func Null() Value { return Value{kind: kindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: kindBool, boolean: b} }

// Number wraps a float64. NaN and +/-Inf are representable and are encoded
// as their quoted symbolic names by Canonicalize, matching the behavior
// required of hash_payload.
func Number(n float64) Value { return Value{kind: kindNumber, number: n} }

// String wraps a UTF-8 string.
func String(s string) Value { return Value{kind: kindString, text: s} }

// Array wraps a positional sequence of values.
func Array(vs ...Value) Value { return Value{kind: kindArray, array: vs} }

// Object wraps a string-keyed map. Key order is insignificant: Canonicalize
// always emits keys sorted lexicographically.
func Object(m map[string]Value) Value { return Value{kind: kindObject, object: m} }

// FromAny converts a generic Go value (as produced by encoding/json,
// gopkg.in/yaml.v3, or the BurntSushi/toml decoder) into a Value. It accepts
// map[string]any, []any, string, bool, nil, and the numeric types float64,
// float32, int, int32, int64 and uint64; any other type is an error.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			cv, err := FromAny(e)
			if err != nil {
				return Value{}, fmt.Errorf("array[%d]: %w", i, err)
			}
			out[i] = cv
		}
		return Array(out...), nil
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			cv, err := FromAny(e)
			if err != nil {
				return Value{}, fmt.Errorf("object[%q]: %w", k, err)
			}
			out[k] = cv
		}
		return Object(out), nil
	default:
		return Value{}, fmt.Errorf("hashing: unsupported value type %T", v)
	}
}

// Canonicalize produces the deterministic serialization described by
// spec §4.A: objects as sorted-key JSON, numbers as shortest round-trip
// decimal (special values quoted by name), arrays positional, strings
// UTF-8, booleans/null literal.
func Canonicalize(v Value) string {
	var buf []byte
	buf = appendCanonical(buf, v)
	return string(buf)
}

func appendCanonical(buf []byte, v Value) []byte {
	switch v.kind {
	case kindNull:
		return append(buf, "null"...)
	case kindBool:
		if v.boolean {
			return append(buf, "true"...)
		}
		return append(buf, "false"...)
	case kindNumber:
		return appendCanonicalNumber(buf, v.number)
	case kindString:
		return appendCanonicalString(buf, v.text)
	case kindArray:
		buf = append(buf, '[')
		for i, e := range v.array {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendCanonical(buf, e)
		}
		return append(buf, ']')
	case kindObject:
		keys := make([]string, 0, len(v.object))
		for k := range v.object {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf = append(buf, '{')
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendCanonicalString(buf, k)
			buf = append(buf, ':')
			buf = appendCanonical(buf, v.object[k])
		}
		return append(buf, '}')
	default:
		return buf
	}
}

// appendCanonicalNumber encodes numbers using the shortest round-trip
// decimal representation. NaN and +/-Infinity, which JSON cannot represent,
// are encoded as quoted symbolic names so the canonical form stays total
// over float64's domain.
func appendCanonicalNumber(buf []byte, n float64) []byte {
	switch {
	case math.IsNaN(n):
		return append(buf, `"NaN"`...)
	case math.IsInf(n, 1):
		return append(buf, `"Infinity"`...)
	case math.IsInf(n, -1):
		return append(buf, `"-Infinity"`...)
	}
	// 1 and 1.0 must hash identically: strconv's 'g' format already collapses
	// integral floats to their shortest form ("1" rather than "1.0").
	return strconv.AppendFloat(buf, n, 'g', -1, 64)
}

func appendCanonicalString(buf []byte, s string) []byte {
	out, _ := stringMarshal(s)
	return append(buf, out...)
}
