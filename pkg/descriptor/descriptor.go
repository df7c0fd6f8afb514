// Package descriptor validates and serializes face descriptors, the fixed-length
// embeddings produced by the browser capture step.
package descriptor

import (
	"bytes"
	"math"

	jsoniter "github.com/json-iterator/go"
)

// Length is the dimensionality every descriptor must have.
const Length = 128

// Descriptor is a decoded face embedding. Values returned by Decode always
// hold exactly Length finite elements.
type Descriptor []float64

var codec = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Decode turns a wire value into a Descriptor. raw may be JSON text (a JSON
// array, or a JSON string that itself holds a JSON array) or an already parsed
// sequence. Failures are always *ValidationError.
func Decode(raw any) (Descriptor, error) {
	var elems []any

	switch v := raw.(type) {
	case nil:
		return nil, missing()
	case Descriptor:
		return checkFloats(v)
	case []float64:
		return checkFloats(v)
	case []float32:
		out := make([]float64, len(v))
		for i, f := range v {
			out[i] = float64(f)
		}
		return checkFloats(out)
	case []any:
		elems = v
	case string:
		parsed, err := parseText([]byte(v))
		if err != nil {
			return nil, err
		}
		elems = parsed
	case []byte:
		parsed, err := parseText(v)
		if err != nil {
			return nil, err
		}
		elems = parsed
	case jsoniter.RawMessage:
		parsed, err := parseText(v)
		if err != nil {
			return nil, err
		}
		elems = parsed
	default:
		return nil, malformed(errNotSequence)
	}

	if len(elems) != Length {
		return nil, wrongDimensionality(len(elems))
	}

	out := make(Descriptor, Length)
	for i, e := range elems {
		f, ok := toFloat(e)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, nonNumeric(i)
		}
		out[i] = f
	}

	return out, nil
}

// Encode serializes d as a JSON array of numbers for storage.
func Encode(d Descriptor) (string, error) {
	if _, err := checkFloats(d); err != nil {
		return "", err
	}

	b, err := codec.Marshal([]float64(d))
	if err != nil {
		return "", malformed(err)
	}
	return string(b), nil
}

// Float32 returns a single precision copy, as needed by vector indexes.
func (d Descriptor) Float32() []float32 {
	out := make([]float32, len(d))
	for i, f := range d {
		out[i] = float32(f)
	}
	return out
}

func parseText(text []byte) ([]any, error) {
	text = bytes.TrimSpace(text)
	if len(text) == 0 || bytes.Equal(text, []byte("null")) {
		return nil, missing()
	}

	// A JSON string wrapping the array, as sent by multipart clients that
	// stringify twice.
	if text[0] == '"' {
		var inner string
		if err := codec.Unmarshal(text, &inner); err != nil {
			return nil, malformed(err)
		}
		return parseText([]byte(inner))
	}

	var parsed any
	if err := codec.Unmarshal(text, &parsed); err != nil {
		return nil, malformed(err)
	}

	elems, ok := parsed.([]any)
	if !ok {
		return nil, malformed(errNotSequence)
	}
	return elems, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func checkFloats(v []float64) (Descriptor, error) {
	if v == nil {
		return nil, missing()
	}
	if len(v) != Length {
		return nil, wrongDimensionality(len(v))
	}
	out := make(Descriptor, Length)
	for i, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, nonNumeric(i)
		}
		out[i] = f
	}
	return out, nil
}
