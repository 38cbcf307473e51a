package normalize

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

type object = map[string]interface{}

// extractor pulls one candidate value for a field out of a raw object
type extractor func(object) (interface{}, bool)

// key reads a top-level field
func key(name string) extractor {
	return func(obj object) (interface{}, bool) {
		v, ok := obj[name]
		return v, ok && v != nil
	}
}

// path reads a nested field, e.g. path("category", "id")
func path(names ...string) extractor {
	return func(obj object) (interface{}, bool) {
		var cur interface{} = obj
		for _, name := range names {
			m, ok := cur.(object)
			if !ok {
				return nil, false
			}
			if cur, ok = m[name]; !ok || cur == nil {
				return nil, false
			}
		}
		return cur, true
	}
}

// scalar reads a top-level field only when it is not an object or list
func scalar(name string) extractor {
	return func(obj object) (interface{}, bool) {
		v, ok := obj[name]
		if !ok || v == nil {
			return nil, false
		}
		switch v.(type) {
		case object, []interface{}:
			return nil, false
		}
		return v, true
	}
}

// first returns the first candidate that is present and non-empty
func first(obj object, candidates []extractor) (interface{}, bool) {
	if obj == nil {
		return nil, false
	}
	for _, candidate := range candidates {
		v, ok := candidate(obj)
		if !ok {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func str(obj object, candidates ...extractor) string {
	v, ok := first(obj, candidates)
	if !ok {
		return ""
	}
	return toString(v)
}

func strOr(obj object, fallback string, candidates ...extractor) string {
	if s := str(obj, candidates...); s != "" {
		return s
	}
	return fallback
}

func num(obj object, candidates ...extractor) float64 {
	v, ok := first(obj, candidates)
	if !ok {
		return 0
	}
	f, err := cast.ToFloat64E(toString(v))
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func integer(obj object, candidates ...extractor) int {
	return int(math.Trunc(num(obj, candidates...)))
}

// optionalID resolves a positive numeric identifier or nil
func optionalID(obj object, candidates ...extractor) *int64 {
	v, ok := first(obj, candidates)
	if !ok {
		return nil
	}
	id, ok := toID(v)
	if !ok {
		return nil
	}
	return &id
}

func requiredID(obj object, candidates ...extractor) (int64, bool) {
	id := optionalID(obj, candidates...)
	if id == nil {
		return 0, false
	}
	return *id, true
}

func toID(v interface{}) (int64, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return positive(n)
		}
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		return positive(n)
	case float64:
		f = t
	default:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return 0, false
		}
		return positive(n)
	}

	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return positive(int64(f))
}

func positive(n int64) (int64, bool) {
	return n, n > 0
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case object, []interface{}:
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// decode parses a JSON document keeping numbers as json.Number
func decode(raw []byte) interface{} {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// listOf accepts a bare list or an envelope carrying the list under data or items
func listOf(raw []byte) []interface{} {
	switch v := decode(raw).(type) {
	case []interface{}:
		return v
	case object:
		for _, name := range []string{"data", "items"} {
			switch inner := v[name].(type) {
			case []interface{}:
				return inner
			case object:
				if items, ok := inner["items"].([]interface{}); ok {
					return items
				}
			}
		}
	}
	return nil
}

// objectOf accepts a bare object or an envelope carrying it under data
func objectOf(raw []byte) object {
	obj, ok := decode(raw).(object)
	if !ok {
		return nil
	}
	if inner, ok := obj["data"].(object); ok {
		return inner
	}
	return obj
}

func objects(list []interface{}) []object {
	out := make([]object, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(object); ok {
			out = append(out, obj)
		}
	}
	return out
}
