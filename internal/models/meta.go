// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package models

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// Well-known Meta keys populated by adapters. Adapters may add keys beyond
// these; filters and detail assembly only ever read the documented ones.
const (
	MetaSubreddit   = "subreddit"   // reddit: subreddit the item came from
	MetaChannelName = "channelName" // youtube: channel display name
	MetaSourceName  = "sourceName"  // generic sub-source label (feed title, album name)
	MetaQueryName   = "queryName"   // named query that produced the item
	MetaEventKind   = "eventKind"   // journal/tasks: entry kind
	MetaAuthor      = "author"      // item author or poster
	MetaBridgeOK    = "bridgeExists"
	MetaBridgeCount = "bridgeCommentCount"
)

// MetaKind discriminates the variants a MetaValue can hold.
type MetaKind uint8

const (
	MetaKindString MetaKind = iota
	MetaKindInt
	MetaKindFloat
	MetaKindBool
	MetaKindList
)

// MetaValue is a small tagged variant: string, int, float, bool, or a list
// of MetaValue. It replaces the untyped metadata maps of the source system
// so adapters document exactly what they populate.
//
// JSON encoding is the bare scalar (or array), not an envelope, so clients
// see {"subreddit": "worldnews", "score": 4211}.
type MetaValue struct {
	kind MetaKind
	str  string
	num  int64
	flt  float64
	b    bool
	list []MetaValue
}

// Meta is the opaque per-item metadata mapping carried on FeedItems.
type Meta map[string]MetaValue

// MetaString wraps a string value.
func MetaString(s string) MetaValue { return MetaValue{kind: MetaKindString, str: s} }

// MetaInt wraps an integer value.
func MetaInt(n int64) MetaValue { return MetaValue{kind: MetaKindInt, num: n} }

// MetaFloat wraps a float value.
func MetaFloat(f float64) MetaValue { return MetaValue{kind: MetaKindFloat, flt: f} }

// MetaBool wraps a boolean value.
func MetaBool(v bool) MetaValue { return MetaValue{kind: MetaKindBool, b: v} }

// MetaList wraps a list of values.
func MetaList(vs ...MetaValue) MetaValue { return MetaValue{kind: MetaKindList, list: vs} }

// Kind reports the variant held by the value.
func (v MetaValue) Kind() MetaKind { return v.kind }

// String returns the value coerced to a string. Numeric and boolean values
// format naturally; lists return the empty string.
func (v MetaValue) String() string {
	switch v.kind {
	case MetaKindString:
		return v.str
	case MetaKindInt:
		return strconv.FormatInt(v.num, 10)
	case MetaKindFloat:
		return strconv.FormatFloat(v.flt, 'f', -1, 64)
	case MetaKindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Int returns the integer value, truncating floats. Zero for other kinds.
func (v MetaValue) Int() int64 {
	switch v.kind {
	case MetaKindInt:
		return v.num
	case MetaKindFloat:
		return int64(v.flt)
	default:
		return 0
	}
}

// Float returns the float value. Zero for non-numeric kinds.
func (v MetaValue) Float() float64 {
	switch v.kind {
	case MetaKindFloat:
		return v.flt
	case MetaKindInt:
		return float64(v.num)
	default:
		return 0
	}
}

// Bool returns the boolean value, false for other kinds.
func (v MetaValue) Bool() bool { return v.kind == MetaKindBool && v.b }

// List returns the list value, nil for scalar kinds.
func (v MetaValue) List() []MetaValue {
	if v.kind != MetaKindList {
		return nil
	}
	return v.list
}

// MarshalJSON encodes the bare scalar or array.
func (v MetaValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case MetaKindString:
		return json.Marshal(v.str)
	case MetaKindInt:
		return json.Marshal(v.num)
	case MetaKindFloat:
		return json.Marshal(v.flt)
	case MetaKindBool:
		return json.Marshal(v.b)
	case MetaKindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts any scalar or array and tags it with the matching
// kind. Integral JSON numbers decode as int, fractional ones as float.
func (v *MetaValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := metaFromInterface(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func metaFromInterface(raw interface{}) (MetaValue, error) {
	switch t := raw.(type) {
	case nil:
		return MetaString(""), nil
	case string:
		return MetaString(t), nil
	case bool:
		return MetaBool(t), nil
	case float64:
		if t == float64(int64(t)) {
			return MetaInt(int64(t)), nil
		}
		return MetaFloat(t), nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return MetaInt(n), nil
		}
		f, err := t.Float64()
		if err != nil {
			return MetaValue{}, err
		}
		return MetaFloat(f), nil
	case []interface{}:
		list := make([]MetaValue, 0, len(t))
		for _, el := range t {
			mv, err := metaFromInterface(el)
			if err != nil {
				return MetaValue{}, err
			}
			list = append(list, mv)
		}
		return MetaList(list...), nil
	default:
		return MetaValue{}, fmt.Errorf("meta value: unsupported type %T", raw)
	}
}

// Get returns the value for key and whether it was present.
func (m Meta) Get(key string) (MetaValue, bool) {
	v, ok := m[key]
	return v, ok
}

// GetString returns the string form of the value at key, or "" if absent.
func (m Meta) GetString(key string) string {
	if v, ok := m[key]; ok {
		return v.String()
	}
	return ""
}

// Clone returns a shallow copy safe for independent mutation of the map.
func (m Meta) Clone() Meta {
	if m == nil {
		return nil
	}
	out := make(Meta, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
