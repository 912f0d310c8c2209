package store

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Row is one record as returned by the backend.
type Row map[string]any

func (r Row) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

func (r Row) String(key string) string {
	return cast.ToString(r[key])
}

func (r Row) Int(key string) int {
	return cast.ToInt(r[key])
}

func (r Row) Float(key string) float64 {
	return cast.ToFloat64(r[key])
}

func (r Row) Bool(key string) bool {
	return cast.ToBool(r[key])
}

// Strings accepts a native slice or a comma separated string.
func (r Row) Strings(key string) []string {
	switch v := r[key].(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return splitCSV(v)
	default:
		return cast.ToStringSlice(v)
	}
}

// Time understands time.Time, values exposing Time() (PocketBase DateTime)
// and the string layouts the backends emit.
func (r Row) Time(key string) time.Time {
	switch v := r[key].(type) {
	case nil:
		return time.Time{}
	case time.Time:
		return v
	case interface{ Time() time.Time }:
		return v.Time()
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.000Z", "2006-01-02 15:04:05Z07:00"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
		return time.Time{}
	default:
		t, _ := cast.ToTimeE(v)
		return t
	}
}

// Clone returns a shallow copy.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// AsRow accepts a Row or a plain map.
func AsRow(v any) Row {
	switch m := v.(type) {
	case Row:
		return m
	case map[string]any:
		return Row(m)
	}
	return nil
}
