package feed

import (
	"strconv"
	"strings"
	"time"
)

// Record is a raw provider payload of unknown shape. Field resolution walks
// a fixed ordered list of candidate paths and takes the first present and
// truthy value, so per-provider quirks stay in reviewable key lists instead
// of inline conditionals.
type Record map[string]any

// Lookup resolves a dotted path into the record. Numeric segments index
// into arrays, so "video_versions.0.url" reaches the first entry's url.
func (r Record) Lookup(path string) (any, bool) {
	var cur any = map[string]any(r)
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case Record:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Str returns the first candidate path resolving to a non-empty string
func (r Record) Str(paths ...string) string {
	for _, p := range paths {
		v, ok := r.Lookup(p)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Int returns the first candidate path resolving to a non-zero integer
func (r Record) Int(paths ...string) int64 {
	for _, p := range paths {
		v, ok := r.Lookup(p)
		if !ok {
			continue
		}
		if n, ok := asInt(v); ok && n != 0 {
			return n
		}
	}
	return 0
}

// Bool returns true when any candidate path resolves to a truthy value:
// a true bool, a non-zero number, the string "true", or a non-empty
// object/array (providers flag carousels by populating a children list)
func (r Record) Bool(paths ...string) bool {
	for _, p := range paths {
		v, ok := r.Lookup(p)
		if !ok {
			continue
		}
		switch b := v.(type) {
		case bool:
			if b {
				return true
			}
		case string:
			if strings.EqualFold(b, "true") {
				return true
			}
		case float64:
			if b != 0 {
				return true
			}
		case map[string]any:
			if len(b) > 0 {
				return true
			}
		case []any:
			if len(b) > 0 {
				return true
			}
		}
	}
	return false
}

// Time returns the first candidate path resolving to a usable timestamp,
// normalized to UTC. Numeric values are epoch seconds, or epoch millis when
// they exceed 1e12. String values are tried against common ISO-8601 layouts
// with naive forms assumed UTC. ok is false when no candidate resolves.
func (r Record) Time(paths ...string) (time.Time, bool) {
	for _, p := range paths {
		v, ok := r.Lookup(p)
		if !ok {
			continue
		}
		if t, ok := asTime(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// DurationSec returns the first candidate path resolving to a positive
// duration in seconds. Values over 600 whose decimal form ends in "000" are
// treated as milliseconds and divided by 1000 (heuristic unit correction,
// upstream carries no unit tag). known is false when nothing resolves.
func (r Record) DurationSec(paths ...string) (sec int64, known bool) {
	for _, p := range paths {
		v, ok := r.Lookup(p)
		if !ok {
			continue
		}
		n, ok := asInt(v)
		if !ok || n <= 0 {
			continue
		}
		if n > 600 && strings.HasSuffix(strconv.FormatInt(n, 10), "000") {
			n /= 1000
		}
		return n, true
	}
	return 0, false
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

// isoLayouts covers the timestamp shapes seen across providers. Naive
// layouts (no zone) are parsed as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func asTime(v any) (time.Time, bool) {
	switch ts := v.(type) {
	case float64:
		return epochToUTC(int64(ts))
	case int64:
		return epochToUTC(ts)
	case int:
		return epochToUTC(int64(ts))
	case string:
		s := strings.TrimSpace(ts)
		if s == "" {
			return time.Time{}, false
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return epochToUTC(n)
		}
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func epochToUTC(n int64) (time.Time, bool) {
	if n <= 0 {
		return time.Time{}, false
	}
	if n > 1_000_000_000_000 { // epoch millis
		n /= 1000
	}
	return time.Unix(n, 0).UTC(), true
}
