package frontmatter

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the supported front matter value types.
type Kind string

const (
	KindString Kind = "string"
	KindBool   Kind = "bool"
	KindDate   Kind = "date"
	KindList   Kind = "list"
)

// ErrUnsupportedValue indicates a front matter value outside the fixed schema
// (nested mappings, mixed lists, or a well-known key with the wrong type).
// Decoding fails closed rather than guessing.
var ErrUnsupportedValue = errors.New("unsupported front matter value")

// Value is a tagged variant: exactly one of the payload fields is meaningful,
// selected by Kind.
type Value struct {
	Kind Kind
	Str  string
	Bool bool
	Time time.Time
	List []string
}

func StringValue(s string) Value      { return Value{Kind: KindString, Str: s} }
func BoolValue(b bool) Value          { return Value{Kind: KindBool, Bool: b} }
func DateValue(t time.Time) Value     { return Value{Kind: KindDate, Time: t} }
func ListValue(items ...string) Value { return Value{Kind: KindList, List: items} }

// String renders the value for reports and logs.
func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindDate:
		return formatDate(v.Time)
	case KindList:
		return strings.Join(v.List, ", ")
	default:
		return v.Str
	}
}

// Equal reports semantic equality (kind and payload).
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindBool:
		return v.Bool == other.Bool
	case KindDate:
		return v.Time.Equal(other.Time)
	case KindList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if v.List[i] != other.List[i] {
				return false
			}
		}
		return true
	default:
		return v.Str == other.Str
	}
}

// Metadata is the decoded front matter mapping of one content unit.
type Metadata map[string]Value

// Well-known keys with enforced types.
const (
	KeyTitle     = "title"
	KeyLayout    = "layout"
	KeyPermalink = "permalink"
	KeyDate      = "date"
	KeyDraft     = "draft"
	KeyTags      = "tags"
)

// DecodeYAML decodes a raw front matter block (without delimiters) into
// typed Metadata.
func DecodeYAML(raw []byte) (Metadata, error) {
	if len(raw) == 0 {
		return Metadata{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return Decode(fields)
}

// Decode converts a loosely typed mapping into typed Metadata, enforcing the
// fixed schema. Unknown keys are accepted when their shape fits one of the
// four kinds; anything else fails closed with ErrUnsupportedValue.
func Decode(fields map[string]any) (Metadata, error) {
	meta := make(Metadata, len(fields))
	for key, v := range fields {
		val, err := decodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		val, err = enforceWellKnown(key, val)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		meta[key] = val
	}
	return meta, nil
}

func decodeValue(v any) (Value, error) {
	switch vv := v.(type) {
	case nil:
		// Bare `key:` placeholders are common; treat as empty string.
		return StringValue(""), nil
	case string:
		return StringValue(vv), nil
	case bool:
		return BoolValue(vv), nil
	case time.Time:
		return DateValue(vv), nil
	case int:
		return StringValue(strconv.Itoa(vv)), nil
	case int64:
		return StringValue(strconv.FormatInt(vv, 10)), nil
	case uint64:
		return StringValue(strconv.FormatUint(vv, 10)), nil
	case float64:
		return StringValue(strconv.FormatFloat(vv, 'g', -1, 64)), nil
	case []any:
		items := make([]string, 0, len(vv))
		for _, item := range vv {
			s, ok := scalarString(item)
			if !ok {
				return Value{}, fmt.Errorf("%w: list with non-string element", ErrUnsupportedValue)
			}
			items = append(items, s)
		}
		return ListValue(items...), nil
	case []string:
		return ListValue(vv...), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func scalarString(v any) (string, bool) {
	switch vv := v.(type) {
	case string:
		return vv, true
	case int:
		return strconv.Itoa(vv), true
	case int64:
		return strconv.FormatInt(vv, 10), true
	case uint64:
		return strconv.FormatUint(vv, 10), true
	case float64:
		return strconv.FormatFloat(vv, 'g', -1, 64), true
	default:
		return "", false
	}
}

// enforceWellKnown coerces or rejects values for the schema's fixed keys.
func enforceWellKnown(key string, val Value) (Value, error) {
	switch key {
	case KeyTitle, KeyLayout, KeyPermalink:
		if val.Kind != KindString {
			return Value{}, fmt.Errorf("%w: expected string, got %s", ErrUnsupportedValue, val.Kind)
		}
	case KeyDate:
		switch val.Kind {
		case KindDate:
		case KindString:
			t, err := parseDate(val.Str)
			if err != nil {
				return Value{}, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
			}
			return DateValue(t), nil
		default:
			return Value{}, fmt.Errorf("%w: expected date, got %s", ErrUnsupportedValue, val.Kind)
		}
	case KeyDraft:
		if val.Kind != KindBool {
			return Value{}, fmt.Errorf("%w: expected bool, got %s", ErrUnsupportedValue, val.Kind)
		}
	case KeyTags:
		switch val.Kind {
		case KindList:
		case KindString:
			// Single-tag shorthand.
			return ListValue(val.Str), nil
		default:
			return Value{}, fmt.Errorf("%w: expected list, got %s", ErrUnsupportedValue, val.Kind)
		}
	}
	return val, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

// Convenience accessors used throughout the pipeline.

func (m Metadata) GetString(key string) (string, bool) {
	v, ok := m[key]
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

func (m Metadata) Permalink() (string, bool) { return m.GetString(KeyPermalink) }
func (m Metadata) Layout() (string, bool)    { return m.GetString(KeyLayout) }
func (m Metadata) Title() (string, bool)     { return m.GetString(KeyTitle) }

func (m Metadata) Draft() bool {
	v, ok := m[KeyDraft]
	return ok && v.Kind == KindBool && v.Bool
}

func (m Metadata) Date() (time.Time, bool) {
	v, ok := m[KeyDate]
	if !ok || v.Kind != KindDate {
		return time.Time{}, false
	}
	return v.Time, true
}

func (m Metadata) Tags() []string {
	v, ok := m[KeyTags]
	if !ok || v.Kind != KindList {
		return nil
	}
	out := make([]string, len(v.List))
	copy(out, v.List)
	return out
}

// Merged returns a copy of defaults overlaid with m. The unit's own values
// always win over layout defaults.
func (m Metadata) Merged(defaults Metadata) Metadata {
	out := make(Metadata, len(defaults)+len(m))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Keys returns the metadata keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether two metadata mappings are semantically equivalent.
func (m Metadata) Equal(other Metadata) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
