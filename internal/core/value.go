package core

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind discriminates the Value sum type.
type ValueKind int

const (
	ValueNone ValueKind = iota
	ValueString
	ValueNumber
	ValueBool
	ValueList
	ValueMapping
)

// Value is a dynamically-typed attribute value: string, number, bool,
// list, or mapping. Sample attributes, rendered var_templates, and
// namespace entries are all built out of Value so that template
// rendering and dotted lookup share one representation instead of
// relying on Go struct-field/language-level attribute access.
type Value struct {
	kind    ValueKind
	str     string
	num     float64
	boolean bool
	list    []Value
	mapping map[string]Value
}

func String(s string) Value          { return Value{kind: ValueString, str: s} }
func Number(n float64) Value         { return Value{kind: ValueNumber, num: n} }
func Bool(b bool) Value              { return Value{kind: ValueBool, boolean: b} }
func List(items ...Value) Value      { return Value{kind: ValueList, list: items} }
func Mapping(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: ValueMapping, mapping: m}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNone() bool    { return v.kind == ValueNone }

// AsString renders v the way the template renderer inserts it into output
// text: strings pass through, numbers use Go's shortest round-trip
// formatting, bools render as "true"/"false", and lists are joined with a
// single space. Mappings have no scalar rendering and return an error.
func (v Value) AsString() (string, error) {
	switch v.kind {
	case ValueString:
		return v.str, nil
	case ValueNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64), nil
	case ValueBool:
		return strconv.FormatBool(v.boolean), nil
	case ValueList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			s, err := item.AsString()
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, " "), nil
	case ValueNone:
		return "", fmt.Errorf("value is undefined")
	default:
		return "", fmt.Errorf("mapping value has no scalar rendering")
	}
}

// AsMapping returns the underlying map if v is a mapping, or (nil, false).
func (v Value) AsMapping() (map[string]Value, bool) {
	if v.kind != ValueMapping {
		return nil, false
	}
	return v.mapping, true
}

// AsList returns the underlying slice if v is a list, or (nil, false).
func (v Value) AsList() ([]Value, bool) {
	if v.kind != ValueList {
		return nil, false
	}
	return v.list, true
}

// Get performs a dotted-path lookup ("a.b.c") through nested mappings.
// Returns (zero Value, false) if any segment is missing or the traversal
// hits a non-mapping before the path is exhausted.
func (v Value) Get(path string) (Value, bool) {
	if path == "" {
		return v, true
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.AsMapping()
		if !ok {
			return Value{}, false
		}
		cur, ok = m[seg]
		if !ok {
			return Value{}, false
		}
	}
	return cur, true
}

// Set writes val at the dotted path, creating intermediate mappings as
// needed. If v itself, or any intermediate segment on the path, holds a
// non-mapping value, that value is replaced by a new empty mapping.
func (v *Value) Set(path string, val Value) {
	if v.kind != ValueMapping || v.mapping == nil {
		*v = Mapping(nil)
	}
	segs := strings.Split(path, ".")
	m := v.mapping
	for i, seg := range segs {
		if i == len(segs)-1 {
			m[seg] = val
			return
		}
		next, ok := m[seg]
		if !ok || next.kind != ValueMapping {
			next = Mapping(nil)
			m[seg] = next
		}
		m = next.mapping
	}
}

// Merge returns a new mapping Value with entries of overlay laid onto
// base: keys present in both recurse if both sides are mappings, otherwise
// overlay wins. base and overlay must be mappings (or None, treated as
// empty).
func Merge(base, overlay Value) Value {
	if overlay.IsNone() {
		overlay = Mapping(nil)
	}
	bm, _ := base.AsMapping()
	om, ok := overlay.AsMapping()
	if !ok {
		return overlay
	}
	out := make(map[string]Value, len(bm)+len(om))
	for k, v := range bm {
		out[k] = v
	}
	for k, v := range om {
		if existing, has := out[k]; has {
			if _, eIsMap := existing.AsMapping(); eIsMap {
				if _, vIsMap := v.AsMapping(); vIsMap {
					out[k] = Merge(existing, v)
					continue
				}
			}
		}
		out[k] = v
	}
	return Mapping(out)
}

// FromAny converts a decoded YAML/JSON-shaped Go value (produced by
// yaml.v3's generic unmarshal into `any`) into a Value tree.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Value{kind: ValueNone}
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case float64:
		return Number(t)
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromAny(e)
		}
		return List(items...)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = FromAny(e)
		}
		return Mapping(m)
	case map[any]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[fmt.Sprintf("%v", k)] = FromAny(e)
		}
		return Mapping(m)
	default:
		return String(fmt.Sprintf("%v", t))
	}
}
