package values

import (
	"fmt"
	"strings"
)

// dictEntry keeps the original key Value alongside its mapped Value so
// iteration/repr can render the key faithfully even though the map
// itself is keyed by a normalized, hashable Go representation.
type dictEntry struct {
	key   *Value
	value *Value
}

// DictData is the Dict variant's payload: a mapping keyed by any
// hashable Value (int, float, bool, str, tuple-of-hashables). Go's
// native map is already collision-free for comparable keys, so keys
// are normalized into a single comparable representation before use —
// giving full collision handling "for free" rather than reimplementing
// open addressing.
type DictData struct {
	entries map[interface{}]*dictEntry
}

func Dict() *Value {
	return &Value{Type: TypeDict, Data: &DictData{entries: make(map[interface{}]*dictEntry)}}
}

// dictKey normalizes a hashable Value into a comparable Go key. Numeric
// equivalence (1 == 1.0 == True) is preserved by routing every integral
// numeric value, float or not, through the same int64 key when it has
// no fractional part.
func dictKey(v *Value) (interface{}, error) {
	switch v.Type {
	case TypeBool:
		if v.Data.(bool) {
			return int64(1), nil
		}
		return int64(0), nil
	case TypeInt:
		return v.Data.(int64), nil
	case TypeFloat:
		f := v.Data.(float64)
		if i := int64(f); float64(i) == f {
			return i, nil
		}
		return f, nil
	case TypeStr:
		return "s:" + string(v.Data.(*StrData).Bytes), nil
	case TypeUStr:
		return "u:" + string(v.Data.(*UStrData).Runes), nil
	case TypeNone:
		return nil, nil
	case TypeTuple:
		items := v.Data.(*ListData).Items
		parts := make([]interface{}, len(items))
		for i, it := range items {
			k, err := dictKey(it)
			if err != nil {
				return nil, err
			}
			parts[i] = k
		}
		return fmt.Sprintf("%#v", parts), nil
	default:
		return nil, fmt.Errorf("unhashable type: %q", v.TypeName())
	}
}

func (d *DictData) Get(key *Value) (*Value, bool) {
	k, err := dictKey(key)
	if err != nil {
		return nil, false
	}
	e, ok := d.entries[k]
	if !ok {
		return nil, false
	}
	return e.value, true
}

func (d *DictData) Set(key, value *Value) error {
	k, err := dictKey(key)
	if err != nil {
		return err
	}
	d.entries[k] = &dictEntry{key: key, value: value}
	return nil
}

func (d *DictData) Delete(key *Value) bool {
	k, err := dictKey(key)
	if err != nil {
		return false
	}
	if _, ok := d.entries[k]; !ok {
		return false
	}
	delete(d.entries, k)
	return true
}

func (d *DictData) Len() int { return len(d.entries) }

// Each calls visit for every entry in unspecified order, matching
// CPython 2.7 `dict`'s own lack of an ordering guarantee.
func (d *DictData) Each(visit func(key, value *Value) bool) {
	for _, e := range d.entries {
		if !visit(e.key, e.value) {
			return
		}
	}
}

func (v *Value) reprDict() string {
	var parts []string
	switch v.Type {
	case TypeDict:
		v.Data.(*DictData).Each(func(k, val *Value) bool {
			parts = append(parts, reprOf(k)+": "+reprOf(val))
			return true
		})
	case TypeStrDict:
		v.Data.(*StrDictData).Each(func(k string, val *Value) bool {
			parts = append(parts, fmt.Sprintf("%q: %s", k, reprOf(val)))
			return true
		})
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// StrDictData is the StrDict variant's payload: a string-keyed mapping
// used for a module's, class's, or instance's attribute table. Insertion
// order is not preserved (matching CPython 2.7 dict's own lack of
// ordering), so a plain Go map is a faithful, not merely convenient,
// implementation.
type StrDictData struct {
	m map[string]*Value
}

func StrDict() *Value {
	return &Value{Type: TypeStrDict, Data: &StrDictData{m: make(map[string]*Value)}}
}

func (d *StrDictData) Get(key string) (*Value, bool) {
	v, ok := d.m[key]
	return v, ok
}

func (d *StrDictData) Set(key string, value *Value) {
	d.m[key] = value
}

func (d *StrDictData) Delete(key string) bool {
	if _, ok := d.m[key]; !ok {
		return false
	}
	delete(d.m, key)
	return true
}

func (d *StrDictData) Len() int { return len(d.m) }

func (d *StrDictData) Each(visit func(key string, value *Value) bool) {
	for k, val := range d.m {
		if !visit(k, val) {
			return
		}
	}
}
