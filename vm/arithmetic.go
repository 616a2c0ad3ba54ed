package vm

import (
	"github.com/wudi/pyvm/opcodes"
	perr "github.com/wudi/pyvm/errors"
	"github.com/wudi/pyvm/values"
)

func (vm *VM) binOp(f *Frame, op func(a, b *values.Value) (*values.Value, error)) error {
	b := f.pop()
	a := f.pop()
	v, err := op(a, b)
	if err != nil {
		return err
	}
	f.push(v)
	return nil
}

func (vm *VM) compareOp(f *Frame, cmp opcodes.CompareOperator) error {
	b := f.pop()
	a := f.pop()
	switch cmp {
	case opcodes.CmpEq:
		f.push(values.Bool(values.Equal(a, b)))
		return nil
	case opcodes.CmpNe:
		f.push(values.Bool(!values.Equal(a, b)))
		return nil
	case opcodes.CmpIs:
		f.push(values.Bool(values.Identical(a, b)))
		return nil
	case opcodes.CmpIsNot:
		f.push(values.Bool(!values.Identical(a, b)))
		return nil
	case opcodes.CmpIn, opcodes.CmpNotIn:
		found, err := vm.contains(b, a)
		if err != nil {
			return err
		}
		if cmp == opcodes.CmpNotIn {
			found = !found
		}
		f.push(values.Bool(found))
		return nil
	case opcodes.CmpException:
		f.push(values.Bool(vm.excMatches(a, b)))
		return nil
	}

	c, err := values.Compare(a, b)
	if err != nil {
		return err
	}
	var result bool
	switch cmp {
	case opcodes.CmpLt:
		result = c < 0
	case opcodes.CmpLe:
		result = c <= 0
	case opcodes.CmpGt:
		result = c > 0
	case opcodes.CmpGe:
		result = c >= 0
	default:
		return perr.Opcode("unsupported COMPARE_OP argument %d", cmp)
	}
	f.push(values.Bool(result))
	return nil
}

// contains implements `in`/`not in` for the container types this
// interpreter supports.
func (vm *VM) contains(container, item *values.Value) (bool, error) {
	switch container.Type {
	case values.TypeList, values.TypeTuple:
		for _, it := range container.Data.(*values.ListData).Items {
			if values.Equal(it, item) {
				return true, nil
			}
		}
		return false, nil
	case values.TypeDict:
		_, ok := container.Data.(*values.DictData).Get(item)
		return ok, nil
	case values.TypeStrDict:
		s, err := asStringKey(item)
		if err != nil {
			return false, err
		}
		_, ok := container.Data.(*values.StrDictData).Get(s)
		return ok, nil
	case values.TypeStr:
		if item.Type != values.TypeStr {
			return false, perr.Type("'in <string>' requires string as left operand")
		}
		return containsBytes(container.Data.(*values.StrData).Bytes, item.Data.(*values.StrData).Bytes), nil
	default:
		return false, perr.Type("argument of type %q is not iterable", container.TypeName())
	}
}

func asStringKey(v *values.Value) (string, error) {
	if v.Type != values.TypeStr && v.Type != values.TypeUStr {
		return "", perr.Type("expected a string key, got %q", v.TypeName())
	}
	return v.ToStr(), nil
}

func containsBytes(haystack, needle []byte) bool {
	if len(needle) == 0 {
		return true
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if string(haystack[i:i+len(needle)]) == string(needle) {
			return true
		}
	}
	return false
}
