package builtins

import "github.com/wudi/pyvm/values"

// Sentinel Class values standing in for CPython 2.7's built-in types,
// so isinstance()/type() have something to hand a script for a
// primitive receiver — which, unlike an Instance, carries no Class of
// its own. boolClass chains to intClass so isinstance(True, int) holds,
// matching CPython 2.7's bool-is-a-subclass-of-int rule.
var (
	noneClass     = values.ClassValue(&values.Class{Name: "NoneType", Dict: values.StrDict()})
	intClass      = values.ClassValue(&values.Class{Name: "int", Dict: values.StrDict()})
	boolClass     = values.ClassValue(&values.Class{Name: "bool", Base: intClass, Dict: values.StrDict()})
	floatClass    = values.ClassValue(&values.Class{Name: "float", Dict: values.StrDict()})
	strClass      = values.ClassValue(&values.Class{Name: "str", Dict: values.StrDict()})
	unicodeClass  = values.ClassValue(&values.Class{Name: "unicode", Dict: values.StrDict()})
	listClass     = values.ClassValue(&values.Class{Name: "list", Dict: values.StrDict()})
	tupleClass    = values.ClassValue(&values.Class{Name: "tuple", Dict: values.StrDict()})
	dictClass     = values.ClassValue(&values.Class{Name: "dict", Dict: values.StrDict()})
	xrangeClass   = values.ClassValue(&values.Class{Name: "xrange", Dict: values.StrDict()})
	functionClass = values.ClassValue(&values.Class{Name: "function", Dict: values.StrDict()})
	methodClass   = values.ClassValue(&values.Class{Name: "instancemethod", Dict: values.StrDict()})
	moduleClass   = values.ClassValue(&values.Class{Name: "module", Dict: values.StrDict()})
	generatorClass = values.ClassValue(&values.Class{Name: "generator", Dict: values.StrDict()})
	classobjClass = values.ClassValue(&values.Class{Name: "classobj", Dict: values.StrDict()})
	objectClass   = values.ClassValue(&values.Class{Name: "object", Dict: values.StrDict()})
)

// classFor returns the Class a script-visible type()/isinstance() check
// should use for v: its actual Class for an Instance, or the matching
// sentinel above for every primitive variant.
func classFor(v *values.Value) *values.Value {
	switch v.Type {
	case values.TypeInstance:
		return v.Data.(*values.Instance).Class
	case values.TypeNone:
		return noneClass
	case values.TypeBool:
		return boolClass
	case values.TypeInt:
		return intClass
	case values.TypeFloat:
		return floatClass
	case values.TypeStr:
		return strClass
	case values.TypeUStr:
		return unicodeClass
	case values.TypeList:
		return listClass
	case values.TypeTuple:
		return tupleClass
	case values.TypeDict, values.TypeStrDict:
		return dictClass
	case values.TypeXRange:
		return xrangeClass
	case values.TypeFunction, values.TypeCFunc:
		return functionClass
	case values.TypeMethod:
		return methodClass
	case values.TypeModule:
		return moduleClass
	case values.TypeGenerator:
		return generatorClass
	case values.TypeClass:
		return classobjClass
	default:
		return objectClass
	}
}

// classChainHas reports whether target appears in cls's single-
// inheritance Base chain (including cls itself).
func classChainHas(cls, target *values.Value) bool {
	for cur := cls; cur != nil; {
		if cur == target {
			return true
		}
		c := cur.Data.(*values.Class)
		cur = c.Base
	}
	return false
}
