package main

import (
	"go/types"
	"strconv"
	"strings"
)

// Binding fixes one fragment parameter to a literal.
type Binding struct {
	Param   *types.Var
	Literal string
}

// Key identifies one specialization of a shader. The empty key is the unspecialized shader.
type Key []Binding

// FileSuffix is appended to the shader name to name the effect file, as in "_fill=true".
func (k Key) FileSuffix() string {
	builder := &strings.Builder{}
	for _, binding := range k {
		builder.WriteString("_" + binding.Param.Name() + "=" + binding.Literal)
	}
	return builder.String()
}

var identifierLiteral = strings.NewReplacer(".", "p", "-", "m", "+", "")

// VarSuffix is appended to the effect variable name, as in "_fill_true". Literals are made into
// valid identifier text.
func (k Key) VarSuffix() string {
	builder := &strings.Builder{}
	for _, binding := range k {
		builder.WriteString("_" + binding.Param.Name() + "_" + identifierLiteral.Replace(binding.Literal))
	}
	return builder.String()
}

func (k Key) literals() map[*types.Var]string {
	result := make(map[*types.Var]string, len(k))
	for _, binding := range k {
		result[binding.Param] = binding.Literal
	}
	return result
}

// valuesOf returns the finite value set of a parameter type, following valsof once.
func (c *Compiler) valuesOf(typ types.Type) []string {
	typeName := typeNameOf(typ)
	if typeName == nil {
		return nil
	}
	if vals, ok := c.vals[typeName]; ok {
		return vals
	}
	if other, ok := c.valsOf[typeName]; ok {
		return c.vals[other]
	}
	return nil
}

// Plan expands a fragment entry into its specializations: the cross product of the value sets of
// its parameters after the first, in parameter order.
func (c *Compiler) Plan(fragment *types.Func) []Key {
	keys := []Key{nil}
	params := fragment.Type().(*types.Signature).Params()
	for i := 1; i < params.Len(); i++ {
		param := params.At(i)
		vals := c.valuesOf(param.Type())
		if len(vals) == 0 {
			continue
		}
		if isFloat(param.Type()) {
			vals = floatLiterals(vals)
		}
		next := make([]Key, 0, len(keys)*len(vals))
		for _, key := range keys {
			for _, val := range vals {
				extended := make(Key, len(key), len(key)+1)
				copy(extended, key)
				next = append(next, append(extended, Binding{Param: param, Literal: val}))
			}
		}
		keys = next
	}
	return keys
}

// floatLiterals spells float vals the way float constants are emitted, so "1" becomes "1.0".
func floatLiterals(vals []string) []string {
	result := make([]string, len(vals))
	for i, val := range vals {
		result[i] = val
		if f, err := strconv.ParseFloat(val, 32); err == nil {
			result[i] = formatFloat(float32(f))
		}
	}
	return result
}
