package fxeval

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
)

// Value is an HLSL value. Numeric components are held as float32 whatever the kind, which is exact
// for the integers shaders index grids with.
type Value struct {
	Type    *Type
	C       [4]float32
	Fields  []Value
	Sampler *SamplerState
	Texture *Texture
}

func zero(t *Type) Value {
	v := Value{Type: t}
	if t.Kind == Struct {
		v.Fields = make([]Value, len(t.Fields))
		for i, f := range t.Fields {
			v.Fields[i] = zero(f.Type)
		}
	}
	return v
}

func floatValue(f float32) Value { return Value{Type: builtins["float"], C: [4]float32{f}} }

func intValue(i int) Value { return Value{Type: builtins["int"], C: [4]float32{float32(i)}} }

func boolValue(b bool) Value {
	v := Value{Type: builtins["bool"]}
	if b {
		v.C[0] = 1
	}
	return v
}

// clone deep-copies struct fields so assignments never alias.
func (v Value) clone() Value {
	if v.Fields != nil {
		fields := make([]Value, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = f.clone()
		}
		v.Fields = fields
	}
	return v
}

func (v Value) truth() bool {
	return v.C[0] != 0
}

func (v Value) String() string {
	switch v.Type.Kind {
	case Struct:
		parts := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			parts[i] = v.Type.Fields[i].Name + ": " + f.String()
		}
		return v.Type.Name + "{" + strings.Join(parts, ", ") + "}"
	case SamplerKind:
		return "sampler"
	case TextureKind:
		return "Texture"
	case Void:
		return "void"
	}
	parts := make([]string, v.Type.N)
	for i := range parts {
		switch v.Type.Kind {
		case Bool:
			parts[i] = fmt.Sprint(v.C[i] != 0)
		default:
			parts[i] = fmt.Sprint(v.C[i])
		}
	}
	if v.Type.N == 1 {
		return parts[0]
	}
	return v.Type.Name + "(" + strings.Join(parts, ", ") + ")"
}

// normalize rounds components to what the kind can represent.
func normalize(kind Kind, f float32) float32 {
	switch kind {
	case Int:
		return math32.Trunc(f)
	case Bool:
		if f != 0 {
			return 1
		}
		return 0
	}
	return f
}

// convert converts a value to a type as an implicit conversion or cast would. Scalars broadcast
// to vectors and vectors truncate to shorter ones.
func convert(v Value, t *Type) (Value, error) {
	if v.Type == t {
		return v, nil
	}
	switch {
	case t.Kind == Struct:
		if v.Type.Kind == Struct && v.Type.Name == t.Name {
			return v, nil
		}
		if v.Type.numeric() && v.Type.N == 1 && v.C[0] == 0 {
			return zero(t), nil
		}
	case t.numeric() && v.Type.numeric():
		result := Value{Type: t}
		for i := 0; i < t.N; i++ {
			src := v.C[0]
			if v.Type.N > 1 {
				if i >= v.Type.N {
					return Value{}, fmt.Errorf("cannot convert %s to %s", v.Type.Name, t.Name)
				}
				src = v.C[i]
			}
			result.C[i] = normalize(t.Kind, src)
		}
		return result, nil
	case t.Kind == v.Type.Kind:
		return v, nil
	}
	return Value{}, fmt.Errorf("cannot convert %s to %s", v.Type.Name, t.Name)
}

// components returns the numeric components of a value.
func (v Value) components() []float32 {
	return v.C[:v.Type.N]
}
