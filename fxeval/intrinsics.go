package fxeval

import (
	"text/scanner"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
)

type intrinsic func(m *machine, pos scanner.Position, args []Value) Value

var intrinsics map[string]intrinsic

func init() {
	intrinsics = map[string]intrinsic{
		"abs":      unaryFloat(math32.Abs, true),
		"floor":    unaryFloat(math32.Floor, false),
		"ceil":     unaryFloat(math32.Ceil, false),
		"round":    unaryFloat(math32.Round, false),
		"frac":     unaryFloat(func(x float32) float32 { return x - math32.Floor(x) }, false),
		"saturate": unaryFloat(func(x float32) float32 { return clamp(x, 0, 1) }, false),
		"sqrt":     unaryFloat(math32.Sqrt, false),
		"sin":      unaryFloat(math32.Sin, false),
		"cos":      unaryFloat(math32.Cos, false),
		"exp":      unaryFloat(math32.Exp, false),
		"log":      unaryFloat(math32.Log, false),
		"sign": unaryFloat(func(x float32) float32 {
			switch {
			case x > 0:
				return 1
			case x < 0:
				return -1
			}
			return 0
		}, true),
		"pow":  binaryFloat(math32.Pow, false),
		"fmod": binaryFloat(math32.Mod, false),
		"min":  binaryFloat(math32.Min, true),
		"max":  binaryFloat(math32.Max, true),
		"step": binaryFloat(func(edge, x float32) float32 {
			if x >= edge {
				return 1
			}
			return 0
		}, false),
		"clamp": func(m *machine, pos scanner.Position, args []Value) Value {
			m.arity(pos, "clamp", args, 3)
			return componentwise(m, pos, args, false, func(c []float32) float32 { return clamp(c[0], c[1], c[2]) })
		},
		"lerp": func(m *machine, pos scanner.Position, args []Value) Value {
			m.arity(pos, "lerp", args, 3)
			return componentwise(m, pos, args, false, func(c []float32) float32 { return c[0] + (c[1]-c[0])*c[2] })
		},
		"dot": func(m *machine, pos scanner.Position, args []Value) Value {
			m.arity(pos, "dot", args, 2)
			x, y, t := m.operands(pos, args[0], args[1])
			sum := float32(0)
			for i := 0; i < t.N; i++ {
				sum += x.C[i] * y.C[i]
			}
			return floatValue(sum)
		},
		"length": func(m *machine, pos scanner.Position, args []Value) Value {
			m.arity(pos, "length", args, 1)
			return floatValue(norm(m.convert(pos, args[0], vectorType(Float, args[0].Type.N))))
		},
		"distance": func(m *machine, pos scanner.Position, args []Value) Value {
			m.arity(pos, "distance", args, 2)
			return floatValue(norm(m.binary(pos, "-", args[0], args[1])))
		},
		"tex2D": func(m *machine, pos scanner.Position, args []Value) Value {
			m.arity(pos, "tex2D", args, 2)
			if args[0].Type.Kind != SamplerKind || args[0].Sampler == nil {
				m.fail(pos, "tex2D of %s", args[0].Type.Name)
			}
			state := args[0].Sampler
			texture, ok := m.uniforms[state.Texture]
			if !ok || texture.Texture == nil {
				m.fail(pos, "no texture bound to %s", state.Name)
			}
			uv := m.convert(pos, args[1], vectorType(Float, 2))
			c := texture.Texture.sample(state, ms2.Vec{X: uv.C[0], Y: uv.C[1]})
			return Value{Type: vectorType(Float, 4), C: [4]float32{c.R, c.G, c.B, c.A}}
		},
	}
}

func (m *machine) arity(pos scanner.Position, name string, args []Value, n int) {
	if len(args) != n {
		m.fail(pos, "%s takes %d arguments, got %d", name, n, len(args))
	}
}

func norm(v Value) float32 {
	sum := float32(0)
	for _, c := range v.components() {
		sum += c * c
	}
	return math32.Sqrt(sum)
}

// componentwise applies f per component after broadcasting every argument to a common type. Unless
// keepKind is set the result is float.
func componentwise(m *machine, pos scanner.Position, args []Value, keepKind bool, f func(c []float32) float32) Value {
	t := args[0].Type
	for _, arg := range args[1:] {
		_, _, t = m.operands(pos, Value{Type: t}, arg)
	}
	if !t.numeric() {
		m.fail(pos, "invalid argument %s", t.Name)
	}
	if !keepKind {
		t = vectorType(Float, t.N)
	}
	converted := make([]Value, len(args))
	for i, arg := range args {
		if arg.Type.N > t.N {
			arg.Type = vectorType(arg.Type.Kind, t.N)
		}
		converted[i] = m.convert(pos, arg, vectorType(t.Kind, t.N))
	}
	result := Value{Type: t}
	comps := make([]float32, len(args))
	for i := 0; i < t.N; i++ {
		for j, arg := range converted {
			comps[j] = arg.C[i]
		}
		result.C[i] = normalize(t.Kind, f(comps))
	}
	return result
}

func unaryFloat(f func(float32) float32, keepKind bool) intrinsic {
	return func(m *machine, pos scanner.Position, args []Value) Value {
		m.arity(pos, "intrinsic", args, 1)
		return componentwise(m, pos, args, keepKind, func(c []float32) float32 { return f(c[0]) })
	}
}

func binaryFloat(f func(a, b float32) float32, keepKind bool) intrinsic {
	return func(m *machine, pos scanner.Position, args []Value) Value {
		m.arity(pos, "intrinsic", args, 2)
		return componentwise(m, pos, args, keepKind, func(c []float32) float32 { return f(c[0], c[1]) })
	}
}
