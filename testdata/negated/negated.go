package negated

import "github.com/nikki93/gxfx/fx"

//gxfx:hlsl float
//gxfx:vals -1.25 0.5
type Level float32

//gxfx:hlsl int
//gxfx:vals -2 3
type Count int

type Neg struct {
	fx.GridComputation
}

//gxfx:fragment
func (Neg) Fragment(vertex fx.VertexOut, level Level, count Count) fx.Color {
	x := -level
	n := -count
	return fx.Rgba(float32(x), float32(n), 0, 1)
}
