package specialized

import "github.com/nikki93/gxfx/fx"

//gxfx:hlsl int
//gxfx:vals 1 2 4
type Steps int

// Blur averages cells along a row or a column.
type Blur struct {
	fx.GridComputation
}

//gxfx:fragment
func (Blur) Fragment(vertex fx.VertexOut, field fx.Field[fx.Color], steps Steps, vertical fx.Bool) fx.Color {
	sum := fx.Transparent
	for i := 0; i < int(steps); i++ {
		if vertical {
			sum = sum.Add(field.At(fx.Offset(0, i)))
		} else {
			sum = sum.Add(field.At(fx.Offset(i, 0)))
		}
	}
	return sum.Scale(1 / float32(steps))
}
