package recursive

import "github.com/nikki93/gxfx/fx"

func halve(x float32, n int) float32 {
	if n == 0 {
		return x
	}
	return halve(x*0.5, n-1)
}

type Fade struct {
	fx.GridComputation
}

//gxfx:fragment
func (Fade) Fragment(vertex fx.VertexOut, field fx.Field[fx.Color]) fx.Color {
	return field.At(fx.Here).Scale(halve(1, 2))
}
