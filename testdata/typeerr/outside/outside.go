package outside

import "github.com/nikki93/gxfx/fx"

func unrelated() int {
	return "not an int"
}

type Plain struct {
	fx.GridComputation
}

//gxfx:fragment
func (Plain) Fragment(vertex fx.VertexOut) fx.Color {
	return fx.White
}
