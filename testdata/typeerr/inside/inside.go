package inside

import "github.com/nikki93/gxfx/fx"

type Broken struct {
	fx.GridComputation
}

//gxfx:fragment
func (Broken) Fragment(vertex fx.VertexOut) fx.Color {
	var level float32 = "bright"
	return fx.White.Scale(level)
}
