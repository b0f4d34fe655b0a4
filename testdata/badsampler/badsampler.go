package badsampler

import "github.com/nikki93/gxfx/fx"

func here(f fx.Field[fx.Color]) fx.Color {
	return f.At(fx.Here)
}

type Pick struct {
	fx.GridComputation
}

//gxfx:fragment
func (Pick) Fragment(vertex fx.VertexOut, a, b fx.Field[fx.Color], level float32) fx.Color {
	direct := fx.Select(level > 0.5, a, b).At(fx.Here)
	return direct.Add(here(fx.Select(level > 0.5, b, a)))
}
