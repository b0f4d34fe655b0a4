package neighbors

import "github.com/nikki93/gxfx/fx"

type Identity struct {
	fx.GridComputation
}

//gxfx:fragment
func (Identity) Fragment(vertex fx.VertexOut, field fx.Field[fx.Color]) fx.Color {
	return field.At(fx.Here)
}

type Diagonal struct {
	fx.GridComputation
}

//gxfx:fragment
func (Diagonal) Fragment(vertex fx.VertexOut, field fx.Field[fx.Color]) fx.Color {
	return field.At(fx.UpRight)
}

type ClampedDiagonal struct {
	fx.GridComputation
}

//gxfx:fragment
func (ClampedDiagonal) Fragment(vertex fx.VertexOut, field fx.ClampField[fx.Color]) fx.Color {
	return field.At(fx.UpRight)
}
