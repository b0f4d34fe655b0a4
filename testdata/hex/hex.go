package hex

import "github.com/nikki93/gxfx/fx"

var Tint int

type Orange struct {
	fx.GridComputation
}

//gxfx:fragment
func (Orange) Fragment(vertex fx.VertexOut) fx.Color {
	return fx.RgbaHex(0xFF8000, 1.0)
}

type Tinted struct {
	fx.GridComputation
}

//gxfx:fragment
func (Tinted) Fragment(vertex fx.VertexOut) fx.Color {
	sky := fx.RgbHex(0x0080FF)
	return fx.RgbaHex(Tint, sky.X)
}
