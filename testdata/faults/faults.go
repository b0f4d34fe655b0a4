package faults

import "github.com/nikki93/gxfx/fx"

var Brightness float32

type Faulty struct {
	fx.GridComputation
}

//gxfx:fragment
func (Faulty) Fragment(vertex fx.VertexOut, level float32) fx.Color {
	level = 2
	c := fx.Black
	if level == 0.5 {
		c = fx.White
	}
	scale := min(level, 1)
	return c.Scale(scale * Brightness)
}
