package mixing

import (
	"github.com/nikki93/gxfx/fx"
	"github.com/nikki93/gxfx/testdata/foreign/other"
)

var Gain float32

func boost(c fx.Color) fx.Color {
	return c.Scale(Gain)
}

// Mix reads three different variables that are all named Gain.
type Mix struct {
	fx.GridComputation
	Gain float32
}

//gxfx:fragment
func (m Mix) Fragment(vertex fx.VertexOut) fx.Color {
	c := fx.Rgba(Gain, other.Gain, m.Gain, 1)
	return boost(c).Add(c)
}
