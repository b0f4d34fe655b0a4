package copies

import "github.com/nikki93/gxfx/fx"

//gxfx:copy fx.Color Particle R=Mass G=Speed

type Simulate struct {
	fx.GridComputation
}

//gxfx:fragment
func (Simulate) Fragment(vertex fx.VertexOut, particles fx.Field[Particle]) Particle {
	here := particles.At(fx.Here)
	here.Speed = here.Speed + here.Mass
	return here.Scale(0.5)
}
