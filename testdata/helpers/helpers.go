package helpers

import "github.com/nikki93/gxfx/fx"

//gxfx:readonly
var red = fx.V4(-1, -0.2, -0.2, -1).Neg()

func scaleByFive(v fx.Vec4) fx.Vec4 {
	return scaleByNum(v, 3).Add(scaleByTwo(v))
}

func scaleByTwo(v fx.Vec4) fx.Vec4 {
	return scaleByNum(v, 2)
}

func scaleByNum(v fx.Vec4, num float32) fx.Vec4 {
	return v.Scale(num)
}

type RedTexture struct {
	fx.GridComputation
}

//gxfx:fragment
func (RedTexture) Fragment(vertex fx.VertexOut, texture fx.LinearSampler, diffuse fx.Vec4) fx.Color {
	result := red
	result = result.Mul(fx.ToVec4(texture.UV(vertex.TexCoords)))
	result = result.Mul(diffuse)
	result = scaleByFive(result.Scale(fx.Dot(result, fx.V4(1, 0, 0, 1))))
	return fx.ToColor(result)
}

type BlueTexture struct {
	fx.GridComputation
}

//gxfx:fragment
func (BlueTexture) Fragment(vertex fx.VertexOut) fx.Color {
	return fx.ToColor(scaleByTwo(fx.V4(0, 0, 0.25, 0.5)))
}
