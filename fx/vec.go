package fx

import "github.com/chewxy/math32"

//
// Vectors
//

//gxfx:hlsl float2
type Vec2 struct {
	//gxfx:hlsl x
	X float32
	//gxfx:hlsl y
	Y float32
}

//gxfx:hlsl float3
type Vec3 struct {
	//gxfx:hlsl x
	X float32
	//gxfx:hlsl y
	Y float32
	//gxfx:hlsl z
	Z float32
}

//gxfx:hlsl float4
type Vec4 struct {
	//gxfx:hlsl x
	X float32
	//gxfx:hlsl y
	Y float32
	//gxfx:hlsl z
	Z float32
	//gxfx:hlsl w
	W float32
}

//gxfx:hlsl float2
func V2(x, y float32) Vec2 { return Vec2{x, y} }

//gxfx:hlsl float3
func V3(x, y, z float32) Vec3 { return Vec3{x, y, z} }

//gxfx:hlsl float4
func V4(x, y, z, w float32) Vec4 { return Vec4{x, y, z, w} }

//gxfx:hlsl +
func (v Vec2) Add(u Vec2) Vec2 { return Vec2{v.X + u.X, v.Y + u.Y} }

//gxfx:hlsl -
func (v Vec2) Sub(u Vec2) Vec2 { return Vec2{v.X - u.X, v.Y - u.Y} }

//gxfx:hlsl *
func (v Vec2) Mul(u Vec2) Vec2 { return Vec2{v.X * u.X, v.Y * u.Y} }

//gxfx:hlsl /
func (v Vec2) Div(u Vec2) Vec2 { return Vec2{v.X / u.X, v.Y / u.Y} }

//gxfx:hlsl *
func (v Vec2) Scale(k float32) Vec2 { return Vec2{v.X * k, v.Y * k} }

//gxfx:hlsl -
func (v Vec2) Neg() Vec2 { return Vec2{-v.X, -v.Y} }

//gxfx:hlsl +
func (v Vec3) Add(u Vec3) Vec3 { return Vec3{v.X + u.X, v.Y + u.Y, v.Z + u.Z} }

//gxfx:hlsl -
func (v Vec3) Sub(u Vec3) Vec3 { return Vec3{v.X - u.X, v.Y - u.Y, v.Z - u.Z} }

//gxfx:hlsl *
func (v Vec3) Mul(u Vec3) Vec3 { return Vec3{v.X * u.X, v.Y * u.Y, v.Z * u.Z} }

//gxfx:hlsl *
func (v Vec3) Scale(k float32) Vec3 { return Vec3{v.X * k, v.Y * k, v.Z * k} }

//gxfx:hlsl -
func (v Vec3) Neg() Vec3 { return Vec3{-v.X, -v.Y, -v.Z} }

//gxfx:hlsl xy
func (v Vec3) XY() Vec2 { return Vec2{v.X, v.Y} }

//gxfx:hlsl +
func (v Vec4) Add(u Vec4) Vec4 { return Vec4{v.X + u.X, v.Y + u.Y, v.Z + u.Z, v.W + u.W} }

//gxfx:hlsl -
func (v Vec4) Sub(u Vec4) Vec4 { return Vec4{v.X - u.X, v.Y - u.Y, v.Z - u.Z, v.W - u.W} }

//gxfx:hlsl *
func (v Vec4) Mul(u Vec4) Vec4 { return Vec4{v.X * u.X, v.Y * u.Y, v.Z * u.Z, v.W * u.W} }

//gxfx:hlsl *
func (v Vec4) Scale(k float32) Vec4 { return Vec4{v.X * k, v.Y * k, v.Z * k, v.W * k} }

//gxfx:hlsl -
func (v Vec4) Neg() Vec4 { return Vec4{-v.X, -v.Y, -v.Z, -v.W} }

//gxfx:hlsl xy
func (v Vec4) XY() Vec2 { return Vec2{v.X, v.Y} }

//gxfx:hlsl zw
func (v Vec4) ZW() Vec2 { return Vec2{v.Z, v.W} }

//gxfx:hlsl xyz
func (v Vec4) XYZ() Vec3 { return Vec3{v.X, v.Y, v.Z} }

//
// Colors
//

//gxfx:hlsl float4
type Color struct {
	//gxfx:hlsl r
	R float32
	//gxfx:hlsl g
	G float32
	//gxfx:hlsl b
	B float32
	//gxfx:hlsl a
	A float32
}

//gxfx:hlsl float4
func Rgba(r, g, b, a float32) Color { return Color{r, g, b, a} }

// RgbaHex builds a color from a 0xRRGGBB literal and an alpha.
//
//gxfx:special rgba_hex
func RgbaHex(hex int, a float32) Color {
	return Color{hexChannel(hex, 16), hexChannel(hex, 8), hexChannel(hex, 0), a}
}

//gxfx:special rgb_hex
func RgbHex(hex int) Vec3 {
	return Vec3{hexChannel(hex, 16), hexChannel(hex, 8), hexChannel(hex, 0)}
}

func hexChannel(hex int, shift uint) float32 {
	return float32((hex>>shift)&0xFF) / 255
}

//gxfx:hlsl float4
func ToVec4(c Color) Vec4 { return Vec4{c.R, c.G, c.B, c.A} }

//gxfx:hlsl float4
func ToColor(v Vec4) Color { return Color{v.X, v.Y, v.Z, v.W} }

//gxfx:hlsl +
func (c Color) Add(d Color) Color { return Color{c.R + d.R, c.G + d.G, c.B + d.B, c.A + d.A} }

//gxfx:hlsl -
func (c Color) Sub(d Color) Color { return Color{c.R - d.R, c.G - d.G, c.B - d.B, c.A - d.A} }

//gxfx:hlsl *
func (c Color) Mul(d Color) Color { return Color{c.R * d.R, c.G * d.G, c.B * d.B, c.A * d.A} }

//gxfx:hlsl *
func (c Color) Scale(k float32) Color { return Color{c.R * k, c.G * k, c.B * k, c.A * k} }

//gxfx:hlsl -
func (c Color) Neg() Color { return Color{-c.R, -c.G, -c.B, -c.A} }

//gxfx:hlsl rgb
func (c Color) RGB() Vec3 { return Vec3{c.R, c.G, c.B} }

//gxfx:hlsl rg
func (c Color) RG() Vec2 { return Vec2{c.R, c.G} }

//gxfx:hlsl ba
func (c Color) BA() Vec2 { return Vec2{c.B, c.A} }

//gxfx:readonly
var (
	Transparent = Rgba(0, 0, 0, 0)
	Black       = Rgba(0, 0, 0, 1)
	White       = Rgba(1, 1, 1, 1)
)

//
// Componentwise helpers for the intrinsics
//

// Number is any type the intrinsics operate on componentwise.
type Number interface {
	float32 | Vec2 | Vec3 | Vec4 | Color
}

func components[T Number](x T) (c [4]float32, n int) {
	switch x := any(x).(type) {
	case float32:
		return [4]float32{x}, 1
	case Vec2:
		return [4]float32{x.X, x.Y}, 2
	case Vec3:
		return [4]float32{x.X, x.Y, x.Z}, 3
	case Vec4:
		return [4]float32{x.X, x.Y, x.Z, x.W}, 4
	case Color:
		return [4]float32{x.R, x.G, x.B, x.A}, 4
	}
	return c, 0
}

func fromComponents[T Number](c [4]float32) T {
	var result T
	switch any(result).(type) {
	case float32:
		return any(c[0]).(T)
	case Vec2:
		return any(Vec2{c[0], c[1]}).(T)
	case Vec3:
		return any(Vec3{c[0], c[1], c[2]}).(T)
	case Vec4:
		return any(Vec4{c[0], c[1], c[2], c[3]}).(T)
	case Color:
		return any(Color{c[0], c[1], c[2], c[3]}).(T)
	}
	return result
}

func map1[T Number](x T, f func(float32) float32) T {
	c, n := components(x)
	for i := 0; i < n; i++ {
		c[i] = f(c[i])
	}
	return fromComponents[T](c)
}

func map2[T Number](x, y T, f func(a, b float32) float32) T {
	c, n := components(x)
	d, _ := components(y)
	for i := 0; i < n; i++ {
		c[i] = f(c[i], d[i])
	}
	return fromComponents[T](c)
}

func sum[T Number](x T) float32 {
	c, n := components(x)
	s := float32(0)
	for i := 0; i < n; i++ {
		s += c[i]
	}
	return s
}

//
// Intrinsics
//

//gxfx:hlsl abs
func Abs[T Number](x T) T { return map1(x, math32.Abs) }

//gxfx:hlsl floor
func Floor[T Number](x T) T { return map1(x, math32.Floor) }

//gxfx:hlsl frac
func Frac[T Number](x T) T {
	return map1(x, func(a float32) float32 { return a - math32.Floor(a) })
}

//gxfx:hlsl round
func Round[T Number](x T) T { return map1(x, math32.Round) }

//gxfx:hlsl saturate
func Saturate[T Number](x T) T {
	return map1(x, func(a float32) float32 { return math32.Min(math32.Max(a, 0), 1) })
}

//gxfx:hlsl sqrt
func Sqrt[T Number](x T) T { return map1(x, math32.Sqrt) }

//gxfx:hlsl sin
func Sin[T Number](x T) T { return map1(x, math32.Sin) }

//gxfx:hlsl cos
func Cos[T Number](x T) T { return map1(x, math32.Cos) }

//gxfx:hlsl pow
func Pow[T Number](x, y T) T { return map2(x, y, math32.Pow) }

//gxfx:hlsl fmod
func Fmod[T Number](x, y T) T { return map2(x, y, math32.Mod) }

//gxfx:hlsl min
func Min[T Number](x, y T) T { return map2(x, y, math32.Min) }

//gxfx:hlsl max
func Max[T Number](x, y T) T { return map2(x, y, math32.Max) }

//gxfx:hlsl step
func Step[T Number](edge, x T) T {
	return map2(edge, x, func(e, a float32) float32 {
		if a >= e {
			return 1
		}
		return 0
	})
}

// ClampV is HLSL's clamp. Clamp names the sampler address mode.
//
//gxfx:hlsl clamp
func ClampV[T Number](x, lo, hi T) T { return Min(Max(x, lo), hi) }

//gxfx:hlsl lerp
func Lerp[T Number](a, b T, t float32) T {
	return map2(a, b, func(x, y float32) float32 { return x + (y-x)*t })
}

//gxfx:hlsl dot
func Dot[T Number](a, b T) float32 {
	return sum(map2(a, b, func(x, y float32) float32 { return x * y }))
}

//gxfx:hlsl length
func Length[T Number](a T) float32 { return math32.Sqrt(Dot(a, a)) }

//gxfx:hlsl distance
func Distance[T Number](a, b T) float32 {
	return Length(map2(a, b, func(x, y float32) float32 { return x - y }))
}

// Select is the shading language's conditional operator.
//
//gxfx:special select
func Select[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
