package fx

// Sampler filters.

//gxfx:hlsl Point
type Point struct{}

//gxfx:hlsl Linear
type Linear struct{}

// Sampler address modes.

//gxfx:hlsl Wrap
type Wrap struct{}

//gxfx:hlsl Clamp
type Clamp struct{}

type Filter interface{ Point | Linear }

type Address interface{ Wrap | Clamp }

// Sampler reads a 2-D field in shader code. Sampling only has meaning in compiled shaders; on the
// host the sampling methods return zero values.
//
//gxfx:hlsl sampler
type Sampler[F Filter, A Address] struct {
	//gxfx:hlsl size suffix
	Size Vec2
	//gxfx:hlsl dxdy suffix
	DxDy Vec2

	// Texture is what generated code binds when the sampler is read as a foreign variable.
	Texture Texture
}

//gxfx:index
func (s Sampler[F, A]) At(i RelativeIndex) Color { return Color{} }

//gxfx:index
func (s Sampler[F, A]) UV(uv Vec2) Color { return Color{} }

//gxfx:index
func (s Sampler[F, A]) IJ(i, j int) Color { return Color{} }

type PointSampler struct {
	Sampler[Point, Wrap]
}

type LinearSampler struct {
	Sampler[Linear, Clamp]
}

// Field is a wrapping, point-sampled grid of T.
type Field[T any] struct {
	Sampler[Point, Wrap]
}

//gxfx:index
func (f Field[T]) At(i RelativeIndex) T {
	var zero T
	return zero
}

//gxfx:index
func (f Field[T]) UV(uv Vec2) T {
	var zero T
	return zero
}

//gxfx:index
func (f Field[T]) IJ(i, j int) T {
	var zero T
	return zero
}

// ClampField is Field with clamped addressing.
type ClampField[T any] struct {
	Sampler[Point, Clamp]
}

//gxfx:index
func (f ClampField[T]) At(i RelativeIndex) T {
	var zero T
	return zero
}

//gxfx:index
func (f ClampField[T]) UV(uv Vec2) T {
	var zero T
	return zero
}
