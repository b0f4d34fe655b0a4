package fx

import "github.com/chewxy/math32"

// Texture is a 2-D grid of colors owned by a Device.
type Texture interface {
	Size() (width, height int)
}

type RenderTarget interface {
	Texture
}

type Parameter interface {
	SetValue(v any)
}

// Effect is a compiled shader loaded into a Device. Apply makes it the effect DrawGrid runs.
type Effect interface {
	Parameter(name string) Parameter
	Apply()
}

// Content loads compiled effects by name.
type Content interface {
	Load(name string) (Effect, error)
}

type Device interface {
	SetRenderTarget(target RenderTarget)
	Clear(c Color)
	DrawGrid()
}

func TextureSize(t Texture) Vec2 {
	w, h := t.Size()
	return Vec2{float32(w), float32(h)}
}

// TextureStep is the size of one texel in texture coordinates.
func TextureStep(t Texture) Vec2 {
	w, h := t.Size()
	return Vec2{1 / float32(w), 1 / float32(h)}
}

const ApproxEpsilon = 1e-5

// Approx reports whether a and b are within ApproxEpsilon. Generated code uses it to pick a
// specialized effect for a float parameter.
func Approx(a, b float32) bool {
	return math32.Abs(a-b) < ApproxEpsilon
}
