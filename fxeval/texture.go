package fxeval

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"golang.org/x/exp/constraints"

	"github.com/nikki93/gxfx/fx"
)

// Texture is a grid of colors quantized to 8 bits per channel, like a Color surface. It serves
// both as a render target and as a sampled texture.
type Texture struct {
	Width, Height int
	Pix           []fx.Color
}

func NewTexture(width, height int) *Texture {
	return &Texture{Width: width, Height: height, Pix: make([]fx.Color, width*height)}
}

func (t *Texture) Size() (width, height int) {
	return t.Width, t.Height
}

func (t *Texture) At(x, y int) fx.Color {
	return t.Pix[y*t.Width+x]
}

func (t *Texture) Set(x, y int, c fx.Color) {
	t.Pix[y*t.Width+x] = quantize(c)
}

func clamp[T constraints.Ordered](x, lo, hi T) T {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// wrap reduces i into [0, n).
func wrap[T constraints.Integer](i, n T) T {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func quantizeChannel(f float32) float32 {
	return math32.Round(clamp(f, 0, 1)*255) / 255
}

func quantize(c fx.Color) fx.Color {
	return fx.Color{R: quantizeChannel(c.R), G: quantizeChannel(c.G), B: quantizeChannel(c.B), A: quantizeChannel(c.A)}
}

func (t *Texture) address(i, n int, mode string) int {
	if mode == "Wrap" {
		return wrap(i, n)
	}
	return clamp(i, 0, n-1)
}

func (t *Texture) texel(i, j int, state *SamplerState) fx.Color {
	return t.At(t.address(i, t.Width, state.Address), t.address(j, t.Height, state.Address))
}

// sample reads the texture at texture coordinates uv. Texel centers lie at half-integer multiples
// of the texel size.
func (t *Texture) sample(state *SamplerState, uv ms2.Vec) fx.Color {
	size := ms2.Vec{X: float32(t.Width), Y: float32(t.Height)}
	p := ms2.MulElem(uv, size)
	if state.Filter != "Linear" {
		return t.texel(int(math32.Floor(p.X)), int(math32.Floor(p.Y)), state)
	}
	p = ms2.AddScalar(-0.5, p)
	base := ms2.Vec{X: math32.Floor(p.X), Y: math32.Floor(p.Y)}
	f := ms2.Sub(p, base)
	i, j := int(base.X), int(base.Y)
	c00, c10 := t.texel(i, j, state), t.texel(i+1, j, state)
	c01, c11 := t.texel(i, j+1, state), t.texel(i+1, j+1, state)
	top := c00.Scale(1 - f.X).Add(c10.Scale(f.X))
	bottom := c01.Scale(1 - f.X).Add(c11.Scale(f.X))
	return top.Scale(1 - f.Y).Add(bottom.Scale(f.Y))
}

// TextureFromImage converts an image to a texture.
func TextureFromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	t := NewTexture(bounds.Dx(), bounds.Dy())
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			t.Pix[y*t.Width+x] = fx.Color{
				R: float32(c.R) / 255,
				G: float32(c.G) / 255,
				B: float32(c.B) / 255,
				A: float32(c.A) / 255,
			}
		}
	}
	return t
}

// Image converts a texture to an image.
func (t *Texture) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, t.Width, t.Height))
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			c := quantize(t.At(x, y))
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(math32.Round(c.R * 255)),
				G: uint8(math32.Round(c.G * 255)),
				B: uint8(math32.Round(c.B * 255)),
				A: uint8(math32.Round(c.A * 255)),
			})
		}
	}
	return img
}
