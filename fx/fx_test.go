package fx

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type grid struct{ w, h int }

func (g grid) Size() (int, int) { return g.w, g.h }

func TestTextureSize(t *testing.T) {
	g := grid{4, 8}
	if got, want := TextureSize(g), V2(4, 8); got != want {
		t.Errorf("TextureSize = %v, want %v", got, want)
	}
	if got, want := TextureStep(g), V2(0.25, 0.125); got != want {
		t.Errorf("TextureStep = %v, want %v", got, want)
	}
}

func TestApprox(t *testing.T) {
	if !Approx(0.5, 0.5+ApproxEpsilon/2) {
		t.Error("values within the tolerance differ")
	}
	if Approx(0.5, 0.5+2*ApproxEpsilon) {
		t.Error("values beyond the tolerance match")
	}
}

func TestIntrinsics(t *testing.T) {
	tests := []struct {
		name      string
		got, want any
	}{
		{"abs", Abs(V2(-1, 2)), V2(1, 2)},
		{"frac", Frac(float32(-0.25)), float32(0.75)},
		{"saturate", Saturate(Rgba(-1, 0.5, 2, 1)), Rgba(0, 0.5, 1, 1)},
		{"clamp", ClampV(V3(-1, 0.5, 2), V3(0, 0, 0), V3(1, 1, 1)), V3(0, 0.5, 1)},
		{"step", Step(V2(0.5, 0.5), V2(0.25, 0.75)), V2(0, 1)},
		{"lerp", Lerp(Black, White, 0.5), Rgba(0.5, 0.5, 0.5, 1)},
		{"dot", Dot(V4(1, 2, 3, 4), V4(1, 1, 1, 1)), float32(10)},
		{"length", Length(V2(3, 4)), float32(5)},
		{"distance", Distance(V2(1, 1), V2(4, 5)), float32(5)},
		{"hex", RgbaHex(0xFF8000, 1), Rgba(1, 128.0/255, 0, 1)},
		{"hex rgb", RgbHex(0x0000FF), V3(0, 0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
