package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/nikki93/gxfx/fx"
	"github.com/nikki93/gxfx/fxeval"
)

// compileFixture compiles packages without writing anything and fails the test on errors.
func compileFixture(t *testing.T, cfg Config, patterns ...string) (*Compiler, *Result, []string) {
	t.Helper()
	c, result, logs, err := tryCompile(cfg, patterns...)
	if err != nil {
		t.Fatal(err)
	}
	return c, result, logs
}

func tryCompile(cfg Config, patterns ...string) (*Compiler, *Result, []string, error) {
	var mu sync.Mutex
	var logs []string
	cfg.Patterns = patterns
	cfg.Logf = func(format string, args ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		logs = append(logs, fmt.Sprintf(format, args...))
	}
	c := newCompiler(cfg)
	result, err := c.compile(context.Background())
	if err == nil && c.errored() {
		err = errors.New(c.errors.String())
	}
	return c, result, logs, err
}

func fileNamed(t *testing.T, result *Result, name string) string {
	t.Helper()
	for _, file := range result.Files {
		if filepath.Base(file.Path) == name {
			return file.Contents
		}
	}
	var names []string
	for _, file := range result.Files {
		names = append(names, filepath.Base(file.Path))
	}
	t.Fatalf("no file %s among %v", name, names)
	return ""
}

func fileNames(result *Result) []string {
	var names []string
	for _, file := range result.Files {
		names = append(names, filepath.Base(file.Path))
	}
	return names
}

func assertContains(t *testing.T, text string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}

// assertOrder checks that the substrings appear in the given order.
func assertOrder(t *testing.T, text string, wants ...string) {
	t.Helper()
	last := -1
	for _, want := range wants {
		i := strings.Index(text, want)
		if i < 0 {
			t.Errorf("missing %q", want)
			continue
		}
		if i < last {
			t.Errorf("%q appears out of order", want)
		}
		last = i
	}
}

func TestCompileHelpers(t *testing.T) {
	c, result, _ := compileFixture(t, Config{}, "./testdata/helpers")

	want := []string{glueFileName, "BlueTexture.fx", "RedTexture.fx"}
	if diff := cmp.Diff(want, fileNames(result)); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}

	red := fileNamed(t, result, "RedTexture.fx")
	assertOrder(t, red,
		"float4 scaleByNum(float4 v, float num)",
		"float4 scaleByTwo(float4 v)",
		"float4 scaleByFive(float4 v)",
		"// Compiled fragment shader",
	)
	assertContains(t, red,
		"float4 result = (-float4(-1.0, -0.2, -0.2, -1.0));",
		"MagFilter = Linear;",
		"AddressU  = Clamp;",
		"sampler fs_param_texture : register(s0)",
		"float4 fs_param_diffuse;",
		"tex2D(fs_param_texture, psin.TexCoords)",
	)

	blue := fileNamed(t, result, "BlueTexture.fx")
	assertContains(t, blue, "float4 scaleByNum(", "float4 scaleByTwo(")
	if strings.Contains(blue, "scaleByFive") {
		t.Error("BlueTexture.fx includes a helper it does not reach")
	}

	// Every helper is compiled once, however many effects include it.
	if c.methods.compiles != 3 {
		t.Errorf("compiled %d helpers, want 3", c.methods.compiles)
	}

	glue := fileNamed(t, result, glueFileName)
	assertContains(t, glue,
		"// Code generated by gxfx. DO NOT EDIT.",
		`if blueTextureEffect, err = content.Load("BlueTexture"); err != nil {`,
		"func (shader RedTexture) Using(texture fx.LinearSampler, diffuse fx.Vec4) {",
		`effect.Parameter("fs_param_texture_Texture").SetValue(texture.Texture)`,
		`effect.Parameter("fs_param_diffuse").SetValue(diffuse)`,
	)
}

func TestCompileDeterministic(t *testing.T) {
	_, first, _ := compileFixture(t, Config{}, "./testdata/helpers", "./testdata/specialized")
	_, second, _ := compileFixture(t, Config{}, "./testdata/helpers", "./testdata/specialized")
	if diff := cmp.Diff(first.Files, second.Files); diff != "" {
		t.Errorf("second compilation differs (-first +second):\n%s", diff)
	}
	_, parallel, _ := compileFixture(t, Config{Parallel: true}, "./testdata/helpers", "./testdata/specialized")
	if diff := cmp.Diff(first.Files, parallel.Files); diff != "" {
		t.Errorf("parallel compilation differs (-sequential +parallel):\n%s", diff)
	}
}

func TestCompiledEffectRuns(t *testing.T) {
	_, result, _ := compileFixture(t, Config{}, "./testdata/helpers")
	device := fxeval.NewDevice()
	content := device.Content(fstest.MapFS{
		"BlueTexture.fx": {Data: []byte(fileNamed(t, result, "BlueTexture.fx"))},
	})
	effect, err := content.Load("BlueTexture")
	if err != nil {
		t.Fatal(err)
	}
	target := fxeval.NewTexture(3, 2)
	effect.Apply()
	device.SetRenderTarget(target)
	device.DrawGrid()
	if err := device.Err(); err != nil {
		t.Fatal(err)
	}
	want := fx.Color{R: 0, G: 0, B: 128.0 / 255, A: 1}
	for i, got := range target.Pix {
		if got != want {
			t.Errorf("pixel %d = %v, want %v", i, got, want)
		}
	}
}

// Offsets are in texels, with UpOne one row further along the texture.
func TestCompiledNeighborOffsets(t *testing.T) {
	_, result, _ := compileFixture(t, Config{}, "./testdata/neighbors")
	const n = 3
	src := fxeval.NewTexture(n, n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			src.Set(x, y, fx.Rgba(float32(x)*50/255, float32(y)*50/255, 0, 1))
		}
	}
	tests := []struct {
		shader string
		from   func(x, y int) (int, int)
	}{
		{"Identity", func(x, y int) (int, int) { return x, y }},
		{"Diagonal", func(x, y int) (int, int) { return (x + 1) % n, (y + 1) % n }},
		{"ClampedDiagonal", func(x, y int) (int, int) { return min(x+1, n-1), min(y+1, n-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.shader, func(t *testing.T) {
			device := fxeval.NewDevice()
			content := device.Content(fstest.MapFS{
				tt.shader + ".fx": {Data: []byte(fileNamed(t, result, tt.shader+".fx"))},
			})
			effect, err := content.Load(tt.shader)
			if err != nil {
				t.Fatal(err)
			}
			effect.Parameter("fs_param_field_Texture").SetValue(src)
			effect.Parameter("fs_param_field_size").SetValue(fx.TextureSize(src))
			effect.Parameter("fs_param_field_dxdy").SetValue(fx.TextureStep(src))
			effect.Apply()
			dst := fxeval.NewTexture(n, n)
			device.SetRenderTarget(dst)
			device.DrawGrid()
			if err := device.Err(); err != nil {
				t.Fatal(err)
			}
			for y := 0; y < n; y++ {
				for x := 0; x < n; x++ {
					sx, sy := tt.from(x, y)
					if got, want := dst.At(x, y), src.At(sx, sy); got != want {
						t.Errorf("cell (%d, %d) = %v, want cell (%d, %d) = %v", x, y, got, sx, sy, want)
					}
				}
			}
		})
	}
}

func TestCompileSpecialized(t *testing.T) {
	_, result, _ := compileFixture(t, Config{}, "./testdata/specialized")
	if len(result.Units) != 6 {
		t.Fatalf("got %d units, want 6", len(result.Units))
	}
	want := []string{
		glueFileName,
		"Blur_steps=1_vertical=false.fx",
		"Blur_steps=1_vertical=true.fx",
		"Blur_steps=2_vertical=false.fx",
		"Blur_steps=2_vertical=true.fx",
		"Blur_steps=4_vertical=false.fx",
		"Blur_steps=4_vertical=true.fx",
	}
	if diff := cmp.Diff(want, fileNames(result)); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}

	fourVertical := fileNamed(t, result, "Blur_steps=4_vertical=true.fx")
	assertContains(t, fourVertical,
		"for (int i = 0; i < 4; i++) {",
		"if (true) {",
		"tex2D(fs_param_field, psin.TexCoords + (float2(0, i)) * fs_param_field_dxdy)",
		"(sum * (1.0 / ((float)4)))",
	)
	if strings.Contains(fourVertical, "fs_param_steps") || strings.Contains(fourVertical, "fs_param_vertical") {
		t.Error("specialized parameters are declared as uniforms")
	}

	glue := fileNamed(t, result, glueFileName)
	assertContains(t, glue,
		"func (shader Blur) Using(field fx.Field[fx.Color], steps Steps, vertical fx.Bool) {",
		"effect := shader.effectFor(steps, vertical)",
		"func (shader Blur) effectFor(steps Steps, vertical fx.Bool) fx.Effect {",
		"if steps == 2 && vertical == false {",
		"return blurEffect_steps_2_vertical_false",
		`content.Load("Blur_steps=4_vertical=true")`,
	)
	assertOrder(t, glue,
		"if steps == 1 && vertical == true {",
		"if steps == 1 && vertical == false {",
		"if steps == 2 && vertical == true {",
		"panic(",
	)
}

func TestCompileFaults(t *testing.T) {
	_, result, logs := compileFixture(t, Config{}, "./testdata/faults")
	faulty := fileNamed(t, result, "Faulty.fx")
	assertContains(t, faulty,
		"ERROR(Non-local assignment : level)",
		"ERROR(Unsupported builtin : min(level, 1))",
		"if (fs_param_level == 0.5) {",
		"float foreign_Brightness;",
	)
	assertContains(t, strings.Join(logs, "\n"), "warning: Faulty.fx contains ERROR markers")

	glue := fileNamed(t, result, glueFileName)
	assertContains(t, glue,
		"func (shader Faulty) Using(level float32) {",
		`effect.Parameter("foreign_Brightness").SetValue(Brightness)`,
	)

	path := filepath.Join(t.TempDir(), "Faulty.fx")
	if err := os.WriteFile(path, []byte(faulty), 0644); err != nil {
		t.Fatal(err)
	}
	if err := (CheckBuilder{}).Build(context.Background(), []string{path}); err == nil {
		t.Error("checking an effect with ERROR markers should fail")
	}
}

func TestCompileRecursive(t *testing.T) {
	_, result, _ := compileFixture(t, Config{}, "./testdata/recursive")
	fade := fileNamed(t, result, "Fade.fx")
	assertContains(t, fade, "ERROR(Recursive method : halve(1, 2))")
	if strings.Contains(fade, "float halve(") {
		t.Error("recursive helper was emitted")
	}
}

func TestCompileNegativeVals(t *testing.T) {
	_, result, _ := compileFixture(t, Config{}, "./testdata/negated")
	want := []string{
		glueFileName,
		"Neg_level=-1.25_count=-2.fx",
		"Neg_level=-1.25_count=3.fx",
		"Neg_level=0.5_count=-2.fx",
		"Neg_level=0.5_count=3.fx",
	}
	if diff := cmp.Diff(want, fileNames(result)); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}
	negative := fileNamed(t, result, "Neg_level=-1.25_count=-2.fx")
	assertContains(t, negative, "float x = -(-1.25);", "int n = -(-2);")
	assertContains(t, fileNamed(t, result, "Neg_level=0.5_count=3.fx"), "float x = -0.5;", "int n = -3;")
	for _, file := range result.Files {
		if filepath.Ext(file.Path) != ".fx" {
			continue
		}
		if _, err := fxeval.Parse(file.Path, file.Contents); err != nil {
			t.Errorf("%s: %v", filepath.Base(file.Path), err)
		}
	}
}

func TestCompileForeignNameClash(t *testing.T) {
	_, result, _ := compileFixture(t, Config{}, "./testdata/foreign")
	mix := fileNamed(t, result, "Mix.fx")
	assertOrder(t, mix,
		"float foreign_mixing_Gain;",
		"float foreign_other_Gain;",
		"float foreign_shader_Gain;",
	)
	assertContains(t, mix,
		"float4(foreign_mixing_Gain, foreign_other_Gain, foreign_shader_Gain, 1.0)",
		"(c * foreign_mixing_Gain)",
	)
	if n := strings.Count(mix, "float foreign_mixing_Gain;"); n != 1 {
		t.Errorf("foreign_mixing_Gain declared %d times", n)
	}
	assertContains(t, fileNamed(t, result, glueFileName),
		`effect.Parameter("foreign_mixing_Gain").SetValue(Gain)`,
		`effect.Parameter("foreign_other_Gain").SetValue(other.Gain)`,
		`effect.Parameter("foreign_shader_Gain").SetValue(shader.Gain)`,
	)

	device := fxeval.NewDevice()
	content := device.Content(fstest.MapFS{"Mix.fx": {Data: []byte(mix)}})
	effect, err := content.Load("Mix")
	if err != nil {
		t.Fatal(err)
	}
	effect.Parameter("foreign_mixing_Gain").SetValue(float32(0))
	effect.Parameter("foreign_other_Gain").SetValue(float32(0.2))
	effect.Parameter("foreign_shader_Gain").SetValue(float32(0.4))
	effect.Apply()
	target := fxeval.NewTexture(1, 1)
	device.SetRenderTarget(target)
	device.DrawGrid()
	if err := device.Err(); err != nil {
		t.Fatal(err)
	}
	if got, want := target.At(0, 0), (fx.Color{R: 0, G: 51.0 / 255, B: 102.0 / 255, A: 1}); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCompileHexColors(t *testing.T) {
	_, result, logs := compileFixture(t, Config{}, "./testdata/hex")
	orange := fileNamed(t, result, "Orange.fx")
	assertContains(t, orange, "__FinalOutput.Color = float4(1.0, 0.5019608, 0.0, 1.0);")
	assertContains(t, fileNamed(t, result, "Tinted.fx"),
		"float3 sky = float3(0.0, 0.5019608, 1.0);",
		"ERROR(Non-constant hex color : fx.RgbaHex(Tint, sky.X))",
	)
	assertContains(t, strings.Join(logs, "\n"), "warning: Tinted.fx contains ERROR markers")

	device := fxeval.NewDevice()
	content := device.Content(fstest.MapFS{"Orange.fx": {Data: []byte(orange)}})
	effect, err := content.Load("Orange")
	if err != nil {
		t.Fatal(err)
	}
	effect.Apply()
	target := fxeval.NewTexture(1, 1)
	device.SetRenderTarget(target)
	device.DrawGrid()
	if err := device.Err(); err != nil {
		t.Fatal(err)
	}
	if got, want := target.At(0, 0), fx.RgbaHex(0xFF8000, 1); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

// Sampler size and step variables only exist for variables, so a computed sampler cannot be
// compiled, whether it is sampled directly or passed to a helper.
func TestCompileComputedSampler(t *testing.T) {
	_, _, _, err := tryCompile(Config{}, "./testdata/badsampler")
	if err == nil {
		t.Fatal("compiling a computed sampler should fail")
	}
	assertContains(t, err.Error(),
		"badsampler.go:15:",
		"badsampler.go:16:",
		"sampler must be a parameter, a shader field or a package variable: fx.Select(level > 0.5, a, b)",
		"sampler must be a parameter, a shader field or a package variable: fx.Select(level > 0.5, b, a)",
	)
}

func TestCompileTolerant(t *testing.T) {
	_, result, _ := compileFixture(t, Config{Equality: Tolerant, Epsilon: 0.001}, "./testdata/faults")
	assertContains(t, fileNamed(t, result, "Faulty.fx"), "if ((abs(fs_param_level - 0.5) < 0.001)) {")
}

func TestCompileTypeErrors(t *testing.T) {
	t.Run("outside compiled code", func(t *testing.T) {
		_, result, logs := compileFixture(t, Config{}, "./testdata/typeerr/outside")
		assertContains(t, fileNamed(t, result, "Plain.fx"), "__FinalOutput.Color = float4(1.0, 1.0, 1.0, 1.0);")
		warned := false
		for _, log := range logs {
			warned = warned || (strings.HasPrefix(log, "warning: ") && strings.Contains(log, "outside.go"))
		}
		if !warned {
			t.Errorf("no warning for the type error in %v", logs)
		}
	})
	t.Run("inside compiled code", func(t *testing.T) {
		_, _, _, err := tryCompile(Config{}, "./testdata/typeerr/inside")
		if err == nil || !strings.Contains(err.Error(), "inside.go") {
			t.Errorf("got %v, want a fatal error in inside.go", err)
		}
	})
}

func TestCompileCopies(t *testing.T) {
	_, result, _ := compileFixture(t, Config{}, "./testdata/copies")
	copies := fileNamed(t, result, copiesFileName)
	assertContains(t, copies,
		"// Code generated by gxfx. DO NOT EDIT.",
		"// Particle is a copy of fx.Color.",
		"//gxfx:hlsl float4\ntype Particle struct {",
		"\tMass float32",
		"\tSpeed float32",
		"func particleToColor(x Particle) fx.Color {",
		"return fx.Color{R: x.Mass, G: x.Speed, B: x.B, A: x.A}",
		"func particleFromColor(x fx.Color) Particle {",
		"//gxfx:hlsl *\nfunc (p Particle) Scale(k float32) Particle {",
		"return particleFromColor(particleToColor(p).Scale(k))",
	)

	simulate := fileNamed(t, result, "Simulate.fx")
	assertContains(t, simulate,
		"float4 here = tex2D(fs_param_particles, psin.TexCoords + (float2(0, 0)) * fs_param_particles_dxdy);",
		"here.g = here.g + here.r;",
		"__FinalOutput.Color = (here * 0.5);",
	)
}

// The example's effects are compiled from source and run on a blinker.
func TestCompileLife(t *testing.T) {
	_, result, _ := compileFixture(t, Config{}, "./example/life")
	want := []string{copiesFileName, glueFileName, "DrawLife.fx", "UpdateLife.fx"}
	if diff := cmp.Diff(want, fileNames(result)); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}

	device := fxeval.NewDevice()
	content := device.Content(fstest.MapFS{
		"UpdateLife.fx": {Data: []byte(fileNamed(t, result, "UpdateLife.fx"))},
	})
	effect, err := content.Load("UpdateLife")
	if err != nil {
		t.Fatal(err)
	}
	alive := fx.Color{R: 1}
	current := fxeval.NewTexture(5, 5)
	for x := 1; x <= 3; x++ {
		current.Set(x, 2, alive)
	}
	next := fxeval.NewTexture(5, 5)
	effect.Parameter("fs_param_current_Texture").SetValue(current)
	effect.Parameter("fs_param_current_size").SetValue(fx.TextureSize(current))
	effect.Parameter("fs_param_current_dxdy").SetValue(fx.TextureStep(current))
	effect.Apply()
	device.SetRenderTarget(next)
	device.Clear(fx.Transparent)
	device.DrawGrid()
	if err := device.Err(); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			wantAlive := x == 2 && y >= 1 && y <= 3
			if gotAlive := next.At(x, y).R == 1; gotAlive != wantAlive {
				t.Errorf("cell (%d, %d) alive = %v, want %v", x, y, gotAlive, wantAlive)
			}
		}
	}
}

func TestWriteFileIfChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.fx")
	if err := writeFileIfChanged(path, "first"); err != nil {
		t.Fatal(err)
	}
	before, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	// Unchanged contents leave the file alone.
	if err := os.Chmod(path, 0444); err != nil {
		t.Fatal(err)
	}
	if err := writeFileIfChanged(path, "first"); err != nil {
		t.Errorf("rewriting unchanged contents: %v", err)
	}
	after, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("unchanged file was rewritten")
	}
	if err := os.Chmod(path, 0644); err != nil {
		t.Fatal(err)
	}
	if err := writeFileIfChanged(path, "second"); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(path); string(data) != "second" {
		t.Errorf("contents = %q", data)
	}
}

func TestReadersEqual(t *testing.T) {
	long := strings.Repeat("x", 3000)
	tests := []struct {
		a, b string
		want bool
	}{
		{"", "", true},
		{"abc", "abc", true},
		{"abc", "abd", false},
		{"abc", "abcd", false},
		{long, long, true},
		{long, long + "y", false},
	}
	for _, tt := range tests {
		if got := readersEqual(strings.NewReader(tt.a), bytes.NewReader([]byte(tt.b))); got != tt.want {
			t.Errorf("readersEqual(%d bytes, %d bytes) = %v", len(tt.a), len(tt.b), got)
		}
	}
}

func TestExecBuilder(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("no shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "A.fx")
	if err := os.WriteFile(path, []byte("effect"), 0644); err != nil {
		t.Fatal(err)
	}
	ok := ExecBuilder{Command: sh, Args: []string{"-c", `test -f "$0"`}}
	if err := ok.Build(context.Background(), []string{path}); err != nil {
		t.Errorf("appended path: %v", err)
	}
	substituted := ExecBuilder{Command: sh, Args: []string{"-c", "test -f {}"}}
	if err := substituted.Build(context.Background(), []string{path}); err != nil {
		t.Errorf("substituted path: %v", err)
	}
	missing := filepath.Join(dir, "B.fx")
	err = ok.Build(context.Background(), []string{path, missing})
	if err == nil || !strings.Contains(err.Error(), missing) || strings.Contains(err.Error(), path+":") {
		t.Errorf("got %v, want a failure naming only %s", err, missing)
	}
}
