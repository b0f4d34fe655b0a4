package main

import (
	"go/types"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const specializeSource = `package p

type Bool bool

type Mode int

type Level float32

type Shade Level

type Gain float32

type Shader struct{}

func (Shader) Fragment(vertex int, fill Bool, mode Mode, level float32) {}

func (Shader) Plain(vertex int, level float32) {}

func (Shader) Shaded(vertex int, shade Shade) {}

func (Shader) Amplified(vertex int, gain Gain) {}
`

func specializeCompiler(t *testing.T) (*Compiler, *types.Package) {
	t.Helper()
	_, pkg := checkSource(t, specializeSource)
	c := newCompiler(Config{})
	typeName := func(name string) *types.TypeName { return pkg.Scope().Lookup(name).(*types.TypeName) }
	c.vals[typeName("Bool")] = []string{"true", "false"}
	c.vals[typeName("Mode")] = []string{"0", "1", "2"}
	c.vals[typeName("Level")] = []string{"0.5", "-1.25"}
	c.valsOf[typeName("Shade")] = typeName("Level")
	c.vals[typeName("Gain")] = []string{"1", "2", "1e-5"}
	return c, pkg
}

func shaderMethod(pkg *types.Package, name string) *types.Func {
	shader := pkg.Scope().Lookup("Shader").Type().(*types.Named)
	for i := 0; i < shader.NumMethods(); i++ {
		if m := shader.Method(i); m.Name() == name {
			return m
		}
	}
	return nil
}

func keyStrings(keys []Key) []string {
	var result []string
	for _, key := range keys {
		result = append(result, key.FileSuffix())
	}
	return result
}

func TestPlan(t *testing.T) {
	c, pkg := specializeCompiler(t)

	keys := c.Plan(shaderMethod(pkg, "Fragment"))
	want := []string{
		"_fill=true_mode=0",
		"_fill=true_mode=1",
		"_fill=true_mode=2",
		"_fill=false_mode=0",
		"_fill=false_mode=1",
		"_fill=false_mode=2",
	}
	if diff := cmp.Diff(want, keyStrings(keys)); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}

	if keys := c.Plan(shaderMethod(pkg, "Plain")); len(keys) != 1 || len(keys[0]) != 0 {
		t.Errorf("unspecialized shader planned as %v", keyStrings(keys))
	}

	keys = c.Plan(shaderMethod(pkg, "Shaded"))
	if diff := cmp.Diff([]string{"_shade=0.5", "_shade=-1.25"}, keyStrings(keys)); diff != "" {
		t.Errorf("valsof keys (-want +got):\n%s", diff)
	}

	keys = c.Plan(shaderMethod(pkg, "Amplified"))
	if diff := cmp.Diff([]string{"_gain=1.0", "_gain=2.0", "_gain=1.0e-05"}, keyStrings(keys)); diff != "" {
		t.Errorf("float keys (-want +got):\n%s", diff)
	}
}

func TestKeySuffixes(t *testing.T) {
	c, pkg := specializeCompiler(t)
	keys := c.Plan(shaderMethod(pkg, "Shaded"))
	tests := []struct {
		key        Key
		file, name string
	}{
		{nil, "", ""},
		{keys[0], "_shade=0.5", "_shade_0p5"},
		{keys[1], "_shade=-1.25", "_shade_m1p25"},
	}
	for _, tt := range tests {
		if got := tt.key.FileSuffix(); got != tt.file {
			t.Errorf("FileSuffix() = %q, want %q", got, tt.file)
		}
		if got := tt.key.VarSuffix(); got != tt.name {
			t.Errorf("VarSuffix() = %q, want %q", got, tt.name)
		}
	}
}

func TestKeyLiterals(t *testing.T) {
	c, pkg := specializeCompiler(t)
	keys := c.Plan(shaderMethod(pkg, "Fragment"))
	literals := keys[4].literals()
	if len(literals) != 2 {
		t.Fatalf("got %d literals", len(literals))
	}
	for param, literal := range literals {
		switch param.Name() {
		case "fill":
			if literal != "false" {
				t.Errorf("fill = %s", literal)
			}
		case "mode":
			if literal != "1" {
				t.Errorf("mode = %s", literal)
			}
		default:
			t.Errorf("unexpected parameter %s", param.Name())
		}
	}
}
