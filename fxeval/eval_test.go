package fxeval

import (
	"strings"
	"testing"
)

const technique = `
float4 Main() { return float4(0, 0, 0, 0); }
technique T { pass P { VertexShader = compile vs_3_0 Main(); PixelShader = compile ps_3_0 Main(); } }
`

const evalSource = `
#define LIMIT 100

struct Pair { float a; int b; };

int divide(int a, int b) { return a / b; }

float sumEven(int n) {
	float total = 0;
	for (int i = 0; i < LIMIT; i++) {
		if (i >= n) break;
		if (i % 2 == 1) continue;
		total += i;
	}
	return total;
}

float4 swizzled(float4 v) {
	float4 r = v.wzyx;
	r.xy = float2(7, 8);
	return r;
}

float pick(bool c) { return c ? 1.5 : -1.5; }

float pair() {
	Pair p = (Pair)0;
	p.a = 2.5;
	p.b = 3;
	return p.a * p.b;
}

float intrinsicSum() { return lerp(0.0, 10.0, 0.25) + clamp(5.0, 0.0, 1.0) + dot(float2(1, 2), float2(3, 4)); }

int bits() { return (6 & 3) | (1 << 3); }

float3 broadcast(float k) { return float3(1, 2, 3) * k + 1; }

float recurse(float x) { return recurse(x); }

float divideByZero() { return divide(1, 0); }

float undefinedVariable() { return missing; }

int counter() {
	int n = 0;
	n++;
	++n;
	n *= 5;
	return n;
}
` + technique

func evalProgram(t *testing.T) *Program {
	t.Helper()
	program, err := Parse("eval.fx", evalSource)
	if err != nil {
		t.Fatal(err)
	}
	return program
}

func TestEval(t *testing.T) {
	program := evalProgram(t)
	tests := []struct {
		name string
		fn   string
		args []Value
		want []float32
	}{
		{"int division truncates", "divide", []Value{intValue(7), intValue(2)}, []float32{3}},
		{"negative division truncates", "divide", []Value{intValue(-7), intValue(2)}, []float32{-3}},
		{"break and continue", "sumEven", []Value{intValue(5)}, []float32{6}},
		{"swizzles", "swizzled", []Value{{Type: vectorType(Float, 4), C: [4]float32{1, 2, 3, 4}}}, []float32{7, 8, 2, 1}},
		{"ternary true", "pick", []Value{boolValue(true)}, []float32{1.5}},
		{"ternary false", "pick", []Value{boolValue(false)}, []float32{-1.5}},
		{"struct fields", "pair", nil, []float32{7.5}},
		{"intrinsics", "intrinsicSum", nil, []float32{14.5}},
		{"bitwise", "bits", nil, []float32{10}},
		{"scalar broadcast", "broadcast", []Value{floatValue(2)}, []float32{3, 5, 7}},
		{"increments", "counter", nil, []float32{10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(program, map[string]*Value{})
			got, err := m.invoke(tt.fn, tt.args)
			if err != nil {
				t.Fatal(err)
			}
			comps := got.components()
			if len(comps) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range comps {
				if comps[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestEvalFaults(t *testing.T) {
	program := evalProgram(t)
	tests := []struct {
		fn, want string
	}{
		{"recurse", "call depth exceeded"},
		{"divideByZero", "integer division by zero"},
		{"undefinedVariable", "undefined: missing"},
		{"noSuchFunction", "undefined function noSuchFunction"},
	}
	for _, tt := range tests {
		t.Run(tt.fn, func(t *testing.T) {
			m := newMachine(program, map[string]*Value{})
			args := []Value(nil)
			if tt.fn == "recurse" {
				args = []Value{floatValue(1)}
			}
			_, err := m.invoke(tt.fn, args)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want an error containing %q", err, tt.want)
			}
		})
	}
}

func TestUniformsAreReadOnly(t *testing.T) {
	program, err := Parse("uniform.fx", `
float level;
float readLevel() { return level * 2; }
float writeLevel() { level = 1; return level; }
`+technique)
	if err != nil {
		t.Fatal(err)
	}
	level := floatValue(0.25)
	m := newMachine(program, map[string]*Value{"level": &level})
	got, err := m.invoke("readLevel", nil)
	if err != nil || got.C[0] != 0.5 {
		t.Errorf("readLevel() = %v, %v", got, err)
	}
	if _, err := m.invoke("writeLevel", nil); err == nil || !strings.Contains(err.Error(), "cannot assign to uniform level") {
		t.Errorf("writeLevel() error = %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, src, want string
		line           int
	}{
		{
			name: "error marker",
			src:  "float4 a;\nfloat4 b = ERROR(Unsupported call : f(x));\n",
			want: "untranslated code: ERROR(Unsupported call : f(x));",
			line: 2,
		},
		{
			name: "unknown type",
			src:  "\n\nmatrix m;\n",
			want: `unknown type "matrix"`,
			line: 3,
		},
		{
			name: "missing technique",
			src:  "float4 Main() { return 0; }\n",
			want: "missing technique",
		},
		{
			name: "undefined entry",
			src:  "technique T { pass P { VertexShader = compile vs_3_0 V(); PixelShader = compile ps_3_0 F(); } }",
			want: "undefined entry V",
		},
		{
			name: "unterminated block",
			src:  "float f() { return 1;",
			want: "unterminated block",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.fx", tt.src)
			parseErr, ok := err.(*ParseError)
			if !ok {
				t.Fatalf("got %v, want a parse error", err)
			}
			if !strings.Contains(parseErr.Msg, tt.want) {
				t.Errorf("message %q, want %q", parseErr.Msg, tt.want)
			}
			if tt.line != 0 && parseErr.Pos.Line != tt.line {
				t.Errorf("line %d, want %d", parseErr.Pos.Line, tt.line)
			}
		})
	}
}

func TestPreprocess(t *testing.T) {
	src, defines := preprocess("#define PIXEL_SHADER ps_3_0\n#define WIDTH 4\nfloat x;\n")
	if defines["PIXEL_SHADER"] != "ps_3_0" || defines["WIDTH"] != "4" {
		t.Errorf("defines = %v", defines)
	}
	// Lines are kept so positions still match the source.
	if strings.Count(src, "\n") != 3 || !strings.Contains(src, "float x;") {
		t.Errorf("preprocessed source %q", src)
	}
}
