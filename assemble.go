package main

import (
	"fmt"
	"go/ast"
	"go/types"
	"strings"
)

type Role int

const (
	VertexParam Role = iota
	FragmentParam
)

// Param is one value the glue binds to an effect.
type Param struct {
	HostType    types.Type
	Spelling    string
	Name        string // Name in Go
	Emitted     string // Name in HLSL
	Role        Role
	Foreign     bool
	Sampler     bool
	Specialized bool
	Bind        string // Go expression a foreign variable is bound from
	Obj         *types.Var
}

// Unit is one assembled effect: a shader under one specialization.
type Unit struct {
	Shader *Shader
	Key    Key
	Source string
	Params []*Param

	decls []*ast.FuncDecl
}

func (u *Unit) FileName() string {
	return u.Shader.Name.Name() + u.Key.FileSuffix() + ".fx"
}

func (u *Unit) HasErrors() bool {
	return strings.Contains(u.Source, "ERROR(")
}

// Signature lists the parameters the glue's Apply and Using take, in order.
func (u *Unit) Signature() []*Param {
	var result []*Param
	for _, param := range u.Params {
		if !param.Foreign {
			result = append(result, param)
		}
	}
	return result
}

const fileBegin = `// This file was auto-generated by gxfx. It will be regenerated on the next compilation.
// Manual changes made will not persist and may cause incorrect behavior between compilations.

#define PIXEL_SHADER ps_3_0
#define VERTEX_SHADER vs_3_0

// Vertex shader data structure definition
struct VertexToPixel
{
  float4 Position   : POSITION0;
  float4 Color      : COLOR0;
  float2 TexCoords  : TEXCOORD0;
};

// Fragment shader data structure definition
struct PixelToFrame
{
  float4 Color      : COLOR0;
};

static VertexToPixel psin;
`

const fileEnd = `// Shader compilation
technique Simplest
{
  pass Pass0
  {
    VertexShader = compile VERTEX_SHADER StandardVertexShader();
    PixelShader = compile PIXEL_SHADER FragmentShader();
  }
}
`

func samplerBlock(name, filter, address string, slot int) string {
	return fmt.Sprintf(`// Texture Sampler for %[1]s, using register location %[2]d
float2 %[1]s_size;
float2 %[1]s_dxdy;

Texture %[1]s_Texture;
sampler %[1]s : register(s%[2]d) = sampler_state
{
  texture   = <%[1]s_Texture>;
  MipFilter = %[3]s;
  MagFilter = %[3]s;
  MinFilter = %[3]s;
  AddressU  = %[4]s;
  AddressV  = %[4]s;
};
`, name, slot, filter, address)
}

// samplerModes reads the filter and address modes off a sampler type's arguments.
func (c *Compiler) samplerModes(typ types.Type) (filter, address string) {
	filter, address = "Point", "Wrap"
	for typ != nil {
		named := namedOf(typ)
		if named == nil {
			break
		}
		if entry, ok := c.table.Lookup(named.Origin().Obj()); ok && entry.Spelling == samplerSpelling {
			if args := named.TypeArgs(); args != nil && args.Len() == 2 {
				if entry := c.table.RecursiveLookup(args.At(0)); entry.Ok() {
					filter = entry.Spelling
				}
				if entry := c.table.RecursiveLookup(args.At(1)); entry.Ok() {
					address = entry.Spelling
				}
			}
			break
		}
		typ = firstEmbedded(named)
	}
	return filter, address
}

// entryEmitter prepares an emitter for an entry's body. The first parameter is the stage input.
func (c *Compiler) entryEmitter(fn *types.Func, stage stage, literals map[*types.Var]string) *emitter {
	e := c.newEmitter(c.table)
	e.stage = stage
	sig := fn.Type().(*types.Signature)
	if recv := sig.Recv(); recv != nil {
		e.recv = recv
		e.shaderRecv = true
	}
	prefix := "vs_param_"
	if stage == stageFragment {
		prefix = "fs_param_"
	}
	for i := 0; i < sig.Params().Len(); i++ {
		param := sig.Params().At(i)
		switch {
		case i == 0 && stage == stageFragment:
			e.params[param] = "psin"
		case i == 0:
			e.input = param
		default:
			if literal, ok := literals[param]; ok {
				e.literals[param] = literal
			} else {
				e.params[param] = prefix + param.Name()
			}
		}
	}
	return e
}

// assemble emits the effect for one shader under one specialization.
func (c *Compiler) assemble(shader *Shader, key Key) *Unit {
	vertexDecl, fragmentDecl := shader.Entries()
	vertexFn, fragmentFn := c.funcOf(vertexDecl), c.funcOf(fragmentDecl)
	unit := &Unit{Shader: shader, Key: key, decls: []*ast.FuncDecl{vertexDecl, fragmentDecl}}
	slot := 0

	// Parameters
	var vertexDecls, fragmentDecls []string
	declareParams := func(fn *types.Func, role Role, e *emitter) {
		params := fn.Type().(*types.Signature).Params()
		for i := 1; i < params.Len(); i++ {
			param := params.At(i)
			entry := c.table.RecursiveLookup(param.Type())
			p := &Param{
				HostType: param.Type(),
				Spelling: entry.Spelling,
				Name:     param.Name(),
				Role:     role,
				Obj:      param,
			}
			if literal, ok := e.literals[param]; ok {
				p.Specialized = true
				p.Emitted = literal
				unit.Params = append(unit.Params, p)
				continue
			}
			p.Emitted = e.params[param]
			switch {
			case !entry.Ok():
				text := fmt.Sprintf("ERROR(Unsupported type : %s) %s;\n", param.Type(), p.Emitted)
				if role == VertexParam {
					vertexDecls = append(vertexDecls, text)
				} else {
					fragmentDecls = append(fragmentDecls, text)
				}
				continue
			case entry.Spelling == samplerSpelling && role == VertexParam:
				vertexDecls = append(vertexDecls, fmt.Sprintf("ERROR(Samplers not supported in vertex shaders : %s)\n", param.Name()))
				continue
			case entry.Spelling == samplerSpelling:
				p.Sampler = true
				filter, address := c.samplerModes(param.Type())
				fragmentDecls = append(fragmentDecls, samplerBlock(p.Emitted, filter, address, slot))
				slot++
			case role == VertexParam:
				vertexDecls = append(vertexDecls, entry.Spelling+" "+p.Emitted+";\n")
			default:
				fragmentDecls = append(fragmentDecls, entry.Spelling+" "+p.Emitted+";\n")
			}
			unit.Params = append(unit.Params, p)
		}
	}

	// Bodies
	vs := c.entryEmitter(vertexFn, stageVertex, nil)
	declareParams(vertexFn, VertexParam, vs)
	vs.write("{\n")
	vs.indent++
	vs.writeStmtList(vertexDecl.Body.List)
	vs.indent--
	vs.write("}\n")

	fs := c.entryEmitter(fragmentFn, stageFragment, key.literals())
	declareParams(fragmentFn, FragmentParam, fs)
	fs.write("{\n")
	fs.indent++
	fs.write("PixelToFrame __FinalOutput = (PixelToFrame)0;\n")
	fs.write("psin = __psin;\n")
	fs.writeStmtList(fragmentDecl.Body.List)
	fs.indent--
	fs.write("}\n")

	// Referenced methods and foreign variables, vertex first
	merged := c.newEmitter(c.table)
	for _, e := range []*emitter{vs, fs} {
		for _, m := range e.methods {
			merged.addMethod(m)
		}
		for _, f := range e.foreign {
			merged.addForeign(f)
		}
	}
	var methodTexts []string
	for _, m := range merged.methods {
		methodTexts = append(methodTexts, c.compiledMethod(m).text)
		unit.decls = append(unit.decls, c.decls[m])
	}
	var foreignDecls []string
	names := foreignNames(merged.foreign)
	refs := make([]string, 0, 2*len(merged.foreign))
	for _, f := range merged.foreign {
		name := names[f.Obj]
		refs = append(refs, f.Ref, name)
		p := &Param{
			HostType: f.Obj.Type(),
			Spelling: f.Spelling,
			Name:     f.Obj.Name(),
			Emitted:  name,
			Role:     FragmentParam,
			Foreign:  true,
			Sampler:  f.Sampler,
			Obj:      f.Obj,
		}
		switch {
		case f.Field:
			p.Bind = "shader." + f.Obj.Name()
		case f.Obj.Pkg() == shader.Name.Pkg():
			p.Bind = f.Obj.Name()
		default:
			p.Bind = f.Obj.Pkg().Name() + "." + f.Obj.Name()
		}
		if f.Sampler {
			filter, address := c.samplerModes(f.Obj.Type())
			foreignDecls = append(foreignDecls, samplerBlock(name, filter, address, slot))
			slot++
		} else {
			foreignDecls = append(foreignDecls, f.Spelling+" "+name+";\n")
		}
		unit.Params = append(unit.Params, p)
	}

	// File
	builder := &strings.Builder{}
	builder.WriteString(fileBegin)
	builder.WriteString("\n// The following are variables used by the vertex shader (vertex parameters).\n")
	builder.WriteString(strings.Join(vertexDecls, "\n"))
	builder.WriteString("\n// The following are variables used by the fragment shader (fragment parameters).\n")
	builder.WriteString(strings.Join(fragmentDecls, "\n"))
	builder.WriteString("\n// The following variables are included because they are referenced but are not function parameters.\n")
	builder.WriteString(strings.Join(foreignDecls, "\n"))
	builder.WriteString("\n// The following methods are included because they are referenced by the fragment shader.\n")
	builder.WriteString(strings.Join(methodTexts, "\n"))
	builder.WriteString("\n// Compiled vertex shader\n")
	builder.WriteString("VertexToPixel StandardVertexShader(float2 inPos : POSITION0, float2 inTexCoords : TEXCOORD0, float4 inColor : COLOR0)\n")
	builder.WriteString(vs.output.String())
	builder.WriteString("\n// Compiled fragment shader\n")
	builder.WriteString("PixelToFrame FragmentShader(VertexToPixel __psin)\n")
	builder.WriteString(fs.output.String())
	builder.WriteString("\n")
	builder.WriteString(fileEnd)
	unit.Source = strings.NewReplacer(refs...).Replace(builder.String())
	return unit
}
