package main

import (
	"fmt"
	"go/types"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/imports"
)

const (
	glueFileName    = "gxfx_glue.go"
	copiesFileName  = "gxfx_copies.go"
	generatedHeader = "// Code generated by gxfx. DO NOT EDIT.\n\n"
	fxPkgPath       = "github.com/nikki93/gxfx/fx"
)

// glueWriter accumulates the glue of one package.
type glueWriter struct {
	pkg     *types.Package
	imports map[string]string
	output  *strings.Builder
}

func (g *glueWriter) qualifier(pkg *types.Package) string {
	if pkg == g.pkg {
		return ""
	}
	g.imports[pkg.Path()] = pkg.Name()
	return pkg.Name()
}

func (g *glueWriter) typeString(typ types.Type) string {
	return types.TypeString(typ, g.qualifier)
}

func (g *glueWriter) printf(format string, args ...interface{}) {
	fmt.Fprintf(g.output, format, args...)
}

func effectVar(unit *Unit) string {
	return lowerFirst(unit.Shader.Name.Name()) + "Effect" + unit.Key.VarSuffix()
}

// argName is the name a parameter takes in the glue's signatures.
func argName(param *Param, i int) string {
	switch param.Name {
	case "", "_":
		return "param" + strconv.Itoa(i)
	case "device", "output", "shader", "effect", "fx":
		return param.Name + "Param"
	}
	return param.Name
}

// genGlue generates the glue of one package from its units, grouped by shader.
func (c *Compiler) genGlue(pkg *types.Package, units []*Unit) (string, error) {
	g := &glueWriter{
		pkg:     pkg,
		imports: map[string]string{fxPkgPath: "fx"},
		output:  &strings.Builder{},
	}
	var shaders []*Shader
	byShader := make(map[*Shader][]*Unit)
	for _, unit := range units {
		if _, ok := byShader[unit.Shader]; !ok {
			shaders = append(shaders, unit.Shader)
		}
		byShader[unit.Shader] = append(byShader[unit.Shader], unit)
	}

	// Effect variables
	g.printf("var (\n")
	for _, shader := range shaders {
		for _, unit := range byShader[shader] {
			g.printf("%s fx.Effect\n", effectVar(unit))
		}
	}
	g.printf(")\n\n")

	// Loading
	g.printf("// LoadShaders loads the compiled effects of this package's shaders.\n")
	g.printf("func LoadShaders(content fx.Content) error {\n")
	g.printf("var err error\n")
	for _, shader := range shaders {
		for _, unit := range byShader[shader] {
			name := strings.TrimSuffix(unit.FileName(), ".fx")
			g.printf("if %s, err = content.Load(%q); err != nil {\n", effectVar(unit), name)
			g.printf("return err\n}\n")
		}
	}
	g.printf("return nil\n}\n")

	for _, shader := range shaders {
		c.genShaderGlue(g, shader, byShader[shader])
	}

	header := &strings.Builder{}
	header.WriteString(generatedHeader)
	fmt.Fprintf(header, "package %s\n\n", pkg.Name())
	paths := make([]string, 0, len(g.imports))
	for path := range g.imports {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	header.WriteString("import (\n")
	for _, path := range paths {
		fmt.Fprintf(header, "%q\n", path)
	}
	header.WriteString(")\n\n")

	src := header.String() + g.output.String()
	formatted, err := imports.Process(glueFileName, []byte(src), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return src, fmt.Errorf("formatting glue for %s: %w", pkg.Path(), err)
	}
	return string(formatted), nil
}

func (c *Compiler) genShaderGlue(g *glueWriter, shader *Shader, units []*Unit) {
	name := shader.Name.Name()
	signature := units[0].Signature()
	var params, args []string
	for i, param := range signature {
		params = append(params, argName(param, i)+" "+g.typeString(param.HostType))
		args = append(args, argName(param, i))
	}
	paramList := strings.Join(params, ", ")
	argList := strings.Join(args, ", ")
	withDevice := func(list string) string {
		if list == "" {
			return "device fx.Device"
		}
		return "device fx.Device, " + list
	}

	g.printf("\n// Apply renders %s into output.\n", name)
	g.printf("func (shader %s) Apply(%s, output fx.RenderTarget) {\n", name, withDevice(paramList))
	g.printf("device.SetRenderTarget(output)\n")
	g.printf("device.Clear(fx.Transparent)\n")
	g.printf("shader.Draw(%s)\n", strings.TrimSuffix("device, "+argList, ", "))
	g.printf("}\n")

	g.printf("\n// Draw renders %s into the device's current render target.\n", name)
	g.printf("func (shader %s) Draw(%s) {\n", name, withDevice(paramList))
	g.printf("shader.Using(%s)\n", argList)
	g.printf("device.DrawGrid()\n")
	g.printf("}\n")

	g.printf("\n// Using binds the parameters of %s and makes it the current effect.\n", name)
	g.printf("func (shader %s) Using(%s) {\n", name, paramList)
	var specialized []string
	for i, param := range signature {
		if param.Specialized {
			specialized = append(specialized, argName(param, i))
		}
	}
	if len(units) > 1 || len(specialized) > 0 {
		g.printf("effect := shader.effectFor(%s)\n", strings.Join(specialized, ", "))
	} else {
		g.printf("effect := %s\n", effectVar(units[0]))
	}
	for i, param := range units[0].Params {
		if param.Foreign && !strings.HasPrefix(param.Bind, "shader.") {
			g.qualifier(param.Obj.Pkg())
		}
		switch {
		case param.Specialized:
			continue
		case param.Foreign && param.Sampler:
			c.genSamplerBinding(g, param.Emitted, param.Bind)
		case param.Foreign:
			g.printf("effect.Parameter(%q).SetValue(%s)\n", param.Emitted, param.Bind)
		case param.Sampler:
			c.genSamplerBinding(g, param.Emitted, argName(param, indexOf(signature, param, i)))
		default:
			g.printf("effect.Parameter(%q).SetValue(%s)\n", param.Emitted, argName(param, indexOf(signature, param, i)))
		}
	}
	g.printf("effect.Apply()\n")
	g.printf("}\n")

	if len(units) > 1 || len(specialized) > 0 {
		c.genDispatch(g, shader, units, signature)
	}
}

func indexOf(signature []*Param, param *Param, fallback int) int {
	for i, p := range signature {
		if p == param {
			return i
		}
	}
	return fallback
}

func (c *Compiler) genSamplerBinding(g *glueWriter, emitted, value string) {
	g.printf("effect.Parameter(%q).SetValue(%s.Texture)\n", emitted+"_Texture", value)
	g.printf("effect.Parameter(%q).SetValue(fx.TextureSize(%s.Texture))\n", emitted+"_size", value)
	g.printf("effect.Parameter(%q).SetValue(fx.TextureStep(%s.Texture))\n", emitted+"_dxdy", value)
}

// genDispatch writes effectFor, which picks the specialization matching the arguments. Candidates
// are tested in the order they were planned.
func (c *Compiler) genDispatch(g *glueWriter, shader *Shader, units []*Unit, signature []*Param) {
	var params []string
	argNames := make(map[*types.Var]string)
	for i, param := range signature {
		if param.Specialized {
			params = append(params, argName(param, i)+" "+g.typeString(param.HostType))
			argNames[param.Obj] = argName(param, i)
		}
	}
	g.printf("\nfunc (shader %s) effectFor(%s) fx.Effect {\n", shader.Name.Name(), strings.Join(params, ", "))
	for _, unit := range units {
		var conds []string
		for _, binding := range unit.Key {
			arg := argNames[binding.Param]
			if isFloat(binding.Param.Type()) {
				conds = append(conds, fmt.Sprintf("fx.Approx(float32(%s), %s)", arg, binding.Literal))
			} else {
				conds = append(conds, fmt.Sprintf("%s == %s", arg, binding.Literal))
			}
		}
		if len(conds) == 0 {
			g.printf("return %s\n", effectVar(unit))
			g.printf("}\n")
			return
		}
		g.printf("if %s {\n", strings.Join(conds, " && "))
		g.printf("return %s\n", effectVar(unit))
		g.printf("}\n")
	}
	g.printf("panic(%q)\n", fmt.Sprintf("gxfx: no specialization of %s matches the arguments", shader.Name.Name()))
	g.printf("}\n")
}
