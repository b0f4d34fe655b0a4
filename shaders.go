package main

import (
	"go/ast"
	"go/types"
	"sort"

	"golang.org/x/tools/go/packages"
)

// Shader is a shader-eligible type. Entries not declared on the type itself are inherited from
// its base, the nearest embedded shader-eligible type.
type Shader struct {
	Name *types.TypeName
	Pkg  *packages.Package
	Base *Shader

	methods []*ast.FuncDecl

	resolved bool
	vertex   *ast.FuncDecl
	fragment *ast.FuncDecl
}

func (s *Shader) String() string {
	return s.Name.Pkg().Name() + "." + s.Name.Name()
}

// Entries resolves the vertex and fragment entries, walking up the base chain once.
func (s *Shader) Entries() (vertex, fragment *ast.FuncDecl) {
	if !s.resolved {
		s.resolved = true
		for _, method := range s.methods {
			if s.vertex == nil && hasDirective(vertexDirectiveRe, method.Doc) {
				s.vertex = method
			}
			if s.fragment == nil && hasDirective(fragmentDirectiveRe, method.Doc) {
				s.fragment = method
			}
		}
		if s.Base != nil {
			baseVertex, baseFragment := s.Base.Entries()
			if s.vertex == nil {
				s.vertex = baseVertex
			}
			if s.fragment == nil {
				s.fragment = baseFragment
			}
		}
	}
	return s.vertex, s.fragment
}

type registry struct {
	shaders  map[*types.TypeName]*Shader
	ordered  []*Shader
	eligible map[*types.TypeName]bool
}

func (r *registry) isShader(typeName *types.TypeName) bool {
	_, ok := r.shaders[typeName]
	return ok
}

// isEligible reports whether a type embeds the shader base, directly or through other types.
func (c *Compiler) isEligible(typeName *types.TypeName, eligible map[*types.TypeName]bool) bool {
	if typeName == nil || c.shaderBase == nil {
		return false
	}
	if result, ok := eligible[typeName]; ok {
		return result
	}
	eligible[typeName] = false
	result := false
	if structType, ok := typeName.Type().Underlying().(*types.Struct); ok {
		for i := 0; i < structType.NumFields(); i++ {
			field := structType.Field(i)
			if !field.Embedded() {
				continue
			}
			if embedded := typeNameOf(field.Type()); embedded == c.shaderBase || c.isEligible(embedded, eligible) {
				result = true
				break
			}
		}
	}
	eligible[typeName] = result
	return result
}

// discover registers every shader-eligible type of every loaded package, then links bases. Bases
// are linked only after everything is registered, since a base may be declared anywhere.
func (c *Compiler) discover() {
	r := &registry{
		shaders:  make(map[*types.TypeName]*Shader),
		eligible: make(map[*types.TypeName]bool),
	}
	for _, d := range c.typeSpecs {
		typeName, _ := c.types.Defs[d.node.Name].(*types.TypeName)
		if typeName == nil || typeName == c.shaderBase || !c.isEligible(typeName, r.eligible) {
			continue
		}
		shader := &Shader{Name: typeName, Pkg: d.pkg}
		r.shaders[typeName] = shader
		r.ordered = append(r.ordered, shader)
	}
	for _, d := range c.funcDecls {
		fn := c.funcOf(d.node)
		if fn == nil {
			continue
		}
		if shader, ok := r.shaders[recvTypeName(fn)]; ok {
			shader.methods = append(shader.methods, d.node)
		}
	}
	for _, shader := range r.ordered {
		structType := shader.Name.Type().Underlying().(*types.Struct)
		for i := 0; i < structType.NumFields(); i++ {
			field := structType.Field(i)
			if !field.Embedded() {
				continue
			}
			if base, ok := r.shaders[typeNameOf(field.Type())]; ok {
				shader.Base = base
				break
			}
		}
	}
	c.registry = r
}

// rootShaders lists the shaders declared in root packages, in a stable order.
func (c *Compiler) rootShaders() []*Shader {
	isRoot := make(map[*packages.Package]bool)
	for _, pkg := range c.roots {
		isRoot[pkg] = true
	}
	var result []*Shader
	for _, shader := range c.registry.ordered {
		if isRoot[shader.Pkg] {
			result = append(result, shader)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if a, b := result[i].Pkg.PkgPath, result[j].Pkg.PkgPath; a != b {
			return a < b
		}
		return result[i].Name.Name() < result[j].Name.Name()
	})
	return result
}
