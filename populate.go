package main

import (
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/packages"
)

// collect gathers the top-level declarations of every loaded package.
func (c *Compiler) collect() {
	c.typeSpecs, c.funcDecls, c.valueSpecs = nil, nil, nil
	for _, pkg := range c.pkgs {
		in := inspector.New(pkg.Syntax)
		nodeTypes := []ast.Node{(*ast.TypeSpec)(nil), (*ast.ValueSpec)(nil), (*ast.FuncDecl)(nil)}
		in.WithStack(nodeTypes, func(n ast.Node, push bool, stack []ast.Node) bool {
			if !push {
				return false
			}
			file := stack[0].(*ast.File)
			var gen *ast.GenDecl
			if len(stack) >= 2 {
				gen, _ = stack[len(stack)-2].(*ast.GenDecl)
			}
			switch n := n.(type) {
			case *ast.TypeSpec:
				if gen != nil && len(stack) == 3 {
					c.typeSpecs = append(c.typeSpecs, &declared[*ast.TypeSpec]{n, gen, file, pkg})
				}
			case *ast.ValueSpec:
				if gen != nil && len(stack) == 3 && gen.Tok == token.VAR {
					c.valueSpecs = append(c.valueSpecs, &declared[*ast.ValueSpec]{n, gen, file, pkg})
				}
			case *ast.FuncDecl:
				c.funcDecls = append(c.funcDecls, &declared[*ast.FuncDecl]{n, nil, file, pkg})
			}
			return false
		})
	}
}

// populate fills a table builder from the directives of every collected declaration.
func (c *Compiler) populate(builder *TableBuilder) {
	add := func(obj types.Object, matches []string, pos token.Pos) {
		if obj == nil {
			return
		}
		if err := builder.Add(obj, Entry{Spelling: matches[1], Rule: parseRule(matches[2])}, pos); err != nil {
			c.errorf(0, "%s", err)
		}
	}

	// Types
	for _, d := range c.typeSpecs {
		typeSpec := d.node
		docs := specDoc(d.gen, typeSpec.Doc, false)
		obj, _ := c.types.Defs[typeSpec.Name].(*types.TypeName)
		if obj == nil {
			continue
		}
		if matches := parseDirective(hlslDirectiveRe, docs...); matches != nil {
			add(obj, matches, typeSpec.Pos())
		}
		if hasDirective(typeMapDirectiveRe, docs...) {
			c.typeMaps[obj] = true
		}
		if hasDirective(shaderDirectiveRe, docs...) {
			if c.shaderBase != nil && c.shaderBase != obj {
				c.errorf(typeSpec.Pos(), "more than one shader base type: %s and %s", c.shaderBase.Name(), obj.Name())
			}
			c.shaderBase = obj
		}
		if hasDirective(offsetDirectiveRe, docs...) {
			c.offsets[obj] = true
		}
		if matches := parseDirective(valsDirectiveRe, docs...); matches != nil {
			c.vals[obj] = strings.Fields(matches[1])
		}
		if matches := parseDirective(valsOfDirectiveRe, docs...); matches != nil {
			if other := c.resolveTypeName(d.pkg, d.file, matches[1]); other != nil {
				c.valsOf[obj] = other
			} else {
				c.errorf(typeSpec.Pos(), "unknown type in valsof: %s", matches[1])
			}
		}
	}

	// Type maps
	for _, d := range c.funcDecls {
		funcDecl := d.node
		fn := c.funcOf(funcDecl)
		if fn == nil || !c.typeMaps[recvTypeName(fn)] {
			continue
		}
		matches := parseDirective(hlslDirectiveRe, funcDecl.Doc)
		sig := fn.Type().(*types.Signature)
		if matches == nil || sig.Params().Len() == 0 {
			c.errorf(funcDecl.Pos(), "type map method %s needs a translation and a parameter", fn.Name())
			continue
		}
		switch typ := sig.Params().At(0).Type().(type) {
		case *types.Basic:
			add(types.Universe.Lookup(typ.Name()), matches, funcDecl.Pos())
		default:
			add(typeNameOf(typ), matches, funcDecl.Pos())
		}
	}

	// Members
	for _, d := range c.typeSpecs {
		structType, ok := d.node.Type.(*ast.StructType)
		if !ok {
			continue
		}
		for _, field := range structType.Fields.List {
			matches := parseDirective(hlslDirectiveRe, field.Doc)
			if matches == nil {
				continue
			}
			for _, name := range field.Names {
				add(c.types.Defs[name], matches, name.Pos())
			}
		}
	}
	for _, d := range c.funcDecls {
		funcDecl := d.node
		fn := c.funcOf(funcDecl)
		if fn == nil || c.typeMaps[recvTypeName(fn)] {
			continue
		}
		c.decls[fn] = funcDecl
		c.declPkgs[fn] = d.pkg
		if matches := parseDirective(hlslDirectiveRe, funcDecl.Doc); matches != nil {
			add(fn, matches, funcDecl.Pos())
		}
		if matches := parseDirective(specialDirectiveRe, funcDecl.Doc); matches != nil {
			c.specials[fn] = matches[1]
		}
		if hasDirective(indexDirectiveRe, funcDecl.Doc) {
			c.indexers[fn] = true
		}
	}
	for _, d := range c.valueSpecs {
		matches := parseDirective(hlslDirectiveRe, specDoc(d.gen, d.node.Doc, false)...)
		if matches == nil {
			continue
		}
		for _, name := range d.node.Names {
			add(c.types.Defs[name], matches, name.Pos())
		}
	}

	// Readonly values
	c.foldReadonly(builder)
}

// readonlyVars lists the package vars marked readonly, in declaration order, with their
// initializers.
func (c *Compiler) readonlyVars() []readonlyVar {
	var result []readonlyVar
	for _, d := range c.valueSpecs {
		if !hasDirective(readonlyDirectiveRe, specDoc(d.gen, d.node.Doc, true)...) {
			continue
		}
		for i, name := range d.node.Names {
			obj, _ := c.types.Defs[name].(*types.Var)
			if obj == nil || i >= len(d.node.Values) {
				continue
			}
			result = append(result, readonlyVar{obj: obj, value: d.node.Values[i], pkg: d.pkg})
		}
	}
	return result
}

type readonlyVar struct {
	obj   *types.Var
	value ast.Expr
	pkg   *packages.Package
}
