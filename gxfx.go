package main

import (
	"fmt"
	"go/ast"
	"go/printer"
	"go/token"
	"go/types"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/tools/go/packages"
)

type Compiler struct {
	config Config

	fileSet *token.FileSet
	types   *types.Info
	pkgs    []*packages.Package // All loaded packages, dependencies first
	roots   []*packages.Package

	typeSpecs  []*declared[*ast.TypeSpec]
	funcDecls  []*declared[*ast.FuncDecl]
	valueSpecs []*declared[*ast.ValueSpec]

	table      *Table
	decls      map[*types.Func]*ast.FuncDecl
	declPkgs   map[*types.Func]*packages.Package
	specials   map[*types.Func]string
	indexers   map[*types.Func]bool
	offsets    map[*types.TypeName]bool
	vals       map[*types.TypeName][]string
	valsOf     map[*types.TypeName]*types.TypeName
	typeMaps   map[*types.TypeName]bool
	shaderBase *types.TypeName
	recursive  map[*types.Func]bool

	registry *registry
	methods  *methodCache

	errorsMu sync.Mutex
	errors   *strings.Builder
}

// declared is a declaration together with the file and package it appears in.
type declared[T ast.Node] struct {
	node T
	gen  *ast.GenDecl
	file *ast.File
	pkg  *packages.Package
}

func newCompiler(config Config) *Compiler {
	return &Compiler{
		config:   config,
		decls:    make(map[*types.Func]*ast.FuncDecl),
		declPkgs: make(map[*types.Func]*packages.Package),
		specials: make(map[*types.Func]string),
		indexers: make(map[*types.Func]bool),
		offsets:  make(map[*types.TypeName]bool),
		vals:     make(map[*types.TypeName][]string),
		valsOf:   make(map[*types.TypeName]*types.TypeName),
		typeMaps: make(map[*types.TypeName]bool),
		methods:  newMethodCache(),
		errors:   &strings.Builder{},
	}
}

//
// Error and writing utilities
//

func (c *Compiler) errorf(pos token.Pos, format string, args ...interface{}) {
	c.errorsMu.Lock()
	defer c.errorsMu.Unlock()
	if pos.IsValid() {
		fmt.Fprintf(c.errors, "%s: ", c.fileSet.PositionFor(pos, true))
	}
	fmt.Fprintf(c.errors, format, args...)
	fmt.Fprintln(c.errors)
}

func (c *Compiler) errored() bool {
	c.errorsMu.Lock()
	defer c.errorsMu.Unlock()
	return c.errors.Len() != 0
}

func (c *Compiler) logf(format string, args ...interface{}) {
	if c.config.Logf != nil {
		c.config.Logf(format, args...)
	}
}

// source renders a node on a single line for ERROR markers and diagnostics.
func (c *Compiler) source(node ast.Node) string {
	if expr, ok := node.(ast.Expr); ok {
		return types.ExprString(expr)
	}
	builder := &strings.Builder{}
	if err := printer.Fprint(builder, c.fileSet, node); err != nil {
		return fmt.Sprintf("%T", node)
	}
	return strings.Join(strings.Fields(builder.String()), " ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	result := []rune(s)
	result[0] = unicode.ToLower(result[0])
	return string(result)
}

//
// Object helpers
//

func origin(obj types.Object) types.Object {
	switch obj := obj.(type) {
	case *types.Func:
		return obj.Origin()
	case *types.Var:
		return obj.Origin()
	case *types.TypeName:
		if named, ok := obj.Type().(*types.Named); ok {
			return named.Origin().Obj()
		}
	}
	return obj
}

// namedOf unwraps pointers and returns the origin of a named type, or nil.
func namedOf(typ types.Type) *types.Named {
	if ptr, ok := typ.(*types.Pointer); ok {
		typ = ptr.Elem()
	}
	if alias, ok := typ.(*types.Alias); ok {
		typ = types.Unalias(alias)
	}
	if named, ok := typ.(*types.Named); ok {
		return named
	}
	return nil
}

func typeNameOf(typ types.Type) *types.TypeName {
	if named := namedOf(typ); named != nil {
		return named.Origin().Obj()
	}
	return nil
}

// firstEmbedded returns the type of the first embedded field of a struct type, the "base" of a
// type in this DSL.
func firstEmbedded(typ types.Type) types.Type {
	if st, ok := typ.Underlying().(*types.Struct); ok {
		for i := 0; i < st.NumFields(); i++ {
			if field := st.Field(i); field.Embedded() {
				return field.Type()
			}
		}
	}
	return nil
}

func isPackageLevel(obj types.Object) bool {
	return obj.Pkg() != nil && obj.Parent() == obj.Pkg().Scope()
}

func isFloat(typ types.Type) bool {
	if typ == nil {
		return false
	}
	basic, ok := typ.Underlying().(*types.Basic)
	return ok && basic.Info()&types.IsFloat != 0
}

func (c *Compiler) funcOf(decl *ast.FuncDecl) *types.Func {
	if fn, ok := c.types.Defs[decl.Name].(*types.Func); ok {
		return fn
	}
	return nil
}

// recvTypeName is the named type a method is declared on, or nil for functions.
func recvTypeName(fn *types.Func) *types.TypeName {
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Recv() == nil {
		return nil
	}
	return typeNameOf(sig.Recv().Type())
}
