package main

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"strconv"
	"strings"

	"github.com/gogpu/naga/hlsl"
)

const samplerSpelling = "sampler"

type stage int

const (
	stageHelper stage = iota
	stageVertex
	stageFragment
)

// emitter writes the HLSL for one function body. The methods and foreign variables it
// references are collected in order of first use.
type emitter struct {
	c      *Compiler
	lookup translations

	output     *strings.Builder
	indent     int
	atBlockEnd bool

	stage      stage
	folding    bool
	input      *types.Var
	recv       *types.Var
	shaderRecv bool
	params     map[*types.Var]string
	literals   map[*types.Var]string

	methods []*types.Func
	foreign []*foreignVar
}

// foreignVar is a package var or shader field a body reads without it being a parameter. Bodies
// refer to it through Ref, which the assembler replaces with the name it is declared under once
// every foreign variable of the effect is known.
type foreignVar struct {
	Ref      string
	Obj      *types.Var
	Spelling string
	Sampler  bool
	Field    bool
}

func (c *Compiler) newEmitter(lookup translations) *emitter {
	return &emitter{
		c:        c,
		lookup:   lookup,
		output:   &strings.Builder{},
		params:   make(map[*types.Var]string),
		literals: make(map[*types.Var]string),
	}
}

func (e *emitter) write(s string) {
	e.atBlockEnd = false
	if peek := e.output.String(); len(peek) > 0 && peek[len(peek)-1] == '\n' {
		for i := 0; i < 2*e.indent; i++ {
			e.output.WriteByte(' ')
		}
	}
	e.output.WriteString(s)
}

// fault marks a construct that could not be translated and carries on.
func (e *emitter) fault(node ast.Node, description string) {
	e.write(fmt.Sprintf("ERROR(%s : %s)", description, e.c.source(node)))
}

func (e *emitter) addMethod(fn *types.Func) {
	for _, m := range e.methods {
		if m == fn {
			return
		}
	}
	e.methods = append(e.methods, fn)
}

func (e *emitter) addForeign(f *foreignVar) {
	for _, g := range e.foreign {
		if g.Obj == f.Obj {
			return
		}
	}
	e.foreign = append(e.foreign, f)
}

func (e *emitter) isSampler(typ types.Type) bool {
	return e.lookup.RecursiveLookup(typ).Spelling == samplerSpelling
}

func (e *emitter) isRecv(expr ast.Expr) bool {
	if ident, ok := ast.Unparen(expr).(*ast.Ident); ok && e.recv != nil {
		return e.c.types.Uses[ident] == e.recv
	}
	return false
}

func escape(name string) string {
	return hlsl.Escape(name)
}

//
// Literals
//

func formatFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 32)
	if mantissa, exp, ok := strings.Cut(s, "e"); ok {
		if !strings.Contains(mantissa, ".") {
			mantissa += ".0"
		}
		return mantissa + "e" + exp
	}
	if !strings.ContainsAny(s, ".IN") {
		s += ".0"
	}
	return s
}

func (e *emitter) writeConstant(expr ast.Expr, tv types.TypeAndValue) {
	basic, ok := tv.Type.Underlying().(*types.Basic)
	if !ok {
		e.fault(expr, "Unsupported constant")
		return
	}
	value := tv.Value
	switch info := basic.Info(); {
	case info&types.IsBoolean != 0:
		e.write(strconv.FormatBool(constant.BoolVal(value)))
	case info&types.IsInteger != 0:
		if i, exact := constant.Int64Val(constant.ToInt(value)); exact {
			e.write(strconv.FormatInt(i, 10))
		} else {
			e.fault(expr, "Integer constant out of range")
		}
	case info&types.IsFloat != 0:
		f, _ := constant.Float32Val(constant.ToFloat(value))
		e.write(formatFloat(f))
	default:
		e.fault(expr, "Unsupported constant")
	}
}

// writeZero writes the zero value of a type.
func (e *emitter) writeZero(node ast.Node, typ types.Type) {
	if basic, ok := typ.Underlying().(*types.Basic); ok {
		switch info := basic.Info(); {
		case info&types.IsBoolean != 0:
			e.write("false")
			return
		case info&types.IsInteger != 0:
			e.write("0")
			return
		case info&types.IsFloat != 0:
			e.write("0.0")
			return
		}
	}
	entry := e.lookup.RecursiveLookup(typ)
	if !entry.Ok() {
		e.fault(node, "Unsupported type")
		return
	}
	e.write("(" + entry.Spelling + ")0")
}

//
// Expressions
//

func (e *emitter) writeIdent(ident *ast.Ident) {
	obj := e.c.types.Uses[ident]
	if obj == nil {
		obj = e.c.types.Defs[ident]
	}
	switch obj := obj.(type) {
	case *types.Var:
		if lit, ok := e.literals[obj]; ok {
			if strings.HasPrefix(lit, "-") {
				lit = "(" + lit + ")"
			}
			e.write(lit)
			return
		}
		if name, ok := e.params[obj]; ok {
			e.write(name)
			return
		}
		if obj == e.input {
			e.fault(ident, "Vertex input used as a value")
			return
		}
		if e.recv != nil && obj == e.recv {
			e.fault(ident, "Receiver used as a value")
			return
		}
		if entry, ok := e.lookup.Lookup(obj); ok {
			e.write(entry.Spelling)
			return
		}
		if isPackageLevel(obj) {
			e.writeForeign(ident, obj, false)
			return
		}
		if obj.IsField() {
			e.fault(ident, "Untranslated field")
			return
		}
		e.write(escape(obj.Name()))
	case *types.Const:
		if entry, ok := e.lookup.Lookup(obj); ok {
			e.write(entry.Spelling)
			return
		}
		e.writeConstant(ident, e.c.types.Types[ident])
	default:
		e.fault(ident, "Non-local symbol")
	}
}

func (e *emitter) writeForeign(node ast.Node, obj *types.Var, field bool) {
	if name, ok := e.foreignFor(node, obj, field); ok {
		e.write(name)
	} else {
		e.fault(node, "Non-local symbol")
	}
}

// foreignFor records a foreign variable and returns the name it is declared under.
func (e *emitter) foreignFor(node ast.Node, obj *types.Var, field bool) (string, bool) {
	if e.folding {
		return "", false
	}
	entry := e.lookup.RecursiveLookup(obj.Type())
	if !entry.Ok() {
		return "", false
	}
	obj = obj.Origin()
	f := &foreignVar{
		Ref:      foreignRef(obj),
		Obj:      obj,
		Spelling: entry.Spelling,
		Sampler:  entry.Spelling == samplerSpelling,
		Field:    field,
	}
	e.addForeign(f)
	return f.Ref, true
}

// foreignRef is the placeholder a body refers to a foreign variable by. Positions identify
// declarations, so the placeholder is the same in every cached helper.
func foreignRef(obj *types.Var) string {
	return fmt.Sprintf("\x00foreign%d\x00", obj.Pos())
}

// foreignNames names the foreign variables of one effect. A name shared by distinct variables is
// qualified by the declaring package, or by "shader" for shader fields, then numbered if still
// shared.
func foreignNames(foreign []*foreignVar) map[*types.Var]string {
	prefix := func(f *foreignVar) string {
		if f.Sampler {
			return "foreign_sampler_"
		}
		return "foreign_"
	}
	counts := make(map[string]int)
	for _, f := range foreign {
		counts[prefix(f)+f.Obj.Name()]++
	}
	names := make(map[*types.Var]string, len(foreign))
	used := make(map[string]bool, len(foreign))
	for _, f := range foreign {
		name := prefix(f) + f.Obj.Name()
		if counts[name] > 1 {
			qualifier := "shader"
			if !f.Field && f.Obj.Pkg() != nil {
				qualifier = f.Obj.Pkg().Name()
			}
			name = prefix(f) + qualifier + "_" + f.Obj.Name()
		}
		for base, i := name, 2; used[name]; i++ {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		used[name] = true
		names[f.Obj] = name
	}
	return names
}

func (e *emitter) writeCompositeLit(lit *ast.CompositeLit) {
	typ := e.c.types.TypeOf(lit)
	entry := e.lookup.RecursiveLookup(typ)
	structType, isStruct := typ.Underlying().(*types.Struct)
	if !entry.Ok() || !isStruct {
		e.fault(lit, "Unsupported construction")
		return
	}
	if len(lit.Elts) == 0 {
		e.write("(" + entry.Spelling + ")0")
		return
	}
	values := make([]ast.Expr, structType.NumFields())
	for i, elt := range lit.Elts {
		if kv, ok := elt.(*ast.KeyValueExpr); ok {
			if key, ok := kv.Key.(*ast.Ident); ok {
				for j := range values {
					if structType.Field(j).Name() == key.Name {
						values[j] = kv.Value
					}
				}
			}
		} else if i < len(values) {
			values[i] = elt
		}
	}
	e.write(entry.Spelling + "(")
	for i, value := range values {
		if i > 0 {
			e.write(", ")
		}
		if value == nil {
			e.writeZero(lit, structType.Field(i).Type())
		} else {
			e.writeExpr(value)
		}
	}
	e.write(")")
}

func (e *emitter) writeParenExpr(paren *ast.ParenExpr) {
	e.write("(")
	e.writeExpr(paren.X)
	e.write(")")
}

func (e *emitter) writeSelectorExpr(sel *ast.SelectorExpr) {
	selection, ok := e.c.types.Selections[sel]
	if !ok {
		// Package-qualified identifier
		e.writeIdent(sel.Sel)
		return
	}
	switch selection.Kind() {
	case types.FieldVal:
		field := selection.Obj().(*types.Var)
		if entry, ok := e.lookup.Lookup(field); ok {
			switch entry.Rule {
			case Expression:
				e.write(entry.Spelling)
			case Suffix:
				e.writeExpr(sel.X)
				e.write("_" + entry.Spelling)
			default:
				e.writeExpr(sel.X)
				e.write("." + entry.Spelling)
			}
			return
		}
		if e.shaderRecv && e.isRecv(sel.X) {
			e.writeForeign(sel, field, true)
			return
		}
		e.fault(sel, "Untranslated field")
	default:
		e.fault(sel, "Method value")
	}
}

// cPrecedence is the precedence of a binary operator in HLSL, which follows C rather than Go.
func cPrecedence(op token.Token) int {
	switch op {
	case token.MUL, token.QUO, token.REM:
		return 10
	case token.ADD, token.SUB:
		return 9
	case token.SHL, token.SHR:
		return 8
	case token.LSS, token.GTR, token.LEQ, token.GEQ:
		return 7
	case token.EQL, token.NEQ:
		return 6
	case token.AND:
		return 5
	case token.XOR:
		return 4
	case token.OR:
		return 3
	case token.LAND:
		return 2
	case token.LOR:
		return 1
	}
	return 0
}

// writeOperand writes an operand of a binary operator, parenthesizing it where C would parse it
// differently than Go.
func (e *emitter) writeOperand(x ast.Expr, parent token.Token, right bool) {
	if bin, ok := x.(*ast.BinaryExpr); ok && !e.isConstant(bin) {
		prec, parentPrec := cPrecedence(bin.Op), cPrecedence(parent)
		if parentPrec == 0 || prec < parentPrec || (right && prec == parentPrec) {
			e.write("(")
			e.writeExpr(x)
			e.write(")")
			return
		}
	}
	e.writeExpr(x)
}

func (e *emitter) writeUnaryOperand(x ast.Expr) {
	switch x.(type) {
	case *ast.BinaryExpr, *ast.UnaryExpr:
		if !e.isConstant(x) {
			e.write("(")
			e.writeExpr(x)
			e.write(")")
			return
		}
	}
	e.writeExpr(x)
}

func (e *emitter) isConstant(x ast.Expr) bool {
	tv, ok := e.c.types.Types[x]
	return ok && tv.Value != nil
}

func (e *emitter) writeUnaryExpr(un *ast.UnaryExpr) {
	switch un.Op {
	case token.SUB, token.ADD, token.NOT:
		e.write(un.Op.String())
	case token.XOR:
		e.write("~")
	default:
		e.fault(un, "Unsupported unary operator")
		return
	}
	e.writeUnaryOperand(un.X)
}

func (e *emitter) writeBinaryExpr(bin *ast.BinaryExpr) {
	if bin.Op == token.AND_NOT {
		e.fault(bin, "Unsupported binary operator")
		return
	}
	if (bin.Op == token.EQL || bin.Op == token.NEQ) && e.c.config.Equality == Tolerant &&
		isFloat(e.c.types.TypeOf(bin.X)) && isFloat(e.c.types.TypeOf(bin.Y)) {
		e.write("(abs(")
		e.writeOperand(bin.X, token.SUB, false)
		e.write(" - ")
		e.writeOperand(bin.Y, token.SUB, true)
		if bin.Op == token.EQL {
			e.write(") < ")
		} else {
			e.write(") >= ")
		}
		e.write(formatFloat(float32(e.c.config.epsilon())) + ")")
		return
	}
	e.writeOperand(bin.X, bin.Op, false)
	e.write(" " + bin.Op.String() + " ")
	e.writeOperand(bin.Y, bin.Op, true)
}

func (e *emitter) hasEntry(expr ast.Expr) bool {
	var ident *ast.Ident
	switch expr := expr.(type) {
	case *ast.Ident:
		ident = expr
	case *ast.SelectorExpr:
		ident = expr.Sel
	default:
		return false
	}
	_, ok := e.lookup.Lookup(e.c.types.Uses[ident])
	return ok
}

func (e *emitter) writeExpr(expr ast.Expr) {
	if tv, ok := e.c.types.Types[expr]; ok && tv.Value != nil && !e.hasEntry(expr) {
		e.writeConstant(expr, tv)
		return
	}
	switch expr := expr.(type) {
	case *ast.Ident:
		e.writeIdent(expr)
	case *ast.CompositeLit:
		e.writeCompositeLit(expr)
	case *ast.ParenExpr:
		e.writeParenExpr(expr)
	case *ast.SelectorExpr:
		e.writeSelectorExpr(expr)
	case *ast.CallExpr:
		e.writeCallExpr(expr)
	case *ast.UnaryExpr:
		e.writeUnaryExpr(expr)
	case *ast.BinaryExpr:
		e.writeBinaryExpr(expr)
	case *ast.IndexExpr, *ast.IndexListExpr:
		e.fault(expr, "Unsupported indexing")
	case *ast.FuncLit:
		e.fault(expr, "Unsupported function literal")
	case *ast.StarExpr:
		e.fault(expr, "Unsupported pointer")
	default:
		e.fault(expr, "Unsupported expression")
	}
}
