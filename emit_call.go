package main

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
)

// operators are the spellings that make a translated method lower to an infix or prefix operator.
var operators = map[string]token.Token{
	"+":  token.ADD,
	"-":  token.SUB,
	"*":  token.MUL,
	"/":  token.QUO,
	"%":  token.REM,
	"<":  token.LSS,
	">":  token.GTR,
	"<=": token.LEQ,
	">=": token.GEQ,
	"==": token.EQL,
	"!=": token.NEQ,
	"&&": token.LAND,
	"||": token.LOR,
}

func (e *emitter) writeCallExpr(call *ast.CallExpr) {
	funTV := e.c.types.Types[call.Fun]
	if funTV.IsType() {
		e.writeConversion(call, funTV.Type)
		return
	}
	if funTV.IsBuiltin() {
		e.fault(call, "Unsupported builtin")
		return
	}
	fun := ast.Unparen(call.Fun)
	switch f := fun.(type) {
	case *ast.IndexExpr:
		fun = f.X
	case *ast.IndexListExpr:
		fun = f.X
	}
	switch f := fun.(type) {
	case *ast.SelectorExpr:
		if sel, ok := e.c.types.Selections[f]; ok {
			if fn, ok := sel.Obj().(*types.Func); ok && sel.Kind() == types.MethodVal {
				e.writeMethodCall(call, f.X, fn.Origin())
				return
			}
		} else if fn, ok := e.c.types.Uses[f.Sel].(*types.Func); ok {
			e.writeFuncCall(call, fn.Origin())
			return
		}
	case *ast.Ident:
		if fn, ok := e.c.types.Uses[f].(*types.Func); ok {
			e.writeFuncCall(call, fn.Origin())
			return
		}
	}
	e.fault(call, "Unsupported call")
}

func (e *emitter) writeArgs(args []ast.Expr, params *types.Tuple, first bool) {
	for i, arg := range args {
		if i > 0 || !first {
			e.write(", ")
		}
		if params != nil && i < params.Len() && e.isSampler(params.At(i).Type()) {
			e.writeSamplerArg(arg)
		} else {
			e.writeExpr(arg)
		}
	}
}

func (e *emitter) writeFuncCall(call *ast.CallExpr, fn *types.Func) {
	if special, ok := e.c.specials[fn]; ok {
		e.writeSpecial(call, special)
		return
	}
	if entry, ok := e.lookup.Lookup(fn); ok {
		e.write(entry.Spelling)
		if entry.Rule != Expression {
			e.write("(")
			e.writeArgs(call.Args, nil, true)
			e.write(")")
		}
		return
	}
	e.writeHelperCall(call, fn, nil)
}

func (e *emitter) writeMethodCall(call *ast.CallExpr, recv ast.Expr, fn *types.Func) {
	if e.c.indexers[fn] {
		e.writeSample(call, recv)
		return
	}
	entry, ok := e.lookup.Lookup(fn)
	if !ok {
		e.writeHelperCall(call, fn, recv)
		return
	}
	if op, ok := operators[entry.Spelling]; ok {
		switch len(call.Args) {
		case 0:
			e.write("(" + entry.Spelling)
			e.writeUnaryOperand(recv)
			e.write(")")
		case 1:
			e.write("(")
			e.writeOperand(recv, op, false)
			e.write(" " + entry.Spelling + " ")
			e.writeOperand(call.Args[0], op, true)
			e.write(")")
		default:
			e.fault(call, "Unsupported operator arity")
		}
		return
	}
	switch entry.Rule {
	case Expression:
		e.write(entry.Spelling)
	case Suffix:
		e.writeExpr(recv)
		e.write("_" + entry.Spelling)
	default:
		if len(call.Args) == 0 {
			e.writeExpr(recv)
			e.write("." + entry.Spelling)
		} else {
			e.write(entry.Spelling + "(")
			e.writeExpr(recv)
			e.writeArgs(call.Args, nil, false)
			e.write(")")
		}
	}
}

// writeHelperCall writes a call of a function or method that is compiled along with the shader.
func (e *emitter) writeHelperCall(call *ast.CallExpr, fn *types.Func, recv ast.Expr) {
	decl := e.c.decls[fn]
	switch {
	case e.folding:
		e.fault(call, "Non-local symbol")
		return
	case decl == nil || decl.Body == nil:
		e.fault(call, "Unknown method")
		return
	case e.c.recursive[fn]:
		e.fault(call, "Recursive method")
		return
	}
	record := e.c.compiledMethod(fn)
	for _, m := range record.methods {
		e.addMethod(m)
	}
	e.addMethod(fn)
	for _, f := range record.foreign {
		e.addForeign(f)
	}

	sig := fn.Type().(*types.Signature)
	e.write(e.c.helperName(fn) + "(")
	first := true
	if recv != nil && !e.c.isShaderMethod(fn) {
		if e.isSampler(sig.Recv().Type()) {
			e.writeSamplerArg(recv)
		} else {
			e.writeExpr(recv)
		}
		first = false
	}
	e.writeArgs(call.Args, sig.Params(), first)
	e.write(")")
}

func (e *emitter) writeSamplerArg(arg ast.Expr) {
	name, ok := e.samplerName(arg)
	if !ok {
		e.fault(arg, "Sampler argument")
		return
	}
	e.write(name + ", " + name + "_size, " + name + "_dxdy")
}

// samplerName resolves a sampler expression to the variable it is declared as. The suffixed size
// and step variables only exist for variables, so anything else is a fatal error.
func (e *emitter) samplerName(expr ast.Expr) (string, bool) {
	switch x := ast.Unparen(expr).(type) {
	case *ast.Ident:
		if obj, ok := e.c.types.Uses[x].(*types.Var); ok {
			if name, ok := e.params[obj]; ok {
				return name, true
			}
			if isPackageLevel(obj) {
				if name, ok := e.foreignFor(x, obj, false); ok {
					return name, true
				}
			}
		}
	case *ast.SelectorExpr:
		if sel, ok := e.c.types.Selections[x]; ok {
			if field, ok := sel.Obj().(*types.Var); ok && sel.Kind() == types.FieldVal && e.shaderRecv && e.isRecv(x.X) {
				if name, ok := e.foreignFor(x, field, true); ok {
					return name, true
				}
			}
		} else if obj, ok := e.c.types.Uses[x.Sel].(*types.Var); ok && isPackageLevel(obj) {
			if name, ok := e.foreignFor(x, obj, false); ok {
				return name, true
			}
		}
	}
	e.c.errorf(expr.Pos(), "sampler must be a parameter, a shader field or a package variable: %s", e.c.source(expr))
	return "", false
}

func (e *emitter) writeSample(call *ast.CallExpr, recv ast.Expr) {
	name, ok := e.samplerName(recv)
	if !ok {
		e.fault(call, "Sampler receiver")
		return
	}
	args := call.Args
	switch {
	case len(args) == 1 && e.c.isOffset(e.c.types.TypeOf(args[0])):
		e.write("tex2D(" + name + ", psin.TexCoords + (")
		e.writeExpr(args[0])
		e.write(") * " + name + "_dxdy)")
	case len(args) == 1:
		e.write("tex2D(" + name + ", ")
		e.writeExpr(args[0])
		e.write(")")
	case len(args) == 2:
		e.write("tex2D(" + name + ", (float2(")
		e.writeExpr(args[0])
		e.write(", ")
		e.writeExpr(args[1])
		e.write(") + float2(0.5, 0.5)) * " + name + "_dxdy)")
	default:
		e.fault(call, "Unsupported sampling")
	}
}

func hexChannel(hex int64, shift uint) string {
	return formatFloat(float32((hex>>shift)&0xff) / 255)
}

func (e *emitter) writeSpecial(call *ast.CallExpr, special string) {
	switch special {
	case "rgba_hex", "rgb_hex":
		want := 1
		if special == "rgba_hex" {
			want = 2
		}
		if len(call.Args) != want {
			e.fault(call, "Unsupported hex color")
			return
		}
		tv := e.c.types.Types[call.Args[0]]
		if tv.Value == nil || tv.Value.Kind() != constant.Int {
			e.fault(call, "Non-constant hex color")
			return
		}
		hex, _ := constant.Int64Val(tv.Value)
		channels := hexChannel(hex, 16) + ", " + hexChannel(hex, 8) + ", " + hexChannel(hex, 0)
		if special == "rgb_hex" {
			e.write("float3(" + channels + ")")
			return
		}
		e.write("float4(" + channels + ", ")
		e.writeExpr(call.Args[1])
		e.write(")")
	case "select":
		if len(call.Args) != 3 {
			e.fault(call, "Unsupported select")
			return
		}
		e.write("(")
		e.writeExpr(call.Args[0])
		e.write(" ? ")
		e.writeExpr(call.Args[1])
		e.write(" : ")
		e.writeExpr(call.Args[2])
		e.write(")")
	}
}

func (e *emitter) writeConversion(call *ast.CallExpr, target types.Type) {
	if len(call.Args) != 1 {
		e.fault(call, "Unsupported cast")
		return
	}
	arg := call.Args[0]
	to := e.lookup.RecursiveLookup(target)
	if !to.Ok() {
		e.fault(call, "Unsupported cast")
		return
	}
	if from := e.lookup.RecursiveLookup(e.c.types.TypeOf(arg)); from.Spelling == to.Spelling {
		e.writeExpr(arg)
		return
	}
	e.write("((" + to.Spelling + ")")
	e.writeUnaryOperand(arg)
	e.write(")")
}
