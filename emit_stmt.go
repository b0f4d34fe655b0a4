package main

import (
	"go/ast"
	"go/token"
	"go/types"
)

func (e *emitter) writeExprStmt(exprStmt *ast.ExprStmt) {
	e.writeExpr(exprStmt.X)
}

func (e *emitter) writeDefine(ident *ast.Ident, value ast.Expr) {
	obj, ok := e.c.types.Defs[ident].(*types.Var)
	if !ok {
		// Redeclared in a multi-name define, so it is an assignment
		e.writeExpr(ident)
		e.write(" = ")
		e.writeExpr(value)
		return
	}
	e.writeVarDecl(ident, obj, value)
}

func (e *emitter) writeVarDecl(ident *ast.Ident, obj *types.Var, value ast.Expr) {
	if e.isSampler(obj.Type()) {
		e.fault(ident, "Unsupported sampler variable")
		return
	}
	entry := e.lookup.RecursiveLookup(obj.Type())
	if !entry.Ok() {
		e.fault(ident, "Unsupported type")
		return
	}
	e.write(entry.Spelling + " " + escape(obj.Name()) + " = ")
	if value != nil {
		e.writeExpr(value)
	} else {
		e.write("(" + entry.Spelling + ")0")
	}
}

func (e *emitter) writeAssignStmt(assignStmt *ast.AssignStmt) {
	if len(assignStmt.Lhs) != 1 || len(assignStmt.Rhs) != 1 {
		e.fault(assignStmt, "Unsupported multiple assignment")
		return
	}
	lhs, rhs := assignStmt.Lhs[0], assignStmt.Rhs[0]
	if ident, ok := lhs.(*ast.Ident); ok && ident.Name == "_" {
		e.fault(assignStmt, "Unsupported blank assignment")
		return
	}
	switch assignStmt.Tok {
	case token.DEFINE:
		e.writeDefine(lhs.(*ast.Ident), rhs)
	case token.AND_NOT_ASSIGN:
		e.fault(assignStmt, "Unsupported assignment operator")
	default:
		if !e.isLocal(lhs) {
			e.fault(lhs, "Non-local assignment")
			return
		}
		e.writeExpr(lhs)
		e.write(" " + assignStmt.Tok.String() + " ")
		e.writeExpr(rhs)
	}
}

// isLocal reports whether an assignable expression is rooted at a local or a parameter.
func (e *emitter) isLocal(expr ast.Expr) bool {
	for {
		switch x := ast.Unparen(expr).(type) {
		case *ast.SelectorExpr:
			expr = x.X
		case *ast.Ident:
			obj, ok := e.c.types.Uses[x].(*types.Var)
			if !ok || isPackageLevel(obj) || obj == e.recv || obj == e.input {
				return false
			}
			if _, specialized := e.literals[obj]; specialized {
				return false
			}
			// Entry parameters are uniforms
			name, isParam := e.params[obj]
			return !isParam || e.stage == stageHelper || name == "psin"
		default:
			return false
		}
	}
}

func (e *emitter) writeIncDecStmt(incDecStmt *ast.IncDecStmt) {
	if !e.isLocal(incDecStmt.X) {
		e.fault(incDecStmt.X, "Non-local assignment")
		return
	}
	e.writeExpr(incDecStmt.X)
	e.write(incDecStmt.Tok.String())
}

func (e *emitter) writeDeclStmt(declStmt *ast.DeclStmt) {
	genDecl, ok := declStmt.Decl.(*ast.GenDecl)
	if !ok || genDecl.Tok != token.VAR {
		e.fault(declStmt, "Unsupported declaration")
		return
	}
	first := true
	for _, spec := range genDecl.Specs {
		valueSpec := spec.(*ast.ValueSpec)
		for i, name := range valueSpec.Names {
			if !first {
				e.write(";\n")
			}
			first = false
			obj, _ := e.c.types.Defs[name].(*types.Var)
			if obj == nil {
				e.fault(name, "Unsupported declaration")
				continue
			}
			var value ast.Expr
			if i < len(valueSpec.Values) {
				value = valueSpec.Values[i]
			}
			e.writeVarDecl(name, obj, value)
		}
	}
}

func (e *emitter) writeReturnStmt(retStmt *ast.ReturnStmt) {
	switch {
	case len(retStmt.Results) > 1:
		e.fault(retStmt, "Unsupported multiple return values")
	case e.stage == stageFragment && len(retStmt.Results) == 1:
		e.write("__FinalOutput.Color = ")
		e.writeExpr(retStmt.Results[0])
		e.write(";\n")
		e.write("return __FinalOutput")
	case len(retStmt.Results) == 1:
		e.write("return ")
		e.writeExpr(retStmt.Results[0])
	default:
		e.write("return")
	}
}

func (e *emitter) writeBranchStmt(branchStmt *ast.BranchStmt) {
	if branchStmt.Label != nil {
		e.fault(branchStmt, "Unsupported label")
		return
	}
	switch branchStmt.Tok {
	case token.BREAK:
		e.write("break")
	case token.CONTINUE:
		e.write("continue")
	default:
		e.fault(branchStmt, "Unsupported branch")
	}
}

func (e *emitter) writeBlockStmt(block *ast.BlockStmt) {
	e.write("{\n")
	e.indent++
	e.writeStmtList(block.List)
	e.indent--
	e.write("}")
	e.atBlockEnd = true
}

func (e *emitter) writeIfStmt(ifStmt *ast.IfStmt) {
	if ifStmt.Init != nil {
		// HLSL has no if initializers, so scope the initializer in a block of its own
		e.write("{\n")
		e.indent++
		e.writeStmt(ifStmt.Init)
		e.write(";\n")
		e.writeIfStmt(&ast.IfStmt{If: ifStmt.If, Cond: ifStmt.Cond, Body: ifStmt.Body, Else: ifStmt.Else})
		e.write("\n")
		e.indent--
		e.write("}")
		e.atBlockEnd = true
		return
	}
	e.write("if (")
	e.writeExpr(ifStmt.Cond)
	e.write(") ")
	e.writeStmt(ifStmt.Body)
	if ifStmt.Else != nil {
		e.write(" else ")
		e.writeStmt(ifStmt.Else)
	}
}

func (e *emitter) writeForStmt(forStmt *ast.ForStmt) {
	e.write("for (")
	if forStmt.Init != nil {
		e.writeStmt(forStmt.Init)
	}
	e.write("; ")
	if forStmt.Cond != nil {
		e.writeExpr(forStmt.Cond)
	}
	e.write("; ")
	if forStmt.Post != nil {
		e.writeStmt(forStmt.Post)
	}
	e.write(") ")
	e.writeStmt(forStmt.Body)
}

func (e *emitter) writeStmt(stmt ast.Stmt) {
	switch stmt := stmt.(type) {
	case *ast.ExprStmt:
		e.writeExprStmt(stmt)
	case *ast.AssignStmt:
		e.writeAssignStmt(stmt)
	case *ast.IncDecStmt:
		e.writeIncDecStmt(stmt)
	case *ast.DeclStmt:
		e.writeDeclStmt(stmt)
	case *ast.ReturnStmt:
		e.writeReturnStmt(stmt)
	case *ast.BranchStmt:
		e.writeBranchStmt(stmt)
	case *ast.BlockStmt:
		e.writeBlockStmt(stmt)
	case *ast.IfStmt:
		e.writeIfStmt(stmt)
	case *ast.ForStmt:
		e.writeForStmt(stmt)
	case *ast.RangeStmt:
		e.fault(stmt, "Unsupported range statement")
	default:
		e.fault(stmt, "Unsupported statement")
	}
}

// skipStmt reports statements that produce no HLSL, such as constant declarations.
func skipStmt(stmt ast.Stmt) bool {
	switch stmt := stmt.(type) {
	case *ast.EmptyStmt:
		return true
	case *ast.DeclStmt:
		genDecl, ok := stmt.Decl.(*ast.GenDecl)
		return ok && genDecl.Tok == token.CONST
	}
	return false
}

func (e *emitter) writeStmtList(list []ast.Stmt) {
	for _, stmt := range list {
		if skipStmt(stmt) {
			continue
		}
		e.writeStmt(stmt)
		if !e.atBlockEnd {
			e.write(";")
		}
		e.write("\n")
	}
}

// writeFuncBody writes a function body, braces on their own lines.
func (e *emitter) writeFuncBody(body *ast.BlockStmt) {
	e.write("{\n")
	e.indent++
	e.writeStmtList(body.List)
	e.indent--
	e.write("}\n")
}
