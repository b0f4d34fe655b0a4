package main

import (
	"fmt"
	"go/ast"
	"go/types"
	"sync"

	"golang.org/x/sync/singleflight"
)

// methodRecord is the compiled text of a helper together with everything it references. The
// methods are in dependency order and do not include the helper itself.
type methodRecord struct {
	text    string
	methods []*types.Func
	foreign []*foreignVar
}

// methodCache memoizes compiled helpers for a whole run. Concurrent requests for the same helper
// share one compilation.
type methodCache struct {
	mu       sync.Mutex
	records  map[*types.Func]*methodRecord
	group    singleflight.Group
	compiles int
}

func newMethodCache() *methodCache {
	return &methodCache{records: make(map[*types.Func]*methodRecord)}
}

func (m *methodCache) lookup(fn *types.Func) (*methodRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[fn]
	return record, ok
}

func (m *methodCache) get(fn *types.Func, compile func() *methodRecord) *methodRecord {
	if record, ok := m.lookup(fn); ok {
		return record
	}
	result, _, _ := m.group.Do(fn.FullName(), func() (interface{}, error) {
		if record, ok := m.lookup(fn); ok {
			return record, nil
		}
		record := compile()
		m.mu.Lock()
		m.records[fn] = record
		m.compiles++
		m.mu.Unlock()
		return record, nil
	})
	return result.(*methodRecord)
}

func (c *Compiler) compiledMethod(fn *types.Func) *methodRecord {
	return c.methods.get(fn, func() *methodRecord {
		return c.compileMethod(fn)
	})
}

func (c *Compiler) helperName(fn *types.Func) string {
	name := fn.Name()
	if typeName := recvTypeName(fn); typeName != nil {
		name = typeName.Name() + "_" + name
	}
	return escape(name)
}

func (c *Compiler) isShaderMethod(fn *types.Func) bool {
	return c.registry != nil && c.registry.isShader(recvTypeName(fn))
}

func (c *Compiler) isOffset(typ types.Type) bool {
	typeName := typeNameOf(typ)
	return typeName != nil && c.offsets[typeName]
}

// compileMethod compiles a helper in an emitter of its own. Receivers of shader types are
// dropped; their fields become foreign variables. Other receivers are passed first.
func (c *Compiler) compileMethod(fn *types.Func) *methodRecord {
	decl := c.decls[fn]
	sig := fn.Type().(*types.Signature)
	e := c.newEmitter(c.table)
	e.stage = stageHelper

	switch results := sig.Results(); results.Len() {
	case 0:
		e.write("void")
	case 1:
		if entry := e.lookup.RecursiveLookup(results.At(0).Type()); entry.Ok() {
			e.write(entry.Spelling)
		} else {
			e.write(fmt.Sprintf("ERROR(Unsupported type : %s)", results.At(0).Type()))
		}
	default:
		e.write(fmt.Sprintf("ERROR(Unsupported multiple return values : %s)", fn.Name()))
	}
	e.write(" " + c.helperName(fn) + "(")

	nParams := 0
	writeParam := func(param *types.Var) {
		if nParams > 0 {
			e.write(", ")
		}
		name := escape(param.Name())
		if param.Name() == "" || param.Name() == "_" {
			name = fmt.Sprintf("param%d", nParams)
		}
		nParams++
		e.params[param] = name
		if e.isSampler(param.Type()) {
			e.write("sampler " + name + ", float2 " + name + "_size, float2 " + name + "_dxdy")
			return
		}
		if entry := e.lookup.RecursiveLookup(param.Type()); entry.Ok() {
			e.write(entry.Spelling + " " + name)
		} else {
			e.write(fmt.Sprintf("ERROR(Unsupported type : %s) %s", param.Type(), name))
		}
	}
	if recv := sig.Recv(); recv != nil {
		if c.isShaderMethod(fn) {
			e.recv = recv
			e.shaderRecv = true
		} else {
			writeParam(recv)
		}
	}
	for i := 0; i < sig.Params().Len(); i++ {
		writeParam(sig.Params().At(i))
	}
	e.write(")\n")
	e.writeFuncBody(decl.Body)

	return &methodRecord{
		text:    e.output.String(),
		methods: e.methods,
		foreign: e.foreign,
	}
}

//
// Recursion
//

// callees lists the helpers a function body calls directly.
func (c *Compiler) callees(decl *ast.FuncDecl) []*types.Func {
	var result []*types.Func
	seen := make(map[*types.Func]bool)
	ast.Inspect(decl.Body, func(node ast.Node) bool {
		call, ok := node.(*ast.CallExpr)
		if !ok {
			return true
		}
		var fn *types.Func
		switch fun := ast.Unparen(call.Fun).(type) {
		case *ast.Ident:
			fn, _ = c.types.Uses[fun].(*types.Func)
		case *ast.SelectorExpr:
			fn, _ = c.types.Uses[fun.Sel].(*types.Func)
		case *ast.IndexExpr:
			if ident, ok := fun.X.(*ast.Ident); ok {
				fn, _ = c.types.Uses[ident].(*types.Func)
			}
		}
		if fn == nil {
			return true
		}
		fn = fn.Origin()
		if _, translated := c.table.Lookup(fn); translated || c.specials[fn] != "" || c.indexers[fn] {
			return true
		}
		if decl := c.decls[fn]; decl != nil && decl.Body != nil && !seen[fn] {
			seen[fn] = true
			result = append(result, fn)
		}
		return true
	})
	return result
}

// findRecursion marks every helper that can reach itself through calls.
func (c *Compiler) findRecursion() {
	c.recursive = make(map[*types.Func]bool)
	graph := make(map[*types.Func][]*types.Func)
	for fn, decl := range c.decls {
		if decl.Body != nil {
			graph[fn] = c.callees(decl)
		}
	}
	for fn := range graph {
		visited := make(map[*types.Func]bool)
		stack := append([]*types.Func(nil), graph[fn]...)
		for len(stack) > 0 {
			next := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if next == fn {
				c.recursive[fn] = true
				break
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, graph[next]...)
			}
		}
	}
}
