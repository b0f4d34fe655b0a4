package fxeval

import (
	"fmt"
	"strings"
	"text/scanner"

	"github.com/chewxy/math32"
)

// EvalError is a fault while running shader code.
type EvalError struct {
	Pos scanner.Position
	Msg string
}

func (e *EvalError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return e.Msg
}

const maxCallDepth = 64

type control int

const (
	normal control = iota
	breaking
	continuing
	returning
)

// machine runs the functions of one program. Uniforms are shared between machines and never
// written; statics and locals belong to one invocation.
type machine struct {
	program  *Program
	uniforms map[string]*Value
	statics  map[string]*Value
	scopes   []map[string]*Value
	result   Value
	depth    int
}

func newMachine(program *Program, uniforms map[string]*Value) *machine {
	return &machine{program: program, uniforms: uniforms}
}

func (m *machine) fail(pos scanner.Position, format string, args ...interface{}) {
	panic(&EvalError{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

// invoke calls a function with fresh statics, recovering evaluation faults.
func (m *machine) invoke(name string, args []Value) (result Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			evalErr, ok := r.(*EvalError)
			if !ok {
				panic(r)
			}
			err = evalErr
		}
	}()
	m.statics = make(map[string]*Value)
	for _, g := range m.program.Globals {
		if g.Static {
			v := zero(g.Type)
			m.statics[g.Name] = &v
		}
	}
	m.scopes = nil
	m.depth = 0
	return m.call(scanner.Position{}, name, args), nil
}

func (m *machine) call(pos scanner.Position, name string, args []Value) Value {
	fn, ok := m.program.Funcs[name]
	if !ok {
		m.fail(pos, "undefined function %s", name)
	}
	if len(args) != len(fn.Params) {
		m.fail(pos, "%s takes %d arguments, got %d", name, len(fn.Params), len(args))
	}
	if m.depth >= maxCallDepth {
		m.fail(pos, "call depth exceeded in %s", name)
	}
	scope := make(map[string]*Value, len(args))
	for i, param := range fn.Params {
		v := m.convert(pos, args[i], param.Type).clone()
		scope[param.Name] = &v
	}
	saved := m.scopes
	m.scopes = []map[string]*Value{scope}
	m.depth++
	result := Value{Type: voidType}
	if m.execBlock(fn.Body, false) == returning {
		result = m.result
	}
	m.depth--
	m.scopes = saved
	if fn.Result.Kind == Void {
		return Value{Type: voidType}
	}
	if result.Type == nil || result.Type.Kind == Void {
		m.fail(pos, "%s returned no value", name)
	}
	return m.convert(pos, result, fn.Result)
}

func (m *machine) convert(pos scanner.Position, v Value, t *Type) Value {
	result, err := convert(v, t)
	if err != nil {
		m.fail(pos, "%s", err)
	}
	return result
}

//
// Variables
//

func (m *machine) lookup(ident *Ident) (*Value, bool) {
	for i := len(m.scopes) - 1; i >= 0; i-- {
		if v, ok := m.scopes[i][ident.Name]; ok {
			return v, true
		}
	}
	if v, ok := m.statics[ident.Name]; ok {
		return v, true
	}
	if v, ok := m.uniforms[ident.Name]; ok {
		return v, false
	}
	m.fail(ident.At, "undefined: %s", ident.Name)
	return nil, false
}

func (m *machine) declare(name string, v Value) {
	m.scopes[len(m.scopes)-1][name] = &v
}

var swizzleIndices = map[byte]int{'x': 0, 'y': 1, 'z': 2, 'w': 3, 'r': 0, 'g': 1, 'b': 2, 'a': 3}

func (m *machine) swizzle(pos scanner.Position, t *Type, name string) []int {
	if len(name) > 4 {
		m.fail(pos, "bad swizzle .%s", name)
	}
	indices := make([]int, len(name))
	for i := 0; i < len(name); i++ {
		index, ok := swizzleIndices[name[i]]
		if !ok || index >= t.N {
			m.fail(pos, "bad swizzle .%s on %s", name, t.Name)
		}
		indices[i] = index
	}
	return indices
}

// ref resolves an assignable expression to its variable and, for swizzles, the components.
func (m *machine) ref(e Expr) (*Value, []int) {
	switch e := e.(type) {
	case *Ident:
		v, assignable := m.lookup(e)
		if !assignable {
			m.fail(e.At, "cannot assign to uniform %s", e.Name)
		}
		return v, nil
	case *Member:
		base, comps := m.ref(e.X)
		if comps != nil {
			indices := m.swizzle(e.At, vectorType(base.Type.Kind, len(comps)), e.Name)
			for i, index := range indices {
				indices[i] = comps[index]
			}
			return base, indices
		}
		if base.Type.Kind == Struct {
			i := base.Type.field(e.Name)
			if i < 0 {
				m.fail(e.At, "%s has no field %s", base.Type.Name, e.Name)
			}
			return &base.Fields[i], nil
		}
		if base.Type.numeric() {
			return base, m.swizzle(e.At, base.Type, e.Name)
		}
		m.fail(e.At, "cannot select %s", e.Name)
	}
	m.fail(e.Pos(), "not assignable")
	return nil, nil
}

func (m *machine) assign(pos scanner.Position, target *Value, comps []int, v Value) {
	if comps == nil {
		*target = m.convert(pos, v, target.Type).clone()
		return
	}
	if !v.Type.numeric() || (v.Type.N != 1 && v.Type.N != len(comps)) {
		m.fail(pos, "cannot assign %s to %d components", v.Type.Name, len(comps))
	}
	for i, index := range comps {
		src := v.C[0]
		if v.Type.N > 1 {
			src = v.C[i]
		}
		target.C[index] = normalize(target.Type.Kind, src)
	}
}

func (m *machine) read(target *Value, comps []int) Value {
	if comps == nil {
		return *target
	}
	result := Value{Type: vectorType(target.Type.Kind, len(comps))}
	for i, index := range comps {
		result.C[i] = target.C[index]
	}
	return result
}

//
// Statements
//

func (m *machine) execBlock(block *BlockStmt, scoped bool) control {
	if scoped {
		m.scopes = append(m.scopes, make(map[string]*Value))
		defer func() { m.scopes = m.scopes[:len(m.scopes)-1] }()
	}
	for _, stmt := range block.List {
		if ctl := m.exec(stmt); ctl != normal {
			return ctl
		}
	}
	return normal
}

func (m *machine) exec(stmt Stmt) control {
	switch stmt := stmt.(type) {
	case nil:
		return normal
	case *BlockStmt:
		return m.execBlock(stmt, true)
	case *DeclStmt:
		v := zero(stmt.Type)
		if stmt.Init != nil {
			v = m.convert(stmt.Init.Pos(), m.eval(stmt.Init), stmt.Type).clone()
		}
		m.declare(stmt.Name, v)
	case *AssignStmt:
		target, comps := m.ref(stmt.Target)
		v := m.eval(stmt.Value)
		if stmt.Op != "=" {
			v = m.binary(stmt.Target.Pos(), strings.TrimSuffix(stmt.Op, "="), m.read(target, comps), v)
		}
		m.assign(stmt.Target.Pos(), target, comps, v)
	case *IncDecStmt:
		target, comps := m.ref(stmt.Target)
		op := "+"
		if stmt.Op == "--" {
			op = "-"
		}
		m.assign(stmt.Target.Pos(), target, comps, m.binary(stmt.Target.Pos(), op, m.read(target, comps), intValue(1)))
	case *ExprStmt:
		m.eval(stmt.X)
	case *IfStmt:
		m.scopes = append(m.scopes, make(map[string]*Value))
		defer func() { m.scopes = m.scopes[:len(m.scopes)-1] }()
		if m.condition(stmt.Cond) {
			return m.exec(stmt.Then)
		} else if stmt.Else != nil {
			return m.exec(stmt.Else)
		}
	case *ForStmt:
		m.scopes = append(m.scopes, make(map[string]*Value))
		defer func() { m.scopes = m.scopes[:len(m.scopes)-1] }()
		m.exec(stmt.Init)
		for stmt.Cond == nil || m.condition(stmt.Cond) {
			ctl := m.exec(stmt.Body)
			if ctl == breaking {
				break
			}
			if ctl == returning {
				return ctl
			}
			m.exec(stmt.Post)
		}
	case *BranchStmt:
		if stmt.Tok == "break" {
			return breaking
		}
		return continuing
	case *ReturnStmt:
		m.result = Value{Type: voidType}
		if stmt.X != nil {
			m.result = m.eval(stmt.X).clone()
		}
		return returning
	default:
		panic(&EvalError{Msg: fmt.Sprintf("unsupported statement %T", stmt)})
	}
	return normal
}

func (m *machine) condition(e Expr) bool {
	v := m.eval(e)
	if !v.Type.numeric() || v.Type.N != 1 {
		m.fail(e.Pos(), "condition of type %s", v.Type.Name)
	}
	return v.truth()
}

//
// Expressions
//

func (m *machine) eval(e Expr) Value {
	switch e := e.(type) {
	case *Literal:
		return e.Value
	case *Ident:
		v, _ := m.lookup(e)
		return *v
	case *Member:
		x := m.eval(e.X)
		if x.Type.Kind == Struct {
			i := x.Type.field(e.Name)
			if i < 0 {
				m.fail(e.At, "%s has no field %s", x.Type.Name, e.Name)
			}
			return x.Fields[i]
		}
		if !x.Type.numeric() {
			m.fail(e.At, "cannot select %s", e.Name)
		}
		return m.read(&x, m.swizzle(e.At, x.Type, e.Name))
	case *Unary:
		return m.unary(e.At, e.Op, m.eval(e.X))
	case *Binary:
		switch e.Op {
		case "&&":
			return boolValue(m.condition(e.X) && m.condition(e.Y))
		case "||":
			return boolValue(m.condition(e.X) || m.condition(e.Y))
		}
		return m.binary(e.At, e.Op, m.eval(e.X), m.eval(e.Y))
	case *Ternary:
		if m.condition(e.Cond) {
			return m.eval(e.X)
		}
		return m.eval(e.Y)
	case *Cast:
		return m.convert(e.At, m.eval(e.X), e.Type)
	case *Call:
		args := make([]Value, len(e.Args))
		for i, arg := range e.Args {
			args[i] = m.eval(arg)
		}
		if t, ok := builtins[e.Func]; ok && t.numeric() {
			return m.construct(e.At, t, args)
		}
		if intrinsic, ok := intrinsics[e.Func]; ok {
			return intrinsic(m, e.At, args)
		}
		return m.call(e.At, e.Func, args)
	}
	m.fail(e.Pos(), "unsupported expression %T", e)
	return Value{}
}

// construct builds a vector from the components of its arguments.
func (m *machine) construct(pos scanner.Position, t *Type, args []Value) Value {
	var comps []float32
	for _, arg := range args {
		if !arg.Type.numeric() {
			m.fail(pos, "cannot construct %s from %s", t.Name, arg.Type.Name)
		}
		comps = append(comps, arg.components()...)
	}
	if len(comps) == 1 {
		return m.convert(pos, Value{Type: vectorType(args[0].Type.Kind, 1), C: [4]float32{comps[0]}}, t)
	}
	if len(comps) != t.N {
		m.fail(pos, "%s takes %d components, got %d", t.Name, t.N, len(comps))
	}
	result := Value{Type: t}
	for i, c := range comps {
		result.C[i] = normalize(t.Kind, c)
	}
	return result
}

func promote(a, b Kind) Kind {
	if a == Float || b == Float {
		return Float
	}
	if a == Int || b == Int {
		return Int
	}
	return Bool
}

// operands converts both sides of a binary operation to a common type. Scalars broadcast and the
// longer vector is truncated.
func (m *machine) operands(pos scanner.Position, x, y Value) (Value, Value, *Type) {
	if !x.Type.numeric() || !y.Type.numeric() {
		m.fail(pos, "invalid operands %s and %s", x.Type.Name, y.Type.Name)
	}
	n := x.Type.N
	switch {
	case x.Type.N == 1:
		n = y.Type.N
	case y.Type.N == 1:
	case y.Type.N < n:
		n = y.Type.N
	}
	kind := promote(x.Type.Kind, y.Type.Kind)
	t := vectorType(kind, n)
	truncate := func(v Value) Value {
		if v.Type.N > n {
			v.Type = vectorType(v.Type.Kind, n)
		}
		return m.convert(pos, v, t)
	}
	return truncate(x), truncate(y), t
}

func (m *machine) binary(pos scanner.Position, op string, x, y Value) Value {
	x, y, t := m.operands(pos, x, y)
	result := Value{Type: t}
	switch op {
	case "==", "!=", "<", ">", "<=", ">=":
		result.Type = vectorType(Bool, t.N)
	case "&", "|", "^", "<<", ">>":
		if t.Kind == Float {
			m.fail(pos, "invalid operator %s on %s", op, t.Name)
		}
	}
	for i := 0; i < t.N; i++ {
		a, b := x.C[i], y.C[i]
		var c float32
		switch op {
		case "+":
			c = a + b
		case "-":
			c = a - b
		case "*":
			c = a * b
		case "/":
			if t.Kind != Float {
				if b == 0 {
					m.fail(pos, "integer division by zero")
				}
				c = math32.Trunc(a / b)
			} else {
				c = a / b
			}
		case "%":
			if t.Kind != Float && b == 0 {
				m.fail(pos, "integer division by zero")
			}
			c = math32.Mod(a, b)
		case "==":
			c = b2f(a == b)
		case "!=":
			c = b2f(a != b)
		case "<":
			c = b2f(a < b)
		case ">":
			c = b2f(a > b)
		case "<=":
			c = b2f(a <= b)
		case ">=":
			c = b2f(a >= b)
		case "&":
			c = float32(int32(a) & int32(b))
		case "|":
			c = float32(int32(a) | int32(b))
		case "^":
			c = float32(int32(a) ^ int32(b))
		case "<<":
			c = float32(int32(a) << uint32(b))
		case ">>":
			c = float32(int32(a) >> uint32(b))
		default:
			m.fail(pos, "unsupported operator %s", op)
		}
		result.C[i] = normalize(result.Type.Kind, c)
	}
	return result
}

func (m *machine) unary(pos scanner.Position, op string, x Value) Value {
	if !x.Type.numeric() {
		m.fail(pos, "invalid operand %s", x.Type.Name)
	}
	result := Value{Type: x.Type}
	switch op {
	case "-":
		if x.Type.Kind == Bool {
			result.Type = vectorType(Int, x.Type.N)
		}
		for i := 0; i < x.Type.N; i++ {
			result.C[i] = -x.C[i]
		}
	case "+":
		result = x
	case "!":
		result.Type = vectorType(Bool, x.Type.N)
		for i := 0; i < x.Type.N; i++ {
			result.C[i] = b2f(x.C[i] == 0)
		}
	case "~":
		if x.Type.Kind == Float {
			m.fail(pos, "invalid operator ~ on %s", x.Type.Name)
		}
		result.Type = vectorType(Int, x.Type.N)
		for i := 0; i < x.Type.N; i++ {
			result.C[i] = float32(^int32(x.C[i]))
		}
	default:
		m.fail(pos, "unsupported operator %s", op)
	}
	return result
}

func b2f(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
