package fxeval

import (
	"fmt"
	"strconv"
	"strings"
	"text/scanner"
)

type parser struct {
	tokens  []token
	pos     int
	program *Program
}

// Parse parses an effect file. Files containing ERROR markers are rejected with the position of
// the first marker.
func Parse(name, src string) (*Program, error) {
	if i := strings.Index(src, "ERROR("); i >= 0 {
		line := strings.Count(src[:i], "\n") + 1
		end := strings.IndexByte(src[i:], '\n')
		if end < 0 {
			end = len(src) - i
		}
		return nil, &ParseError{
			Pos: scanner.Position{Filename: name, Line: line, Column: i - strings.LastIndexByte(src[:i], '\n')},
			Msg: "untranslated code: " + strings.TrimSpace(src[i:i+end]),
		}
	}
	tokens, err := tokenize(name, src)
	if err != nil {
		return nil, err
	}
	p := &parser{
		tokens: tokens,
		program: &Program{
			Name:    name,
			Structs: make(map[string]*Type),
			Funcs:   make(map[string]*Func),
		},
	}
	if err := p.parseProgram(); err != nil {
		return nil, err
	}
	return p.program, nil
}

// parse errors unwind the parser by panicking with a *ParseError
func (p *parser) fail(format string, args ...interface{}) {
	panic(&ParseError{Pos: p.current().pos, Msg: fmt.Sprintf(format, args...)})
}

func (p *parser) current() token {
	return p.tokens[p.pos]
}

func (p *parser) peek(n int) token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *parser) next() token {
	tok := p.current()
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) is(text string) bool {
	tok := p.current()
	return (tok.kind == tokOp || tok.kind == tokIdent) && tok.text == text
}

func (p *parser) accept(text string) bool {
	if p.is(text) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(text string) token {
	if !p.is(text) {
		p.fail("expected %q, found %q", text, p.current().text)
	}
	return p.next()
}

func (p *parser) ident() string {
	tok := p.current()
	if tok.kind != tokIdent {
		p.fail("expected identifier, found %q", tok.text)
	}
	p.next()
	return tok.text
}

func (p *parser) lookupType(name string) *Type {
	if t, ok := builtins[name]; ok {
		return t
	}
	return p.program.Structs[name]
}

func (p *parser) isType(tok token) bool {
	return tok.kind == tokIdent && p.lookupType(tok.text) != nil
}

func (p *parser) typ() *Type {
	name := p.ident()
	t := p.lookupType(name)
	if t == nil {
		p.pos--
		p.fail("unknown type %q", name)
	}
	return t
}

//
// Declarations
//

func (p *parser) parseProgram() (err error) {
	defer func() {
		if r := recover(); r != nil {
			parseErr, ok := r.(*ParseError)
			if !ok {
				panic(r)
			}
			err = parseErr
		}
	}()
	for p.current().kind != tokEOF {
		switch {
		case p.is("struct"):
			p.parseStruct()
		case p.is("technique"):
			p.parseTechnique()
		case p.is(";"):
			p.next()
		default:
			p.parseTopLevel()
		}
	}
	if p.program.Vertex == "" || p.program.Fragment == "" {
		return &ParseError{Pos: p.current().pos, Msg: "missing technique"}
	}
	for _, name := range []string{p.program.Vertex, p.program.Fragment} {
		if _, ok := p.program.Funcs[name]; !ok {
			return &ParseError{Pos: p.current().pos, Msg: fmt.Sprintf("undefined entry %s", name)}
		}
	}
	return nil
}

func (p *parser) parseStruct() {
	p.expect("struct")
	name := p.ident()
	t := &Type{Kind: Struct, Name: name}
	p.program.Structs[name] = t
	p.expect("{")
	for !p.accept("}") {
		field := Field{Type: p.typ(), Name: p.ident()}
		if p.accept(":") {
			field.Semantic = p.ident()
		}
		p.expect(";")
		t.Fields = append(t.Fields, field)
	}
	p.accept(";")
}

func (p *parser) parseTechnique() {
	p.expect("technique")
	p.ident()
	p.expect("{")
	for !p.accept("}") {
		p.expect("pass")
		p.ident()
		p.expect("{")
		for !p.accept("}") {
			stage := p.ident()
			p.expect("=")
			p.expect("compile")
			p.ident()
			entry := p.ident()
			p.expect("(")
			p.expect(")")
			p.expect(";")
			switch stage {
			case "VertexShader":
				p.program.Vertex = entry
			case "PixelShader":
				p.program.Fragment = entry
			}
		}
	}
}

func (p *parser) parseTopLevel() {
	static := false
	for p.is("static") || p.is("uniform") || p.is("const") {
		static = static || p.current().text == "static"
		p.next()
	}
	t := p.typ()
	name := p.ident()
	if p.is("(") {
		p.parseFunc(t, name)
		return
	}
	global := &Global{Type: t, Name: name, Static: static}
	if p.accept(":") {
		p.expect("register")
		p.expect("(")
		register := p.ident()
		p.expect(")")
		if t.Kind == SamplerKind {
			slot, _ := strconv.Atoi(strings.TrimPrefix(register, "s"))
			global.Sampler = &SamplerState{Name: name, Slot: slot, Filter: "Point", Address: "Wrap"}
		}
	}
	if t.Kind == SamplerKind && global.Sampler == nil {
		global.Sampler = &SamplerState{Name: name, Filter: "Point", Address: "Wrap"}
	}
	if p.accept("=") {
		if t.Kind != SamplerKind {
			p.fail("initialized uniform %s", name)
		}
		p.expect("sampler_state")
		p.expect("{")
		for !p.accept("}") {
			key := p.ident()
			p.expect("=")
			var value string
			if p.accept("<") {
				value = p.ident()
				p.expect(">")
			} else {
				value = p.ident()
			}
			p.expect(";")
			switch strings.ToLower(key) {
			case "texture":
				global.Sampler.Texture = value
			case "magfilter", "minfilter":
				global.Sampler.Filter = value
			case "addressu", "addressv":
				global.Sampler.Address = value
			}
		}
	}
	p.expect(";")
	p.program.Globals = append(p.program.Globals, global)
}

func (p *parser) parseFunc(result *Type, name string) {
	fn := &Func{Name: name, Result: result}
	p.expect("(")
	for !p.accept(")") {
		if len(fn.Params) > 0 {
			p.expect(",")
		}
		p.accept("in")
		p.accept("uniform")
		param := Param{Type: p.typ(), Name: p.ident()}
		if p.accept(":") {
			param.Semantic = p.ident()
		}
		fn.Params = append(fn.Params, param)
	}
	if p.accept(":") {
		p.ident()
	}
	fn.Body = p.parseBlock()
	p.program.Funcs[name] = fn
}

//
// Statements
//

func (p *parser) parseBlock() *BlockStmt {
	p.expect("{")
	block := &BlockStmt{}
	for !p.accept("}") {
		if p.current().kind == tokEOF {
			p.fail("unterminated block")
		}
		if stmt := p.parseStmt(); stmt != nil {
			block.List = append(block.List, stmt)
		}
	}
	return block
}

func (p *parser) parseStmt() Stmt {
	switch {
	case p.is("{"):
		return p.parseBlock()
	case p.accept(";"):
		return nil
	case p.accept("if"):
		p.expect("(")
		stmt := &IfStmt{Cond: p.parseExpr()}
		p.expect(")")
		stmt.Then = p.parseStmt()
		if p.accept("else") {
			stmt.Else = p.parseStmt()
		}
		return stmt
	case p.accept("for"):
		p.expect("(")
		stmt := &ForStmt{}
		if !p.is(";") {
			stmt.Init = p.parseSimpleStmt()
		}
		p.expect(";")
		if !p.is(";") {
			stmt.Cond = p.parseExpr()
		}
		p.expect(";")
		if !p.is(")") {
			stmt.Post = p.parseSimpleStmt()
		}
		p.expect(")")
		stmt.Body = p.parseStmt()
		return stmt
	case p.is("break") || p.is("continue"):
		stmt := &BranchStmt{Tok: p.next().text}
		p.expect(";")
		return stmt
	case p.accept("return"):
		stmt := &ReturnStmt{}
		if !p.is(";") {
			stmt.X = p.parseExpr()
		}
		p.expect(";")
		return stmt
	}
	stmt := p.parseSimpleStmt()
	p.expect(";")
	return stmt
}

func (p *parser) parseSimpleStmt() Stmt {
	if p.isType(p.current()) && p.peek(1).kind == tokIdent {
		stmt := &DeclStmt{Type: p.typ(), Name: p.ident()}
		if p.accept("=") {
			stmt.Init = p.parseExpr()
		}
		return stmt
	}
	if p.is("++") || p.is("--") {
		op := p.next().text
		return &IncDecStmt{Target: p.parseUnary(), Op: op}
	}
	x := p.parseExpr()
	switch tok := p.current(); {
	case tok.kind == tokOp && (tok.text == "++" || tok.text == "--"):
		p.next()
		return &IncDecStmt{Target: x, Op: tok.text}
	case tok.kind == tokOp && (tok.text == "=" || (len(tok.text) >= 2 && strings.HasSuffix(tok.text, "=") &&
		tok.text != "==" && tok.text != "!=" && tok.text != "<=" && tok.text != ">=")):
		p.next()
		return &AssignStmt{Target: x, Op: tok.text, Value: p.parseExpr()}
	}
	return &ExprStmt{X: x}
}

//
// Expressions
//

var binaryPrecedence = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

func (p *parser) parseExpr() Expr {
	cond := p.parseBinary(1)
	if p.is("?") {
		at := p.next().pos
		x := p.parseExpr()
		p.expect(":")
		y := p.parseExpr()
		return &Ternary{At: at, Cond: cond, X: x, Y: y}
	}
	return cond
}

func (p *parser) parseBinary(minPrec int) Expr {
	x := p.parseUnary()
	for {
		tok := p.current()
		prec, ok := binaryPrecedence[tok.text]
		if tok.kind != tokOp || !ok || prec < minPrec {
			return x
		}
		p.next()
		y := p.parseBinary(prec + 1)
		x = &Binary{At: tok.pos, Op: tok.text, X: x, Y: y}
	}
}

func (p *parser) parseUnary() Expr {
	tok := p.current()
	if tok.kind == tokOp {
		switch tok.text {
		case "-", "+", "!", "~":
			p.next()
			return &Unary{At: tok.pos, Op: tok.text, X: p.parseUnary()}
		case "(":
			if p.isType(p.peek(1)) && p.peek(2).text == ")" {
				p.next()
				t := p.typ()
				p.expect(")")
				return &Cast{At: tok.pos, Type: t, X: p.parseUnary()}
			}
		}
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() Expr {
	x := p.parsePrimary()
	for p.is(".") {
		at := p.next().pos
		x = &Member{At: at, X: x, Name: p.ident()}
	}
	return x
}

func (p *parser) parsePrimary() Expr {
	tok := p.next()
	switch tok.kind {
	case tokInt:
		n, err := strconv.ParseInt(tok.text, 0, 64)
		if err != nil {
			p.pos--
			p.fail("bad integer %s", tok.text)
		}
		return &Literal{At: tok.pos, Value: intValue(int(n))}
	case tokFloat:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSuffix(tok.text, "f"), "F"), 32)
		if err != nil {
			p.pos--
			p.fail("bad float %s", tok.text)
		}
		return &Literal{At: tok.pos, Value: floatValue(float32(f))}
	case tokIdent:
		switch tok.text {
		case "true":
			return &Literal{At: tok.pos, Value: boolValue(true)}
		case "false":
			return &Literal{At: tok.pos, Value: boolValue(false)}
		}
		if p.accept("(") {
			call := &Call{At: tok.pos, Func: tok.text}
			for !p.accept(")") {
				if len(call.Args) > 0 {
					p.expect(",")
				}
				call.Args = append(call.Args, p.parseExpr())
			}
			return call
		}
		return &Ident{At: tok.pos, Name: tok.text}
	case tokOp:
		if tok.text == "(" {
			x := p.parseExpr()
			p.expect(")")
			return x
		}
	}
	p.pos--
	p.fail("unexpected %q", tok.text)
	return nil
}
