package fxeval

import "text/scanner"

type Kind int

const (
	Void Kind = iota
	Float
	Int
	Bool
	Struct
	SamplerKind
	TextureKind
)

// Type is an HLSL type. Numeric types are scalars or vectors of N components.
type Type struct {
	Kind   Kind
	N      int
	Name   string
	Fields []Field
}

type Field struct {
	Type     *Type
	Name     string
	Semantic string
}

func (t *Type) field(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (t *Type) numeric() bool {
	return t.Kind == Float || t.Kind == Int || t.Kind == Bool
}

var (
	voidType    = &Type{Kind: Void, Name: "void"}
	samplerType = &Type{Kind: SamplerKind, Name: "sampler"}
	textureType = &Type{Kind: TextureKind, Name: "Texture"}
	builtins    = make(map[string]*Type)
)

func init() {
	builtins["void"] = voidType
	builtins["sampler"] = samplerType
	builtins["sampler2D"] = samplerType
	builtins["Texture"] = textureType
	builtins["texture"] = textureType
	for _, base := range []struct {
		name string
		kind Kind
	}{{"float", Float}, {"half", Float}, {"int", Int}, {"bool", Bool}} {
		builtins[base.name] = &Type{Kind: base.kind, N: 1, Name: base.name}
		for n := 2; n <= 4; n++ {
			name := base.name + string(rune('0'+n))
			builtins[name] = &Type{Kind: base.kind, N: n, Name: name}
		}
	}
}

func vectorType(kind Kind, n int) *Type {
	name := map[Kind]string{Float: "float", Int: "int", Bool: "bool"}[kind]
	if n > 1 {
		name += string(rune('0' + n))
	}
	return builtins[name]
}

//
// Expressions
//

type Expr interface {
	Pos() scanner.Position
}

type (
	Ident struct {
		At   scanner.Position
		Name string
	}
	Literal struct {
		At    scanner.Position
		Value Value
	}
	Unary struct {
		At scanner.Position
		Op string
		X  Expr
	}
	Binary struct {
		At   scanner.Position
		Op   string
		X, Y Expr
	}
	Ternary struct {
		At         scanner.Position
		Cond, X, Y Expr
	}
	Call struct {
		At   scanner.Position
		Func string
		Args []Expr
	}
	Cast struct {
		At   scanner.Position
		Type *Type
		X    Expr
	}
	Member struct {
		At   scanner.Position
		X    Expr
		Name string
	}
)

func (e *Ident) Pos() scanner.Position   { return e.At }
func (e *Literal) Pos() scanner.Position { return e.At }
func (e *Unary) Pos() scanner.Position   { return e.At }
func (e *Binary) Pos() scanner.Position  { return e.At }
func (e *Ternary) Pos() scanner.Position { return e.At }
func (e *Call) Pos() scanner.Position    { return e.At }
func (e *Cast) Pos() scanner.Position    { return e.At }
func (e *Member) Pos() scanner.Position  { return e.At }

//
// Statements
//

type Stmt interface{}

type (
	DeclStmt struct {
		Type *Type
		Name string
		Init Expr
	}
	AssignStmt struct {
		Target Expr
		Op     string // "=", "+=", ...
		Value  Expr
	}
	IncDecStmt struct {
		Target Expr
		Op     string
	}
	ExprStmt struct {
		X Expr
	}
	IfStmt struct {
		Cond Expr
		Then Stmt
		Else Stmt
	}
	ForStmt struct {
		Init Stmt
		Cond Expr
		Post Stmt
		Body Stmt
	}
	BranchStmt struct {
		Tok string
	}
	ReturnStmt struct {
		X Expr
	}
	BlockStmt struct {
		List []Stmt
	}
)

//
// Declarations
//

type Param struct {
	Type     *Type
	Name     string
	Semantic string
}

type Func struct {
	Name   string
	Result *Type
	Params []Param
	Body   *BlockStmt
}

// SamplerState is a sampler declaration with its texture and modes.
type SamplerState struct {
	Name    string
	Texture string
	Filter  string
	Address string
	Slot    int
}

type Global struct {
	Type    *Type
	Name    string
	Static  bool
	Sampler *SamplerState
}

// Program is a parsed effect file.
type Program struct {
	Name     string
	Structs  map[string]*Type
	Globals  []*Global
	Funcs    map[string]*Func
	Vertex   string
	Fragment string
}

func (p *Program) global(name string) *Global {
	for _, g := range p.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}
