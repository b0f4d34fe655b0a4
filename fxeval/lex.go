package fxeval

import (
	"fmt"
	"strings"
	"text/scanner"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokFloat
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  scanner.Position
}

// ParseError is a syntax or ERROR marker error in an effect file.
type ParseError struct {
	Pos scanner.Position
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// multiCharOps are the two-character operators. "<<=" and ">>=" extend "<<" and ">>".
var multiCharOps = []string{
	"==", "!=", "<=", ">=", "&&", "||", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>",
}

// preprocess strips preprocessor lines, recording #define substitutions.
func preprocess(src string) (string, map[string]string) {
	defines := make(map[string]string)
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		if fields := strings.Fields(trimmed); len(fields) >= 3 && fields[0] == "#define" {
			defines[fields[1]] = strings.Join(fields[2:], " ")
		}
		lines[i] = ""
	}
	return strings.Join(lines, "\n"), defines
}

// literalKind classifies the text a #define substitutes for an identifier.
func literalKind(text string) tokenKind {
	if text == "" || !unicode.IsDigit(rune(text[0])) {
		return tokIdent
	}
	if strings.ContainsAny(text, ".eE") && !strings.HasPrefix(text, "0x") {
		return tokFloat
	}
	return tokInt
}

func tokenize(name, src string) ([]token, error) {
	src, defines := preprocess(src)
	var s scanner.Scanner
	s.Init(strings.NewReader(src))
	s.Filename = name
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanComments | scanner.SkipComments
	var errs []string
	s.Error = func(s *scanner.Scanner, msg string) {
		errs = append(errs, fmt.Sprintf("%s: %s", s.Position, msg))
	}

	var tokens []token
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		pos := s.Position
		text := s.TokenText()
		switch tok {
		case scanner.Ident:
			kind := tokIdent
			if sub, ok := defines[text]; ok {
				text, kind = sub, literalKind(sub)
			}
			tokens = append(tokens, token{kind: kind, text: text, pos: pos})
		case scanner.Int:
			tokens = append(tokens, token{kind: tokInt, text: text, pos: pos})
		case scanner.Float:
			tokens = append(tokens, token{kind: tokFloat, text: text, pos: pos})
		default:
			op := text
			for _, candidate := range multiCharOps {
				if candidate[0] != op[0] {
					continue
				}
				if rune(candidate[1]) == s.Peek() {
					s.Next()
					op = candidate
					if op == "<<" || op == ">>" {
						if s.Peek() == '=' {
							s.Next()
							op += "="
						}
					}
					break
				}
			}
			tokens = append(tokens, token{kind: tokOp, text: op, pos: pos})
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(errs, "\n"))
	}
	tokens = append(tokens, token{kind: tokEOF, pos: s.Position})
	return tokens, nil
}
