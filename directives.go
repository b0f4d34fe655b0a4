package main

import (
	"go/ast"
	"go/types"
	"regexp"
	"strings"

	"golang.org/x/tools/go/packages"
)

var (
	hlslDirectiveRe     = regexp.MustCompile(`^//gxfx:hlsl\s+(\S+)(?:\s+(substitute|expression|suffix))?\s*$`)
	typeMapDirectiveRe  = regexp.MustCompile(`^//gxfx:typemap\s*$`)
	shaderDirectiveRe   = regexp.MustCompile(`^//gxfx:shader\s*$`)
	vertexDirectiveRe   = regexp.MustCompile(`^//gxfx:vertex\s*$`)
	fragmentDirectiveRe = regexp.MustCompile(`^//gxfx:fragment\s*$`)
	readonlyDirectiveRe = regexp.MustCompile(`^//gxfx:readonly\s*$`)
	valsDirectiveRe     = regexp.MustCompile(`^//gxfx:vals((?:\s+\S+)+)\s*$`)
	valsOfDirectiveRe   = regexp.MustCompile(`^//gxfx:valsof\s+(\S+)\s*$`)
	specialDirectiveRe  = regexp.MustCompile(`^//gxfx:special\s+(rgba_hex|rgb_hex|select)\s*$`)
	indexDirectiveRe    = regexp.MustCompile(`^//gxfx:index\s*$`)
	offsetDirectiveRe   = regexp.MustCompile(`^//gxfx:offset\s*$`)
	copyDirectiveRe     = regexp.MustCompile(`^//gxfx:copy\s+(\S+)\s+(\w+)((?:\s+\w+=\w+)*)\s*$`)
	anyDirectiveRe      = regexp.MustCompile(`^//gxfx:`)
)

// parseDirective returns the submatches of the first comment in the given doc comments that
// matches re, or nil.
func parseDirective(re *regexp.Regexp, docs ...*ast.CommentGroup) []string {
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, comment := range doc.List {
			if matches := re.FindStringSubmatch(comment.Text); matches != nil {
				return matches
			}
		}
	}
	return nil
}

func hasDirective(re *regexp.Regexp, docs ...*ast.CommentGroup) bool {
	return parseDirective(re, docs...) != nil
}

// directiveLines returns every gxfx directive line in a doc comment, in order.
func directiveLines(doc *ast.CommentGroup) []string {
	var result []string
	if doc != nil {
		for _, comment := range doc.List {
			if anyDirectiveRe.MatchString(comment.Text) {
				result = append(result, comment.Text)
			}
		}
	}
	return result
}

// specDoc returns the docs that apply to one spec of a declaration. The declaration's doc only
// applies when it is not a parenthesized group, unless shared is set.
func specDoc(gen *ast.GenDecl, doc *ast.CommentGroup, shared bool) []*ast.CommentGroup {
	if gen != nil && (shared || !gen.Lparen.IsValid()) {
		return []*ast.CommentGroup{doc, gen.Doc}
	}
	return []*ast.CommentGroup{doc}
}

func parseRule(s string) Rule {
	switch s {
	case "expression":
		return Expression
	case "suffix":
		return Suffix
	}
	return Substitute
}

// resolveTypeName resolves a possibly package-qualified type name as seen from a file.
func (c *Compiler) resolveTypeName(pkg *packages.Package, file *ast.File, name string) *types.TypeName {
	scope := pkg.Types.Scope()
	if qualifier, rest, ok := strings.Cut(name, "."); ok {
		scope = nil
		for _, imp := range file.Imports {
			var obj types.Object
			if imp.Name != nil {
				obj = c.types.Defs[imp.Name]
			} else {
				obj = c.types.Implicits[imp]
			}
			if pkgName, ok := obj.(*types.PkgName); ok && pkgName.Name() == qualifier {
				scope = pkgName.Imported().Scope()
				break
			}
		}
		if scope == nil {
			return nil
		}
		name = rest
	}
	typeName, _ := scope.Lookup(name).(*types.TypeName)
	return typeName
}
