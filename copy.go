package main

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/imports"
)

// copyDirective declares a copy of a struct type under a new name, with fields renamed. The copy
// keeps the source's translations and converts to and from it.
type copyDirective struct {
	source  *types.TypeName
	target  string
	renames map[string]string
	pos     token.Pos
}

func (c *Compiler) copyDirectives(pkg *packages.Package) []*copyDirective {
	var result []*copyDirective
	targets := make(map[string]bool)
	for _, file := range pkg.Syntax {
		for _, group := range file.Comments {
			for _, comment := range group.List {
				matches := copyDirectiveRe.FindStringSubmatch(comment.Text)
				if matches == nil {
					continue
				}
				source := c.resolveTypeName(pkg, file, matches[1])
				if source == nil {
					c.errorf(comment.Pos(), "unknown type in copy: %s", matches[1])
					continue
				}
				if targets[matches[2]] {
					c.errorf(comment.Pos(), "%s is copied more than once", matches[2])
					continue
				}
				targets[matches[2]] = true
				directive := &copyDirective{
					source:  source,
					target:  matches[2],
					renames: make(map[string]string),
					pos:     comment.Pos(),
				}
				for _, rename := range strings.Fields(matches[3]) {
					old, new, _ := strings.Cut(rename, "=")
					directive.renames[old] = new
				}
				result = append(result, directive)
			}
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].target < result[j].target })
	return result
}

// typeDeclOf finds the declaration of a type among the collected ones.
func (c *Compiler) typeDeclOf(typeName *types.TypeName) *declared[*ast.TypeSpec] {
	for _, d := range c.typeSpecs {
		if c.types.Defs[d.node.Name] == typeName {
			return d
		}
	}
	return nil
}

// genCopies generates the copies file of a package. It returns "" if the package has no copy
// directives.
func (c *Compiler) genCopies(pkg *packages.Package) (string, error) {
	directives := c.copyDirectives(pkg)
	if len(directives) == 0 {
		return "", nil
	}
	g := &glueWriter{
		pkg:     pkg.Types,
		imports: make(map[string]string),
		output:  &strings.Builder{},
	}
	for _, directive := range directives {
		c.genCopy(g, directive)
	}

	header := &strings.Builder{}
	header.WriteString(generatedHeader)
	fmt.Fprintf(header, "package %s\n\n", pkg.Name)
	if len(g.imports) > 0 {
		paths := make([]string, 0, len(g.imports))
		for path := range g.imports {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		header.WriteString("import (\n")
		for _, path := range paths {
			fmt.Fprintf(header, "%q\n", path)
		}
		header.WriteString(")\n")
	}

	src := header.String() + g.output.String()
	formatted, err := imports.Process(copiesFileName, []byte(src), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return src, fmt.Errorf("formatting copies for %s: %w", pkg.PkgPath, err)
	}
	return string(formatted), nil
}

func (c *Compiler) genCopy(g *glueWriter, directive *copyDirective) {
	source := directive.source
	structType, ok := source.Type().Underlying().(*types.Struct)
	decl := c.typeDeclOf(source)
	if named, isNamed := source.Type().(*types.Named); !ok || decl == nil || (isNamed && named.TypeParams().Len() > 0) {
		c.errorf(directive.pos, "cannot copy %s, only non-generic struct types can be copied", source.Name())
		return
	}
	typeSpec := decl.node
	target := directive.target
	sourceName := g.typeString(source.Type())
	toSource := lowerFirst(target) + "To" + source.Name()
	fromSource := lowerFirst(target) + "From" + source.Name()
	var typeLines []string
	hlslLine := ""
	for _, doc := range specDoc(decl.gen, typeSpec.Doc, false) {
		for _, line := range directiveLines(doc) {
			if shaderDirectiveRe.MatchString(line) || typeMapDirectiveRe.MatchString(line) {
				continue
			}
			if hlslDirectiveRe.MatchString(line) {
				hlslLine = line
			}
			typeLines = append(typeLines, line)
		}
	}

	// Field docs by name
	fieldDocs := make(map[string]*ast.CommentGroup)
	if astStruct, ok := typeSpec.Type.(*ast.StructType); ok {
		for _, field := range astStruct.Fields.List {
			for _, name := range field.Names {
				fieldDocs[name.Name] = field.Doc
			}
		}
	}
	for old := range directive.renames {
		found := false
		for i := 0; i < structType.NumFields(); i++ {
			found = found || structType.Field(i).Name() == old
		}
		if !found {
			c.errorf(directive.pos, "%s has no field %s", source.Name(), old)
		}
	}
	fieldName := func(field *types.Var) string {
		if renamed, ok := directive.renames[field.Name()]; ok {
			return renamed
		}
		return field.Name()
	}

	// Type
	g.printf("\n// %s is a copy of %s.\n", target, sourceName)
	if len(typeLines) > 0 {
		g.printf("//\n%s\n", strings.Join(typeLines, "\n"))
	}
	g.printf("type %s struct {\n", target)
	for i := 0; i < structType.NumFields(); i++ {
		field := structType.Field(i)
		for _, line := range directiveLines(fieldDocs[field.Name()]) {
			g.printf("%s\n", line)
		}
		if field.Embedded() {
			g.printf("%s\n", g.typeString(field.Type()))
		} else {
			g.printf("%s %s\n", fieldName(field), g.typeString(field.Type()))
		}
	}
	g.printf("}\n")

	// Conversions
	var toFields, fromFields []string
	for i := 0; i < structType.NumFields(); i++ {
		field := structType.Field(i)
		toFields = append(toFields, field.Name()+": x."+fieldName(field))
		fromFields = append(fromFields, fieldName(field)+": x."+field.Name())
	}
	g.printf("\n")
	if hlslLine != "" {
		g.printf("%s\n", hlslLine)
	}
	g.printf("func %s(x %s) %s {\nreturn %s{%s}\n}\n", toSource, target, sourceName, sourceName, strings.Join(toFields, ", "))
	g.printf("\n")
	if hlslLine != "" {
		g.printf("%s\n", hlslLine)
	}
	g.printf("func %s(x %s) %s {\nreturn %s{%s}\n}\n", fromSource, sourceName, target, target, strings.Join(fromFields, ", "))

	// Methods
	for _, d := range c.funcDecls {
		fn := c.funcOf(d.node)
		if fn == nil || recvTypeName(fn) != source || (!fn.Exported() && fn.Pkg() != g.pkg) {
			continue
		}
		sig := fn.Type().(*types.Signature)
		if _, isPointer := sig.Recv().Type().(*types.Pointer); isPointer || sig.Variadic() || sig.Results().Len() > 1 {
			continue
		}
		isSource := func(typ types.Type) bool { return types.Identical(typ, source.Type()) }
		recvName := lowerFirst(target[:1])
		var params, args []string
		for i := 0; i < sig.Params().Len(); i++ {
			param := sig.Params().At(i)
			name := param.Name()
			if name == "" || name == "_" {
				name = fmt.Sprintf("p%d", i)
			}
			if name == recvName {
				recvName = "recv"
			}
			if isSource(param.Type()) {
				params = append(params, name+" "+target)
				args = append(args, toSource+"("+name+")")
			} else {
				params = append(params, name+" "+g.typeString(param.Type()))
				args = append(args, name)
			}
		}
		call := fmt.Sprintf("%s(%s).%s(%s)", toSource, recvName, fn.Name(), strings.Join(args, ", "))
		result := ""
		body := call
		if sig.Results().Len() == 1 {
			resultType := sig.Results().At(0).Type()
			if isSource(resultType) {
				result = " " + target
				body = "return " + fromSource + "(" + call + ")"
			} else {
				result = " " + g.typeString(resultType)
				body = "return " + call
			}
		}
		g.printf("\n")
		for _, line := range directiveLines(d.node.Doc) {
			g.printf("%s\n", line)
		}
		g.printf("func (%s %s) %s(%s)%s {\n%s\n}\n", recvName, target, fn.Name(), strings.Join(params, ", "), result, body)
	}
}
