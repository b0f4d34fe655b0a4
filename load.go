package main

import (
	"context"
	"fmt"
	"go/ast"
	"go/types"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"
)

// typeError is a type checking error in a root package. Whether it is fatal depends on whether
// it falls inside compiled code.
type typeError struct {
	file string
	line int
	msg  string
	raw  packages.Error
}

func (e typeError) String() string {
	if e.raw.Pos != "" {
		return fmt.Sprintf("%s: %s", e.raw.Pos, e.raw.Msg)
	}
	return e.raw.Msg
}

// load loads the configured patterns and resets the compiler's view of the program to them. Errors
// in dependencies are reported through errorf. Errors in root packages are returned.
func (c *Compiler) load(ctx context.Context, overlay map[string][]byte) []typeError {
	packagesConfig := &packages.Config{
		Context: ctx,
		Dir:     c.config.Dir,
		Overlay: overlay,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedImports | packages.NeedDeps |
			packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo,
	}
	loadPkgs, err := packages.Load(packagesConfig, c.config.Patterns...)
	if err != nil {
		c.errorf(0, "%s", err)
		return nil
	}
	if len(loadPkgs) == 0 {
		c.errorf(0, "no packages matched %s", strings.Join(c.config.Patterns, " "))
		return nil
	}
	c.fileSet = loadPkgs[0].Fset
	c.roots = loadPkgs

	var rootErrors []typeError
	isRoot := make(map[*packages.Package]bool)
	for _, pkg := range loadPkgs {
		isRoot[pkg] = true
		for _, err := range pkg.Errors {
			file, line := splitErrorPos(err.Pos)
			rootErrors = append(rootErrors, typeError{file: file, line: line, msg: err.Msg, raw: err})
		}
	}

	// Collect packages, dependencies first
	c.pkgs = nil
	{
		visited := make(map[*packages.Package]bool)
		var visit func(pkg *packages.Package)
		visit = func(pkg *packages.Package) {
			if !visited[pkg] {
				visited[pkg] = true
				for _, dep := range pkg.Imports {
					visit(dep)
				}
				c.pkgs = append(c.pkgs, pkg)
				if pkg.Fset != c.fileSet {
					c.errorf(0, "internal error: filesets differ")
				}
				if !isRoot[pkg] {
					for _, err := range pkg.Errors {
						if err.Pos != "" {
							c.errorf(0, "%s: %s", err.Pos, err.Msg)
						} else {
							c.errorf(0, "%s", err.Msg)
						}
					}
				}
			}
		}
		for _, pkg := range loadPkgs {
			visit(pkg)
		}
	}

	// Collect type info
	c.types = &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Instances:  make(map[*ast.Ident]types.Instance),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
		Scopes:     make(map[ast.Node]*types.Scope),
	}
	for _, pkg := range c.pkgs {
		if pkg.TypesInfo == nil {
			continue
		}
		for k, v := range pkg.TypesInfo.Types {
			c.types.Types[k] = v
		}
		for k, v := range pkg.TypesInfo.Instances {
			c.types.Instances[k] = v
		}
		for k, v := range pkg.TypesInfo.Defs {
			c.types.Defs[k] = v
		}
		for k, v := range pkg.TypesInfo.Uses {
			c.types.Uses[k] = v
		}
		for k, v := range pkg.TypesInfo.Implicits {
			c.types.Implicits[k] = v
		}
		for k, v := range pkg.TypesInfo.Selections {
			c.types.Selections[k] = v
		}
		for k, v := range pkg.TypesInfo.Scopes {
			c.types.Scopes[k] = v
		}
	}
	return rootErrors
}

// splitErrorPos splits a "file:line:col" or "file:line" position as reported by go/packages.
func splitErrorPos(pos string) (string, int) {
	rest, last, ok := cutLast(pos)
	if !ok {
		return pos, 0
	}
	if file, line, ok := cutLast(rest); ok {
		n, errLine := strconv.Atoi(line)
		_, errCol := strconv.Atoi(last)
		if errLine == nil && errCol == nil {
			return filepath.Clean(file), n
		}
	}
	if n, err := strconv.Atoi(last); err == nil {
		return filepath.Clean(rest), n
	}
	return pos, 0
}

func cutLast(s string) (string, string, bool) {
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}

// pkgDir is the directory of a loaded package's sources.
func pkgDir(pkg *packages.Package) string {
	if len(pkg.GoFiles) > 0 {
		return filepath.Dir(pkg.GoFiles[0])
	}
	if len(pkg.CompiledGoFiles) > 0 {
		return filepath.Dir(pkg.CompiledGoFiles[0])
	}
	return ""
}
