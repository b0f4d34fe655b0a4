package main

import (
	"go/ast"
	"strings"
)

// foldReadonly turns readonly package vars into expression translations. A value can use other
// readonly values, so folding repeats until nothing changes.
func (c *Compiler) foldReadonly(builder *TableBuilder) {
	var pending []readonlyVar
	for _, v := range c.readonlyVars() {
		if _, ok := builder.Lookup(v.obj); ok {
			continue
		}
		switch ast.Unparen(v.value).(type) {
		case *ast.CompositeLit, *ast.CallExpr:
			pending = append(pending, v)
		}
	}
	for progress := true; progress && len(pending) > 0; {
		progress = false
		var remaining []readonlyVar
		for _, v := range pending {
			e := c.newEmitter(builder)
			e.folding = true
			e.writeExpr(v.value)
			text := e.output.String()
			if strings.Contains(text, "ERROR(") {
				remaining = append(remaining, v)
				continue
			}
			if err := builder.Add(v.obj, Entry{Spelling: text, Rule: Expression}, v.value.Pos()); err != nil {
				c.errorf(v.value.Pos(), "%s", err)
			}
			progress = true
		}
		pending = remaining
	}
}
