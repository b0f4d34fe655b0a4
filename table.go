package main

import (
	"fmt"
	"go/token"
	"go/types"
)

type Rule int

const (
	// Substitute keeps the left-hand side of a member access and replaces the member name.
	Substitute Rule = iota
	// Expression replaces the whole member access, discarding the left-hand side.
	Expression
	// Suffix appends an underscore and the spelling to the left-hand side.
	Suffix
)

func (r Rule) String() string {
	switch r {
	case Expression:
		return "expression"
	case Suffix:
		return "suffix"
	}
	return "substitute"
}

type Entry struct {
	Spelling string
	Rule     Rule
}

// NoTranslation is what RecursiveLookup returns when nothing in a type's chain is translated.
var NoTranslation = Entry{}

func (e Entry) Ok() bool {
	return e.Spelling != ""
}

type tableEntry struct {
	Entry
	pos token.Pos
}

// TableBuilder collects translation entries. Freeze hands them over to a read-only Table.
type TableBuilder struct {
	fileSet *token.FileSet
	entries map[types.Object]tableEntry
	frozen  bool
}

func NewTableBuilder(fileSet *token.FileSet) *TableBuilder {
	return &TableBuilder{
		fileSet: fileSet,
		entries: make(map[types.Object]tableEntry),
	}
}

// Add records an entry for a declaration. Adding an identical entry again is a no-op.
func (b *TableBuilder) Add(obj types.Object, entry Entry, pos token.Pos) error {
	if b.frozen {
		return fmt.Errorf("translation table is frozen, cannot add %s", obj.Name())
	}
	obj = origin(obj)
	if existing, ok := b.entries[obj]; ok {
		if existing.Entry == entry {
			return nil
		}
		return fmt.Errorf("%s: conflicting translation for %s: %q (%s) and %q (%s) at %s",
			b.fileSet.Position(pos), obj.Name(), entry.Spelling, entry.Rule,
			existing.Spelling, existing.Rule, b.fileSet.Position(existing.pos))
	}
	b.entries[obj] = tableEntry{Entry: entry, pos: pos}
	return nil
}

func (b *TableBuilder) Lookup(obj types.Object) (Entry, bool) {
	return lookupEntry(b.entries, obj)
}

func (b *TableBuilder) RecursiveLookup(typ types.Type) Entry {
	return recursiveLookup(b.entries, typ)
}

func (b *TableBuilder) Len() int {
	return len(b.entries)
}

func (b *TableBuilder) Freeze() *Table {
	b.frozen = true
	table := &Table{entries: b.entries}
	b.entries = nil
	return table
}

// Table is the frozen translation table. It is safe for concurrent use.
type Table struct {
	entries map[types.Object]tableEntry
}

func (t *Table) Lookup(obj types.Object) (Entry, bool) {
	return lookupEntry(t.entries, obj)
}

func (t *Table) RecursiveLookup(typ types.Type) Entry {
	return recursiveLookup(t.entries, typ)
}

func (t *Table) Len() int {
	return len(t.entries)
}

// translations is the read side shared by the builder and the frozen table. The emitter only
// needs this, so the constant folder can run it against the builder.
type translations interface {
	Lookup(obj types.Object) (Entry, bool)
	RecursiveLookup(typ types.Type) Entry
}

func lookupEntry(entries map[types.Object]tableEntry, obj types.Object) (Entry, bool) {
	if obj == nil {
		return NoTranslation, false
	}
	entry, ok := entries[origin(obj)]
	return entry.Entry, ok
}

func recursiveLookup(entries map[types.Object]tableEntry, typ types.Type) Entry {
	visited := make(map[types.Type]bool)
	for typ != nil && !visited[typ] {
		visited[typ] = true
		switch t := typ.(type) {
		case *types.Pointer:
			typ = t.Elem()
			continue
		case *types.Alias:
			typ = types.Unalias(t)
			continue
		case *types.Named:
			if entry, ok := entries[t.Origin().Obj()]; ok {
				return entry.Entry
			}
			typ = firstEmbedded(t)
			continue
		case *types.Basic:
			basic := types.Default(t).(*types.Basic)
			if obj := types.Universe.Lookup(basic.Name()); obj != nil {
				if entry, ok := entries[obj]; ok {
					return entry.Entry
				}
			}
		}
		break
	}
	return NoTranslation
}
