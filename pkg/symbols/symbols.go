// Package symbols implements component S: the name → tape-cell symbol
// table, one instance per scope, chained to its enclosing scope the way
// a standard compiler's environment chain works.
package symbols

import "byteflow/pkg/types"

// Symbol is {name, type, cellIndex, scopeDepth, isParam, isArray} (§3).
type Symbol struct {
	Name       string
	Type       types.Type
	CellIndex  int
	ScopeDepth int
	IsParam    bool
	IsArray    bool
}

// Table is a single lexical scope's symbol store, optionally chained to
// an enclosing scope for name resolution.
type Table struct {
	store map[string]Symbol
	outer *Table
	depth int
}

// NewTable creates the outermost (global) symbol table.
func NewTable() *Table {
	return &Table{store: make(map[string]Symbol), depth: 0}
}

// NewEnclosedTable opens a nested scope under outer, e.g. entering a
// function body or a block (§4.1 enterScope).
func NewEnclosedTable(outer *Table) *Table {
	return &Table{store: make(map[string]Symbol), outer: outer, depth: outer.depth + 1}
}

// Outer returns the enclosing scope, or nil at the global scope.
func (t *Table) Outer() *Table { return t.outer }

// Depth returns this scope's nesting depth (0 = global).
func (t *Table) Depth() int { return t.depth }

// Define records a new symbol in the current scope. The caller
// (the tape allocator's allocateNamed, §4.1) has already reserved
// sym.CellIndex; redeclaration-in-scope is rejected by the caller before
// Define is reached, per §7 SemanticError.
func (t *Table) Define(sym Symbol) {
	sym.ScopeDepth = t.depth
	t.store[sym.Name] = sym
}

// DefinedInScope reports whether name is already declared directly in
// this scope (not an outer one) — used to detect redeclaration.
func (t *Table) DefinedInScope(name string) bool {
	_, ok := t.store[name]
	return ok
}

// Resolve looks up name in this scope, then walks outward through
// enclosing scopes, the way lexical scoping requires.
func (t *Table) Resolve(name string) (Symbol, bool) {
	if sym, ok := t.store[name]; ok {
		return sym, true
	}
	if t.outer != nil {
		return t.outer.Resolve(name)
	}
	return Symbol{}, false
}

// All returns every symbol defined directly in this scope, in no
// particular order. (The compiler's scope exit zeroes cells from the
// tape allocator's range, not from this list.)
func (t *Table) All() []Symbol {
	out := make([]Symbol, 0, len(t.store))
	for _, s := range t.store {
		out = append(out, s)
	}
	return out
}
