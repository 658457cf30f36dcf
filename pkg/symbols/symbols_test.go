package symbols

import (
	"testing"

	"github.com/stretchr/testify/require"

	"byteflow/pkg/types"
)

func TestResolveFindsSymbolInEnclosingScope(t *testing.T) {
	global := NewTable()
	global.Define(Symbol{Name: "g", Type: types.Int, CellIndex: 0})

	fn := NewEnclosedTable(global)
	fn.Define(Symbol{Name: "local", Type: types.Bool, CellIndex: 1})

	sym, ok := fn.Resolve("g")
	require.True(t, ok)
	require.Equal(t, types.Int, sym.Type)

	sym, ok = fn.Resolve("local")
	require.True(t, ok)
	require.Equal(t, 1, sym.ScopeDepth)
	require.Equal(t, types.Bool, sym.Type)
}

func TestDefinedInScopeOnlyChecksCurrentScope(t *testing.T) {
	global := NewTable()
	global.Define(Symbol{Name: "x", Type: types.Int})

	inner := NewEnclosedTable(global)
	require.False(t, inner.DefinedInScope("x"))
	require.True(t, global.DefinedInScope("x"))
}

func TestResolveMissingNameReportsNotFound(t *testing.T) {
	global := NewTable()
	_, ok := global.Resolve("nope")
	require.False(t, ok)
}

func TestAllReturnsOnlyCurrentScopeSymbols(t *testing.T) {
	global := NewTable()
	global.Define(Symbol{Name: "g", Type: types.Int})

	inner := NewEnclosedTable(global)
	inner.Define(Symbol{Name: "a", Type: types.Int})
	inner.Define(Symbol{Name: "b", Type: types.Bool})

	all := inner.All()
	require.Len(t, all, 2)
}
