package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"nanocc/internal/ast"
)

func TestDeclareAndLookupShadowing(t *testing.T) {
	root := NewScope(nil)
	root.Declare("x", KindVariable, nil, ast.Position{Line: 1}, &ast.TypeInfo{Prim: ast.PrimInt})

	inner := NewScope(root)
	assert.NotNil(t, inner.Lookup("x"))
	assert.Nil(t, inner.LookupLocal("x"))

	inner.Declare("x", KindVariable, nil, ast.Position{Line: 2}, &ast.TypeInfo{Prim: ast.PrimFloat})
	assert.Equal(t, ast.PrimFloat, inner.Lookup("x").Type.Prim)
	assert.Equal(t, ast.PrimInt, root.Lookup("x").Type.Prim)
}

func TestLookupMissingReturnsNil(t *testing.T) {
	root := NewScope(nil)
	assert.Nil(t, root.Lookup("missing"))
}

func TestMarkUsedAndAssigned(t *testing.T) {
	root := NewScope(nil)
	root.Declare("y", KindVariable, nil, ast.Position{}, nil)
	root.MarkUsed("y")
	root.MarkAssigned("y")
	sym := root.Lookup("y")
	assert.True(t, sym.Used)
	assert.True(t, sym.Assigned)
}

func TestParent(t *testing.T) {
	root := NewScope(nil)
	child := NewScope(root)
	assert.Same(t, root, child.Parent())
	assert.Nil(t, root.Parent())
}
