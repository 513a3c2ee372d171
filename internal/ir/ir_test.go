package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"nanocc/internal/ast"
	"nanocc/internal/diag"
	"nanocc/internal/semantic"
)

// check runs the full front-end pipeline (usage/function/type/lower)
// before handing decls to Generate, the way the driver does.
func check(t *testing.T, decls []ast.Node) {
	t.Helper()
	var bag diag.Bag
	semantic.Analyze(decls, &bag)
	assert.False(t, bag.HasErrors(), "%+v", bag.Diagnostics)
}

func TestBuilderAppendAssignsDenseIndices(t *testing.T) {
	b := NewBuilder()
	n0 := b.Append(NewImmInt(1))
	n1 := b.Append(NewImmInt(2))
	assert.Equal(t, 0, n0.InstrIdx)
	assert.Equal(t, 1, n1.InstrIdx)
	assert.Same(t, n0, n1.Prev)
}

func TestBuilderInsertBeforeRenumbers(t *testing.T) {
	b := NewBuilder()
	n0 := b.Append(NewImmInt(1))
	n1 := b.Append(NewImmInt(2))
	mid := NewImmInt(99)
	b.InsertBefore(n1, mid)

	assert.Equal(t, 0, n0.InstrIdx)
	assert.Equal(t, 1, mid.InstrIdx)
	assert.Equal(t, 2, n1.InstrIdx)
	assert.Same(t, mid, n0.Next)
	assert.Same(t, n1, mid.Next)
}

func TestGenerateSimpleFunction(t *testing.T) {
	// int f() { int a = 1; return a + 2; }
	fn := &ast.FnDecl{
		Name:       "f",
		ReturnPrim: ast.PrimInt,
		Body: &ast.Compound{Stmts: []ast.Node{
			&ast.VarDecl{Name: "a", Prim: ast.PrimInt, Init: &ast.IntLit{Value: 1}},
			&ast.ReturnStmt{Value: &ast.BinaryExpr{
				Op:  ast.OpAdd,
				Lhs: &ast.SymbolExpr{Name: "a"},
				Rhs: &ast.IntLit{Value: 2},
			}},
		}},
	}
	decls := []ast.Node{fn}
	check(t, decls)

	unit, err := Generate(decls)
	assert.NoError(t, err)
	assert.Len(t, unit.FnDecls, 1)

	var kinds []Kind
	for n := unit.FnDecls[0].FnDecl.Body; n != nil; n = n.Next {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []Kind{KindAlloca, KindStore, KindAlloca, KindStore, KindRet}, kinds)
}

func TestGenerateDenseInstrIdx(t *testing.T) {
	fn := &ast.FnDecl{
		Name:       "f",
		ReturnPrim: ast.PrimVoid,
		Body: &ast.Compound{Stmts: []ast.Node{
			&ast.VarDecl{Name: "x", Prim: ast.PrimInt, Init: &ast.IntLit{Value: 1}},
			&ast.ReturnStmt{},
		}},
	}
	decls := []ast.Node{fn}
	check(t, decls)
	unit, err := Generate(decls)
	assert.NoError(t, err)

	idx := 0
	for n := unit.FnDecls[0].FnDecl.Body; n != nil; n = n.Next {
		assert.Equal(t, idx, n.InstrIdx)
		idx++
	}
}

func TestGenerateIfElseJumpTargets(t *testing.T) {
	// int abs(int x) { if (x < 0) return -x; return x; }
	fn := &ast.FnDecl{
		Name: "abs", ReturnPrim: ast.PrimInt,
		Args: []ast.Node{&ast.VarDecl{Name: "x", Prim: ast.PrimInt}},
		Body: &ast.Compound{Stmts: []ast.Node{
			&ast.IfStmt{
				Cond: &ast.BinaryExpr{Op: ast.OpLt, Lhs: &ast.SymbolExpr{Name: "x"}, Rhs: &ast.IntLit{Value: 0}},
				Then: &ast.Compound{Stmts: []ast.Node{
					&ast.ReturnStmt{Value: &ast.PrefixUnaryExpr{Op: ast.OpNegate, Operand: &ast.SymbolExpr{Name: "x"}}},
				}},
			},
			&ast.ReturnStmt{Value: &ast.SymbolExpr{Name: "x"}},
		}},
	}
	decls := []ast.Node{fn}
	check(t, decls)
	unit, err := Generate(decls)
	assert.NoError(t, err)

	byIdx := map[int]*Node{}
	for n := unit.FnDecls[0].FnDecl.Body; n != nil; n = n.Next {
		byIdx[n.InstrIdx] = n
	}

	for idx, n := range byIdx {
		if n.Kind == KindJump {
			assert.GreaterOrEqual(t, n.Jump.TargetIdx, 0, "jump at %d unresolved", idx)
			_, ok := byIdx[n.Jump.TargetIdx]
			assert.True(t, ok, "jump at %d targets missing instr_idx %d", idx, n.Jump.TargetIdx)
		}
		if n.Kind == KindCond {
			assert.GreaterOrEqual(t, n.Cond.GotoIdx, 0, "cond at %d unresolved", idx)
			_, ok := byIdx[n.Cond.GotoIdx]
			assert.True(t, ok, "cond at %d targets missing instr_idx %d", idx, n.Cond.GotoIdx)
		}
	}
}

func TestGenerateWhileLoopBackEdge(t *testing.T) {
	fn := &ast.FnDecl{
		Name: "loop", ReturnPrim: ast.PrimVoid,
		Body: &ast.Compound{Stmts: []ast.Node{
			&ast.VarDecl{Name: "i", Prim: ast.PrimInt, Init: &ast.IntLit{Value: 0}},
			&ast.WhileStmt{
				Cond: &ast.BinaryExpr{Op: ast.OpLt, Lhs: &ast.SymbolExpr{Name: "i"}, Rhs: &ast.IntLit{Value: 10}},
				Body: &ast.Compound{Stmts: []ast.Node{
					&ast.PostfixUnaryExpr{Op: ast.OpIncr, Operand: &ast.SymbolExpr{Name: "i"}},
				}},
			},
		}},
	}
	decls := []ast.Node{fn}
	check(t, decls)
	unit, err := Generate(decls)
	assert.NoError(t, err)

	foundBackEdge := false
	for n := unit.FnDecls[0].FnDecl.Body; n != nil; n = n.Next {
		if n.Kind == KindJump && n.Jump.TargetIdx < n.InstrIdx {
			foundBackEdge = true
		}
	}
	assert.True(t, foundBackEdge, "expected a back-edge jump in the loop")
}
