package irdump

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nanocc/internal/ast"
	"nanocc/internal/ir"
)

func buildMaxFunction() *ir.Node {
	b := ir.NewBuilder()
	aArg := ir.NewAllocaNode(ast.PrimInt, 0, 0)
	bArg := ir.NewAllocaNode(ast.PrimInt, 0, 1)

	cond := ir.NewBinNode(ast.OpGt, ir.NewSymNode(0, nil), ir.NewSymNode(1, nil))
	b.Append(ir.NewCondNode(cond))
	b.Append(ir.NewRetNode(ir.NewSymNode(1, nil)))
	b.Append(ir.NewRetNode(ir.NewSymNode(0, nil)))

	return ir.NewFnDeclNode("max", ast.PrimInt, 0, []*ir.Node{aArg, bArg}, b.Head())
}

func TestFunctionRendersSignatureAndBody(t *testing.T) {
	out := Function(buildMaxFunction())
	assert.Contains(t, out, "FUNCTION max(v0:int, v1:int) -> int")
	assert.Contains(t, out, "COND (v0 > v1)")
	assert.Contains(t, out, "RET v1")
	assert.Contains(t, out, "RET v0")
}

func TestFunctionPrototypeHasNoBody(t *testing.T) {
	fn := ir.NewFnDeclNode("puts", ast.PrimVoid, 0, nil, nil)
	out := Function(fn)
	assert.Contains(t, out, "prototype")
}

func TestUnitRendersMultipleFunctions(t *testing.T) {
	u := &ir.Unit{FnDecls: []*ir.Node{buildMaxFunction(), buildMaxFunction()}}
	out := Unit(u)
	assert.Equal(t, 2, countOccurrences(out, "FUNCTION max"))
}

func countOccurrences(s, substr string) int {
	n := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			n++
		}
	}
	return n
}
