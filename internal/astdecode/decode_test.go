package astdecode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nanocc/internal/ast"
	"nanocc/internal/diag"
)

func TestDecodeSimpleFunction(t *testing.T) {
	src := `[
		{
			"kind": "fn-decl",
			"name": "add",
			"return_prim": "int",
			"args": [
				{"kind": "var-decl", "name": "a", "prim": "int"},
				{"kind": "var-decl", "name": "b", "prim": "int"}
			],
			"body": {
				"kind": "compound",
				"stmts": [
					{
						"kind": "return",
						"value": {
							"kind": "binary",
							"op": "+",
							"lhs": {"kind": "symbol", "name": "a"},
							"rhs": {"kind": "symbol", "name": "b"}
						}
					}
				]
			}
		}
	]`

	decls, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, decls, 1)

	fn, ok := decls[0].(*ast.FnDecl)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, ast.PrimInt, fn.ReturnPrim)
	require.Len(t, fn.Args, 2)
	require.False(t, fn.IsPrototype())
	require.Len(t, fn.Body.Stmts, 1)

	ret, ok := fn.Body.Stmts[0].(*ast.ReturnStmt)
	require.True(t, ok)
	bin, ok := ret.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, bin.Op)
}

func TestDecodePrototypeHasNilBody(t *testing.T) {
	src := `[{"kind": "fn-decl", "name": "puts", "return_prim": "void"}]`

	decls, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	fn := decls[0].(*ast.FnDecl)
	assert.True(t, fn.IsPrototype())
}

func TestDecodeStructDecl(t *testing.T) {
	src := `[
		{
			"kind": "struct-decl",
			"name": "Point",
			"fields": [
				{"kind": "var-decl", "name": "x", "prim": "int"},
				{"kind": "var-decl", "name": "y", "prim": "int"}
			]
		}
	]`

	decls, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	s := decls[0].(*ast.StructDecl)
	assert.Equal(t, "Point", s.Name)
	assert.Len(t, s.Fields, 2)
}

func TestDecodeArrayDeclRejectsNonLiteralDimension(t *testing.T) {
	src := `[
		{
			"kind": "fn-decl",
			"name": "f",
			"return_prim": "void",
			"args": [
				{
					"kind": "array-decl",
					"name": "buf",
					"prim": "int",
					"dimensions": [{"kind": "symbol", "name": "n"}]
				}
			]
		}
	]`

	_, err := Decode(strings.NewReader(src))
	require.Error(t, err)
	var fatal *diag.Fatal
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, diag.ErrMalformedAST, fatal.Diagnostic.Code)
}

func TestDecodeIfElseIfChain(t *testing.T) {
	src := `[
		{
			"kind": "fn-decl",
			"name": "f",
			"return_prim": "void",
			"body": {
				"kind": "compound",
				"stmts": [
					{
						"kind": "if",
						"cond": {"kind": "bool", "value": true},
						"then": {"kind": "compound", "stmts": []},
						"else": {
							"kind": "if",
							"cond": {"kind": "bool", "value": false},
							"then": {"kind": "compound", "stmts": []}
						}
					}
				]
			}
		}
	]`

	decls, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	fn := decls[0].(*ast.FnDecl)
	ifStmt := fn.Body.Stmts[0].(*ast.IfStmt)
	elseIf, ok := ifStmt.Else.(*ast.IfStmt)
	require.True(t, ok)
	assert.Nil(t, elseIf.Else)
}

func TestDecodeForRangeRoundTrips(t *testing.T) {
	src := `[
		{
			"kind": "fn-decl",
			"name": "f",
			"return_prim": "void",
			"body": {
				"kind": "compound",
				"stmts": [
					{
						"kind": "for-range",
						"var": "i",
						"range": {"kind": "symbol", "name": "xs"},
						"body": {"kind": "compound", "stmts": []}
					}
				]
			}
		}
	]`

	decls, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	fn := decls[0].(*ast.FnDecl)
	fr := fn.Body.Stmts[0].(*ast.ForRangeStmt)
	assert.Equal(t, "i", fr.Var)
}

func TestDecodeMissingKindIsMalformed(t *testing.T) {
	_, err := Decode(strings.NewReader(`[{"name": "no kind"}]`))
	require.Error(t, err)
	var fatal *diag.Fatal
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, diag.ErrMalformedAST, fatal.Diagnostic.Code)
}

func TestDecodeTopLevelNotArrayIsMalformed(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"kind": "fn-decl"}`))
	require.Error(t, err)
	var fatal *diag.Fatal
	require.ErrorAs(t, err, &fatal)
}
