package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"nanocc/internal/ast"
)

func TestBagAccumulatesAndDetectsErrors(t *testing.T) {
	var b Bag
	assert.False(t, b.HasErrors())

	b.Warnf(WarnUnusedVariable, ast.Position{Line: 1, Col: 1}, "x is unused")
	assert.False(t, b.HasErrors())

	b.Errorf(ErrUndefinedSymbol, ast.Position{Line: 2, Col: 3}, "undefined: %s", "y")
	assert.True(t, b.HasErrors())
	assert.Len(t, b.Diagnostics, 2)
	assert.Equal(t, "undefined: y", b.Diagnostics[1].Message)
}

func TestIsWarning(t *testing.T) {
	assert.True(t, IsWarning(WarnUnusedVariable))
	assert.False(t, IsWarning(ErrUndefinedSymbol))
}

func TestReporterFormatIncludesCodeAndLocation(t *testing.T) {
	src := "int x\nint y = x + 1\n"
	r := NewReporter("main.nc", src)
	out := r.Format(Diagnostic{
		Level:    LevelError,
		Code:     ErrUndefinedSymbol,
		Message:  "undefined symbol: z",
		Position: ast.Position{Filename: "main.nc", Line: 2, Col: 9},
		Length:   1,
	})
	assert.Contains(t, out, ErrUndefinedSymbol)
	assert.Contains(t, out, "main.nc:2:9")
	assert.NotEmpty(t, r.RunID.String())
}

func TestFatalErrorString(t *testing.T) {
	f := NewFatal(Diagnostic{Code: ErrMalformedAST, Message: "bad dimension list"})
	assert.Equal(t, "E0400: bad dimension list", f.Error())
}
