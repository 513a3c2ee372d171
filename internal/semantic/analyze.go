package semantic

import (
	"nanocc/internal/ast"
	"nanocc/internal/diag"
)

// Analyze runs the full front-end pipeline over a translation unit's
// top-level declarations, in strict sequence: usage analysis, then
// function analysis, then type checking, then lowering. Each stage appends to bag; analysis
// continues through every stage even once errors have been recorded,
// so a single run surfaces as many diagnostics as possible. Callers
// that need to stop before IR generation should check bag.HasErrors()
// after Analyze returns.
func Analyze(decls []ast.Node, bag *diag.Bag) {
	fnDecls := make([]*ast.FnDecl, 0, len(decls))
	for _, d := range decls {
		if fn, ok := d.(*ast.FnDecl); ok {
			fnDecls = append(fnDecls, fn)
		}
	}

	NewUsageAnalyzer(bag).Analyze(fnDecls)
	NewFunctionAnalyzer(bag).Analyze(fnDecls)
	NewTypeChecker(bag).Check(decls)
	Lower(fnDecls)
}
