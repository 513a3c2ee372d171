package main

import (
	"io"

	"github.com/pkg/errors"

	"nanocc/internal/ast"
	"nanocc/internal/astdecode"
	"nanocc/internal/cfgssa"
	"nanocc/internal/diag"
	"nanocc/internal/ir"
	"nanocc/internal/opt"
	"nanocc/internal/semantic"
)

// decodeASTFile decodes r's JSON AST without running any analysis
// pass, for the dump-ast/dump-ast-simple subcommands.
func decodeASTFile(r io.Reader) ([]ast.Node, error) {
	decls, err := astdecode.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decoding AST")
	}
	return decls, nil
}

// compile runs the full front-end and middle-end pipeline over r's AST
// JSON: decode, analyze, lower, generate IR, attach IR types, build the CFG/dominator/φ/SSA
// structures, then run the local optimization passes. bag accumulates
// every diagnostic the front end raises; compile returns a non-nil
// error only for a condition the front end cannot recover from
// (malformed AST, IR generation failure).
func compile(r io.Reader, bag *diag.Bag) (*ir.Unit, error) {
	decls, err := astdecode.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decoding AST")
	}

	semantic.Analyze(decls, bag)
	if bag.HasErrors() {
		return nil, nil
	}

	unit, err := ir.Generate(decls)
	if err != nil {
		return nil, errors.Wrap(err, "generating IR")
	}
	ir.AttachTypes(unit)

	for _, fn := range unit.FnDecls {
		runMiddleEnd(fn)
	}
	return unit, nil
}

// runMiddleEnd builds the CFG, dominators, dominance frontier, inserts
// φ nodes, renames to SSA, and runs the local optimization pipeline
// over one function. A function with a nil body (a prototype) has
// nothing to build.
func runMiddleEnd(fn *ir.Node) {
	if fn.FnDecl.Body == nil {
		return
	}

	cfgssa.BuildCFG(fn.FnDecl.Body)
	cfgssa.ComputeDominators(fn.FnDecl.Body)
	cfgssa.ComputeDominanceFrontier(fn.FnDecl.Body)

	vars := scalarVars(fn.FnDecl.Args, fn.FnDecl.Body)
	newHead := cfgssa.InsertPhis(fn.FnDecl.Body, vars)
	cfgssa.RenameSSA(newHead, vars)

	pipeline := opt.NewPipeline()
	optimized, _ := pipeline.Run(newHead)

	fn.FnDecl.Body = optimized
}

// scalarVars collects the alloca indices of every scalar (non-array)
// variable declared as a parameter or inside a function body, the set
// φ-insertion and SSA renaming operate over.
func scalarVars(args []*ir.Node, head *ir.Node) []int {
	var vars []int
	for _, a := range args {
		if a.Kind == ir.KindAlloca {
			vars = append(vars, a.Alloca.Idx)
		}
	}
	for n := head; n != nil; n = n.Next {
		if n.Kind == ir.KindAlloca {
			vars = append(vars, n.Alloca.Idx)
		}
	}
	return vars
}
