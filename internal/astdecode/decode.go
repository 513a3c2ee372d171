// Package astdecode decodes a JSON tree satisfying the AST node
// contract into internal/ast nodes, in place of an externally owned
// lexer/parser/preprocessor — deliberately a structural decoder, not a
// language front end: it trusts the wire format's "kind" tag and
// raises a malformed-AST error the moment a node fails to match its
// expected shape, rather than attempting any recovery or inference a
// real parser would do.
package astdecode

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iancoleman/strcase"

	"nanocc/internal/ast"
	"nanocc/internal/diag"
)

// node is the wire shape of one AST node: an arbitrary JSON object with
// at least a "kind" string field. Field names are snake_case on the
// wire (the convention the pack's JSON-RPC-based tooling uses) and are
// canonicalized to the Go struct field's PascalCase name with
// strcase.ToCamel before lookup, so "pointer_depth" resolves the same
// way "pointerDepth" or "PointerDepth" would.
type node map[string]any

// Decode reads a JSON document containing a top-level array of
// declaration nodes (function, struct, or prototype declarations) and
// returns the decoded internal/ast.Node slice.
func Decode(r io.Reader) ([]ast.Node, error) {
	var raw []node
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, malformed("root AST document is not a JSON array: %v", err)
	}

	decls := make([]ast.Node, 0, len(raw))
	for _, n := range raw {
		decl, err := decodeDecl(n)
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func malformed(format string, args ...any) error {
	return diag.NewFatal(diag.Diagnostic{
		Level:   diag.LevelError,
		Code:    diag.ErrMalformedAST,
		Message: fmt.Sprintf(format, args...),
	})
}

// canonical returns a copy of n with every key rewritten through
// strcase.ToCamel, so decode* helpers can look fields up by their Go
// struct field name regardless of the wire's casing convention.
func canonical(n node) node {
	out := make(node, len(n))
	for k, v := range n {
		out[strcase.ToCamel(k)] = v
	}
	return out
}

func kindOf(n node) (string, error) {
	v, ok := n["kind"]
	if !ok {
		return "", malformed("node missing required \"kind\" field: %v", n)
	}
	s, ok := v.(string)
	if !ok {
		return "", malformed("\"kind\" field is not a string: %v", v)
	}
	return s, nil
}

func getString(n node, key string) (string, bool) {
	v, ok := n[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func getInt(n node, key string) (int, bool) {
	v, ok := n[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return int(f), ok
}

func getFloat(n node, key string) (float64, bool) {
	v, ok := n[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func getBool(n node, key string) (bool, bool) {
	v, ok := n[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func getObject(n node, key string) (node, bool) {
	v, ok := n[key]
	if !ok || v == nil {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return node(m), ok
}

func getArray(n node, key string) ([]any, bool) {
	v, ok := n[key]
	if !ok || v == nil {
		return nil, false
	}
	a, ok := v.([]any)
	return a, ok
}

func decodePos(n node) ast.Position {
	posObj, ok := getObject(n, "Pos")
	if !ok {
		return ast.Position{}
	}
	posObj = canonical(posObj)
	filename, _ := getString(posObj, "Filename")
	line, _ := getInt(posObj, "Line")
	col, _ := getInt(posObj, "Col")
	return ast.Position{Filename: filename, Line: line, Col: col}
}

func decodePrimitive(s string) ast.Primitive {
	switch s {
	case "void":
		return ast.PrimVoid
	case "bool":
		return ast.PrimBool
	case "char":
		return ast.PrimChar
	case "int":
		return ast.PrimInt
	case "float":
		return ast.PrimFloat
	case "struct":
		return ast.PrimStruct
	default:
		return ast.PrimUnknown
	}
}
