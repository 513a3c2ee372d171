package ast

import (
	"fmt"
	"strings"
)

// Primitive is the set of scalar base types a variable, literal, or
// function can name. Structs are named separately (TypeInfo.StructName)
// since the language has no primitive tag for them.
type Primitive int

const (
	PrimUnknown Primitive = iota
	PrimVoid
	PrimBool
	PrimChar
	PrimInt
	PrimFloat
	PrimStruct
)

func (p Primitive) String() string {
	switch p {
	case PrimVoid:
		return "void"
	case PrimBool:
		return "bool"
	case PrimChar:
		return "char"
	case PrimInt:
		return "int"
	case PrimFloat:
		return "float"
	case PrimStruct:
		return "struct"
	default:
		return "unknown"
	}
}

// TypeInfo is the resolved type of an expression or declaration: a
// primitive (or named struct) plus a pointer depth, the number of levels
// of indirection above the base type. Depth 0 is a plain value.
type TypeInfo struct {
	Prim         Primitive
	StructName   string // set only when Prim == PrimStruct
	PointerDepth int
}

// Equal reports whether two type infos describe the same type and
// indirection depth (does not consider dimensions of arrays).
func (t *TypeInfo) Equal(o *TypeInfo) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.Prim == o.Prim && t.StructName == o.StructName && t.PointerDepth == o.PointerDepth
}

// IsScalarNumeric reports whether the type (ignoring pointer depth) is one
// of int/char/float/bool — the families the binary operator tables
// key off of.
func (t *TypeInfo) IsScalarNumeric() bool {
	if t == nil {
		return false
	}
	switch t.Prim {
	case PrimInt, PrimChar, PrimFloat, PrimBool:
		return true
	default:
		return false
	}
}

func (t *TypeInfo) String() string {
	if t == nil {
		return "<unresolved>"
	}
	base := t.Prim.String()
	if t.Prim == PrimStruct {
		base = t.StructName
	}
	return base + strings.Repeat("*", t.PointerDepth)
}

// Deref returns the type with one fewer level of indirection, or an error
// if the type is not a pointer (depth 0).
func (t *TypeInfo) Deref() (*TypeInfo, error) {
	if t == nil || t.PointerDepth == 0 {
		return nil, fmt.Errorf("cannot dereference non-pointer type %s", t)
	}
	return &TypeInfo{Prim: t.Prim, StructName: t.StructName, PointerDepth: t.PointerDepth - 1}, nil
}

// AddrOf returns the type with one more level of indirection.
func (t *TypeInfo) AddrOf() *TypeInfo {
	return &TypeInfo{Prim: t.Prim, StructName: t.StructName, PointerDepth: t.PointerDepth + 1}
}
