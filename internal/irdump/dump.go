// Package irdump pretty-prints the flat IR built by internal/ir and
// annotated by internal/cfgssa, addressed by instr_idx rather than
// block label, since the IR here is a single linked list per function
// rather than a block-structured CFG.
package irdump

import (
	"fmt"
	"strings"

	"nanocc/internal/ast"
	"nanocc/internal/ir"
)

// Printer accumulates the textual dump of one or more functions.
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter returns an empty Printer.
func NewPrinter() *Printer { return &Printer{} }

// Unit renders every function in u, in order.
func Unit(u *ir.Unit) string {
	p := NewPrinter()
	for i, fn := range u.FnDecls {
		if i > 0 {
			p.writeLine("")
		}
		p.printFnDecl(fn)
	}
	return p.output.String()
}

// Function renders a single KindFnDecl node.
func Function(fn *ir.Node) string {
	p := NewPrinter()
	p.printFnDecl(fn)
	return p.output.String()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...any) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) printFnDecl(fn *ir.Node) {
	fd := fn.FnDecl
	args := make([]string, len(fd.Args))
	for i, a := range fd.Args {
		args[i] = fmt.Sprintf("v%d:%s", a.Alloca.Idx, typeString(a.Alloca.Prim, a.Alloca.PointerDepth))
	}
	retType := typeString(fd.ReturnPrim, fd.PointerDepth)
	p.writeLine("FUNCTION %s(%s) -> %s", fd.Name, strings.Join(args, ", "), retType)

	if fd.Body == nil {
		p.writeLine("  ; prototype, no body")
		return
	}

	p.writeLine("{")
	p.indent++
	for n := fd.Body; n != nil; n = n.Next {
		p.printNode(n)
	}
	p.indent--
	p.writeLine("}")
}

func (p *Printer) printNode(n *ir.Node) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf("[%d] ", n.InstrIdx))
	p.output.WriteString(p.nodeString(n))

	if len(n.CFG.Succs) > 0 {
		succs := make([]string, len(n.CFG.Succs))
		for i, s := range n.CFG.Succs {
			succs[i] = fmt.Sprintf("%d", s.InstrIdx)
		}
		p.output.WriteString(fmt.Sprintf("  ; -> %s", strings.Join(succs, ", ")))
	}
	p.output.WriteString("\n")
}

func (p *Printer) nodeString(n *ir.Node) string {
	switch n.Kind {
	case ir.KindAlloca:
		a := n.Alloca
		return fmt.Sprintf("ALLOCA v%d : %s", a.Idx, typeString(a.Prim, a.PointerDepth))

	case ir.KindAllocaArray:
		a := n.AllocaArray
		dims := make([]string, len(a.Dims))
		for i, d := range a.Dims {
			dims[i] = fmt.Sprintf("%d", d)
		}
		return fmt.Sprintf("ALLOCA v%d : %s[%s]", a.Idx, typeString(a.Prim, 0), strings.Join(dims, "]["))

	case ir.KindImm:
		return fmt.Sprintf("IMM %s", immString(n.Imm))

	case ir.KindSym:
		return symString(n.Sym)

	case ir.KindStore:
		return fmt.Sprintf("STORE %s, %s", exprString(n.Store.Dest), exprString(n.Store.Body))

	case ir.KindBin:
		return fmt.Sprintf("%s %s, %s", n.Bin.Op, exprString(n.Bin.Lhs), exprString(n.Bin.Rhs))

	case ir.KindJump:
		return fmt.Sprintf("JUMP %d", n.Jump.TargetIdx)

	case ir.KindCond:
		return fmt.Sprintf("COND %s, %d", exprString(n.Cond.Cond), n.Cond.GotoIdx)

	case ir.KindRet:
		if n.Ret.IsVoid {
			return "RET"
		}
		return fmt.Sprintf("RET %s", exprString(n.Ret.Body))

	case ir.KindMember:
		return fmt.Sprintf("MEMBER %s.%s", exprString(n.Member.Target), n.Member.Field)

	case ir.KindString:
		return fmt.Sprintf("STRING %q", n.Str.Value)

	case ir.KindFnCall:
		args := make([]string, len(n.FnCall.Args))
		for i, a := range n.FnCall.Args {
			args[i] = exprString(a)
		}
		return fmt.Sprintf("CALL %s(%s)", n.FnCall.Name, strings.Join(args, ", "))

	case ir.KindPhi:
		ops := make([]string, len(n.Phi.Operands))
		for i, o := range n.Phi.Operands {
			ops[i] = fmt.Sprintf("%d", o)
		}
		return fmt.Sprintf("v%d.%d = PHI(%s)", n.Phi.SymIdx, n.Phi.SSAIdx, strings.Join(ops, ", "))

	case ir.KindFnDecl:
		return fmt.Sprintf("FNDECL %s", n.FnDecl.Name)

	default:
		return fmt.Sprintf("UNKNOWN<%v>", n.Kind)
	}
}

// exprString renders a nested, non-list-linked payload node (a Bin
// operand, a Store's dest/body, ...) inline rather than by instr_idx,
// since such nodes carry no InstrIdx of their own.
func exprString(n *ir.Node) string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case ir.KindImm:
		return immString(n.Imm)
	case ir.KindSym:
		return symString(n.Sym)
	case ir.KindBin:
		return fmt.Sprintf("(%s %s %s)", exprString(n.Bin.Lhs), n.Bin.Op, exprString(n.Bin.Rhs))
	case ir.KindMember:
		return fmt.Sprintf("%s.%s", exprString(n.Member.Target), n.Member.Field)
	case ir.KindString:
		return fmt.Sprintf("%q", n.Str.Value)
	case ir.KindFnCall:
		args := make([]string, len(n.FnCall.Args))
		for i, a := range n.FnCall.Args {
			args[i] = exprString(a)
		}
		return fmt.Sprintf("%s(%s)", n.FnCall.Name, strings.Join(args, ", "))
	default:
		return fmt.Sprintf("<%v>", n.Kind)
	}
}

func symString(s *ir.Sym) string {
	prefix := ""
	if s.AddrOf {
		prefix = "&"
	}
	if s.Deref {
		prefix = "*"
	}
	if s.SSAIdx == 0 {
		return fmt.Sprintf("%sv%d", prefix, s.Idx)
	}
	return fmt.Sprintf("%sv%d.%d", prefix, s.Idx, s.SSAIdx)
}

func immString(im *ir.Imm) string {
	switch im.Kind {
	case ir.ImmBool:
		return fmt.Sprintf("%v", im.Bool)
	case ir.ImmChar:
		return fmt.Sprintf("%q", im.Char)
	case ir.ImmFloat:
		return fmt.Sprintf("%g", im.Float)
	case ir.ImmInt:
		return fmt.Sprintf("%d", im.Int)
	default:
		return "?"
	}
}

func typeString(prim ast.Primitive, depth int) string {
	return prim.String() + strings.Repeat("*", depth)
}
