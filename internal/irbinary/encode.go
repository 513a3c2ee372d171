package irbinary

import (
	"bytes"
	"io"

	"nanocc/internal/ast"
	"nanocc/internal/ir"
)

// WriteUnit writes u as a length-prefixed binary IR stream: a function
// count, then one record per function.
func WriteUnit(w io.Writer, u *ir.Unit) error {
	if err := writeUint32(w, uint32(len(u.FnDecls))); err != nil {
		return err
	}
	for _, fn := range u.FnDecls {
		if err := writeNode(w, fn); err != nil {
			return err
		}
	}
	return nil
}

// writeOptionalNode writes a presence byte followed by n's record, or
// just a zero presence byte if n is nil.
func writeOptionalNode(w io.Writer, n *ir.Node) error {
	if n == nil {
		return writeBool(w, false)
	}
	if err := writeBool(w, true); err != nil {
		return err
	}
	return writeNode(w, n)
}

func writeNode(w io.Writer, n *ir.Node) error {
	var buf bytes.Buffer
	if err := writeInt32(&buf, int32(n.InstrIdx)); err != nil {
		return err
	}
	if err := writePayload(&buf, n); err != nil {
		return err
	}

	var framed bytes.Buffer
	if err := writeByte(&framed, byte(n.Kind)); err != nil {
		return err
	}
	if _, err := framed.Write(buf.Bytes()); err != nil {
		return err
	}
	return writeFramed(w, framed.Bytes())
}

func writeType(w io.Writer, t *ast.TypeInfo) error {
	if t == nil {
		return writeBool(w, false)
	}
	if err := writeBool(w, true); err != nil {
		return err
	}
	if err := writeByte(w, byte(t.Prim)); err != nil {
		return err
	}
	if err := writeString(w, t.StructName); err != nil {
		return err
	}
	return writeInt32(w, int32(t.PointerDepth))
}

func writePayload(w io.Writer, n *ir.Node) error {
	switch n.Kind {
	case ir.KindAlloca:
		a := n.Alloca
		if err := writeByte(w, byte(a.Prim)); err != nil {
			return err
		}
		if err := writeInt32(w, int32(a.PointerDepth)); err != nil {
			return err
		}
		return writeInt32(w, int32(a.Idx))

	case ir.KindAllocaArray:
		a := n.AllocaArray
		if err := writeByte(w, byte(a.Prim)); err != nil {
			return err
		}
		if err := writeInt32(w, int32(len(a.Dims))); err != nil {
			return err
		}
		for _, d := range a.Dims {
			if err := writeInt32(w, int32(d)); err != nil {
				return err
			}
		}
		return writeInt32(w, int32(a.Idx))

	case ir.KindImm:
		im := n.Imm
		if err := writeByte(w, byte(im.Kind)); err != nil {
			return err
		}
		switch im.Kind {
		case ir.ImmBool:
			return writeBool(w, im.Bool)
		case ir.ImmChar:
			return writeByte(w, im.Char)
		case ir.ImmFloat:
			return writeFloat64(w, im.Float)
		case ir.ImmInt:
			return writeInt64(w, im.Int)
		}
		return nil

	case ir.KindSym:
		s := n.Sym
		if err := writeInt32(w, int32(s.Idx)); err != nil {
			return err
		}
		if err := writeInt32(w, int32(s.SSAIdx)); err != nil {
			return err
		}
		if err := writeBool(w, s.Deref); err != nil {
			return err
		}
		if err := writeBool(w, s.AddrOf); err != nil {
			return err
		}
		return writeType(w, s.Type)

	case ir.KindStore:
		if err := writeOptionalNode(w, n.Store.Dest); err != nil {
			return err
		}
		return writeOptionalNode(w, n.Store.Body)

	case ir.KindBin:
		b := n.Bin
		if err := writeString(w, string(b.Op)); err != nil {
			return err
		}
		if err := writeOptionalNode(w, b.Lhs); err != nil {
			return err
		}
		return writeOptionalNode(w, b.Rhs)

	case ir.KindJump:
		return writeInt32(w, int32(n.Jump.TargetIdx))

	case ir.KindCond:
		if err := writeOptionalNode(w, n.Cond.Cond); err != nil {
			return err
		}
		return writeInt32(w, int32(n.Cond.GotoIdx))

	case ir.KindRet:
		if err := writeBool(w, n.Ret.IsVoid); err != nil {
			return err
		}
		return writeOptionalNode(w, n.Ret.Body)

	case ir.KindMember:
		m := n.Member
		if err := writeOptionalNode(w, m.Target); err != nil {
			return err
		}
		if err := writeString(w, m.Field); err != nil {
			return err
		}
		return writeType(w, m.Type)

	case ir.KindString:
		return writeString(w, n.Str.Value)

	case ir.KindFnDecl:
		fd := n.FnDecl
		if err := writeString(w, fd.Name); err != nil {
			return err
		}
		if err := writeByte(w, byte(fd.ReturnPrim)); err != nil {
			return err
		}
		if err := writeInt32(w, int32(fd.PointerDepth)); err != nil {
			return err
		}
		if err := writeInt32(w, int32(len(fd.Args))); err != nil {
			return err
		}
		for _, a := range fd.Args {
			if err := writeNode(w, a); err != nil {
				return err
			}
		}
		body := instructionList(fd.Body)
		if err := writeInt32(w, int32(len(body))); err != nil {
			return err
		}
		for _, instr := range body {
			if err := writeNode(w, instr); err != nil {
				return err
			}
		}
		return nil

	case ir.KindFnCall:
		fc := n.FnCall
		if err := writeString(w, fc.Name); err != nil {
			return err
		}
		if err := writeInt32(w, int32(len(fc.Args))); err != nil {
			return err
		}
		for _, a := range fc.Args {
			if err := writeNode(w, a); err != nil {
				return err
			}
		}
		return writeType(w, fc.Type)

	case ir.KindPhi:
		p := n.Phi
		if err := writeInt32(w, int32(p.SymIdx)); err != nil {
			return err
		}
		if err := writeInt32(w, int32(p.SSAIdx)); err != nil {
			return err
		}
		if err := writeInt32(w, int32(len(p.Operands))); err != nil {
			return err
		}
		for _, op := range p.Operands {
			if err := writeInt32(w, int32(op)); err != nil {
				return err
			}
		}
		return nil

	default:
		return malformedKind(n.Kind)
	}
}

func instructionList(head *ir.Node) []*ir.Node {
	var out []*ir.Node
	for n := head; n != nil; n = n.Next {
		out = append(out, n)
	}
	return out
}
