package irbinary

import (
	"fmt"
	"io"

	"nanocc/internal/ast"
	"nanocc/internal/diag"
	"nanocc/internal/ir"
)

func malformedKind(k ir.Kind) error {
	return diag.NewFatal(diag.Diagnostic{
		Level:   diag.LevelError,
		Code:    diag.ErrCorruptIR,
		Message: fmt.Sprintf("binary IR record has unknown kind tag %d", int(k)),
	})
}

// ReadUnit reads a stream written by WriteUnit back into an IR unit.
func ReadUnit(r io.Reader) (*ir.Unit, error) {
	count, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	u := &ir.Unit{FnDecls: make([]*ir.Node, 0, count)}
	for i := uint32(0); i < count; i++ {
		fn, err := readNode(r)
		if err != nil {
			return nil, err
		}
		u.FnDecls = append(u.FnDecls, fn)
	}
	return u, nil
}

func readOptionalNode(r io.Reader) (*ir.Node, error) {
	present, err := readBool(r)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	return readNode(r)
}

func readNode(r io.Reader) (*ir.Node, error) {
	rec, err := readFramed(r)
	if err != nil {
		return nil, err
	}
	kindByte, err := readByte(rec)
	if err != nil {
		return nil, err
	}
	instrIdx, err := readInt32(rec)
	if err != nil {
		return nil, err
	}

	n := &ir.Node{Kind: ir.Kind(kindByte), InstrIdx: int(instrIdx), ClaimedReg: ir.ClaimedRegNone}
	if err := readPayload(rec, n); err != nil {
		return nil, err
	}
	return n, nil
}

func readType(r io.Reader) (*ast.TypeInfo, error) {
	present, err := readBool(r)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	prim, err := readByte(r)
	if err != nil {
		return nil, err
	}
	structName, err := readString(r)
	if err != nil {
		return nil, err
	}
	depth, err := readInt32(r)
	if err != nil {
		return nil, err
	}
	return &ast.TypeInfo{Prim: ast.Primitive(prim), StructName: structName, PointerDepth: int(depth)}, nil
}

func readPayload(r io.Reader, n *ir.Node) error {
	switch n.Kind {
	case ir.KindAlloca:
		prim, err := readByte(r)
		if err != nil {
			return err
		}
		depth, err := readInt32(r)
		if err != nil {
			return err
		}
		idx, err := readInt32(r)
		if err != nil {
			return err
		}
		n.Alloca = &ir.Alloca{Prim: ast.Primitive(prim), PointerDepth: int(depth), Idx: int(idx)}
		return nil

	case ir.KindAllocaArray:
		prim, err := readByte(r)
		if err != nil {
			return err
		}
		dimCount, err := readInt32(r)
		if err != nil {
			return err
		}
		dims := make([]int, dimCount)
		for i := range dims {
			d, err := readInt32(r)
			if err != nil {
				return err
			}
			dims[i] = int(d)
		}
		idx, err := readInt32(r)
		if err != nil {
			return err
		}
		n.AllocaArray = &ir.AllocaArray{Prim: ast.Primitive(prim), Dims: dims, Idx: int(idx)}
		return nil

	case ir.KindImm:
		kindByte, err := readByte(r)
		if err != nil {
			return err
		}
		im := &ir.Imm{Kind: ir.ImmKind(kindByte)}
		switch im.Kind {
		case ir.ImmBool:
			v, err := readBool(r)
			if err != nil {
				return err
			}
			im.Bool = v
		case ir.ImmChar:
			v, err := readByte(r)
			if err != nil {
				return err
			}
			im.Char = v
		case ir.ImmFloat:
			v, err := readFloat64(r)
			if err != nil {
				return err
			}
			im.Float = v
		case ir.ImmInt:
			v, err := readInt64(r)
			if err != nil {
				return err
			}
			im.Int = v
		}
		n.Imm = im
		return nil

	case ir.KindSym:
		idx, err := readInt32(r)
		if err != nil {
			return err
		}
		ssaIdx, err := readInt32(r)
		if err != nil {
			return err
		}
		deref, err := readBool(r)
		if err != nil {
			return err
		}
		addrOf, err := readBool(r)
		if err != nil {
			return err
		}
		typ, err := readType(r)
		if err != nil {
			return err
		}
		n.Sym = &ir.Sym{Idx: int(idx), SSAIdx: int(ssaIdx), Deref: deref, AddrOf: addrOf, Type: typ}
		return nil

	case ir.KindStore:
		dest, err := readOptionalNode(r)
		if err != nil {
			return err
		}
		body, err := readOptionalNode(r)
		if err != nil {
			return err
		}
		n.Store = &ir.Store{Dest: dest, Body: body}
		return nil

	case ir.KindBin:
		op, err := readString(r)
		if err != nil {
			return err
		}
		lhs, err := readOptionalNode(r)
		if err != nil {
			return err
		}
		rhs, err := readOptionalNode(r)
		if err != nil {
			return err
		}
		n.Bin = &ir.Bin{Op: ast.BinOp(op), Lhs: lhs, Rhs: rhs}
		return nil

	case ir.KindJump:
		target, err := readInt32(r)
		if err != nil {
			return err
		}
		n.Jump = &ir.Jump{TargetIdx: int(target)}
		return nil

	case ir.KindCond:
		cond, err := readOptionalNode(r)
		if err != nil {
			return err
		}
		gotoIdx, err := readInt32(r)
		if err != nil {
			return err
		}
		n.Cond = &ir.Cond{Cond: cond, GotoIdx: int(gotoIdx)}
		return nil

	case ir.KindRet:
		isVoid, err := readBool(r)
		if err != nil {
			return err
		}
		body, err := readOptionalNode(r)
		if err != nil {
			return err
		}
		n.Ret = &ir.Ret{IsVoid: isVoid, Body: body}
		return nil

	case ir.KindMember:
		target, err := readOptionalNode(r)
		if err != nil {
			return err
		}
		field, err := readString(r)
		if err != nil {
			return err
		}
		typ, err := readType(r)
		if err != nil {
			return err
		}
		n.Member = &ir.Member{Target: target, Field: field, Type: typ}
		return nil

	case ir.KindString:
		v, err := readString(r)
		if err != nil {
			return err
		}
		n.Str = &ir.StringLit{Value: v}
		return nil

	case ir.KindFnDecl:
		name, err := readString(r)
		if err != nil {
			return err
		}
		retPrim, err := readByte(r)
		if err != nil {
			return err
		}
		depth, err := readInt32(r)
		if err != nil {
			return err
		}
		argCount, err := readInt32(r)
		if err != nil {
			return err
		}
		args := make([]*ir.Node, argCount)
		for i := range args {
			a, err := readNode(r)
			if err != nil {
				return err
			}
			args[i] = a
		}
		instrCount, err := readInt32(r)
		if err != nil {
			return err
		}
		var body, prev *ir.Node
		for i := int32(0); i < instrCount; i++ {
			instr, err := readNode(r)
			if err != nil {
				return err
			}
			if prev == nil {
				body = instr
			} else {
				prev.Next = instr
				instr.Prev = prev
			}
			prev = instr
		}
		n.FnDecl = &ir.FnDecl{
			Name:         name,
			ReturnPrim:   ast.Primitive(retPrim),
			PointerDepth: int(depth),
			Args:         args,
			Body:         body,
		}
		return nil

	case ir.KindFnCall:
		name, err := readString(r)
		if err != nil {
			return err
		}
		argCount, err := readInt32(r)
		if err != nil {
			return err
		}
		args := make([]*ir.Node, argCount)
		for i := range args {
			a, err := readNode(r)
			if err != nil {
				return err
			}
			args[i] = a
		}
		typ, err := readType(r)
		if err != nil {
			return err
		}
		n.FnCall = &ir.FnCall{Name: name, Args: args, Type: typ}
		return nil

	case ir.KindPhi:
		symIdx, err := readInt32(r)
		if err != nil {
			return err
		}
		ssaIdx, err := readInt32(r)
		if err != nil {
			return err
		}
		opCount, err := readInt32(r)
		if err != nil {
			return err
		}
		ops := make([]int, opCount)
		for i := range ops {
			op, err := readInt32(r)
			if err != nil {
				return err
			}
			ops[i] = int(op)
		}
		n.Phi = &ir.Phi{SymIdx: int(symIdx), SSAIdx: int(ssaIdx), Operands: ops}
		return nil

	default:
		return malformedKind(n.Kind)
	}
}
