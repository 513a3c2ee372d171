package astdecode

import "nanocc/internal/ast"

func decodeExpr(n node) (ast.Expr, error) {
	k, err := kindOf(n)
	if err != nil {
		return nil, err
	}
	nc := canonical(n)
	pos := decodePos(nc)

	switch k {
	case "char":
		v, _ := getString(nc, "Value")
		var b byte
		if len(v) > 0 {
			b = v[0]
		}
		lit := &ast.CharLit{Value: b}
		lit.Pos = pos
		return lit, nil
	case "int":
		v, _ := getFloat(nc, "Value")
		lit := &ast.IntLit{Value: int64(v)}
		lit.Pos = pos
		return lit, nil
	case "float":
		v, _ := getFloat(nc, "Value")
		lit := &ast.FloatLit{Value: v}
		lit.Pos = pos
		return lit, nil
	case "bool":
		v, _ := getBool(nc, "Value")
		lit := &ast.BoolLit{Value: v}
		lit.Pos = pos
		return lit, nil
	case "string":
		v, _ := getString(nc, "Value")
		lit := &ast.StringLit{Value: v}
		lit.Pos = pos
		return lit, nil
	case "symbol":
		name, ok := getString(nc, "Name")
		if !ok {
			return nil, malformed("symbol node missing \"name\"")
		}
		sym := &ast.SymbolExpr{Name: name}
		sym.Pos = pos
		return sym, nil
	case "binary":
		return decodeBinary(nc, pos)
	case "prefix-unary":
		return decodePrefixUnary(nc, pos)
	case "postfix-unary":
		return decodePostfixUnary(nc, pos)
	case "member":
		return decodeMember(nc, pos)
	case "array-access":
		return decodeArrayAccess(nc, pos)
	case "fn-call":
		return decodeFnCall(nc, pos)
	default:
		return nil, malformed("unexpected expression kind %q", k)
	}
}

func decodeBinary(n node, pos ast.Position) (ast.Expr, error) {
	opStr, ok := getString(n, "Op")
	if !ok {
		return nil, malformed("binary node missing \"op\"")
	}
	lhsObj, ok := getObject(n, "Lhs")
	if !ok {
		return nil, malformed("binary node missing \"lhs\"")
	}
	rhsObj, ok := getObject(n, "Rhs")
	if !ok {
		return nil, malformed("binary node missing \"rhs\"")
	}
	lhs, err := decodeExpr(lhsObj)
	if err != nil {
		return nil, err
	}
	rhs, err := decodeExpr(rhsObj)
	if err != nil {
		return nil, err
	}
	e := &ast.BinaryExpr{Op: ast.BinOp(opStr), Lhs: lhs, Rhs: rhs}
	e.Pos = pos
	return e, nil
}

func decodePrefixUnary(n node, pos ast.Position) (ast.Expr, error) {
	opStr, ok := getString(n, "Op")
	if !ok {
		return nil, malformed("prefix-unary node missing \"op\"")
	}
	operandObj, ok := getObject(n, "Operand")
	if !ok {
		return nil, malformed("prefix-unary node missing \"operand\"")
	}
	operand, err := decodeExpr(operandObj)
	if err != nil {
		return nil, err
	}
	e := &ast.PrefixUnaryExpr{Op: ast.UnOp(opStr), Operand: operand}
	e.Pos = pos
	return e, nil
}

func decodePostfixUnary(n node, pos ast.Position) (ast.Expr, error) {
	opStr, ok := getString(n, "Op")
	if !ok {
		return nil, malformed("postfix-unary node missing \"op\"")
	}
	operandObj, ok := getObject(n, "Operand")
	if !ok {
		return nil, malformed("postfix-unary node missing \"operand\"")
	}
	operand, err := decodeExpr(operandObj)
	if err != nil {
		return nil, err
	}
	e := &ast.PostfixUnaryExpr{Op: ast.UnOp(opStr), Operand: operand}
	e.Pos = pos
	return e, nil
}

func decodeMember(n node, pos ast.Position) (ast.Expr, error) {
	field, ok := getString(n, "Field")
	if !ok {
		return nil, malformed("member node missing \"field\"")
	}
	targetObj, ok := getObject(n, "Target")
	if !ok {
		return nil, malformed("member node missing \"target\"")
	}
	target, err := decodeExpr(targetObj)
	if err != nil {
		return nil, err
	}
	e := &ast.MemberExpr{Target: target, Field: field}
	e.Pos = pos
	return e, nil
}

func decodeArrayAccess(n node, pos ast.Position) (ast.Expr, error) {
	targetObj, ok := getObject(n, "Target")
	if !ok {
		return nil, malformed("array-access node missing \"target\"")
	}
	target, err := decodeExpr(targetObj)
	if err != nil {
		return nil, err
	}
	rawIndices, ok := getArray(n, "Indices")
	if !ok {
		return nil, malformed("array-access node missing \"indices\"")
	}
	indices := make([]ast.Expr, 0, len(rawIndices))
	for _, idx := range rawIndices {
		obj, ok := idx.(map[string]any)
		if !ok {
			return nil, malformed("array-access has a non-object index entry")
		}
		e, err := decodeExpr(node(obj))
		if err != nil {
			return nil, err
		}
		indices = append(indices, e)
	}
	e := &ast.ArrayAccessExpr{Target: target, Indices: indices}
	e.Pos = pos
	return e, nil
}

func decodeFnCall(n node, pos ast.Position) (ast.Expr, error) {
	name, ok := getString(n, "Name")
	if !ok {
		return nil, malformed("fn-call node missing \"name\"")
	}
	var args []ast.Expr
	if rawArgs, ok := getArray(n, "Args"); ok {
		for _, a := range rawArgs {
			obj, ok := a.(map[string]any)
			if !ok {
				return nil, malformed("fn-call %q has a non-object arg entry", name)
			}
			e, err := decodeExpr(node(obj))
			if err != nil {
				return nil, err
			}
			args = append(args, e)
		}
	}
	e := &ast.FnCallExpr{Name: name, Args: args}
	e.Pos = pos
	return e, nil
}
