package emitter

import (
	"fmt"
	"strings"

	"mypycc/internal/ir"
)

// fastPathMethod names a runtime primitive that can replace the uniform
// load_attr+call_n_kw method-dispatch pattern for a known, common method
// name/arity (spec §9's Open Question decision: a style-only optimization,
// never a semantic one — a miss always falls back to generic dispatch).
type fastPathMethod struct {
	cFunc string
	arity int
}

// "upper" is deliberately absent: spec §8 scenario 3 pins s.upper() to the
// generic load_attr+call_n_kw pattern as a literal testable property, so no
// fast-path entry may intercept it.
var methodFastPath = map[string]fastPathMethod{
	"append": {cFunc: "list_append_fast", arity: 1},
}

// emitExpr lowers e into a C fragment, writing any prelude lines the
// expression needs into prelude first. Children are always emitted before
// their parent, in the same order ir.WalkMaterializing visits them, so the
// temp indices handed out here line up with FunctionDescriptor.MaxTemps.
func (e *Emitter) emitExpr(expr ir.Expr, prelude *strings.Builder) string {
	switch n := expr.(type) {
	case *ir.Const:
		return n.CLit

	case *ir.VarRef:
		return n.CName

	case *ir.TempRef:
		return n.CName

	case *ir.BinOp:
		left := e.emitExpr(n.Left, prelude)
		right := e.emitExpr(n.Right, prelude)
		return e.emitBinOp(n, left, right)

	case *ir.UnaryOp:
		operand := e.emitExpr(n.Operand, prelude)
		return e.emitUnaryOp(n, operand)

	case *ir.SelfAttr:
		return fmt.Sprintf("self->f_%s", n.Field)

	case *ir.ParamAttr:
		if e.opts.DebugAsserts && !e.assertedSelf[n.Param] {
			fmt.Fprintf(prelude, "  type_assert(%s, &type_%s);\n", n.Param, strings.TrimSuffix(n.ClassCName, "_obj_t"))
			e.assertedSelf[n.Param] = true
		}
		return fmt.Sprintf("((%s *)%s)->f_%s", n.ClassCName, n.Param, n.Field)

	case *ir.GenericAttr:
		recv := e.emitExpr(n.Receiver, prelude)
		t := e.newTemp(ir.OBJ)
		fmt.Fprintf(prelude, "  %s = load_attr(%s, %q);\n", t, recv, n.Field)
		return t

	case *ir.Subscript:
		obj := e.emitExpr(n.Object, prelude)
		idx := e.emitExpr(n.Index, prelude)
		t := e.newTemp(ir.OBJ)
		fmt.Fprintf(prelude, "  %s = subscript_get(%s, %s);\n", t, obj, idx)
		return t

	case *ir.Call:
		// generated functions take and return obj_t (see emitFunction): each
		// argument is coerced to its declared parameter category and then
		// boxed, and the boxed result is unboxed into the call's category.
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			frag := e.emitExpr(a, prelude)
			frag = ir.Coerce(n.ArgCats[i], a.Cat()).Emit(frag)
			args[i] = ir.Coerce(ir.OBJ, n.ArgCats[i]).Emit(frag)
		}
		t := e.newTemp(n.Category)
		call := fmt.Sprintf("%s(%s)", n.Callee, strings.Join(args, ", "))
		fmt.Fprintf(prelude, "  %s = %s;\n", t, ir.Coerce(n.Category, ir.OBJ).Emit(call))
		return t

	case *ir.MethodCall:
		return e.emitMethodCall(n, prelude)

	case *ir.BuiltinCall:
		arg := e.emitExpr(n.Arg, prelude)
		t := e.newTemp(n.Cat())
		fmt.Fprintf(prelude, "  %s = %s;\n", t, builtinCall(n.Kind, arg))
		return t

	default:
		return "/* unrecognized expr */"
	}
}

func builtinCall(kind ir.BuiltinKind, arg string) string {
	switch kind {
	case ir.BuiltinInt:
		return fmt.Sprintf("to_int(%s)", arg)
	case ir.BuiltinFloat:
		return fmt.Sprintf("to_float(%s)", arg)
	case ir.BuiltinBool:
		return fmt.Sprintf("new_bool(is_true(%s))", arg)
	case ir.BuiltinStr:
		return fmt.Sprintf("to_str(%s)", arg)
	default:
		return fmt.Sprintf("to_list(%s)", arg)
	}
}

// emitMethodCall always reserves both temp slots ir.WalkMaterializing
// charged a MethodCall (load_attr's handle, then the call result), even
// along the fast path, so temp indices stay aligned regardless of which
// branch is taken.
func (e *Emitter) emitMethodCall(n *ir.MethodCall, prelude *strings.Builder) string {
	recv := e.emitExpr(n.Receiver, prelude)
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = e.emitExpr(a, prelude)
	}
	handle := e.newTemp(ir.OBJ)
	result := e.newTemp(ir.OBJ)

	if prim, ok := methodFastPath[n.Method]; ok && len(args) == prim.arity {
		call := prim.cFunc + "(" + recv
		if len(args) > 0 {
			call += ", " + strings.Join(args, ", ")
		}
		call += ")"
		fmt.Fprintf(prelude, "  %s = %s;\n", result, call)
		fmt.Fprintf(prelude, "  %s = runtime_none(); /* reserved, fast path bypasses load_attr */\n", handle)
		return result
	}

	fmt.Fprintf(prelude, "  %s = load_attr(%s, %q);\n", handle, recv, n.Method)
	if len(args) == 0 {
		fmt.Fprintf(prelude, "  %s = call_n_kw(%s, 0, 0, NULL);\n", result, handle)
	} else {
		fmt.Fprintf(prelude, "  %s = call_n_kw(%s, %d, 0, (obj_t[]){%s});\n", result, handle, len(args), strings.Join(args, ", "))
	}
	return result
}

// emitBinOp decides between a direct C infix operator, the checked
// floor-div/mod helper, and the generic binary_op ABI fallback (spec §4.2).
// Every binary_op call site takes two boxed handles (spec §6), so any
// non-OBJ operand reaching one is boxed first via the coercion matrix.
func (e *Emitter) emitBinOp(n *ir.BinOp, left, right string) string {
	boxedLeft := ir.Coerce(ir.OBJ, n.Left.Cat()).Emit(left)
	boxedRight := ir.Coerce(ir.OBJ, n.Right.Cat()).Emit(right)

	switch n.Op {
	case ir.OpIn:
		// containment reverses operand order: binary_op(OP_IN, element, container)
		return fmt.Sprintf("binary_op(OP_IN, %s, %s)", boxedLeft, boxedRight)
	case ir.OpIs:
		return fmt.Sprintf("binary_op(OP_IS, %s, %s)", boxedLeft, boxedRight)
	}

	bothScalar := n.Left.Cat() != ir.OBJ && n.Right.Cat() != ir.OBJ

	if (n.Op == ir.OpFloorDiv || n.Op == ir.OpMod) && bothScalar {
		if e.currentFn.NeedsCheckedDiv && n.Left.Cat() == ir.INT && n.Right.Cat() == ir.INT {
			helper := "checked_floordiv"
			if n.Op == ir.OpMod {
				helper = "checked_mod"
			}
			return fmt.Sprintf("%s(%s, %s)", helper, left, right)
		}
		return fmt.Sprintf("binary_op(%s, %s, %s)", n.Op.ABITag(), boxedLeft, boxedRight)
	}

	if bothScalar {
		if sym, ok := n.Op.CSymbol(); ok {
			if n.Op == ir.OpTrueDiv && n.Left.Cat() != ir.FLOAT && n.Right.Cat() != ir.FLOAT {
				// C `/` truncates on two integers; true division is FLOAT
				left = ir.Coerce(ir.FLOAT, n.Left.Cat()).Emit(left)
			}
			return fmt.Sprintf("(%s %s %s)", left, sym, right)
		}
	}
	return fmt.Sprintf("binary_op(%s, %s, %s)", n.Op.ABITag(), boxedLeft, boxedRight)
}

func (e *Emitter) emitUnaryOp(n *ir.UnaryOp, operand string) string {
	if n.Op == ir.UnaryNeg {
		if n.Operand.Cat() == ir.OBJ {
			return fmt.Sprintf("binary_op(OP_SUB, new_int(0), %s)", operand)
		}
		return fmt.Sprintf("(-%s)", operand)
	}
	if n.Operand.Cat() == ir.OBJ {
		return fmt.Sprintf("new_bool(!is_true(%s))", operand)
	}
	return fmt.Sprintf("(!%s)", operand)
}
