package emitter

import (
	"fmt"
	"strings"

	"mypycc/internal/ir"
)

func (e *Emitter) emitBlock(stmts []ir.Stmt) error {
	for _, s := range stmts {
		if err := e.emitStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) emitStmt(s ir.Stmt) error {
	switch n := s.(type) {
	case *ir.Assign:
		return e.emitAssign(n)
	case *ir.AugAssign:
		return e.emitAugAssign(n)
	case *ir.Return:
		return e.emitReturn(n)
	case *ir.If:
		return e.emitIf(n)
	case *ir.For:
		return e.emitFor(n)
	case *ir.While:
		return e.emitWhile(n)
	case *ir.Break:
		e.buf.WriteString("  break;\n")
		return nil
	case *ir.Continue:
		e.buf.WriteString("  continue;\n")
		return nil
	case *ir.Try:
		return e.emitTry(n)
	case *ir.Raise:
		return e.emitRaise(n)
	case *ir.ExprStmt:
		var prelude strings.Builder
		frag := e.emitExpr(n.Value, &prelude)
		e.buf.WriteString(prelude.String())
		fmt.Fprintf(&e.buf, "  (void)(%s);\n", frag)
		return nil
	default:
		return fmt.Errorf("unrecognized statement node")
	}
}

func (e *Emitter) emitAssign(n *ir.Assign) error {
	var prelude strings.Builder
	frag := e.emitExpr(n.Value, &prelude)
	frag = ir.Coerce(n.DeclaredCategory, n.Value.Cat()).Emit(frag)
	e.buf.WriteString(prelude.String())
	if n.IsDeclaration {
		fmt.Fprintf(&e.buf, "  %s %s = %s;\n", n.DeclaredCategory.CType(), n.CTarget, frag)
	} else {
		fmt.Fprintf(&e.buf, "  %s = %s;\n", n.CTarget, frag)
	}
	return nil
}

func (e *Emitter) emitAugAssign(n *ir.AugAssign) error {
	var prelude strings.Builder
	frag := e.emitExpr(n.Value, &prelude)
	e.buf.WriteString(prelude.String())

	valCat := n.Value.Cat()
	sym, hasSym := n.Op.CSymbol()
	direct := hasSym && n.DeclaredCategory != ir.OBJ && valCat != ir.OBJ &&
		n.Op != ir.OpFloorDiv && n.Op != ir.OpMod
	if direct {
		coerced := ir.Coerce(n.DeclaredCategory, valCat).Emit(frag)
		fmt.Fprintf(&e.buf, "  %s %s= %s;\n", n.CTarget, sym, coerced)
		return nil
	}

	target := &ir.VarRef{Category: n.DeclaredCategory, CName: n.CTarget}
	rhs := e.emitBinOp(&ir.BinOp{Category: n.DeclaredCategory, Op: n.Op, Left: target, Right: n.Value}, n.CTarget, frag)
	fmt.Fprintf(&e.buf, "  %s = %s;\n", n.CTarget, rhs)
	return nil
}

// emitReturn pops every NLR checkpoint still open on the path to this
// return before the C `return` itself — a return inside a try body that
// never reaches its own end-of-block nlr_pop() must still balance
// nlr_push() (spec §4.2, "proper pop-before-return... pop-all-enclosing").
func (e *Emitter) emitReturn(n *ir.Return) error {
	var prelude strings.Builder
	var temp string
	if n.Value != nil {
		frag := e.emitExpr(n.Value, &prelude)
		frag = ir.Coerce(e.currentFn.ReturnCategory, n.Value.Cat()).Emit(frag)
		// the C function itself always returns obj_t (spec §6, "Generated-
		// function signature rule") — a scalar-category return additionally
		// boxes here, after any int/float/bool-level coercion above.
		frag = ir.Coerce(ir.OBJ, e.currentFn.ReturnCategory).Emit(frag)
		// materialize into a temp and evaluate it ahead of nlr_pop(): the
		// coercion may itself call a primitive that can raise (e.g. the
		// checked floor-div/mod helper), and that raise must still unwind
		// onto this try's own checkpoint, not one already popped (spec
		// §4.2, "never return a value computed after the pop").
		temp = e.newTemp(ir.OBJ)
		fmt.Fprintf(&prelude, "  %s = %s;\n", temp, frag)
	}
	e.buf.WriteString(prelude.String())
	for i := len(e.nlrStack) - 1; i >= 0; i-- {
		fmt.Fprintf(&e.buf, "  nlr_pop(); /* %s */\n", e.nlrStack[i])
	}
	if n.Value != nil {
		fmt.Fprintf(&e.buf, "  return %s;\n", temp)
	} else {
		e.buf.WriteString("  return runtime_none();\n")
	}
	return nil
}

func (e *Emitter) emitIf(n *ir.If) error {
	var prelude strings.Builder
	frag := e.emitExpr(n.Cond, &prelude)
	frag = ir.Coerce(ir.BOOL, n.Cond.Cat()).Emit(frag)
	e.buf.WriteString(prelude.String())
	fmt.Fprintf(&e.buf, "  if (%s) {\n", frag)
	if err := e.emitBlock(n.Then); err != nil {
		return err
	}
	if len(n.Else) > 0 {
		e.buf.WriteString("  } else {\n")
		if err := e.emitBlock(n.Else); err != nil {
			return err
		}
	}
	e.buf.WriteString("  }\n")
	return nil
}

func (e *Emitter) emitWhile(n *ir.While) error {
	var prelude strings.Builder
	frag := e.emitExpr(n.Cond, &prelude)
	if prelude.Len() == 0 {
		// no materialization needed to re-test the condition each iteration
		cond := ir.Coerce(ir.BOOL, n.Cond.Cat()).Emit(frag)
		fmt.Fprintf(&e.buf, "  while (%s) {\n", cond)
		if err := e.emitBlock(n.Body); err != nil {
			return err
		}
		e.buf.WriteString("  }\n")
		return nil
	}
	// condition needs a prelude: lower to an unconditional loop with a
	// leading break-check, so the prelude re-runs every pass
	e.buf.WriteString("  for (;;) {\n")
	e.buf.WriteString(prelude.String())
	cond := ir.Coerce(ir.BOOL, n.Cond.Cat()).Emit(frag)
	fmt.Fprintf(&e.buf, "  if (!(%s)) break;\n", cond)
	if err := e.emitBlock(n.Body); err != nil {
		return err
	}
	e.buf.WriteString("  }\n")
	return nil
}

func (e *Emitter) emitFor(n *ir.For) error {
	var prelude strings.Builder
	iterFrag := e.emitExpr(n.Iter, &prelude)
	e.buf.WriteString(prelude.String())
	it := e.newTemp(ir.OBJ)
	fmt.Fprintf(&e.buf, "  %s = iter_begin(%s);\n", it, iterFrag)
	fmt.Fprintf(&e.buf, "  while (iter_has_next(%s)) {\n", it)
	fmt.Fprintf(&e.buf, "    %s %s = iter_next(&%s);\n", n.LoopVarCat.CType(), n.LoopVar, it)
	if err := e.emitBlock(n.Body); err != nil {
		return err
	}
	e.buf.WriteString("  }\n")
	return nil
}

// emitTry lowers try/except/else/finally onto the host's setjmp-based NLR
// primitives (spec §6, §4.2): nlr_push captures a checkpoint, the protected
// body runs inside the "push succeeded" branch, any longjmp back into this
// frame lands in the else branch where the handler chain dispatches on
// is_subclass_fast, and finally (if present) always runs before control
// leaves, re-propagating via nlr_jump if nothing handled it.
func (e *Emitter) emitTry(n *ir.Try) error {
	cp := e.newCheckpoint()
	hasFinally := len(n.Finally) > 0
	occFlag := cp + "_exc_occurred"

	fmt.Fprintf(&e.buf, "  nlr_buf_t %s;\n", cp)
	if hasFinally {
		fmt.Fprintf(&e.buf, "  int %s = 0;\n", occFlag)
	}
	fmt.Fprintf(&e.buf, "  if (nlr_push(&%s) == 0) {\n", cp)

	e.nlrStack = append(e.nlrStack, cp)
	if err := e.emitBlock(n.Body); err != nil {
		return err
	}
	e.nlrStack = e.nlrStack[:len(e.nlrStack)-1]

	e.buf.WriteString("    nlr_pop();\n")
	if len(n.Else) > 0 {
		if err := e.emitBlock(n.Else); err != nil {
			return err
		}
	}
	e.buf.WriteString("  } else {\n")

	for i, h := range n.Handlers {
		kw := "if"
		if i > 0 {
			kw = "} else if"
		}
		cond := "1"
		if h.TypeName != "" {
			cond = fmt.Sprintf("is_subclass_fast(%s.exc_type, &type_%s)", cp, h.TypeName)
		}
		fmt.Fprintf(&e.buf, "    %s (%s) {\n", kw, cond)
		if h.BindName != "" {
			fmt.Fprintf(&e.buf, "      obj_t %s = %s.exc_value;\n", h.BindName, cp)
		}
		if err := e.emitBlock(h.Body); err != nil {
			return err
		}
	}
	if len(n.Handlers) > 0 {
		e.buf.WriteString("    } else {\n")
	}
	if hasFinally {
		fmt.Fprintf(&e.buf, "      %s = 1;\n", occFlag)
	} else {
		fmt.Fprintf(&e.buf, "      nlr_jump(&%s);\n", cp)
	}
	if len(n.Handlers) > 0 {
		e.buf.WriteString("    }\n")
	}
	e.buf.WriteString("  }\n")

	if hasFinally {
		if err := e.emitBlock(n.Finally); err != nil {
			return err
		}
		fmt.Fprintf(&e.buf, "  if (%s) { nlr_jump(&%s); }\n", occFlag, cp)
	}
	return nil
}

// emitRaise constructs (or re-raises) an exception and jumps to the
// nearest enclosing checkpoint. With no checkpoint open, a constructed
// exception is passed to raise_exception with a NULL checkpoint, and a bare
// re-raise aborts the process — this pipeline has no suspension points to
// unwind around (spec §5).
func (e *Emitter) emitRaise(n *ir.Raise) error {
	if n.TypeName == "" && n.Message == nil {
		if len(e.nlrStack) == 0 {
			e.buf.WriteString("  runtime_abort_unhandled();\n")
			return nil
		}
		outer := e.nlrStack[len(e.nlrStack)-1]
		fmt.Fprintf(&e.buf, "  nlr_jump(&%s);\n", outer)
		return nil
	}

	msgFrag := "runtime_none()"
	if n.Message != nil {
		var prelude strings.Builder
		frag := e.emitExpr(n.Message, &prelude)
		e.buf.WriteString(prelude.String())
		msgFrag = ir.Coerce(ir.OBJ, n.Message.Cat()).Emit(frag)
	}

	if len(e.nlrStack) == 0 {
		fmt.Fprintf(&e.buf, "  raise_exception(NULL, &type_%s, %s);\n", n.TypeName, msgFrag)
		return nil
	}
	target := e.nlrStack[len(e.nlrStack)-1]
	fmt.Fprintf(&e.buf, "  raise_exception(&%s, &type_%s, %s);\n", target, n.TypeName, msgFrag)
	return nil
}
