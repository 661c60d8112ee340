package ir

// MaterializeKind classifies a node that spec invariant 3 requires to be
// materialized into a fresh prelude temporary, and how many temporaries it
// consumes. A MethodCall lowers to two runtime calls (load_attr, then
// call_n_kw — spec §4.2, "Method dispatch") and so costs two; everything
// else that materializes costs one.
type MaterializeKind int

const (
	MatGenericAttr MaterializeKind = iota
	MatSubscript
	MatCall
	MatMethodCall
	MatBuiltinCall
	MatReturnValue
)

// TempCost is how many monotonic temp slots this materialization consumes.
func (k MaterializeKind) TempCost() int {
	if k == MatMethodCall {
		return 2
	}
	return 1
}

// WalkMaterializing visits every expression node in e that the emitter will
// turn into a prelude temporary, in the exact left-to-right, children-
// before-parent order the emitter evaluates them in. The IR Builder uses
// this (via CountTemps) to pre-compute FunctionDescriptor.MaxTemps without
// allocating at emission time (spec §9); the Code Emitter's own prelude
// walk must visit nodes in this same order so the temp index it assigns
// each node lines up with the count the builder already reserved.
func WalkMaterializing(e Expr, visit func(Expr, MaterializeKind)) {
	switch n := e.(type) {
	case *Const, *VarRef, *TempRef, *SelfAttr, *ParamAttr, nil:
		// leaves; nothing to materialize
	case *BinOp:
		WalkMaterializing(n.Left, visit)
		WalkMaterializing(n.Right, visit)
	case *UnaryOp:
		WalkMaterializing(n.Operand, visit)
	case *GenericAttr:
		WalkMaterializing(n.Receiver, visit)
		visit(n, MatGenericAttr)
	case *Subscript:
		WalkMaterializing(n.Object, visit)
		WalkMaterializing(n.Index, visit)
		visit(n, MatSubscript)
	case *Call:
		for _, a := range n.Args {
			WalkMaterializing(a, visit)
		}
		visit(n, MatCall)
	case *MethodCall:
		WalkMaterializing(n.Receiver, visit)
		for _, a := range n.Args {
			WalkMaterializing(a, visit)
		}
		visit(n, MatMethodCall)
	case *BuiltinCall:
		WalkMaterializing(n.Arg, visit)
		visit(n, MatBuiltinCall)
	}
}

// WalkStmts walks a statement list's expressions for materialization
// purposes, recursing into every nested body (If/For/While/Try) so that
// nested control flow contributes to the same per-function monotonic temp
// count (spec §9). It never flattens control flow into a graph — it only
// visits the Expr fields each Stmt already carries.
func WalkStmts(stmts []Stmt, visit func(Expr, MaterializeKind)) {
	for _, s := range stmts {
		switch st := s.(type) {
		case *Assign:
			WalkMaterializing(st.Value, visit)
		case *AugAssign:
			WalkMaterializing(st.Value, visit)
		case *Return:
			if st.Value != nil {
				WalkMaterializing(st.Value, visit)
				// the Code Emitter always materializes the coerced return
				// value into its own temp ahead of nlr_pop (spec §4.2), so
				// this reserves that slot too.
				visit(st.Value, MatReturnValue)
			}
		case *If:
			WalkMaterializing(st.Cond, visit)
			WalkStmts(st.Then, visit)
			WalkStmts(st.Else, visit)
		case *For:
			WalkMaterializing(st.Iter, visit)
			WalkStmts(st.Body, visit)
		case *While:
			WalkMaterializing(st.Cond, visit)
			WalkStmts(st.Body, visit)
		case *Try:
			WalkStmts(st.Body, visit)
			for _, h := range st.Handlers {
				WalkStmts(h.Body, visit)
			}
			WalkStmts(st.Else, visit)
			WalkStmts(st.Finally, visit)
		case *Raise:
			if st.Message != nil {
				WalkMaterializing(st.Message, visit)
			}
		case *ExprStmt:
			WalkMaterializing(st.Value, visit)
		}
	}
}

// CountTemps returns the total number of prelude temporaries a body will
// need across its whole execution — the value stashed into
// FunctionDescriptor.MaxTemps.
func CountTemps(stmts []Stmt) int {
	n := 0
	WalkStmts(stmts, func(_ Expr, k MaterializeKind) { n += k.TempCost() })
	return n
}
