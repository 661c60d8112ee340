package emitter

import (
	"strings"
	"testing"

	"mypycc/internal/ir"
)

func TestEmitAssign_DeclarationCoercesAtTheBoundary(t *testing.T) {
	e := newTestEmitter(&ir.FunctionDescriptor{})
	n := &ir.Assign{
		CTarget: "r", DeclaredCategory: ir.INT, IsDeclaration: true,
		Value: &ir.Subscript{Object: &ir.VarRef{Category: ir.OBJ, CName: "nums"}, Index: &ir.Const{Category: ir.INT, CLit: "0"}},
	}
	if err := e.emitStmt(n); err != nil {
		t.Fatalf("emitStmt: %v", err)
	}
	got := e.buf.String()
	if !strings.Contains(got, "subscript_get(nums, 0)") {
		t.Fatalf("expected a subscript_get prelude, got %q", got)
	}
	if !strings.Contains(got, "int64_t r = get_int(t0);") {
		t.Fatalf("expected r's declaration to coerce OBJ->INT via get_int, got %q", got)
	}
}

func TestEmitAugAssign_DirectFastPath(t *testing.T) {
	e := newTestEmitter(&ir.FunctionDescriptor{})
	n := &ir.AugAssign{CTarget: "r", DeclaredCategory: ir.INT, Op: ir.OpAdd, Value: &ir.Const{Category: ir.INT, CLit: "1"}}
	if err := e.emitAugAssign(n); err != nil {
		t.Fatalf("emitAugAssign: %v", err)
	}
	if got := e.buf.String(); got != "  r += 1;\n" {
		t.Fatalf("emitAugAssign(r += 1) = %q, want direct compound assignment", got)
	}
}

func TestEmitAugAssign_FloorDivFallsBackToBinOpLowering(t *testing.T) {
	e := newTestEmitter(&ir.FunctionDescriptor{NeedsCheckedDiv: true})
	n := &ir.AugAssign{CTarget: "r", DeclaredCategory: ir.INT, Op: ir.OpFloorDiv, Value: &ir.Const{Category: ir.INT, CLit: "2"}}
	if err := e.emitAugAssign(n); err != nil {
		t.Fatalf("emitAugAssign: %v", err)
	}
	if got := e.buf.String(); got != "  r = checked_floordiv(r, 2);\n" {
		t.Fatalf("emitAugAssign(r //= 2) = %q, want the checked helper, not a direct //= operator", got)
	}
}

func TestEmitReturn_PopsAllOpenCheckpointsBeforeReturning(t *testing.T) {
	e := newTestEmitter(&ir.FunctionDescriptor{ReturnCategory: ir.INT})
	e.nlrStack = []string{"cp0", "cp1"}
	n := &ir.Return{Value: &ir.Const{Category: ir.INT, CLit: "0"}}
	if err := e.emitReturn(n); err != nil {
		t.Fatalf("emitReturn: %v", err)
	}
	got := e.buf.String()
	if !strings.Contains(got, "t0 = new_int(0);") {
		t.Fatalf("expected the boxed return value materialized into a temp before the pops, got %q", got)
	}
	tempIdx := strings.Index(got, "t0 = new_int(0);")
	cp1Idx := strings.Index(got, "nlr_pop(); /* cp1 */")
	cp0Idx := strings.Index(got, "nlr_pop(); /* cp0 */")
	returnIdx := strings.Index(got, "return t0;")
	if tempIdx < 0 || cp1Idx < 0 || cp0Idx < 0 || returnIdx < 0 {
		t.Fatalf("expected temp assignment, LIFO nlr_pop() for cp1 then cp0, then a return of the temp, got %q", got)
	}
	if !(tempIdx < cp1Idx && cp1Idx < cp0Idx && cp0Idx < returnIdx) {
		t.Fatalf("expected order temp-assign < pop(cp1) < pop(cp0) < return, got %q", got)
	}
}

func TestEmitWhile_PreludeFreeConditionStaysADirectWhile(t *testing.T) {
	e := newTestEmitter(&ir.FunctionDescriptor{})
	n := &ir.While{Cond: &ir.VarRef{Category: ir.BOOL, CName: "ok"}}
	if err := e.emitWhile(n); err != nil {
		t.Fatalf("emitWhile: %v", err)
	}
	if got := e.buf.String(); !strings.Contains(got, "while (ok) {") {
		t.Fatalf("expected a direct while loop, got %q", got)
	}
}

func TestEmitWhile_MaterializingConditionLowersToForBreak(t *testing.T) {
	e := newTestEmitter(&ir.FunctionDescriptor{})
	n := &ir.While{Cond: &ir.GenericAttr{Receiver: &ir.VarRef{Category: ir.OBJ, CName: "obj"}, Field: "ready"}}
	if err := e.emitWhile(n); err != nil {
		t.Fatalf("emitWhile: %v", err)
	}
	got := e.buf.String()
	if !strings.Contains(got, "for (;;) {") || !strings.Contains(got, "if (!(") {
		t.Fatalf("expected an unconditional loop with a leading break-check, got %q", got)
	}
}

func TestEmitTry_FinallyAlwaysRunsAndRepropagates(t *testing.T) {
	e := newTestEmitter(&ir.FunctionDescriptor{})
	n := &ir.Try{
		Body:    []ir.Stmt{&ir.ExprStmt{Value: &ir.Const{Category: ir.INT, CLit: "1"}}},
		Finally: []ir.Stmt{&ir.ExprStmt{Value: &ir.Const{Category: ir.INT, CLit: "2"}}},
	}
	if err := e.emitTry(n); err != nil {
		t.Fatalf("emitTry: %v", err)
	}
	got := e.buf.String()
	for _, want := range []string{"nlr_buf_t cp0;", "int cp0_exc_occurred = 0;", "nlr_push(&cp0)", "cp0_exc_occurred = 1;", "nlr_jump(&cp0);"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in emitted try, got:\n%s", want, got)
		}
	}
	if len(e.nlrStack) != 0 {
		t.Fatal("nlrStack must be balanced after emitTry returns")
	}
}

func TestEmitTry_HandlerChainDispatchesOnSubclassFast(t *testing.T) {
	e := newTestEmitter(&ir.FunctionDescriptor{})
	n := &ir.Try{
		Body: []ir.Stmt{&ir.ExprStmt{Value: &ir.Const{Category: ir.INT, CLit: "1"}}},
		Handlers: []ir.ExceptHandler{
			{TypeName: "ZeroDivisionError", Body: []ir.Stmt{&ir.ExprStmt{Value: &ir.Const{Category: ir.INT, CLit: "0"}}}},
		},
	}
	if err := e.emitTry(n); err != nil {
		t.Fatalf("emitTry: %v", err)
	}
	got := e.buf.String()
	if !strings.Contains(got, "is_subclass_fast(cp0.exc_type, &type_ZeroDivisionError)") {
		t.Fatalf("expected a subclass-dispatch check, got %q", got)
	}
	if !strings.Contains(got, "nlr_jump(&cp0);") {
		t.Fatalf("an unmatched exception must re-propagate via nlr_jump, got %q", got)
	}
}

func TestEmitRaise_BareReraiseJumpsToNearestCheckpoint(t *testing.T) {
	e := newTestEmitter(&ir.FunctionDescriptor{})
	e.nlrStack = []string{"cp0"}
	if err := e.emitRaise(&ir.Raise{}); err != nil {
		t.Fatalf("emitRaise: %v", err)
	}
	if got := e.buf.String(); got != "  nlr_jump(&cp0);\n" {
		t.Fatalf("emitRaise bare re-raise = %q, want nlr_jump to cp0", got)
	}
}

func TestEmitRaise_NoOpenCheckpointAborts(t *testing.T) {
	e := newTestEmitter(&ir.FunctionDescriptor{})
	if err := e.emitRaise(&ir.Raise{}); err != nil {
		t.Fatalf("emitRaise: %v", err)
	}
	if got := e.buf.String(); got != "  runtime_abort_unhandled();\n" {
		t.Fatalf("emitRaise with no open checkpoint = %q, want an abort", got)
	}
}

func TestEmitRaise_ConstructedRaiseTargetsOpenCheckpoint(t *testing.T) {
	e := newTestEmitter(&ir.FunctionDescriptor{})
	e.nlrStack = []string{"cp0"}
	n := &ir.Raise{TypeName: "ValueError", Message: &ir.Const{Category: ir.OBJ, CLit: `new_str("bad")`}}
	if err := e.emitRaise(n); err != nil {
		t.Fatalf("emitRaise: %v", err)
	}
	want := `  raise_exception(&cp0, &type_ValueError, new_str("bad"));` + "\n"
	if got := e.buf.String(); got != want {
		t.Fatalf("emitRaise(ValueError) = %q, want %q", got, want)
	}
}
