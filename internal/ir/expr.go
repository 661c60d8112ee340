package ir

// Expr is the closed set of typed expression node kinds (spec §3, "IR
// entities"). Every concrete type below carries its own computed Category;
// the emitter switches on concrete type, never on a virtual method.
type Expr interface {
	Cat() Category
}

// Const is a literal constant.
type Const struct {
	Category Category
	CLit     string // the literal exactly as it should appear in C (e.g. "42", "3.5", "1", "0", "runtime_none()")
}

func (c *Const) Cat() Category { return c.Category }

// VarRef is a reference to a named local or parameter already resolved by
// the Type Oracle; CName is the C identifier emitted for it (identical to
// the surface name unless it collides with a C keyword).
type VarRef struct {
	Category Category
	CName    string
}

func (v *VarRef) Cat() Category { return v.Category }

// TempRef is a reference to a materialized prelude temporary (spec
// invariant 3). CName is always "tNN" for the temp's index.
type TempRef struct {
	Category Category
	CName    string
}

func (t *TempRef) Cat() Category { return t.Category }

// BinOpKind names the host ABI's op-tag space (spec §6): the binary
// operators the runtime's binary_op primitive understands, plus the ones
// that can be lowered directly to a C operator when both operands are
// unboxed of matching category.
type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpFloorDiv
	OpTrueDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpIn
	OpIs
)

// CSymbol is the direct C infix operator for this op, when one exists (all
// except floor-division/modulus, which always route through a helper or
// binary_op, and `in`/`is`, which have no infix form).
func (k BinOpKind) CSymbol() (string, bool) {
	switch k {
	case OpAdd:
		return "+", true
	case OpSub:
		return "-", true
	case OpMul:
		return "*", true
	case OpTrueDiv:
		return "/", true
	case OpEq:
		return "==", true
	case OpNe:
		return "!=", true
	case OpLt:
		return "<", true
	case OpLe:
		return "<=", true
	case OpGt:
		return ">", true
	case OpGe:
		return ">=", true
	default:
		return "", false
	}
}

// ABITag is the runtime op-tag constant name passed to binary_op(...) when
// this operator needs the generic fallback.
func (k BinOpKind) ABITag() string {
	switch k {
	case OpAdd:
		return "OP_ADD"
	case OpSub:
		return "OP_SUB"
	case OpMul:
		return "OP_MUL"
	case OpFloorDiv:
		return "OP_FLOORDIV"
	case OpTrueDiv:
		return "OP_TRUEDIV"
	case OpMod:
		return "OP_MOD"
	case OpEq:
		return "OP_EQ"
	case OpNe:
		return "OP_NE"
	case OpLt:
		return "OP_LT"
	case OpLe:
		return "OP_LE"
	case OpGt:
		return "OP_GT"
	case OpGe:
		return "OP_GE"
	case OpIn:
		return "OP_IN"
	case OpIs:
		return "OP_IS"
	default:
		return "OP_UNKNOWN"
	}
}

// BinOp is a binary operation with both operand categories already
// resolved, so the emitter can decide unboxed-direct vs. generic dispatch
// without re-deriving types.
type BinOp struct {
	Category Category
	Op       BinOpKind
	Left     Expr
	Right    Expr
}

func (b *BinOp) Cat() Category { return b.Category }

// UnaryOpKind is unary minus or boolean negation.
type UnaryOpKind int

const (
	UnaryNeg UnaryOpKind = iota
	UnaryNot
)

type UnaryOp struct {
	Category Category
	Op       UnaryOpKind
	Operand  Expr
}

func (u *UnaryOp) Cat() Category { return u.Category }

// SelfAttr is `self.field` inside a method body — always a direct struct
// access, never a prelude entry (spec §4.1 case 1).
type SelfAttr struct {
	FieldCategory Category
	Field         string
	FieldIndex    int // declaration-order ordinal, for the struct layout
}

func (s *SelfAttr) Cat() Category { return s.FieldCategory }

// ParamAttr is `p.field` where p is a class-typed parameter — a direct
// struct access through a cast, never a prelude entry (spec §4.1 case 2,
// §4.2 "Record-field access").
type ParamAttr struct {
	FieldCategory Category
	Param         string
	ClassCName    string // the C-mangled struct type name, e.g. "Point_obj_t"
	Field         string
	FieldIndex    int
}

func (p *ParamAttr) Cat() Category { return p.FieldCategory }

// GenericAttr is any other attribute read: lowered through the runtime's
// load_attr, so it is always materialized into a prelude temp (spec §4.1
// case 3).
type GenericAttr struct {
	Receiver Expr
	Field    string
}

func (g *GenericAttr) Cat() Category { return OBJ }

// Subscript is `object[index]` on a boxed container; always materialized
// (it may raise — spec §7, runtime-checked operations).
type Subscript struct {
	Object Expr
	Index  Expr
}

func (s *Subscript) Cat() Category { return OBJ }

// Call is a call of a named function (not a method call — those lower to
// MethodCall). Always materialized into a prelude temp.
type Call struct {
	Category Category
	Callee   string
	Args     []Expr
	ArgCats  []Category // each arg's declared parameter category, for boundary coercion
}

func (c *Call) Cat() Category { return c.Category }

// MethodCall is `receiver.method(args)`, uniformly lowered to the runtime's
// load_attr + call_n_kw pattern (spec §4.2, "Method dispatch"). Always
// materialized into a prelude temp.
type MethodCall struct {
	Receiver Expr
	Method   string
	Args     []Expr
}

func (m *MethodCall) Cat() Category { return OBJ }

// BuiltinKind enumerates the builtin conversion constructors.
type BuiltinKind int

const (
	BuiltinInt BuiltinKind = iota
	BuiltinFloat
	BuiltinBool
	BuiltinStr
	BuiltinList
)

// BuiltinCall is `int(x)`, `str(x)`, `float(x)`, `bool(x)`, `list(x)` —
// each with a statically known result category (spec §4.1, "Method calls
// and built-ins"). Always materialized into a prelude temp.
type BuiltinCall struct {
	Kind BuiltinKind
	Arg  Expr
}

func (b *BuiltinCall) Cat() Category {
	switch b.Kind {
	case BuiltinInt:
		return INT
	case BuiltinFloat:
		return FLOAT
	case BuiltinBool:
		return BOOL
	default:
		return OBJ
	}
}
