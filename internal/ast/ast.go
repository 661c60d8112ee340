// Package ast defines the surface abstract syntax tree consumed by the
// compiler. The surface parser itself is an external collaborator (see
// spec §1, Out of scope) — this package only describes the shape a parser
// is assumed to deliver, the way the teacher's internal/parser package
// describes tokens/grammar a lexer has already classified. Expr and Stmt
// are visited with the Accept/Visitor pattern, since the tree arrives from
// outside the compiler and the compiler never constructs new concrete node
// types of its own — it only ever reads these.
package ast

// Expr is any surface expression node.
type Expr interface {
	Accept(v ExprVisitor) interface{}
}

// Literal is a constant: number, string, bool, or None.
type Literal struct {
	Value interface{} // int64, float64, bool, string, or nil
}

func (l *Literal) Accept(v ExprVisitor) interface{} { return v.VisitLiteral(l) }

// Name is a bare variable reference.
type Name struct {
	Ident string
}

func (n *Name) Accept(v ExprVisitor) interface{} { return v.VisitName(n) }

// BinOp covers arithmetic, comparison, and containment: + - * // / % == !=
// < <= > >= in is. Floor division keeps its own spelling distinct from true
// division (spec §4.1, "Floor division vs. true division") — the builder,
// not the parser, decides how `//` lowers.
type BinOp struct {
	Op    string
	Left  Expr
	Right Expr
}

func (b *BinOp) Accept(v ExprVisitor) interface{} { return v.VisitBinOp(b) }

// BoolOp covers short-circuit `and`/`or`.
type BoolOp struct {
	Op    string // "and" | "or"
	Left  Expr
	Right Expr
}

func (b *BoolOp) Accept(v ExprVisitor) interface{} { return v.VisitBoolOp(b) }

// UnaryOp covers unary minus and boolean negation.
type UnaryOp struct {
	Op      string // "-" | "not"
	Operand Expr
}

func (u *UnaryOp) Accept(v ExprVisitor) interface{} { return v.VisitUnaryOp(u) }

// Attribute is `receiver.field`. The IR Builder classifies the receiver
// into SelfAttr / ParamAttr / generic attribute-load (spec §4.1).
type Attribute struct {
	Receiver Expr
	Field    string
}

func (a *Attribute) Accept(v ExprVisitor) interface{} { return v.VisitAttribute(a) }

// Subscript is `object[index]`.
type Subscript struct {
	Object Expr
	Index  Expr
}

func (s *Subscript) Accept(v ExprVisitor) interface{} { return v.VisitSubscript(s) }

// Call is `callee(args...)`. The callee may be a Name (a named function
// call), an Attribute (a method call once classified), or the name of a
// builtin conversion (int/str/float/bool).
type Call struct {
	Callee Expr
	Args   []Expr
}

func (c *Call) Accept(v ExprVisitor) interface{} { return v.VisitCall(c) }

type ExprVisitor interface {
	VisitLiteral(*Literal) interface{}
	VisitName(*Name) interface{}
	VisitBinOp(*BinOp) interface{}
	VisitBoolOp(*BoolOp) interface{}
	VisitUnaryOp(*UnaryOp) interface{}
	VisitAttribute(*Attribute) interface{}
	VisitSubscript(*Subscript) interface{}
	VisitCall(*Call) interface{}
}
