// Package ir defines the typed intermediate representation that the IR
// Builder produces and the Code Emitter consumes (spec §3–§4). Expression
// and statement nodes are closed variant sets: concrete struct types behind
// a sealed interface, discriminated at emission time by a single exhaustive
// type switch rather than by virtual dispatch (spec §9, "Closed variant
// sets, not class hierarchies").
package ir

// Category is the coarse type used for every boxing/coercion decision.
type Category int

const (
	INT Category = iota
	FLOAT
	BOOL
	OBJ
	NONE
)

func (c Category) String() string {
	switch c {
	case INT:
		return "INT"
	case FLOAT:
		return "FLOAT"
	case BOOL:
		return "BOOL"
	case OBJ:
		return "OBJ"
	case NONE:
		return "NONE"
	default:
		return "INVALID"
	}
}

// CType is the C type that represents a Category in emitted code, used for
// local-variable declarations. OBJ (and NONE, which only ever appears as a
// literal) are always the runtime's boxed handle type.
func (c Category) CType() string {
	switch c {
	case INT:
		return "int64_t"
	case FLOAT:
		return "double"
	case BOOL:
		return "int"
	default:
		return "obj_t"
	}
}

// Coercion names the boundary conversion from an expression's category into
// a slot declared with a (possibly different) category — spec §4.2's
// table, named slot-from-expr so the two directions between the same pair
// of categories (e.g. a BOOL slot fed an INT vs. an INT slot fed a BOOL)
// are distinct constants.
type Coercion int

const (
	CoerceIdentity Coercion = iota
	coerceIntSlotFromFloat
	coerceIntSlotFromBool
	coerceIntSlotFromObj
	coerceFloatSlotFromInt
	coerceFloatSlotFromBool
	coerceFloatSlotFromObj
	coerceBoolSlotFromInt
	coerceBoolSlotFromFloat
	coerceBoolSlotFromObj
	coerceObjSlotFromInt
	coerceObjSlotFromFloat
	coerceObjSlotFromBool
)

// coercionMatrix is the boundary table from spec §4.2: rows are the slot's
// declared category, columns are the expression's category. Built once as
// a lookup rather than recomputed, since the Type Oracle must answer
// coerce() in O(1) and never invent a new mapping at emission time.
var coercionMatrix = map[[2]Category]Coercion{
	{INT, INT}:     CoerceIdentity,
	{INT, FLOAT}:   coerceIntSlotFromFloat,
	{INT, BOOL}:    coerceIntSlotFromBool,
	{INT, OBJ}:     coerceIntSlotFromObj,
	{FLOAT, INT}:   coerceFloatSlotFromInt,
	{FLOAT, FLOAT}: CoerceIdentity,
	{FLOAT, BOOL}:  coerceFloatSlotFromBool,
	{FLOAT, OBJ}:   coerceFloatSlotFromObj,
	{BOOL, INT}:    coerceBoolSlotFromInt,
	{BOOL, FLOAT}:  coerceBoolSlotFromFloat,
	{BOOL, BOOL}:   CoerceIdentity,
	{BOOL, OBJ}:    coerceBoolSlotFromObj,
	{OBJ, INT}:     coerceObjSlotFromInt,
	{OBJ, FLOAT}:   coerceObjSlotFromFloat,
	{OBJ, BOOL}:    coerceObjSlotFromBool,
	{OBJ, OBJ}:     CoerceIdentity,
}

// Coerce looks up the boundary conversion from `from` into a slot declared
// `to`. NONE only ever appears as a literal feeding an OBJ slot (identity —
// the runtime's None object) or is rejected by the builder before reaching
// here.
func Coerce(to, from Category) Coercion {
	if to == NONE || from == NONE {
		return CoerceIdentity
	}
	return coercionMatrix[[2]Category{to, from}]
}

// Emit renders the C fragment that applies this coercion to `expr`.
func (co Coercion) Emit(expr string) string {
	switch co {
	case CoerceIdentity:
		return expr
	case coerceIntSlotFromFloat:
		return "(int64_t)(" + expr + ")"
	case coerceIntSlotFromBool:
		return expr
	case coerceIntSlotFromObj:
		return "get_int(" + expr + ")"
	case coerceFloatSlotFromInt:
		return "(double)(" + expr + ")"
	case coerceFloatSlotFromBool:
		return "(double)(" + expr + ")"
	case coerceFloatSlotFromObj:
		return "get_float(" + expr + ")"
	case coerceBoolSlotFromInt:
		return "!!(" + expr + ")"
	case coerceBoolSlotFromFloat:
		return "(" + expr + " != 0.0)"
	case coerceBoolSlotFromObj:
		return "is_true(" + expr + ")"
	case coerceObjSlotFromInt:
		return "new_int(" + expr + ")"
	case coerceObjSlotFromFloat:
		return "new_float(" + expr + ")"
	case coerceObjSlotFromBool:
		return "new_bool(" + expr + ")"
	default:
		return expr
	}
}

// IsIdentity reports whether this coercion emits no conversion text at all.
func (co Coercion) IsIdentity() bool { return co == CoerceIdentity }
