package ir

import "testing"

func TestCoerceMatrix(t *testing.T) {
	tests := []struct {
		to, from Category
		want     string
	}{
		{INT, INT, "x"},
		{INT, FLOAT, "(int64_t)(x)"},
		{INT, BOOL, "x"},
		{INT, OBJ, "get_int(x)"},
		{FLOAT, INT, "(double)(x)"},
		{FLOAT, FLOAT, "x"},
		{FLOAT, BOOL, "(double)(x)"},
		{FLOAT, OBJ, "get_float(x)"},
		{BOOL, INT, "!!(x)"},
		{BOOL, FLOAT, "(x != 0.0)"},
		{BOOL, BOOL, "x"},
		{BOOL, OBJ, "is_true(x)"},
		{OBJ, INT, "new_int(x)"},
		{OBJ, FLOAT, "new_float(x)"},
		{OBJ, BOOL, "new_bool(x)"},
		{OBJ, OBJ, "x"},
	}
	for _, tt := range tests {
		got := Coerce(tt.to, tt.from).Emit("x")
		if got != tt.want {
			t.Errorf("Coerce(%s, %s).Emit(x) = %q, want %q", tt.to, tt.from, got, tt.want)
		}
	}
}

func TestCoerceNoneIsIdentity(t *testing.T) {
	if !Coerce(OBJ, NONE).IsIdentity() {
		t.Error("a NONE literal feeding an OBJ slot should be identity (the runtime's None object)")
	}
	if !Coerce(NONE, OBJ).IsIdentity() {
		t.Error("coercing into a NONE-typed slot should never be reached, but must not panic")
	}
}

func TestCTypeByCategory(t *testing.T) {
	tests := []struct {
		cat  Category
		want string
	}{
		{INT, "int64_t"},
		{FLOAT, "double"},
		{BOOL, "int"},
		{OBJ, "obj_t"},
		{NONE, "obj_t"},
	}
	for _, tt := range tests {
		if got := tt.cat.CType(); got != tt.want {
			t.Errorf("%s.CType() = %q, want %q", tt.cat, got, tt.want)
		}
	}
}
