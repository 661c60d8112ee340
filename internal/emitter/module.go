package emitter

import (
	"fmt"

	"mypycc/internal/ir"
)

func moduleNeedsCheckedDiv(mod *ir.Module) bool {
	for _, fd := range mod.Functions {
		if fd.NeedsCheckedDiv {
			return true
		}
	}
	for _, cd := range mod.Classes {
		for _, fd := range cd.Methods {
			if fd.NeedsCheckedDiv {
				return true
			}
		}
	}
	return false
}

// emitHelpers emits the checked-division helpers exactly once, and only if
// some function in the module actually needs them (spec §4.2: the checked
// floor-div/mod helper is gated, never emitted unconditionally).
func (e *Emitter) emitHelpers(mod *ir.Module) {
	if !moduleNeedsCheckedDiv(mod) {
		return
	}
	e.out.WriteString(`static int64_t checked_floordiv(int64_t a, int64_t b) {
  if (b == 0) { raise_exception(NULL, &type_ZeroDivisionError, new_str("integer division or modulo by zero")); }
  int64_t q = a / b;
  if ((a % b != 0) && ((a < 0) != (b < 0))) q--;
  return q;
}

static int64_t checked_mod(int64_t a, int64_t b) {
  if (b == 0) { raise_exception(NULL, &type_ZeroDivisionError, new_str("integer division or modulo by zero")); }
  int64_t r = a % b;
  if (r != 0 && ((r < 0) != (b < 0))) r += b;
  return r;
}

`)
}

// emitModuleInit emits the registration entry point the host runtime calls
// to make this module's functions and classes visible (spec §6).
func (e *Emitter) emitModuleInit(mod *ir.Module) {
	fmt.Fprintf(&e.out, "void %s_init(module_t *m) {\n", mod.Name)
	for _, fd := range mod.Functions {
		fmt.Fprintf(&e.out, "  module_register_function(m, %q, (fnptr_t)%s);\n", fd.Name, fd.CName)
	}
	for _, cd := range mod.Classes {
		fmt.Fprintf(&e.out, "  module_register_class(m, %q, %s_methods);\n", cd.Name, cd.Name)
	}
	e.out.WriteString("}\n")
}
