// Package oracle implements the Type Oracle (spec §4.3): a read-only view
// over the IR Builder's output. It never synthesizes a new name — every
// answer is a lookup into maps the builder already finalized, the way the
// teacher's compregister.Scope keeps a flat name→register map instead of
// walking a live AST on every query.
package oracle

import (
	"mypycc/internal/ir"
)

// Oracle answers category/class/field queries against one finalized module.
type Oracle struct {
	module       *ir.Module
	classesByName map[string]*ir.ClassDescriptor
	funcsByName   map[string]*ir.FunctionDescriptor
}

// New builds an Oracle over a finalized module. The module must not be
// mutated afterward — the Oracle holds direct references into it.
func New(module *ir.Module) *Oracle {
	o := &Oracle{
		module:        module,
		classesByName: make(map[string]*ir.ClassDescriptor, len(module.Classes)),
		funcsByName:   make(map[string]*ir.FunctionDescriptor, len(module.Functions)),
	}
	for _, c := range module.Classes {
		o.classesByName[c.Name] = c
	}
	for _, f := range module.Functions {
		o.funcsByName[f.Name] = f
	}
	return o
}

// CategoryOf answers "what is the C type of this IR value?" for a name
// in-scope within fn (spec invariant 2: exactly one source per name).
// Locals are a map lookup; a parameter is found by a linear scan of
// fn.Params, so the lookup is not O(1) in the number of parameters.
func (o *Oracle) CategoryOf(fn *ir.FunctionDescriptor, name string) (ir.Category, bool) {
	if cat, ok := fn.Locals[name]; ok {
		return cat, true
	}
	for _, p := range fn.Params {
		if p.Name == name {
			return p.Category, true
		}
	}
	return ir.INT, false
}

// IsKnownClass reports whether name is a registered record class.
func (o *Oracle) IsKnownClass(name string) bool {
	_, ok := o.classesByName[name]
	return ok
}

// ClassDescriptor returns the descriptor for a known class, or nil.
func (o *Oracle) ClassDescriptor(name string) *ir.ClassDescriptor {
	return o.classesByName[name]
}

// IsClassTypedParam reports whether `name` is a class-typed parameter of fn.
func (o *Oracle) IsClassTypedParam(fn *ir.FunctionDescriptor, name string) bool {
	_, ok := fn.ClassTypedParams[name]
	return ok
}

// ClassDescriptorForParam returns the class descriptor for a class-typed
// parameter of fn, or nil if name is not one.
func (o *Oracle) ClassDescriptorForParam(fn *ir.FunctionDescriptor, name string) *ir.ClassDescriptor {
	return fn.ClassTypedParams[name]
}

// Field returns a class field's C-type and declaration-order ordinal.
func (o *Oracle) Field(class *ir.ClassDescriptor, name string) (cType ir.Category, ordinal int, ok bool) {
	idx := class.FieldIndex(name)
	if idx < 0 {
		return ir.INT, -1, false
	}
	return class.Fields[idx].Category, idx, true
}

// Coerce looks up the boundary conversion primitive for a value of category
// `from` flowing into a slot declared `to`.
func (o *Oracle) Coerce(to, from ir.Category) ir.Coercion {
	return ir.Coerce(to, from)
}

// FunctionDescriptor looks up a function by name.
func (o *Oracle) FunctionDescriptor(name string) (*ir.FunctionDescriptor, bool) {
	fn, ok := o.funcsByName[name]
	return fn, ok
}
