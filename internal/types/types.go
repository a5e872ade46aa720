// Package types implements the closed type-token system spec.md §3
// names: primitives, containers, user structs, function signatures, and
// void. Types are first-class values threaded explicitly through every
// later component (no global type table, per the "no singleton, no
// thread-local" design note, spec.md §9).
package types

import (
	"fmt"
	"strings"
)

// Type is satisfied by every type token.
type Type interface {
	String() string
	Equals(Type) bool
}

// Prim is a primitive scalar type.
type Prim struct {
	Name string // "i8".."i64", "u8".."u64", "f32", "f64", "bool", "char*"
}

func (t *Prim) String() string { return t.Name }
func (t *Prim) Equals(o Type) bool {
	op, ok := o.(*Prim)
	return ok && op.Name == t.Name
}

var (
	I8     = &Prim{"i8"}
	I16    = &Prim{"i16"}
	I32    = &Prim{"i32"}
	I64    = &Prim{"i64"}
	U8     = &Prim{"u8"}
	U16    = &Prim{"u16"}
	U32    = &Prim{"u32"}
	U64    = &Prim{"u64"}
	F32    = &Prim{"f32"}
	F64    = &Prim{"f64"}
	Bool   = &Prim{"bool"}
	CharP  = &Prim{"char*"}
	VoidTy = &Void{}
)

// Void is the absence of a value (function return type only).
type Void struct{}

func (t *Void) String() string     { return "void" }
func (t *Void) Equals(o Type) bool { _, ok := o.(*Void); return ok }

// Unknown marks an expression whose type inference failed
// (spec.md §3: "every IR expression node carries a resolved type or a
// clearly-marked inference failure").
type Unknown struct{ Reason string }

func (t *Unknown) String() string     { return "<unknown>" }
func (t *Unknown) Equals(o Type) bool { _, ok := o.(*Unknown); return ok }

// List is `list[T]`.
type List struct{ Elem Type }

func (t *List) String() string { return fmt.Sprintf("list[%s]", t.Elem) }
func (t *List) Equals(o Type) bool {
	op, ok := o.(*List)
	return ok && op.Elem.Equals(t.Elem)
}

// Dict is `dict[K,V]`.
type Dict struct{ Key, Val Type }

func (t *Dict) String() string { return fmt.Sprintf("dict[%s,%s]", t.Key, t.Val) }
func (t *Dict) Equals(o Type) bool {
	op, ok := o.(*Dict)
	return ok && op.Key.Equals(t.Key) && op.Val.Equals(t.Val)
}

// Set is `set[T]`.
type Set struct{ Elem Type }

func (t *Set) String() string { return fmt.Sprintf("set[%s]", t.Elem) }
func (t *Set) Equals(o Type) bool {
	op, ok := o.(*Set)
	return ok && op.Elem.Equals(t.Elem)
}

// Struct is a user-defined record type.
type Struct struct {
	Name   string
	Fields []StructField
}

type StructField struct {
	Name string
	Type Type
}

func (t *Struct) String() string { return t.Name }
func (t *Struct) Equals(o Type) bool {
	op, ok := o.(*Struct)
	return ok && op.Name == t.Name
}

func (t *Struct) FieldType(name string) (Type, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// Func is a function signature `(T1,...,Tn) -> R`.
type Func struct {
	Params []Type
	Return Type
}

func (t *Func) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("(%s)->%s", strings.Join(parts, ","), t.Return)
}
func (t *Func) Equals(o Type) bool {
	op, ok := o.(*Func)
	if !ok || len(op.Params) != len(t.Params) || !op.Return.Equals(t.Return) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equals(op.Params[i]) {
			return false
		}
	}
	return true
}

// IsNumeric reports whether t is one of the integer or float primitives.
func IsNumeric(t Type) bool {
	p, ok := t.(*Prim)
	if !ok {
		return false
	}
	switch p.Name {
	case "i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64", "f32", "f64":
		return true
	}
	return false
}

// IsFloat reports whether t is f32 or f64.
func IsFloat(t Type) bool {
	p, ok := t.(*Prim)
	return ok && (p.Name == "f32" || p.Name == "f64")
}

// IsInteger reports whether t is one of the signed/unsigned integer widths.
func IsInteger(t Type) bool {
	return IsNumeric(t) && !IsFloat(t)
}

// rank orders integer widths for promotion purposes; wider wins.
var rank = map[string]int{
	"i8": 1, "u8": 1, "i16": 2, "u16": 2, "i32": 3, "u32": 3, "i64": 4, "u64": 4,
	"f32": 5, "f64": 6,
}

// Promote implements spec.md §4.1's arithmetic promotion rule:
// the wider of two numeric operand types wins, and any float operand
// makes the result a float (`i32 + f64 -> f64`).
func Promote(a, b Type) (Type, bool) {
	if !IsNumeric(a) || !IsNumeric(b) {
		return nil, false
	}
	pa, pb := a.(*Prim), b.(*Prim)
	if rank[pa.Name] >= rank[pb.Name] {
		return pa, true
	}
	return pb, true
}

// FromToken maps a source-level annotation name to a primitive/void
// type token; returns nil, false for names not in the closed set
// (struct/container names are resolved by the caller instead).
func FromToken(name string) (Type, bool) {
	switch name {
	case "i8":
		return I8, true
	case "i16":
		return I16, true
	case "i32":
		return I32, true
	case "i64", "int":
		return I64, true
	case "u8":
		return U8, true
	case "u16":
		return U16, true
	case "u32":
		return U32, true
	case "u64":
		return U64, true
	case "f32":
		return F32, true
	case "f64", "float":
		return F64, true
	case "bool":
		return Bool, true
	case "str":
		return CharP, true
	case "None":
		return VoidTy, true
	}
	return nil, false
}
