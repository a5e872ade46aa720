// Package hpcl implements the HPCL (high-performance container
// library) type mapper spec.md §4.7 and §3's container registry: it
// assigns a stable generated container-type name to every distinct
// list/dict/set element-type combination the source program uses, and
// maps Python container operations onto the equivalent HPCL calls.
//
// The registry is an explicit value threaded through the translation
// context rather than a package-level singleton or thread-local,
// matching the teacher's TypeEnv-as-explicit-value convention
// (internal/types/env.go) and spec.md §9's "no singleton, no
// thread-local" design note.
package hpcl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shakfu/cgen-go/internal/types"
)

// Registry owns the set of container instantiations a translation unit
// needs and the stable name assigned to each.
type Registry struct {
	lists map[string]string // normalized elem token -> container name
	dicts map[string]string // "key|val" -> container name
	sets  map[string]string // normalized elem token -> container name
	order []containerDecl   // declaration order, for emit_declarations
}

type containerKind int

const (
	kindList containerKind = iota
	kindDict
	kindSet
)

type containerDecl struct {
	kind containerKind
	name string
	elem string
	key  string
	val  string
}

// NewRegistry creates an empty container registry.
func NewRegistry() *Registry {
	return &Registry{lists: map[string]string{}, dicts: map[string]string{}, sets: map[string]string{}}
}

// typeToken normalizes a resolved Type into the token vocabulary
// spec.md §4.7 names (`i32` → `int32`, `char*` → `cstr`).
func typeToken(t types.Type) string {
	raw := t.String()
	switch raw {
	case "i8":
		return "int8"
	case "i16":
		return "int16"
	case "i32":
		return "int32"
	case "i64":
		return "int64"
	case "u8":
		return "uint8"
	case "u16":
		return "uint16"
	case "u32":
		return "uint32"
	case "u64":
		return "uint64"
	case "f32":
		return "float32"
	case "f64":
		return "float64"
	case "char*":
		return "cstr"
	case "bool":
		return "bool"
	}
	// struct/unknown names: sanitize to a bare identifier fragment.
	return strings.ReplaceAll(raw, "*", "ptr")
}

// RegisterList returns the container name for a `list[elem]`,
// allocating one on first use.
func (r *Registry) RegisterList(elem types.Type) string {
	tok := typeToken(elem)
	if name, ok := r.lists[tok]; ok {
		return name
	}
	name := fmt.Sprintf("vec_%s", tok)
	r.lists[tok] = name
	r.order = append(r.order, containerDecl{kind: kindList, name: name, elem: tok})
	return name
}

// RegisterDict returns the container name for a `dict[key,val]`.
func (r *Registry) RegisterDict(key, val types.Type) string {
	kt, vt := typeToken(key), typeToken(val)
	composite := kt + "|" + vt
	if name, ok := r.dicts[composite]; ok {
		return name
	}
	name := fmt.Sprintf("hmap_%s_%s", kt, vt)
	r.dicts[composite] = name
	r.order = append(r.order, containerDecl{kind: kindDict, name: name, key: kt, val: vt})
	return name
}

// RegisterSet returns the container name for a `set[elem]`.
func (r *Registry) RegisterSet(elem types.Type) string {
	tok := typeToken(elem)
	if name, ok := r.sets[tok]; ok {
		return name
	}
	name := fmt.Sprintf("hset_%s", tok)
	r.sets[tok] = name
	r.order = append(r.order, containerDecl{kind: kindSet, name: name, elem: tok})
	return name
}

// EmitDeclarations returns the standard includes plus the forward
// declarations and template instantiations every registered container
// needs, in the order spec.md §4.7 fixes: forward-declare all
// container types, then instantiate templates.
func (r *Registry) EmitDeclarations() (includes []string, declarations []string) {
	includes = []string{`"hpcl/vec.h"`, `"hpcl/hmap.h"`, `"hpcl/hset.h"`}

	decls := append([]containerDecl(nil), r.order...)
	sort.SliceStable(decls, func(i, j int) bool { return decls[i].name < decls[j].name })

	for _, d := range decls {
		switch d.kind {
		case kindList:
			declarations = append(declarations, fmt.Sprintf("typedef struct %s %s;", d.name, d.name))
		case kindDict:
			declarations = append(declarations, fmt.Sprintf("typedef struct %s %s;", d.name, d.name))
		case kindSet:
			declarations = append(declarations, fmt.Sprintf("typedef struct %s %s;", d.name, d.name))
		}
	}
	for _, d := range decls {
		switch d.kind {
		case kindList:
			declarations = append(declarations, fmt.Sprintf("HPCL_VEC_INSTANTIATE(%s, %s)", d.name, d.elem))
		case kindDict:
			declarations = append(declarations, fmt.Sprintf("HPCL_HMAP_INSTANTIATE(%s, %s, %s)", d.name, d.key, d.val))
		case kindSet:
			declarations = append(declarations, fmt.Sprintf("HPCL_HSET_INSTANTIATE(%s, %s)", d.name, d.elem))
		}
	}
	return includes, declarations
}
