package hpcl

import (
	"strings"
	"testing"

	"github.com/shakfu/cgen-go/internal/types"
)

func TestRegisterListIsStableAndNamed(t *testing.T) {
	r := NewRegistry()
	name1 := r.RegisterList(types.I32)
	name2 := r.RegisterList(types.I32)
	if name1 != name2 {
		t.Errorf("expected the same elem type to reuse one container name, got %q and %q", name1, name2)
	}
	if name1 != "vec_int32" {
		t.Errorf("expected vec_int32, got %q", name1)
	}
}

func TestRegisterDictNaming(t *testing.T) {
	r := NewRegistry()
	name := r.RegisterDict(types.CharP, types.I64)
	if name != "hmap_cstr_int64" {
		t.Errorf("expected hmap_cstr_int64, got %q", name)
	}
}

func TestRegisterSetNaming(t *testing.T) {
	r := NewRegistry()
	name := r.RegisterSet(types.I32)
	if name != "hset_int32" {
		t.Errorf("expected hset_int32, got %q", name)
	}
}

func TestEmitDeclarationsOrdersForwardDeclsBeforeInstantiations(t *testing.T) {
	r := NewRegistry()
	r.RegisterList(types.I32)
	_, decls := r.EmitDeclarations()
	var sawInstantiate bool
	for _, d := range decls {
		if strings.Contains(d, "INSTANTIATE") {
			sawInstantiate = true
		}
		if strings.HasPrefix(d, "typedef") && sawInstantiate {
			t.Fatalf("forward declaration found after an instantiation: %v", decls)
		}
	}
}

func TestAppendOpMapping(t *testing.T) {
	got := Append("vec_int32", "xs", "v")
	want := "vec_int32_push(&xs, v)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSubscriptReadOpMapping(t *testing.T) {
	got := SubscriptRead("vec_int32", "xs", "i")
	want := "*vec_int32_at(&xs, i)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
