package hpcl

import (
	"github.com/shakfu/cgen-go/internal/core"
	"github.com/shakfu/cgen-go/internal/types"
)

// RegisterFromProgram walks every declared and resolved type reachable
// from prog and registers each list/dict/set shape it finds, so the
// emitter can ask the registry for a container's name without having
// walked the IR itself.
func RegisterFromProgram(prog *core.Program, r *Registry) {
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *core.FuncDecl:
			for _, p := range decl.Params {
				registerType(r, p.Type)
			}
			registerType(r, decl.ReturnType)
			registerFromStmts(r, decl.Body)
		case *core.StructDecl:
			for _, f := range decl.Fields {
				registerType(r, f.Type)
			}
		case *core.GlobalDecl:
			if decl.Value != nil {
				registerType(r, decl.Value.ResolvedType())
			}
		}
	}
}

func registerType(r *Registry, t types.Type) {
	switch tt := t.(type) {
	case *types.List:
		registerType(r, tt.Elem)
		r.RegisterList(tt.Elem)
	case *types.Dict:
		registerType(r, tt.Key)
		registerType(r, tt.Val)
		r.RegisterDict(tt.Key, tt.Val)
	case *types.Set:
		registerType(r, tt.Elem)
		r.RegisterSet(tt.Elem)
	}
}

func registerFromStmts(r *Registry, stmts []core.Stmt) {
	for _, s := range stmts {
		switch st := s.(type) {
		case *core.VarDecl:
			if st.Init != nil {
				registerType(r, st.Init.ResolvedType())
			}
		case *core.Assign:
			registerType(r, st.Target.ResolvedType())
		case *core.If:
			registerFromStmts(r, st.Then)
			registerFromStmts(r, st.Else)
		case *core.While:
			registerFromStmts(r, st.Body)
		case *core.ForRange:
			registerFromStmts(r, st.Body)
		case *core.ForContainer:
			registerType(r, st.ElemType)
			registerFromStmts(r, st.Body)
		}
	}
}
