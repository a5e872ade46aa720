package ast

import (
	"fmt"
	"strings"
)

// Print renders a Module as an indented debug tree, for tests that
// check parser/IR-builder determinism (spec.md §8).
func Print(m *Module) string {
	var b strings.Builder
	for _, d := range m.Decls {
		printDecl(&b, d, 0)
	}
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
}

func printDecl(b *strings.Builder, d Decl, depth int) {
	indent(b, depth)
	switch decl := d.(type) {
	case *FuncDecl:
		fmt.Fprintf(b, "FuncDecl %s\n", decl.Name)
		for _, s := range decl.Body {
			printStmt(b, s, depth+1)
		}
	case *StructDecl:
		fmt.Fprintf(b, "StructDecl %s\n", decl.Name)
		for _, f := range decl.Fields {
			indent(b, depth+1)
			fmt.Fprintf(b, "Field %s: %s\n", f.Name, f.Annotation)
		}
	case *GlobalDecl:
		fmt.Fprintf(b, "GlobalDecl %s\n", decl.String())
	default:
		fmt.Fprintf(b, "%s\n", d.String())
	}
}

func printStmt(b *strings.Builder, s Stmt, depth int) {
	indent(b, depth)
	switch stmt := s.(type) {
	case *IfStmt:
		fmt.Fprintf(b, "If %s\n", stmt.Cond)
		for _, th := range stmt.Then {
			printStmt(b, th, depth+1)
		}
		if len(stmt.Else) > 0 {
			indent(b, depth)
			b.WriteString("Else\n")
			for _, el := range stmt.Else {
				printStmt(b, el, depth+1)
			}
		}
	case *WhileStmt:
		fmt.Fprintf(b, "While %s\n", stmt.Cond)
		for _, st := range stmt.Body {
			printStmt(b, st, depth+1)
		}
	case *ForRangeStmt:
		fmt.Fprintf(b, "ForRange %s\n", stmt.Var)
		for _, st := range stmt.Body {
			printStmt(b, st, depth+1)
		}
	case *ForContainerStmt:
		fmt.Fprintf(b, "ForContainer %s in %s\n", stmt.Var, stmt.Container)
		for _, st := range stmt.Body {
			printStmt(b, st, depth+1)
		}
	default:
		fmt.Fprintf(b, "%s\n", s.String())
	}
}
