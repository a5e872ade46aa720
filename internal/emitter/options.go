package emitter

// BracePlacement selects where a block's opening brace lands.
type BracePlacement int

const (
	BraceAttach   BracePlacement = iota // `if (x) {`
	BraceNextLine                       // `if (x)\n{`
)

// PointerAlignment selects where `*` attaches in a declaration.
type PointerAlignment int

const (
	PointerLeft   PointerAlignment = iota // `int* p`
	PointerMiddle                         // `int * p`
	PointerRight                          // `int *p`
)

// Options are the style knobs spec.md §4.8 enumerates.
type Options struct {
	Brace       BracePlacement
	IndentWidth int // >= 1
	Pointer     PointerAlignment
	// QualifierOrder is a permutation of {"const", "volatile", "type"}
	// fixing the emission order of a declaration's qualifiers relative
	// to its base type.
	QualifierOrder []string
	// HPCLEnabled controls whether container operations lower through
	// the HPCL registry (spec.md §6's hpcl.enabled option). When false,
	// containerRef always misses and every container op falls back to
	// its plain-C stub form (array subscript, dotted method call).
	HPCLEnabled bool
}

// DefaultOptions mirrors original_source/src/cgen/generator/core.py's
// StyleOptions defaults (SPEC_FULL.md §12): attached braces, 4-space
// indent, left-aligned pointers.
func DefaultOptions() Options {
	return Options{
		Brace:          BraceAttach,
		IndentWidth:    4,
		Pointer:        PointerLeft,
		QualifierOrder: []string{"const", "volatile", "type"},
		HPCLEnabled:    true,
	}
}
