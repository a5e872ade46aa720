package errors

// SchemaV1 is the Report schema identifier embedded in every diagnostic.
const SchemaV1 = "cgen.error/v1"

// Error code constants, namespaced by translation phase (spec.md §7).
// Each maps onto one of the seven error kinds spec.md §7 enumerates:
// ParseError, UnsupportedFeature, TypeInferenceError, TypeMismatch,
// BoundsViolation, UndefinedReference, InvalidIdentifier.
const (
	// ========================================================================
	// Parser Errors (PAR###) -> ParseError
	// ========================================================================

	// PAR001 indicates an unexpected token was encountered during parsing.
	PAR001 = "PAR001"

	// PAR002 indicates a missing closing delimiter (paren, bracket, brace).
	PAR002 = "PAR002"

	// PAR003 indicates invalid function declaration syntax.
	PAR003 = "PAR003"

	// PAR004 indicates an indentation error (inconsistent INDENT/DEDENT).
	PAR004 = "PAR004"

	// PAR005 indicates invalid annotation syntax.
	PAR005 = "PAR005"

	// ========================================================================
	// Subset Validator Errors (SUB###) -> UnsupportedFeature
	// ========================================================================

	// SUB001 indicates a construct classified UNSUPPORTED_STATIC (violates
	// the static-Python rule: setattr, globals(), exec, eval, metaclasses).
	SUB001 = "SUB001"

	// SUB002 indicates a construct classified UNSUPPORTED_DYNAMIC (would
	// require a full runtime: generators, arbitrary-precision int, etc.).
	SUB002 = "SUB002"

	// ========================================================================
	// Type Inference Errors (TYP###) -> TypeInferenceError / TypeMismatch
	// ========================================================================

	// TYP001 indicates a local has no annotation and cannot be inferred.
	TYP001 = "TYP001"

	// TYP002 indicates a declared annotation contradicts inferred usage.
	TYP002 = "TYP002"

	// TYP003 indicates an operator applied to incompatible operand types.
	TYP003 = "TYP003"

	// TYP004 indicates a call to a function with a mismatched argument count or type.
	TYP004 = "TYP004"

	// ========================================================================
	// IR Builder Errors (IR###)
	// ========================================================================

	// IR001 indicates a lowering invariant was violated (internal error).
	IR001 = "IR001"

	// IR002 indicates an undefined reference: a name used but never defined
	// in the module (UndefinedReference).
	IR002 = "IR002"

	// ========================================================================
	// Bounds/Verification Errors (BND###, VER###) -> BoundsViolation
	// ========================================================================

	// BND001 indicates a provably out-of-bounds subscript access.
	BND001 = "BND001"

	// VER001 indicates the SMT backend refuted a proof obligation.
	VER001 = "VER001"

	// VER002 indicates the SMT backend timed out (result UNKNOWN).
	VER002 = "VER002"

	// ========================================================================
	// Emitter Errors (EMT###) -> InvalidIdentifier
	// ========================================================================

	// EMT001 indicates an identifier that would not be valid C.
	EMT001 = "EMT001"

	// EMT002 indicates a container type used before being registered.
	EMT002 = "EMT002"
)

// HardErrorCodes are the codes that force TranslationResult.Success=false
// per spec.md §7's propagation policy. BoundsViolation and low-confidence
// verifier results are soft issues and never appear here.
var HardErrorCodes = map[string]bool{
	PAR001: true, PAR002: true, PAR003: true, PAR004: true, PAR005: true,
	SUB001: true, SUB002: true,
	TYP001: true, TYP002: true, TYP003: true, TYP004: true,
	IR001: true, IR002: true,
	EMT001: true,
}

// IsHardError reports whether code forces translation failure.
func IsHardError(code string) bool {
	return HardErrorCodes[code]
}
