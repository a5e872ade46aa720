package errors

import "testing"

func TestIsHardErrorClassifiesKnownCodes(t *testing.T) {
	hard := []string{PAR001, PAR002, PAR003, PAR004, PAR005, SUB001, SUB002, TYP001, TYP002, TYP003, TYP004, IR001, IR002, EMT001}
	for _, code := range hard {
		if !IsHardError(code) {
			t.Errorf("expected %s classified as a hard error", code)
		}
	}

	soft := []string{BND001, VER001, VER002, EMT002}
	for _, code := range soft {
		if IsHardError(code) {
			t.Errorf("expected %s classified as a soft issue, not a hard error", code)
		}
	}
}

func TestIsHardErrorRejectsUnknownCode(t *testing.T) {
	if IsHardError("RUNTIME") {
		t.Error("an unclassified code should not be a hard error by table lookup")
	}
	if IsHardError("") {
		t.Error("an empty code should not be a hard error")
	}
}
