package lexer

import (
	"bytes"
	"testing"

	"golang.org/x/text/unicode/norm"
)

func TestNormalizeStripsBOM(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected []byte
	}{
		{name: "with_bom", input: append(append([]byte{}, bomUTF8...), "x = 1"...), expected: []byte("x = 1")},
		{name: "without_bom", input: []byte("x = 1"), expected: []byte("x = 1")},
		{name: "empty_with_bom", input: bomUTF8, expected: []byte{}},
		{name: "empty", input: []byte{}, expected: []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.input)
			if !bytes.Equal(result, tt.expected) {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestNormalizeCollapsesLineEndings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "crlf", input: "x = 1\r\ny = 2\r\n", expected: "x = 1\ny = 2\n"},
		{name: "lone_cr", input: "x = 1\ry = 2\r", expected: "x = 1\ny = 2\n"},
		{name: "lf_unchanged", input: "x = 1\ny = 2\n", expected: "x = 1\ny = 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := string(Normalize([]byte(tt.input)))
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestNormalizeNFC(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "already_nfc", input: "café", expected: "café"},
		{name: "nfd_to_nfc", input: "café", expected: "café"},
		{name: "ascii_unchanged", input: "hello world", expected: "hello world"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := string(Normalize([]byte(tt.input)))
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
			if !norm.NFC.IsNormalString(result) {
				t.Errorf("result is not in NFC form")
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"x = 1\n",
		"café\r\n",
		"café\r\n",
		"\xef\xbb\xbfx = 1\r\n",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			first := Normalize([]byte(input))
			second := Normalize(first)
			if !bytes.Equal(first, second) {
				t.Errorf("Normalize is not idempotent: first=%q, second=%q", first, second)
			}
		})
	}
}

// TestNormalizeBlankCRLFLineDoesNotIndent exercises the motivating case
// for the CRLF rewrite: a blank line made of only spaces before a CRLF
// must not register as an indented line once Lexer sees it, since
// handleLineStart's blank-line check looks only for a trailing '\n'.
func TestNormalizeBlankCRLFLineDoesNotIndent(t *testing.T) {
	src := "def f() -> int:\n    x = 1\n    \r\n    return x\n"
	normalized := Normalize([]byte(src))
	l := New(string(normalized), "test.py")

	var kinds []Kind
	for {
		tok := l.NextToken()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == EOF {
			break
		}
	}

	indents := 0
	for _, k := range kinds {
		if k == INDENT {
			indents++
		}
	}
	if indents != 1 {
		t.Errorf("expected exactly one INDENT (the function body), got %d across %v", indents, kinds)
	}
}

func TestNormalizeDeterminism(t *testing.T) {
	input := []byte("\xef\xbb\xbfcafé\r\n")
	baseline := Normalize(input)
	for i := 0; i < 20; i++ {
		result := Normalize(input)
		if !bytes.Equal(result, baseline) {
			t.Errorf("iteration %d produced different output", i)
		}
	}
}
