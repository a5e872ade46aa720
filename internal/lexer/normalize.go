package lexer

import (
	"bytes"

	"golang.org/x/text/unicode/norm"
)

// bomUTF8 is the UTF-8 Byte Order Mark some Python source files carry
// when saved by Windows editors.
var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// Normalize performs input normalization at the lexer boundary, before
// Lexer sees a single byte:
//  1. Strips a UTF-8 BOM if present.
//  2. Rewrites CRLF and lone CR line endings to LF.
//  3. Applies Unicode NFC normalization to identifiers and literals.
//
// Lexer's indent tracking (handleLineStart) measures leading whitespace
// per physical line and only recognizes a line as blank when it ends in
// '\n' right away; a line of only spaces followed by "\r\n" would
// otherwise look non-blank and push a spurious indent level. Collapsing
// line endings once here keeps that off-side-rule logic free of any CR
// special-casing.
//
// Examples:
//   - "café" in NFC vs NFD → identical tokens
//   - "\xef\xbb\xbfx = 1\r\n" → "x = 1\n" (BOM stripped, CRLF collapsed)
func Normalize(src []byte) []byte {
	src = bytes.TrimPrefix(src, bomUTF8)

	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	src = bytes.ReplaceAll(src, []byte("\r"), []byte("\n"))

	// IsNormal() is fast and avoids allocation if already normalized.
	if !norm.NFC.IsNormal(src) {
		src = norm.NFC.Bytes(src)
	}

	return src
}
