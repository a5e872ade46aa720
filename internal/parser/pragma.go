package parser

import (
	"regexp"
	"strings"
)

var pragmaRe = regexp.MustCompile(`^\s*#\s*@(requires|ensures|invariant):\s*(.*)$`)

// pragmas holds the @requires/@ensures/@invariant comment-pragmas
// (SPEC_FULL.md §12) extracted from raw source, keyed by the line
// number of the declaration they precede.
type pragmas struct {
	requires map[int][]string
	ensures  map[int][]string
}

// scanPragmas extracts `# @requires: expr` / `# @ensures: expr` /
// `# @invariant: expr` pragma comments and associates each run of
// consecutive pragma lines with the next non-blank, non-comment line
// (expected to be a `def`).
func scanPragmas(source string) *pragmas {
	out := &pragmas{requires: map[int][]string{}, ensures: map[int][]string{}}
	lines := strings.Split(source, "\n")

	var pendingReq, pendingEns []string
	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if m := pragmaRe.FindStringSubmatch(raw); m != nil {
			switch m[1] {
			case "requires", "invariant":
				pendingReq = append(pendingReq, strings.TrimSpace(m[2]))
			case "ensures":
				pendingEns = append(pendingEns, strings.TrimSpace(m[2]))
			}
			continue
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if len(pendingReq) > 0 || len(pendingEns) > 0 {
			lineNo := i + 1 // 1-indexed to match lexer/parser positions
			out.requires[lineNo] = pendingReq
			out.ensures[lineNo] = pendingEns
			pendingReq, pendingEns = nil, nil
		}
	}
	return out
}
