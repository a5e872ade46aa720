package emitter

import "regexp"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s is a legal C identifier (spec.md
// §4.8: "every identifier passing into emitted code is validated").
func ValidIdentifier(s string) bool {
	return identRe.MatchString(s)
}
