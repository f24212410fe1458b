// Package validation holds small input checks shared by the apps.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	separatorsRe = regexp.MustCompile(`[\s\-.]+`)
	invalidRe    = regexp.MustCompile(`[^a-z0-9_]`)
)

// MaxIdentifierLength is the shortest limit across the supported databases (postgres).
const MaxIdentifierLength = 63

// IsIdentifier reports whether s is a plain SQL identifier: a letter or
// underscore followed by letters, digits or underscores.
func IsIdentifier(s string) bool {
	return len(s) <= MaxIdentifierLength && identifierRe.MatchString(s)
}

// DatabaseName normalizes a user supplied database name into a safe
// identifier: lower case, separators folded into underscores, anything else
// dropped. It fails when nothing usable is left.
func DatabaseName(s string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = removeAccents(name)
	name = separatorsRe.ReplaceAllString(name, "_")
	name = invalidRe.ReplaceAllString(name, "")
	name = strings.Trim(name, "_")

	if name == "" {
		return "", fmt.Errorf("database name %q has no usable characters", s)
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "db_" + name
	}
	if len(name) > MaxIdentifierLength {
		name = name[:MaxIdentifierLength]
	}
	return name, nil
}

// foldAccents strips combining marks: "crème" becomes "creme".
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func removeAccents(s string) string {
	out, _, err := transform.String(foldAccents, s)
	if err != nil {
		return s
	}
	return out
}
