// Package address normalizes free-text street addresses into the canonical
// form the parcel registry stores: upper case ASCII, bare ordinals, street
// types spelled out. It is a pure text utility with no registry knowledge,
// resolution strategy lives with the caller.
package address

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	punctPattern      = regexp.MustCompile(`[.,;#]`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	// 5TH -> 5, 42ND -> 42. The registry stores bare street numbers.
	ordinalPattern = regexp.MustCompile(`\b(\d+)(?:ST|ND|RD|TH)\b`)
)

// streetTypes expand at any token position. "ST" is deliberately absent, it
// collides with Saint (ST MARKS PL) and is handled separately.
var streetTypes = map[string]string{
	"AVE":  "AVENUE",
	"AV":   "AVENUE",
	"BLVD": "BOULEVARD",
	"RD":   "ROAD",
	"PL":   "PLACE",
	"DR":   "DRIVE",
	"LN":   "LANE",
	"CT":   "COURT",
	"PKWY": "PARKWAY",
	"SQ":   "SQUARE",
	"TER":  "TERRACE",
	"TERR": "TERRACE",
	"PLZ":  "PLAZA",
	"HWY":  "HIGHWAY",
	"EXPY": "EXPRESSWAY",
}

var directions = map[string]string{
	"N": "NORTH",
	"S": "SOUTH",
	"E": "EAST",
	"W": "WEST",
}

// Normalize converts a free-text address to registry form. The chain is
// heuristic: fold diacritics, upper-case, drop punctuation, strip ordinal
// suffixes, expand abbreviations, collapse whitespace.
func Normalize(raw string) string {
	s := foldASCII(raw)
	s = strings.ToUpper(s)
	s = punctPattern.ReplaceAllString(s, " ")
	s = ordinalPattern.ReplaceAllString(s, "$1")

	tokens := strings.Fields(s)
	for i, token := range tokens {
		if expanded, ok := directions[token]; ok {
			tokens[i] = expanded
			continue
		}
		if expanded, ok := streetTypes[token]; ok {
			tokens[i] = expanded
			continue
		}
		// ST means STREET only in final position, elsewhere it is Saint
		if token == "ST" && i == len(tokens)-1 {
			tokens[i] = "STREET"
		}
	}

	return strings.Join(tokens, " ")
}

// Shorten reduces a normalized address to its leading street number plus the
// first two street-name tokens. Used as a coarser retry query when the full
// address finds nothing.
func Shorten(normalized string) string {
	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return ""
	}

	keep := 2
	if isNumericToken(tokens[0]) {
		// number plus two name tokens
		keep = 3
	}
	if keep > len(tokens) {
		keep = len(tokens)
	}
	return strings.Join(tokens[:keep], " ")
}

// StreetNumber returns the leading house-number token of a normalized
// address, or "" when the address does not start with one.
func StreetNumber(normalized string) string {
	tokens := strings.Fields(normalized)
	if len(tokens) == 0 || !isNumericToken(tokens[0]) {
		return ""
	}
	return tokens[0]
}

// foldASCII strips diacritics so "Café" matches the registry's "CAFE".
func foldASCII(s string) string {
	// The transformer chain carries internal state, build per call for
	// concurrent use.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

func isNumericToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			// allow hyphenated Queens house numbers like 41-17
			if r != '-' {
				return false
			}
		}
	}
	return true
}
