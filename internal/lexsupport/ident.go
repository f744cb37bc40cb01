// Package lexsupport holds the one piece of lexical policy this module
// owns directly even though tokenization itself is an external
// collaborator's job (spec.md §6 "External interfaces"): identifier
// *comparison*. Two source identifiers typed with different Unicode
// normalization forms (e.g. an accented letter as one composed rune versus
// a base letter plus a combining mark) must compare equal wherever the
// environment looks one up, since that's a typechecker/env concern, not a
// tokenizer one.
package lexsupport

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeIdent returns s in Unicode Normalization Form C, the form every
// name should be put in before it is inserted into or looked up in a
// types.Env. Desugarer and parser collaborators that hand the core an
// ast.Identifier are expected to have already normalized it; this is the
// single place that policy is implemented so it isn't duplicated at every
// call site.
func NormalizeIdent(s string) string {
	return norm.NFC.String(s)
}

// IsValidIdent reports whether s matches spec.md §6's identifier grammar,
// `[letter_][letter_digit]*`, where "letter" is any Unicode letter. s is
// normalized first so that composed and decomposed spellings of the same
// name are judged identically.
func IsValidIdent(s string) bool {
	s = NormalizeIdent(s)
	if s == "" {
		return false
	}
	first := true
	for _, r := range s {
		if first {
			first = false
			if !isIdentStart(r) {
				return false
			}
			continue
		}
		if !isIdentCont(r) {
			return false
		}
	}
	return true
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentCont(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
