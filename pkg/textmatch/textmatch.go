// Package textmatch normalises human-entered names and scores how alike two
// names are.
package textmatch

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agext/levenshtein"
	"golang.org/x/text/unicode/norm"
)

const (
	// ContainmentScore is returned when one normalised name contains the other.
	// It is a fixed heuristic, not an edit-distance ratio.
	ContainmentScore = 0.9
)

// Fold strips diacritics from Latin letters ("Café" -> "Cafe"). Marks on
// other scripts are kept: they change the letter (バ is not ハ).
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	latinBase := false
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			if latinBase {
				continue
			}
		} else {
			latinBase = unicode.Is(unicode.Latin, r)
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

// Normalize lowercases s, folds Latin diacritics, drops everything except
// letters, digits and combining marks, then collapses and trims whitespace.
// Letters of any script are kept so non-Latin names never normalise to "".
func Normalize(s string) string {
	n := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r):
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, strings.ToLower(Fold(s)))
	return strings.Join(strings.Fields(n), " ")
}

// Similarity scores two names in [0, 1]. Exact normalised equality is 1,
// containment of one in the other is ContainmentScore, anything else is
// 1 - levenshtein/maxLen.
func Similarity(s1, s2 string) float64 {
	n1 := Normalize(s1)
	n2 := Normalize(s2)

	if n1 == n2 {
		return 1.0
	}
	if n1 == "" || n2 == "" {
		return 0.0
	}
	if strings.Contains(n1, n2) || strings.Contains(n2, n1) {
		return ContainmentScore
	}

	// levenshtein counts runes, so the ratio does too.
	maxLen := max(utf8.RuneCountInString(n1), utf8.RuneCountInString(n2))
	dist := levenshtein.Distance(n1, n2, nil)
	return 1 - float64(dist)/float64(maxLen)
}
