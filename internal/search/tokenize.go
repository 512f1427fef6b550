package search

import (
	"regexp"
	"strings"
)

// wordRE matches runs of letters optionally followed by digits, which keeps
// tokens like "web3" intact while dropping punctuation.
var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

// Tokenize lowercases s and returns its unique word tokens, minus any
// stop-words. The result is a set; token order and multiplicity are
// irrelevant to Jaccard scoring.
func Tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = strings.ToLower(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

// overlap counts tokens common to both sets, iterating the smaller one.
func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
