package ml

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tokenPattern matches runs of two or more word characters, the Unicode
// equivalent of scikit-learn's default token pattern \b\w\w+\b.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Accent stripping modes, named as in scikit-learn's strip_accents.
const (
	StripAccentsNone    = ""
	StripAccentsUnicode = "unicode"
	StripAccentsASCII   = "ascii"
)

// textOptions control preprocessing before tokenization. The zero value
// leaves the text untouched.
type textOptions struct {
	lowercase    bool
	normalize    bool
	stripAccents string
}

// preprocess prepares text the way the vectorizer was fitted: optional
// NFKC normalization, optional accent stripping, then simple Unicode
// lowercasing. Lowercasing never folds, so "ß" stays "ß".
// Transformers are created per call since they are stateful.
func preprocess(text string, opts textOptions) string {
	if opts.normalize {
		text = norm.NFKC.String(text)
	}
	switch opts.stripAccents {
	case StripAccentsUnicode:
		text = removeRunes(text, runes.In(unicode.Mn))
	case StripAccentsASCII:
		text = removeRunes(text, runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII }))
	}
	if opts.lowercase {
		text = cases.Lower(language.Und).String(text)
	}
	return text
}

// removeRunes decomposes text with NFKD and drops the runes in set.
func removeRunes(text string, set runes.Set) string {
	out, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(set)), text)
	if err != nil {
		return text
	}
	return out
}

func tokenize(text string, stopWords map[string]struct{}) []string {
	tokens := tokenPattern.FindAllString(text, -1)
	if len(stopWords) == 0 {
		return tokens
	}
	kept := tokens[:0]
	for _, tok := range tokens {
		if _, stop := stopWords[tok]; !stop {
			kept = append(kept, tok)
		}
	}
	return kept
}

// ngrams returns the word n-grams of tokens for n in [minN, maxN],
// shortest first, each level in text order.
func ngrams(tokens []string, minN, maxN int) []string {
	if maxN == 1 {
		return tokens
	}
	out := make([]string, 0, len(tokens)*(maxN-minN+1))
	for n := minN; n <= maxN; n++ {
		if n == 1 {
			out = append(out, tokens...)
			continue
		}
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}
