// Package retrieval implements lexical FAQ retrieval: stop-word
// tokenization, Jaccard scoring, and top-K ranking over the live corpus.
package retrieval

import (
	"strings"
	"unicode"
)

// stopWords are discarded during tokenization: articles, prepositions,
// common auxiliaries, question words, and pronouns.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "in": {}, "on": {}, "at": {}, "to": {},
	"from": {}, "for": {}, "and": {}, "or": {}, "of": {}, "is": {},
	"are": {}, "was": {}, "were": {}, "be": {}, "with": {}, "as": {},
	"by": {}, "it": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"i": {}, "you": {}, "we": {}, "they": {}, "me": {}, "my": {},
	"your": {}, "our": {}, "their": {}, "do": {}, "does": {}, "did": {},
	"can": {}, "how": {}, "what": {}, "where": {}, "when": {}, "why": {},
}

// Tokenize lower-cases the input, splits on every non-letter/non-digit
// rune, and drops stop words. It returns the set of significant terms;
// empty or all-stop-word input yields an empty set, never an error.
// No stemming is performed.
func Tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	terms := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		terms[f] = struct{}{}
	}
	return terms
}
