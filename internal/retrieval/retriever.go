package retrieval

import (
	"sort"
	"strings"

	"lms-chatbot/internal/domain"
)

// DefaultTopK is the number of candidates returned when the caller does
// not ask for a specific count.
const DefaultTopK = 3

// Result pairs a FAQ entry with its similarity score for one query.
// Results are ephemeral; they are computed per request and never stored.
type Result struct {
	Entry domain.FaqEntry
	Score float64
}

// Corpus supplies the live FAQ snapshot to rank against.
type Corpus interface {
	Entries() []domain.FaqEntry
}

// Retriever ranks FAQ entries against queries. Ranking is a linear scan
// over the corpus; the set is small and curated, so no index is kept.
type Retriever struct {
	corpus Corpus
}

// NewRetriever creates a Retriever over the given corpus.
func NewRetriever(corpus Corpus) *Retriever {
	return &Retriever{corpus: corpus}
}

// Score computes the Jaccard index between the query's term set and the
// entry's combined question+tags term set. Answer text is deliberately
// excluded so the score reflects question-intent overlap, not answer
// content. Either side empty yields 0.0. Scores are always in [0,1];
// the normalization keeps them comparable across entries of different
// lengths. There is no partial credit for synonyms or substrings.
func Score(query string, entry domain.FaqEntry) float64 {
	return scoreTerms(Tokenize(query), entry)
}

func scoreTerms(queryTerms map[string]struct{}, entry domain.FaqEntry) float64 {
	if len(queryTerms) == 0 {
		return 0.0
	}
	candidate := entry.Question + " " + strings.Join(entry.Tags, " ")
	entryTerms := Tokenize(candidate)
	if len(entryTerms) == 0 {
		return 0.0
	}

	inter := 0
	for term := range queryTerms {
		if _, ok := entryTerms[term]; ok {
			inter++
		}
	}
	union := len(queryTerms) + len(entryTerms) - inter
	return float64(inter) / float64(union)
}

// TopMatches scores every entry against the query and returns the k
// best, sorted by score descending with ties kept in corpus order. A
// non-positive k falls back to DefaultTopK. An empty corpus returns an
// empty slice, never an error.
func (r *Retriever) TopMatches(query string, k int) []Result {
	if k <= 0 {
		k = DefaultTopK
	}

	queryTerms := Tokenize(query)
	entries := r.corpus.Entries()

	results := make([]Result, 0, len(entries))
	for _, entry := range entries {
		results = append(results, Result{
			Entry: entry,
			Score: scoreTerms(queryTerms, entry),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}
