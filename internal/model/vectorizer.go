package model

import (
	"math"
	"sort"
	"strings"
)

// DefaultMaxFeatures caps the TF-IDF vocabulary at the highest
// corpus-frequency terms.
const DefaultMaxFeatures = 5000

// minTokenLength drops single-letter fragments left over after
// normalization; they are never discriminative.
const minTokenLength = 2

// Vectorizer is a fitted TF-IDF transform: a token vocabulary with per
// token inverse-document-frequency weights. Vocabulary selection is
// driven solely by training-corpus frequency, so fitting the same
// corpus twice yields byte-identical state.
type Vectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"` // token -> feature index
	IDF        []float64      `json:"idf"`        // by feature index
	Documents  int            `json:"documents"`  // corpus size at fit time
}

// feature is one non-zero entry of a document vector.
type feature struct {
	index int
	value float64
}

// docVector is a sparse, L2-normalized document representation with
// entries ordered by feature index.
type docVector []feature

// tokenize splits already-normalized text into vocabulary candidates:
// whitespace fields, minus stop-words and single-letter fragments.
func tokenize(normalized string) []string {
	fields := strings.Fields(normalized)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) < minTokenLength || isStopword(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// fitVectorizer builds the vocabulary and idf weights from normalized
// training documents. The vocabulary keeps the maxFeatures terms with
// the highest total corpus count, ties broken lexicographically, and
// assigns indices in sorted token order. idf uses the smoothed form
// ln((1+n)/(1+df)) + 1 so no weight is ever zero or negative.
func fitVectorizer(docs []string, maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}

	corpusCount := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		tokens := tokenize(doc)
		inDoc := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			corpusCount[tok]++
			inDoc[tok] = struct{}{}
		}
		for tok := range inDoc {
			docFreq[tok]++
		}
	}

	terms := make([]string, 0, len(corpusCount))
	for tok := range corpusCount {
		terms = append(terms, tok)
	}
	sort.Slice(terms, func(i, j int) bool {
		ci, cj := corpusCount[terms[i]], corpusCount[terms[j]]
		if ci != cj {
			return ci > cj
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)

	v := &Vectorizer{
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
		Documents:  len(docs),
	}
	n := float64(len(docs))
	for i, tok := range terms {
		v.Vocabulary[tok] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[tok]))) + 1
	}
	return v
}

// Transform maps one normalized document into the fitted feature
// space. Tokens outside the vocabulary contribute nothing; this is the
// standard behavior for unseen terms and never errors. The result is
// L2-normalized.
func (v *Vectorizer) Transform(normalized string) docVector {
	counts := make(map[int]int)
	for _, tok := range tokenize(normalized) {
		if idx, ok := v.Vocabulary[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	vec := make(docVector, 0, len(counts))
	for idx, c := range counts {
		vec = append(vec, feature{index: idx, value: float64(c) * v.IDF[idx]})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].index < vec[j].index })

	var sq float64
	for _, f := range vec {
		sq += f.value * f.value
	}
	norm := math.Sqrt(sq)
	for i := range vec {
		vec[i].value /= norm
	}
	return vec
}

// NumFeatures returns the fitted vocabulary size.
func (v *Vectorizer) NumFeatures() int {
	return len(v.IDF)
}
