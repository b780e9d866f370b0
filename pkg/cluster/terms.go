package cluster

import "sort"

// TermLookup resolves a column index to its term. *vectorizer.Vocabulary satisfies it.
type TermLookup interface {
	Term(i int) string
}

// TermWeight is one column of a centroid.
type TermWeight struct {
	Term   string
	Index  int
	Weight float64
}

// TopTerms returns the n heaviest positive columns of centroid. Equal weights
// are ordered by column index.
func TopTerms(centroid []float64, vocab TermLookup, n int) []TermWeight {
	if n <= 0 {
		return nil
	}

	weights := make([]TermWeight, 0, len(centroid))
	for j, w := range centroid {
		if w > 0 {
			weights = append(weights, TermWeight{Index: j, Weight: w})
		}
	}
	sort.Slice(weights, func(a, b int) bool {
		if weights[a].Weight != weights[b].Weight {
			return weights[a].Weight > weights[b].Weight
		}
		return weights[a].Index < weights[b].Index
	})

	if len(weights) > n {
		weights = weights[:n]
	}
	for i := range weights {
		weights[i].Term = vocab.Term(weights[i].Index)
	}
	return weights
}

// TopTerms returns the top terms of cluster c.
func (r *Result) TopTerms(c int, vocab TermLookup, n int) []TermWeight {
	return TopTerms(r.Centroids[c], vocab, n)
}

// Words extracts the terms of weights in order.
func Words(weights []TermWeight) []string {
	words := make([]string, len(weights))
	for i, w := range weights {
		words[i] = w.Term
	}
	return words
}
