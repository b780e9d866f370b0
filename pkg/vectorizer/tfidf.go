// Package vectorizer turns raw document strings into a TF-IDF weighted sparse term matrix.
package vectorizer

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/xhad/topics/internal/models"
	"github.com/xhad/topics/pkg/processor"
)

type Options struct {
	// MaxDocumentFrequencyRatio drops terms found in more than ratio*N documents.
	MaxDocumentFrequencyRatio float64
	// MinDocumentFrequencyCount drops terms found in fewer documents.
	MinDocumentFrequencyCount int
	// StopWords are removed before counting. Nil disables stop-word removal.
	StopWords processor.StopWordSet
	// MinTokenLength defaults to 2.
	MinTokenLength int
	// NormalizeTermFrequency divides raw counts by the document token length.
	NormalizeTermFrequency bool
	// L2Normalize scales every non-zero row to unit length.
	L2Normalize bool
}

func DefaultOptions() Options {
	return Options{
		MaxDocumentFrequencyRatio: 0.5,
		MinDocumentFrequencyCount: 2,
		StopWords:                 processor.EnglishStopWords(),
		MinTokenLength:            2,
		L2Normalize:               true,
	}
}

// Result is the vectorizer output: one matrix row per input document.
type Result struct {
	Matrix     *TermMatrix
	Vocabulary *Vocabulary
	// Tokens is the number of tokens kept per document after stop-word removal.
	Tokens []int
}

// ZeroRows returns the indices of documents without any retained term.
func (r *Result) ZeroRows() []int {
	var zero []int
	n, _ := r.Matrix.Dims()
	for i := 0; i < n; i++ {
		if r.Matrix.Row(i).Nnz() == 0 {
			zero = append(zero, i)
		}
	}
	return zero
}

func (o Options) validate(n int) error {
	if math.IsNaN(o.MaxDocumentFrequencyRatio) || o.MaxDocumentFrequencyRatio <= 0 || o.MaxDocumentFrequencyRatio > 1 {
		return &models.ConfigurationError{
			Field:   "max_document_frequency_ratio",
			Message: fmt.Sprintf("must be in (0, 1], got %v", o.MaxDocumentFrequencyRatio),
		}
	}
	if o.MinDocumentFrequencyCount < 1 {
		return &models.ConfigurationError{
			Field:   "min_document_frequency_count",
			Message: fmt.Sprintf("must be at least 1, got %d", o.MinDocumentFrequencyCount),
		}
	}
	if o.MinTokenLength < 0 {
		return &models.ConfigurationError{
			Field:   "min_token_length",
			Message: "must not be negative",
		}
	}
	maxDF := o.MaxDocumentFrequencyRatio * float64(n)
	if float64(o.MinDocumentFrequencyCount) > maxDF {
		return &models.ConfigurationError{
			Field: "min_document_frequency_count",
			Message: fmt.Sprintf("minimum %d exceeds maximum %.2f (ratio %v of %d documents)",
				o.MinDocumentFrequencyCount, maxDF, o.MaxDocumentFrequencyRatio, n),
		}
	}
	return nil
}

// Vectorize builds the vocabulary and the TF-IDF matrix for docs.
// Documents keep their order: row i is docs[i].
func Vectorize(docs []string, opts Options) (*Result, error) {
	n := len(docs)
	if n == 0 {
		return nil, &models.EmptyCorpusError{Reason: "no documents to vectorize"}
	}
	if err := opts.validate(n); err != nil {
		return nil, err
	}

	p := processor.NewWithConfig(processor.ProcessorConfig{
		MinTokenLength:  opts.MinTokenLength,
		RemoveStopwords: opts.StopWords != nil,
		Stopwords:       opts.StopWords,
	})

	tokenized := make([][]string, n)
	df := make(map[string]int)
	for i, doc := range docs {
		tokens := p.Tokenize(doc)
		tokenized[i] = tokens

		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	maxDF := opts.MaxDocumentFrequencyRatio * float64(n)
	terms := make([]string, 0, len(df))
	for term, count := range df {
		if count >= opts.MinDocumentFrequencyCount && float64(count) <= maxDF {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return nil, &models.EmptyCorpusError{
			Reason: fmt.Sprintf("no terms retained from %d candidate terms across %d documents", len(df), n),
		}
	}
	sort.Strings(terms)

	vocab := &Vocabulary{
		terms: terms,
		index: make(map[string]int, len(terms)),
		df:    make([]int, len(terms)),
		idf:   make([]float64, len(terms)),
	}
	for i, term := range terms {
		vocab.index[term] = i
		vocab.df[i] = df[term]
		vocab.idf[i] = math.Log(float64(n)/float64(df[term])) + 1
	}

	rows := make([]Row, n)
	lengths := make([]int, n)
	for i, tokens := range tokenized {
		lengths[i] = len(tokens)

		counts := make(map[int]int)
		for _, tok := range tokens {
			if j, ok := vocab.index[tok]; ok {
				counts[j]++
			}
		}

		row := Row{
			Indices: make([]int, 0, len(counts)),
			Values:  make([]float64, 0, len(counts)),
		}
		for j := range counts {
			row.Indices = append(row.Indices, j)
		}
		sort.Ints(row.Indices)

		for _, j := range row.Indices {
			tf := float64(counts[j])
			if opts.NormalizeTermFrequency {
				tf /= float64(len(tokens))
			}
			w := tf * vocab.idf[j]
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, &models.NumericError{
					Stage:  "vectorize",
					Detail: fmt.Sprintf("weight of %q in document %d is %v", terms[j], i, w),
				}
			}
			row.Values = append(row.Values, w)
		}

		if opts.L2Normalize {
			normalizeL2(row)
		}
		rows[i] = row
	}

	matrix := &TermMatrix{rows: rows, cols: len(terms)}

	log.Debug().
		Int("documents", n).
		Int("candidate_terms", len(df)).
		Int("vocabulary", len(terms)).
		Int("nnz", matrix.Nnz()).
		Msg("Vectorized corpus")

	return &Result{Matrix: matrix, Vocabulary: vocab, Tokens: lengths}, nil
}
