package vectorizer

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/topics/internal/models"
	"github.com/xhad/topics/pkg/processor"
	"gonum.org/v1/gonum/mat"
)

func permissive() Options {
	return Options{
		MaxDocumentFrequencyRatio: 1.0,
		MinDocumentFrequencyCount: 1,
	}
}

func TestVectorize(t *testing.T) {
	docs := []string{"alpha beta", "alpha gamma", "delta epsilon"}

	res, err := Vectorize(docs, permissive())
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta", "delta", "epsilon", "gamma"}, res.Vocabulary.Terms())
	assert.Equal(t, 2, res.Vocabulary.DocumentFrequency(0))

	r, c := res.Matrix.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 5, c)

	common := math.Log(3.0/2.0) + 1
	rare := math.Log(3.0) + 1
	assert.InDelta(t, common, res.Vocabulary.IDF(0), 1e-12)
	assert.InDelta(t, common, res.Matrix.At(0, 0), 1e-12)
	assert.InDelta(t, rare, res.Matrix.At(0, 1), 1e-12)
	assert.Zero(t, res.Matrix.At(0, 2))
	assert.InDelta(t, rare, res.Matrix.At(1, 4), 1e-12)
	assert.Equal(t, []int{2, 2, 2}, res.Tokens)
}

func TestVectorize_L2Normalize(t *testing.T) {
	opts := permissive()
	opts.L2Normalize = true
	opts.StopWords = processor.EnglishStopWords()

	res, err := Vectorize([]string{"alpha beta beta", "alpha gamma", "the of and"}, opts)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		assert.InDelta(t, 1.0, res.Matrix.Row(i).SquaredNorm(), 1e-12)
	}
	assert.Equal(t, 0, res.Matrix.Row(2).Nnz())
	assert.Equal(t, []int{2}, res.ZeroRows())
}

func TestVectorize_NormalizeTermFrequency(t *testing.T) {
	opts := permissive()
	opts.NormalizeTermFrequency = true

	res, err := Vectorize([]string{"alpha alpha beta beta", "gamma"}, opts)
	require.NoError(t, err)

	idf := math.Log(2.0) + 1
	assert.InDelta(t, 0.5*idf, res.Matrix.At(0, 0), 1e-12)
	assert.InDelta(t, idf, res.Matrix.At(1, 2), 1e-12)
}

func TestVectorize_DocumentFrequencyFilter(t *testing.T) {
	docs := []string{
		"market stocks rally",
		"market stocks fall",
		"market election vote",
		"market election debate",
	}

	res, err := Vectorize(docs, Options{MaxDocumentFrequencyRatio: 0.5, MinDocumentFrequencyCount: 2})
	require.NoError(t, err)

	// "market" is in every document, the single-use words are too rare.
	assert.Equal(t, []string{"election", "stocks"}, res.Vocabulary.Terms())
	_, ok := res.Vocabulary.Index("market")
	assert.False(t, ok)
}

func TestVectorize_PermutationInvariance(t *testing.T) {
	docs := []string{"alpha beta", "alpha gamma", "delta epsilon", "beta delta"}
	perm := []int{3, 1, 0, 2}
	shuffled := make([]string, len(docs))
	for i, p := range perm {
		shuffled[i] = docs[p]
	}

	a, err := Vectorize(docs, permissive())
	require.NoError(t, err)
	b, err := Vectorize(shuffled, permissive())
	require.NoError(t, err)

	assert.Equal(t, a.Vocabulary.Terms(), b.Vocabulary.Terms())
	for i, p := range perm {
		assert.Equal(t, a.Matrix.Row(p), b.Matrix.Row(i))
	}
}

func TestVectorize_Errors(t *testing.T) {
	tests := []struct {
		name   string
		docs   []string
		opts   Options
		target error
	}{
		{"empty corpus", nil, permissive(), models.ErrEmptyCorpus},
		{"zero ratio", []string{"a b"}, Options{MaxDocumentFrequencyRatio: 0, MinDocumentFrequencyCount: 1}, models.ErrConfiguration},
		{"ratio above one", []string{"a b"}, Options{MaxDocumentFrequencyRatio: 1.5, MinDocumentFrequencyCount: 1}, models.ErrConfiguration},
		{"zero minimum", []string{"a b"}, Options{MaxDocumentFrequencyRatio: 1, MinDocumentFrequencyCount: 0}, models.ErrConfiguration},
		{"minimum above maximum", []string{"aa", "bb", "cc"}, Options{MaxDocumentFrequencyRatio: 0.5, MinDocumentFrequencyCount: 3}, models.ErrConfiguration},
		{
			"only stop words",
			[]string{"the and", "of it"},
			Options{MaxDocumentFrequencyRatio: 1, MinDocumentFrequencyCount: 1, StopWords: processor.EnglishStopWords()},
			models.ErrEmptyCorpus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Vectorize(tt.docs, tt.opts)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestTermMatrix_Gonum(t *testing.T) {
	m := NewTermMatrix([]Row{
		{Indices: []int{0, 2}, Values: []float64{1, 3}},
		{},
	}, 3)

	dense := mat.DenseCopyOf(m)
	assert.Equal(t, []float64{1, 0, 3, 0, 0, 0}, dense.RawMatrix().Data)

	tr := m.T()
	r, c := tr.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 3.0, tr.At(2, 0))

	var seen []int
	m.DoRowNonZero(0, func(i, j int, v float64) { seen = append(seen, j) })
	assert.Equal(t, []int{0, 2}, seen)
	assert.Equal(t, 2, m.Nnz())
	assert.Equal(t, []float64{1, 0, 3}, m.Dense(0))

	assert.Panics(t, func() { m.At(0, 3) })
}
