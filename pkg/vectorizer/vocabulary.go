package vectorizer

// Vocabulary maps retained terms to stable column indices. It is immutable.
type Vocabulary struct {
	terms []string
	index map[string]int
	df    []int
	idf   []float64
}

func (v *Vocabulary) Len() int { return len(v.terms) }

// Index returns the column of term.
func (v *Vocabulary) Index(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}

// Term returns the term at column i, or "" when i is out of range.
func (v *Vocabulary) Term(i int) string {
	if i < 0 || i >= len(v.terms) {
		return ""
	}
	return v.terms[i]
}

// Terms returns a copy of the terms in column order.
func (v *Vocabulary) Terms() []string {
	return append([]string(nil), v.terms...)
}

// DocumentFrequency returns how many documents contain the term at column i.
func (v *Vocabulary) DocumentFrequency(i int) int { return v.df[i] }

func (v *Vocabulary) IDF(i int) float64 { return v.idf[i] }
