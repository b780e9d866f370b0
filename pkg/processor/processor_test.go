package processor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xhad/topics/pkg/processor"
)

func TestProcessor_Tokenize(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		RemoveStopwords: true,
		CustomStopwords: []string{"Reuters"},
	})

	tokens := p.Tokenize("The Senate passes (budget) bill, Reuters says -- \"finally\"!")

	assert.Equal(t, []string{"senate", "passes", "budget", "bill", "finally"}, tokens)
}

func TestProcessor_TokenizeKeepsInnerPunctuation(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{})

	tokens := p.Tokenize("U.S. e-mail isn't 3.5% x")

	assert.Equal(t, []string{"u.s", "e-mail", "isn't", "3.5"}, tokens)
}

func TestProcessor_TokenizeWithoutStopwords(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{RemoveStopwords: false})

	assert.Equal(t, []string{"the", "bill"}, p.Tokenize("the bill"))
}

func TestProcessor_CustomStopwordSet(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		RemoveStopwords: true,
		Stopwords:       processor.NewStopWordSet("alpha"),
	})

	assert.Equal(t, []string{"the", "beta"}, p.Tokenize("alpha the beta"))
}

func TestProcessor_AllStopwords(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{RemoveStopwords: true})

	assert.Empty(t, p.Tokenize("the and of it is"))
	assert.Empty(t, p.Tokenize("   "))
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"  multiple \n\t spaces  ", "multiple spaces"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, processor.CleanText(tt.in))
		})
	}
}

func TestStopWordSet(t *testing.T) {
	set := processor.NewStopWordSet(" The ", "", "AND")
	assert.True(t, set.Contains("the"))
	assert.True(t, set.Contains("and"))
	assert.Len(t, set, 2)

	merged := set.Merge(processor.NewStopWordSet("or"))
	assert.Len(t, merged, 3)
	assert.Len(t, set, 2)

	english := processor.EnglishStopWords()
	english["custom"] = struct{}{}
	assert.False(t, processor.EnglishStopWords().Contains("custom"))
}
