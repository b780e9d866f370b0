package processor

import (
	"regexp"
	"strings"
	"unicode"
)

// StopWordSet holds normalized (lowercase) terms dropped during tokenization.
type StopWordSet map[string]struct{}

func NewStopWordSet(words ...string) StopWordSet {
	set := make(StopWordSet, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

func (s StopWordSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Merge returns a new set with the words of both sets.
func (s StopWordSet) Merge(other StopWordSet) StopWordSet {
	merged := make(StopWordSet, len(s)+len(other))
	for w := range s {
		merged[w] = struct{}{}
	}
	for w := range other {
		merged[w] = struct{}{}
	}
	return merged
}

type ProcessorConfig struct {
	MinTokenLength  int
	RemoveStopwords bool
	// Stopwords replaces the English list when non-nil.
	Stopwords       StopWordSet
	CustomStopwords []string
}

type Processor struct {
	config    ProcessorConfig
	stopwords StopWordSet
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.MinTokenLength == 0 {
		config.MinTokenLength = 2
	}

	var stopwords StopWordSet
	if config.RemoveStopwords {
		stopwords = config.Stopwords
		if stopwords == nil {
			stopwords = EnglishStopWords()
		}
		if len(config.CustomStopwords) > 0 {
			stopwords = stopwords.Merge(NewStopWordSet(config.CustomStopwords...))
		}
	}

	return Processor{
		config:    config,
		stopwords: stopwords,
	}
}

// Tokenize splits text on whitespace, strips punctuation from token boundaries,
// lowercases, and drops short tokens and stop words.
func (p Processor) Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, unicode.IsSpace)
	tokens := make([]string, 0, len(fields))

	for _, field := range fields {
		token := strings.ToLower(strings.TrimFunc(field, isBoundary))
		if len([]rune(token)) < p.config.MinTokenLength {
			continue
		}
		if p.stopwords.Contains(token) {
			continue
		}
		tokens = append(tokens, token)
	}

	return tokens
}

func isBoundary(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// CleanText strips HTML tags and collapses whitespace. It does not lowercase.
func CleanText(text string) string {
	text = tagPattern.ReplaceAllString(text, " ")

	// Replace multiple spaces with single space
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}

// EnglishStopWords returns a fresh copy of the default English stop-word list.
func EnglishStopWords() StopWordSet {
	return NewStopWordSet(englishStopwords...)
}

var englishStopwords = []string{
	"a", "about", "above", "after", "again", "against", "all", "almost", "also", "am",
	"among", "an", "and", "any", "are", "as", "at", "be", "became", "because", "been",
	"before", "being", "below", "between", "both", "but", "by", "can", "cannot", "could",
	"did", "do", "does", "doing", "down", "during", "each", "either", "else", "ever",
	"every", "few", "for", "from", "further", "had", "has", "have", "having", "he", "her",
	"here", "hers", "herself", "him", "himself", "his", "how", "however", "i", "if", "in",
	"into", "is", "it", "its", "itself", "just", "last", "least", "less", "many", "may",
	"me", "might", "more", "most", "much", "must", "my", "myself", "neither", "never",
	"new", "no", "nor", "not", "now", "of", "off", "often", "on", "once", "one", "only",
	"or", "other", "our", "ours", "ourselves", "out", "over", "own", "per", "rather",
	"said", "same", "says", "she", "should", "since", "so", "some", "still", "such",
	"than", "that", "the", "their", "theirs", "them", "themselves", "then", "there",
	"these", "they", "this", "those", "through", "thus", "to", "too", "under", "until",
	"up", "upon", "us", "very", "was", "we", "were", "what", "when", "where", "whether",
	"which", "while", "who", "whom", "whose", "why", "will", "with", "within", "without",
	"would", "yet", "you", "your", "yours", "yourself", "yourselves",
}
