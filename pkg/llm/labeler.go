package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// LabelerConfig represents the configuration for a topic labeler.
type LabelerConfig struct {
	Model          string
	Temperature    *float64 // nil means 0.2
	MaxTokens      int
	MaxWords       int
	SystemTemplate string
	PromptTemplate string
	BaseURL        string // Ollama server URL
}

// Labeler names a cluster from its top terms and a few member headlines.
type Labeler struct {
	config LabelerConfig
	llm    llms.Model
}

var ErrEmptyLabel = errors.New("llm returned an empty label")

func applyDefaults(config LabelerConfig) (LabelerConfig, error) {
	if config.Model == "" {
		config.Model = "mistral" // Default Ollama model
	}
	if config.Temperature == nil {
		temperature := 0.2
		config.Temperature = &temperature
	} else if t := *config.Temperature; t < 0 || t > 1 {
		return config, fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return config, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 32
	}
	if config.MaxWords <= 0 {
		config.MaxWords = 5
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = "You name news topics. Reply with a short topic label of at most %d words and nothing else."
	}
	if config.PromptTemplate == "" {
		config.PromptTemplate = "Key terms: %s\n\nHeadlines:\n%s\n\nTopic label:"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}
	return config, nil
}

// NewLabelerWithConfig creates a Labeler backed by an Ollama server.
func NewLabelerWithConfig(config LabelerConfig) (*Labeler, error) {
	config, err := applyDefaults(config)
	if err != nil {
		return nil, err
	}

	llm, err := ollama.New(ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &Labeler{config: config, llm: llm}, nil
}

// NewLabeler creates a Labeler over any langchaingo model.
func NewLabeler(model llms.Model, config LabelerConfig) (*Labeler, error) {
	config, err := applyDefaults(config)
	if err != nil {
		return nil, err
	}
	return &Labeler{config: config, llm: model}, nil
}

// Label asks the model for a topic name.
func (l *Labeler) Label(ctx context.Context, terms []string, headlines []string) (string, error) {
	var headlineBuilder strings.Builder
	for _, h := range headlines {
		headlineBuilder.WriteString(fmt.Sprintf("- %s\n", h))
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, fmt.Sprintf(l.config.SystemTemplate, l.config.MaxWords)),
		llms.TextParts(llms.ChatMessageTypeHuman,
			fmt.Sprintf(l.config.PromptTemplate, strings.Join(terms, ", "), headlineBuilder.String())),
	}

	response, err := l.llm.GenerateContent(ctx, content,
		llms.WithTemperature(*l.config.Temperature),
		llms.WithMaxTokens(l.config.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("label error: %w", err)
	}
	if response == nil || len(response.Choices) == 0 || response.Choices[0] == nil {
		return "", ErrEmptyLabel
	}

	label := cleanLabel(response.Choices[0].Content, l.config.MaxWords)
	if label == "" {
		return "", ErrEmptyLabel
	}
	return label, nil
}

// cleanLabel keeps the first non-empty line, drops a "Label:" prefix and
// surrounding quotes, and truncates to maxWords words.
func cleanLabel(raw string, maxWords int) string {
	var line string
	for _, l := range strings.Split(raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}

	lower := strings.ToLower(line)
	for _, prefix := range []string{"topic label:", "label:", "topic:"} {
		if strings.HasPrefix(lower, prefix) {
			line = strings.TrimSpace(line[len(prefix):])
			break
		}
	}
	line = strings.Trim(line, "\"'`*.“” ")

	words := strings.Fields(line)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}
