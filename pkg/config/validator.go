package config

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"

	"github.com/xhad/topics/pkg/cluster"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,40}$`)

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	add := func(field, message string) {
		errors = append(errors, ValidationError{Field: field, Message: message})
	}

	// Validate Source config
	if c.Source.URL == "" {
		add("source.url", "source URL is required")
	} else if u, err := url.Parse(c.Source.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("source.url", "source URL must be an absolute http(s) URL")
	}

	if c.Source.Type != SourceHTML && c.Source.Type != SourceRSS {
		add("source.type", fmt.Sprintf("type must be %q or %q", SourceHTML, SourceRSS))
	}

	if c.Source.MaxDepth < 0 {
		add("source.max_depth", "max_depth must not be negative")
	}

	if c.Source.RateLimit <= 0 {
		add("source.rate_limit", "rate_limit must be positive")
	}

	if c.Source.MaxDocuments < 0 {
		add("source.max_documents", "max_documents must not be negative")
	}

	// Validate extensions format
	for _, ext := range c.Source.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") && ext != "" && ext != "/" {
			add("source.allowed_extensions", fmt.Sprintf("invalid extension format: %s", ext))
		}
	}

	// Validate Vectorizer config
	v := c.Vectorizer
	if v.MaxDocumentFrequencyRatio <= 0 || v.MaxDocumentFrequencyRatio > 1 {
		add("vectorizer.max_document_frequency_ratio", "max_document_frequency_ratio must be in (0, 1]")
	}
	if v.MinDocumentFrequencyCount < 1 {
		add("vectorizer.min_document_frequency_count", "min_document_frequency_count must be at least 1")
	}
	if v.MinTokenLength < 1 {
		add("vectorizer.min_token_length", "min_token_length must be positive")
	}

	// Validate Clusterer config
	k := c.Clusterer
	if k.K < 1 {
		add("clusterer.k", "k must be positive")
	}
	if k.MaxIterations < 1 {
		add("clusterer.max_iterations", "max_iterations must be positive")
	}
	if k.Restarts < 1 {
		add("clusterer.restarts", "restarts must be positive")
	}
	if k.Tolerance != nil && (*k.Tolerance < 0 || math.IsNaN(*k.Tolerance) || math.IsInf(*k.Tolerance, 0)) {
		add("clusterer.tolerance", "tolerance must be a finite non-negative number")
	}
	if s := cluster.Strategy(k.Init); s != cluster.KMeansPlusPlus && s != cluster.Random {
		add("clusterer.init", fmt.Sprintf("init must be %q or %q", cluster.KMeansPlusPlus, cluster.Random))
	}
	if k.Workers < 0 {
		add("clusterer.workers", "workers must not be negative")
	}

	// Validate Report config
	if c.Report.TopTerms < 1 {
		add("report.top_terms", "top_terms must be positive")
	}
	if c.Report.Headlines != nil && *c.Report.Headlines < 0 {
		add("report.headlines", "headlines must not be negative")
	}
	if c.Report.Format != FormatText && c.Report.Format != FormatJSON {
		add("report.format", fmt.Sprintf("format must be %q or %q", FormatText, FormatJSON))
	}

	// Validate LLM config
	if c.LLM.Enabled {
		if c.LLM.BaseURL == "" {
			add("llm.base_url", "Ollama base URL is required")
		} else if _, err := url.Parse(c.LLM.BaseURL); err != nil {
			add("llm.base_url", "invalid Ollama base URL")
		}

		if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
			add("llm.max_tokens", "max_tokens must be between 1 and 4096")
		}

		if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 1) {
			add("llm.temperature", "temperature must be between 0 and 1")
		}
	}

	// Validate Database config
	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			add("database.url", "invalid database URL")
		}
	}

	if !tableName.MatchString(c.Database.TableName) {
		add("database.table_name", "table_name must be a plain SQL identifier")
	}

	if c.Database.BatchSize < 1 {
		add("database.batch_size", "batch_size must be positive")
	}

	return errors
}
