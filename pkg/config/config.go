package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xhad/topics/pkg/cluster"
	"github.com/xhad/topics/pkg/feed"
	"github.com/xhad/topics/pkg/llm"
	"github.com/xhad/topics/pkg/processor"
	"github.com/xhad/topics/pkg/scraper"
	"github.com/xhad/topics/pkg/store"
	"github.com/xhad/topics/pkg/vectorizer"
	"gopkg.in/yaml.v3"
)

const (
	SourceHTML = "html"
	SourceRSS  = "rss"

	FormatText = "text"
	FormatJSON = "json"
)

type Config struct {
	Source struct {
		URL                 string        `yaml:"url"`
		Type                string        `yaml:"type"`
		MaxDepth            int           `yaml:"max_depth"`
		RateLimit           float64       `yaml:"rate_limit"`
		IgnorePatterns      []string      `yaml:"ignore_patterns"`
		AllowedExtensions   []string      `yaml:"allowed_extensions"`
		ItemSelector        string        `yaml:"item_selector"`
		HeadlineSelector    string        `yaml:"headline_selector"`
		DescriptionSelector string        `yaml:"description_selector"`
		LinkSelector        string        `yaml:"link_selector"`
		FollowSelector      string        `yaml:"follow_selector"`
		MaxDocuments        int           `yaml:"max_documents"`
		Timeout             time.Duration `yaml:"timeout"`
		RetryAttempts       int           `yaml:"retry_attempts"`
		RetryDelay          time.Duration `yaml:"retry_delay"`
		UserAgent           string        `yaml:"user_agent"`
	} `yaml:"source"`

	Vectorizer struct {
		MaxDocumentFrequencyRatio float64  `yaml:"max_document_frequency_ratio"`
		MinDocumentFrequencyCount int      `yaml:"min_document_frequency_count"`
		RemoveStopwords           *bool    `yaml:"remove_stopwords"`
		CustomStopwords           []string `yaml:"custom_stopwords"`
		MinTokenLength            int      `yaml:"min_token_length"`
		NormalizeTermFrequency    bool     `yaml:"normalize_term_frequency"`
		L2Normalize               *bool    `yaml:"l2_normalize"`
	} `yaml:"vectorizer"`

	Clusterer struct {
		K             int      `yaml:"k"`
		MaxIterations int      `yaml:"max_iterations"`
		Restarts      int      `yaml:"restarts"`
		Tolerance     *float64 `yaml:"tolerance"`
		Init          string   `yaml:"init"`
		Seed          *uint64  `yaml:"seed"`
		Workers       int      `yaml:"workers"`
	} `yaml:"clusterer"`

	Report struct {
		TopTerms  int    `yaml:"top_terms"`
		Headlines *int   `yaml:"headlines"`
		Format    string `yaml:"format"`
	} `yaml:"report"`

	LLM struct {
		Enabled     bool     `yaml:"enabled"`
		BaseURL     string   `yaml:"base_url"`
		Model       string   `yaml:"model"`
		MaxTokens   int      `yaml:"max_tokens"`
		Temperature *float64 `yaml:"temperature"`
		MaxWords    int      `yaml:"max_words"`
	} `yaml:"llm"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		BatchSize int    `yaml:"batch_size"`
	} `yaml:"database"`

	UI struct {
		Quiet   bool `yaml:"quiet"`
		NoColor bool `yaml:"no_color"`
	} `yaml:"ui"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/topics/config.yaml"),
			"/etc/topics/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Source.Type == "" {
		config.Source.Type = SourceHTML
	}
	if config.Source.RateLimit == 0 {
		config.Source.RateLimit = 2.0
	}
	if len(config.Source.AllowedExtensions) == 0 {
		config.Source.AllowedExtensions = []string{".html", ".htm", "/", ""}
	}
	if config.Source.ItemSelector == "" {
		config.Source.ItemSelector = "article"
	}
	if config.Source.HeadlineSelector == "" {
		config.Source.HeadlineSelector = "h1, h2, h3"
	}
	if config.Source.DescriptionSelector == "" {
		config.Source.DescriptionSelector = "p"
	}
	if config.Source.LinkSelector == "" {
		config.Source.LinkSelector = "a[href]"
	}
	if config.Source.Timeout == 0 {
		config.Source.Timeout = 30 * time.Second
	}
	if config.Source.RetryAttempts == 0 {
		config.Source.RetryAttempts = 3
	}
	if config.Source.RetryDelay == 0 {
		config.Source.RetryDelay = time.Second
	}

	defaults := vectorizer.DefaultOptions()
	if config.Vectorizer.MaxDocumentFrequencyRatio == 0 {
		config.Vectorizer.MaxDocumentFrequencyRatio = defaults.MaxDocumentFrequencyRatio
	}
	if config.Vectorizer.MinDocumentFrequencyCount == 0 {
		config.Vectorizer.MinDocumentFrequencyCount = defaults.MinDocumentFrequencyCount
	}
	if config.Vectorizer.RemoveStopwords == nil {
		config.Vectorizer.RemoveStopwords = boolPtr(true)
	}
	if config.Vectorizer.MinTokenLength == 0 {
		config.Vectorizer.MinTokenLength = defaults.MinTokenLength
	}
	if config.Vectorizer.L2Normalize == nil {
		config.Vectorizer.L2Normalize = boolPtr(defaults.L2Normalize)
	}

	clusterDefaults := cluster.DefaultConfig()
	if config.Clusterer.K == 0 {
		config.Clusterer.K = clusterDefaults.K
	}
	if config.Clusterer.MaxIterations == 0 {
		config.Clusterer.MaxIterations = clusterDefaults.MaxIterations
	}
	if config.Clusterer.Restarts == 0 {
		config.Clusterer.Restarts = clusterDefaults.Restarts
	}
	if config.Clusterer.Tolerance == nil {
		tol := clusterDefaults.Tolerance
		config.Clusterer.Tolerance = &tol
	}
	if config.Clusterer.Init == "" {
		config.Clusterer.Init = string(clusterDefaults.Init)
	}
	if config.Clusterer.Workers == 0 {
		config.Clusterer.Workers = clusterDefaults.Workers
	}

	if config.Report.TopTerms == 0 {
		config.Report.TopTerms = 8
	}
	if config.Report.Headlines == nil {
		headlines := 3
		config.Report.Headlines = &headlines
	}
	if config.Report.Format == "" {
		config.Report.Format = FormatText
	}

	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 32
	}
	if config.LLM.Temperature == nil {
		temperature := 0.2
		config.LLM.Temperature = &temperature
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.MaxWords == 0 {
		config.LLM.MaxWords = 5
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "topics"
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}
}

func mergeWithEnv(config *Config) {
	if sourceURL := os.Getenv("TOPICS_SOURCE_URL"); sourceURL != "" {
		config.Source.URL = sourceURL
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
}

func boolPtr(b bool) *bool { return &b }

// VectorizerOptions converts the vectorizer section.
func (c *Config) VectorizerOptions() vectorizer.Options {
	v := c.Vectorizer
	opts := vectorizer.Options{
		MaxDocumentFrequencyRatio: v.MaxDocumentFrequencyRatio,
		MinDocumentFrequencyCount: v.MinDocumentFrequencyCount,
		MinTokenLength:            v.MinTokenLength,
		NormalizeTermFrequency:    v.NormalizeTermFrequency,
		L2Normalize:               v.L2Normalize == nil || *v.L2Normalize,
	}

	custom := processor.NewStopWordSet(v.CustomStopwords...)
	switch {
	case v.RemoveStopwords == nil || *v.RemoveStopwords:
		opts.StopWords = processor.EnglishStopWords().Merge(custom)
	case len(custom) > 0:
		opts.StopWords = custom
	}
	return opts
}

// ClusterConfig converts the clusterer section. A configured seed makes runs reproducible.
func (c *Config) ClusterConfig() cluster.Config {
	cc := c.Clusterer
	cfg := cluster.Config{
		K:             cc.K,
		MaxIterations: cc.MaxIterations,
		Restarts:      cc.Restarts,
		Init:          cluster.Strategy(cc.Init),
		Workers:       cc.Workers,
	}
	if cc.Tolerance != nil {
		cfg.Tolerance = *cc.Tolerance
	}
	if cc.Seed != nil {
		cfg.Source = cluster.NewSource(*cc.Seed)
	}
	return cfg
}

func (c *Config) ScraperConfig() scraper.ScraperConfig {
	s := c.Source
	return scraper.ScraperConfig{
		BaseURL:             s.URL,
		MaxDepth:            s.MaxDepth,
		RateLimit:           s.RateLimit,
		IgnorePatterns:      s.IgnorePatterns,
		AllowedExtensions:   s.AllowedExtensions,
		Timeout:             s.Timeout,
		ItemSelector:        s.ItemSelector,
		HeadlineSelector:    s.HeadlineSelector,
		DescriptionSelector: s.DescriptionSelector,
		LinkSelector:        s.LinkSelector,
		FollowSelector:      s.FollowSelector,
		MaxDocuments:        s.MaxDocuments,
		RetryAttempts:       s.RetryAttempts,
		RetryDelay:          s.RetryDelay,
		UserAgent:           s.UserAgent,
	}
}

func (c *Config) FeedConfig() feed.ReaderConfig {
	return feed.ReaderConfig{
		Timeout:       c.Source.Timeout,
		MaxDocuments:  c.Source.MaxDocuments,
		RetryAttempts: c.Source.RetryAttempts,
		RetryDelay:    c.Source.RetryDelay,
		UserAgent:     c.Source.UserAgent,
	}
}

func (c *Config) LabelerConfig() llm.LabelerConfig {
	return llm.LabelerConfig{
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
		MaxWords:    c.LLM.MaxWords,
		BaseURL:     c.LLM.BaseURL,
	}
}

func (c *Config) StoreConfig() store.VectorStoreConfig {
	return store.VectorStoreConfig{
		ConnString: c.Database.URL,
		TableName:  c.Database.TableName,
		BatchSize:  c.Database.BatchSize,
	}
}
