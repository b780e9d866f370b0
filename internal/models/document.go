package models

import (
	"strings"
	"time"
)

// Document is one news item: a headline (Title) paired with its description (Content).
type Document struct {
	ID        string
	URL       string
	Title     string
	Content   string
	Published time.Time
	Metadata  map[string]interface{}
}

// Text is the string fed to the vectorizer.
func (d Document) Text() string {
	return strings.TrimSpace(d.Title + " " + d.Content)
}

type ClusteredDocument struct {
	Document
	Cluster  int
	Distance float64
	Vector   []float32
}

type TopicRecord struct {
	Cluster  int
	Label    string
	Size     int
	TopTerms []string
	Centroid []float32
}

// RunRecord is the write-only summary handed to export sinks.
type RunRecord struct {
	ID         string
	SourceURL  string
	CreatedAt  time.Time
	Objective  float64
	Iterations int
	State      string
	Documents  []ClusteredDocument
	Topics     []TopicRecord
}
