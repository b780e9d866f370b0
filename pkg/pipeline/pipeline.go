// Package pipeline runs one batch: fetch, vectorize, cluster, report, and optionally label and export.
package pipeline

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xhad/topics/internal/models"
	"github.com/xhad/topics/internal/types"
	"github.com/xhad/topics/pkg/cluster"
	"github.com/xhad/topics/pkg/processor"
	"github.com/xhad/topics/pkg/report"
	"github.com/xhad/topics/pkg/vectorizer"
)

type Pipeline struct {
	fetcher    types.Fetcher
	vectorizer vectorizer.Options
	clusterer  cluster.Config
	labeler    types.TopicLabeler
	store      types.ResultStore
	topTerms   int
	headlines  int
}

type Option func(*Pipeline)

func WithLabeler(l types.TopicLabeler) Option {
	return func(p *Pipeline) { p.labeler = l }
}

func WithStore(s types.ResultStore) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithTopTerms sets how many terms describe each topic. Default 8.
func WithTopTerms(n int) Option {
	return func(p *Pipeline) { p.topTerms = n }
}

// WithHeadlines sets how many headlines are listed per topic. Default 3.
func WithHeadlines(n int) Option {
	return func(p *Pipeline) { p.headlines = n }
}

func New(fetcher types.Fetcher, vopts vectorizer.Options, copts cluster.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:    fetcher,
		vectorizer: vopts,
		clusterer:  copts,
		topTerms:   8,
		headlines:  3,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Outcome is everything one run produced. Documents are in matrix row order.
type Outcome struct {
	RunID     string
	SourceURL string
	Documents []models.Document
	Vectors   *vectorizer.Result
	Clusters  *cluster.Result
	Report    *report.Report
}

// Run fetches url and analyzes the documents found there.
func (p *Pipeline) Run(ctx context.Context, url string) (*Outcome, error) {
	if p.fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured")
	}

	docs, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	log.Info().Str("url", url).Int("documents", len(docs)).Msg("Fetched documents")

	return p.analyze(ctx, url, docs)
}

// Analyze clusters documents that were obtained elsewhere.
func (p *Pipeline) Analyze(ctx context.Context, docs []models.Document) (*Outcome, error) {
	return p.analyze(ctx, "", docs)
}

func (p *Pipeline) analyze(ctx context.Context, sourceURL string, raw []models.Document) (*Outcome, error) {
	docs := Prepare(raw)
	if dropped := len(raw) - len(docs); dropped > 0 {
		log.Info().Int("dropped", dropped).Msg("Removed empty and duplicate documents")
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text()
	}

	vec, err := vectorizer.Vectorize(texts, p.vectorizer)
	if err != nil {
		return nil, fmt.Errorf("vectorize: %w", err)
	}
	if zero := vec.ZeroRows(); len(zero) > 0 {
		log.Warn().Int("documents", len(zero)).Msg("Documents without retained terms")
	}

	res, err := cluster.Cluster(ctx, vec.Matrix, p.clusterer)
	if err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}
	if !res.Converged() {
		log.Warn().Int("iterations", res.Iterations).Msg("Clustering stopped before convergence")
	}

	out := &Outcome{
		RunID:     uuid.NewString(),
		SourceURL: sourceURL,
		Documents: docs,
		Vectors:   vec,
		Clusters:  res,
	}
	out.Report = report.Build(out.RunID, docs, vec.Vocabulary, res, p.topTerms, p.headlines)
	out.Report.SourceURL = sourceURL

	if p.labeler != nil {
		p.label(ctx, out.Report)
	}

	if p.store != nil {
		if err := p.store.Store(ctx, out.Record()); err != nil {
			return out, fmt.Errorf("export run: %w", err)
		}
	}

	log.Info().
		Str("run", out.RunID).
		Int("documents", len(docs)).
		Int("vocabulary", vec.Vocabulary.Len()).
		Float64("objective", res.Objective).
		Str("state", res.State.String()).
		Msg("Run complete")
	return out, nil
}

// label names every topic. A failing labeler leaves the label empty.
func (p *Pipeline) label(ctx context.Context, r *report.Report) {
	for i := range r.Topics {
		topic := &r.Topics[i]
		if topic.Size == 0 || len(topic.Terms) == 0 {
			continue
		}
		name, err := p.labeler.Label(ctx, topic.TermStrings(), topic.HeadlineStrings())
		if err != nil {
			log.Warn().Err(err).Int("cluster", topic.Cluster).Msg("Failed to label topic")
			continue
		}
		topic.Label = name
	}
}

// Prepare cleans headlines and descriptions, drops documents without text and
// removes duplicates. The first occurrence wins and keeps its position.
func Prepare(docs []models.Document) []models.Document {
	seen := make(map[string]struct{}, len(docs))
	out := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		doc.Title = processor.CleanText(doc.Title)
		doc.Content = processor.CleanText(doc.Content)
		if doc.Text() == "" {
			continue
		}

		key := makeNewsKey(doc.Title, doc.Content)
		if _, dup := seen[key]; dup {
			log.Debug().Str("title", doc.Title).Msg("Duplicate document")
			continue
		}
		seen[key] = struct{}{}

		if doc.ID == "" {
			doc.ID = key
		}
		out = append(out, doc)
	}
	return out
}

// makeNewsKey hashes headline and description for deduplication.
func makeNewsKey(title, description string) string {
	h := sha1.New()
	h.Write([]byte(strings.ToLower(title + "\x00" + description)))
	return hex.EncodeToString(h.Sum(nil))
}

// Record converts the outcome into the export representation.
func (o *Outcome) Record() models.RunRecord {
	res := o.Clusters
	record := models.RunRecord{
		ID:         o.RunID,
		SourceURL:  o.SourceURL,
		CreatedAt:  o.Report.CreatedAt,
		Objective:  res.Objective,
		Iterations: res.Iterations,
		State:      res.State.String(),
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	for i, doc := range o.Documents {
		record.Documents = append(record.Documents, models.ClusteredDocument{
			Document: doc,
			Cluster:  res.Assignments[i],
			Distance: res.Distances[i],
			Vector:   toFloat32(o.Vectors.Matrix.Dense(i)),
		})
	}
	for _, topic := range o.Report.Topics {
		record.Topics = append(record.Topics, models.TopicRecord{
			Cluster:  topic.Cluster,
			Label:    topic.Label,
			Size:     topic.Size,
			TopTerms: topic.TermStrings(),
			Centroid: toFloat32(res.Centroids[topic.Cluster]),
		})
	}
	return record
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
