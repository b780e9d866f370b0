// Package report turns a clustering result into per-topic summaries and renders them.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/xhad/topics/internal/models"
	"github.com/xhad/topics/pkg/cluster"
)

type Term struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

type Headline struct {
	Index    int     `json:"index"`
	Title    string  `json:"title"`
	URL      string  `json:"url,omitempty"`
	Distance float64 `json:"distance"`
}

type Topic struct {
	Cluster   int        `json:"cluster"`
	Label     string     `json:"label,omitempty"`
	Size      int        `json:"size"`
	Terms     []Term     `json:"terms"`
	Headlines []Headline `json:"headlines"`
}

type Report struct {
	RunID      string    `json:"run_id"`
	SourceURL  string    `json:"source_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Documents  int       `json:"documents"`
	Vocabulary int       `json:"vocabulary"`
	K          int       `json:"k"`
	Objective  float64   `json:"objective"`
	Iterations int       `json:"iterations"`
	State      string    `json:"state"`
	Restart    int       `json:"restart"`
	Seed       uint64    `json:"seed,omitempty"`
	Topics     []Topic   `json:"topics"`
}

// Build summarizes res. docs must be in matrix row order.
func Build(runID string, docs []models.Document, vocab cluster.TermLookup, res *cluster.Result, topN, headlinesPerTopic int) *Report {
	r := &Report{
		RunID:      runID,
		CreatedAt:  time.Now().UTC(),
		Documents:  len(docs),
		K:          res.K(),
		Objective:  res.Objective,
		Iterations: res.Iterations,
		State:      res.State.String(),
		Restart:    res.Restart,
		Seed:       res.Seed,
	}
	if len(res.Centroids) > 0 {
		r.Vocabulary = len(res.Centroids[0])
	}

	sizes := res.ClusterSizes()
	for c := range res.Centroids {
		topic := Topic{Cluster: c, Size: sizes[c], Terms: []Term{}, Headlines: []Headline{}}
		for _, tw := range res.TopTerms(c, vocab, topN) {
			topic.Terms = append(topic.Terms, Term{Term: tw.Term, Weight: tw.Weight})
		}
		for _, i := range res.Members(c) {
			if len(topic.Headlines) >= headlinesPerTopic {
				break
			}
			topic.Headlines = append(topic.Headlines, Headline{
				Index:    i,
				Title:    docs[i].Title,
				URL:      docs[i].URL,
				Distance: res.Distances[i],
			})
		}
		r.Topics = append(r.Topics, topic)
	}
	return r
}

// TermStrings returns the topic's terms without weights.
func (t Topic) TermStrings() []string {
	terms := make([]string, len(t.Terms))
	for i, term := range t.Terms {
		terms[i] = term.Term
	}
	return terms
}

// HeadlineStrings returns the topic's headline titles.
func (t Topic) HeadlineStrings() []string {
	titles := make([]string, len(t.Headlines))
	for i, h := range t.Headlines {
		titles[i] = h.Title
	}
	return titles
}

func WriteText(w io.Writer, r *Report) error {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgGreen, color.Bold)
	faint := color.New(color.Faint)

	if _, err := title.Fprintf(w, "Clustered %d documents into %d topics\n", r.Documents, r.K); err != nil {
		return err
	}
	state := color.GreenString(r.State)
	if r.State != cluster.Converged.String() {
		state = color.YellowString(r.State)
	}
	fmt.Fprintf(w, "vocabulary %d  objective %.4f  iterations %d  restart %d  %s\n",
		r.Vocabulary, r.Objective, r.Iterations, r.Restart, state)

	for _, topic := range r.Topics {
		name := topic.Label
		if name == "" {
			name = strings.Join(topic.TermStrings(), ", ")
		}
		if name == "" {
			name = "(no distinctive terms)"
		}

		fmt.Fprintln(w)
		label.Fprintf(w, "Topic %d", topic.Cluster)
		fmt.Fprintf(w, " (%d documents): %s\n", topic.Size, name)
		if topic.Label != "" && len(topic.Terms) > 0 {
			faint.Fprintf(w, "  terms: %s\n", strings.Join(topic.TermStrings(), ", "))
		}
		for _, h := range topic.Headlines {
			fmt.Fprintf(w, "  - %s\n", h.Title)
		}
	}
	return nil
}

func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
