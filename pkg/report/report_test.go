package report

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/topics/internal/models"
	"github.com/xhad/topics/pkg/cluster"
)

type vocab []string

func (v vocab) Term(i int) string { return v[i] }

func sample() *Report {
	docs := []models.Document{
		{Title: "alpha beta", URL: "https://example.com/1"},
		{Title: "alpha gamma"},
		{Title: "delta epsilon"},
	}
	res := &cluster.Result{
		Centroids: [][]float64{
			{1.4, 1.0, 0, 0, 1.0},
			{0, 0, 2.1, 2.1, 0},
		},
		Assignments: []int{0, 0, 1},
		Distances:   []float64{0.3, 0.2, 0},
		Objective:   0.5,
		Iterations:  2,
		State:       cluster.Converged,
	}
	return Build("run-1", docs, vocab{"alpha", "beta", "delta", "epsilon", "gamma"}, res, 2, 1)
}

func TestBuild(t *testing.T) {
	r := sample()

	assert.Equal(t, 3, r.Documents)
	assert.Equal(t, 5, r.Vocabulary)
	assert.Equal(t, 2, r.K)
	assert.Equal(t, "converged", r.State)
	require.Len(t, r.Topics, 2)

	assert.Equal(t, 2, r.Topics[0].Size)
	assert.Equal(t, []string{"alpha", "beta"}, r.Topics[0].TermStrings())
	assert.Equal(t, []string{"alpha gamma"}, r.Topics[0].HeadlineStrings())
	assert.Equal(t, 1, r.Topics[0].Headlines[0].Index)

	assert.Equal(t, []string{"delta", "epsilon"}, r.Topics[1].TermStrings())
}

func TestWriteText(t *testing.T) {
	color.NoColor = true
	r := sample()
	r.Topics[1].Label = "Greek Letters"

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, r))

	out := buf.String()
	assert.Contains(t, out, "Clustered 3 documents into 2 topics")
	assert.Contains(t, out, "Topic 0 (2 documents): alpha, beta")
	assert.Contains(t, out, "Topic 1 (1 documents): Greek Letters")
	assert.Contains(t, out, "  terms: delta, epsilon")
	assert.Contains(t, out, "  - alpha gamma")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sample()))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Equal(t, "converged", decoded["state"])

	topics, ok := decoded["topics"].([]interface{})
	require.True(t, ok)
	assert.Len(t, topics, 2)
	assert.Contains(t, buf.String(), "\n  \"k\": 2")
}
