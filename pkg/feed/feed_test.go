package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Test Wire</title>
	<link>https://example.com</link>
	<description>test</description>
	<item>
		<title>Senate passes budget bill</title>
		<link>https://example.com/1</link>
		<description><![CDATA[<p>Lawmakers <b>approved</b> the plan.</p>]]></description>
		<pubDate>Tue, 10 Jun 2025 08:00:00 GMT</pubDate>
		<category>politics</category>
	</item>
	<item>
		<title></title>
		<description>No title, skipped</description>
	</item>
	<item>
		<title>Storm hits the coast</title>
		<link>https://example.com/2</link>
		<description>Thousands   without power</description>
	</item>
</channel>
</rss>`

func TestReader_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssBody))
	}))
	defer server.Close()

	r := NewReader(ReaderConfig{RetryDelay: time.Millisecond})
	docs, err := r.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "Senate passes budget bill", docs[0].Title)
	assert.Equal(t, "Lawmakers approved the plan.", docs[0].Content)
	assert.Equal(t, "https://example.com/1", docs[0].URL)
	assert.Equal(t, 2025, docs[0].Published.Year())
	assert.Equal(t, []string{"politics"}, docs[0].Metadata["categories"])
	assert.Equal(t, "Test Wire", docs[0].Metadata["feed"])

	assert.Equal(t, "Thousands without power", docs[1].Content)
	assert.True(t, docs[1].Published.IsZero())
}

func TestReader_MaxDocuments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssBody))
	}))
	defer server.Close()

	docs, err := NewReader(ReaderConfig{MaxDocuments: 1}).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestReader_NotFound(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := NewReader(ReaderConfig{RetryDelay: time.Millisecond}).Fetch(context.Background(), server.URL)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain   text", "plain text"},
		{"<p>Hello <em>world</em></p>", "Hello world"},
		{"Fish &amp; chips", "Fish & chips"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, stripHTML(tt.in))
		})
	}
}
