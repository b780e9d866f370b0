package scraper

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

const listingPage = `
<html>
	<head><title>World News</title></head>
	<body>
		<article>
			<h2><a href="/story/1">Senate passes budget bill</a></h2>
			<p>Lawmakers approved the spending plan late on Tuesday.</p>
			<p>Second paragraph is ignored.</p>
		</article>
		<article>
			<h2>Storm hits the coast</h2>
			<p>  Thousands   without power.  Read more</p>
		</article>
		<article>
			<p>An item without a headline is skipped.</p>
		</article>
		<a class="next" href="/page2.html">Next</a>
	</body>
</html>
`

const secondPage = `
<html>
	<body>
		<article>
			<h3><a href="https://example.org/elsewhere">Markets rally on rate cut</a></h3>
			<p>Stocks closed higher.</p>
		</article>
		<a class="next" href="/page3.html">Next</a>
	</body>
</html>
`

func newsServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(listingPage))
	})
	mux.HandleFunc("/page2.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(secondPage))
	})
	mux.HandleFunc("/page3.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<article><h2>Too deep</h2><p>never read</p></article>`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestScraperConfig(t *testing.T) {
	config := ScraperConfig{
		BaseURL:        "https://example.com",
		MaxDepth:       5,
		RateLimit:      1.0,
		IgnorePatterns: []string{"/ignore/", "private"},
		Timeout:        10 * time.Second,
	}

	s, err := NewWithConfig(config)
	require.NoError(t, err)
	assert.Equal(t, config.BaseURL, s.config.BaseURL)
	assert.Equal(t, config.MaxDepth, s.config.MaxDepth)
	assert.Equal(t, "article", s.config.ItemSelector)
	assert.Equal(t, 3, s.config.RetryAttempts)

	_, err = NewWithConfig(ScraperConfig{BaseURL: "https://example.com", MaxDepth: -1})
	assert.Error(t, err)
}

func TestShouldProcessURL(t *testing.T) {
	config := ScraperConfig{
		BaseURL:           "https://example.com",
		IgnorePatterns:    []string{"/ignore/", "private"},
		AllowedExtensions: []string{".html", "/"},
	}

	s, err := NewWithConfig(config)
	require.NoError(t, err)

	tests := []struct {
		url      string
		expected bool
	}{
		{"https://example.com/news/", true},
		{"https://example.com/page.html", true},
		{"https://example.com/ignore/page.html", false},
		{"https://other-domain.com/page.html", false},
		{"https://example.com/file.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			result := s.shouldProcessURL(tt.url)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFetch_ListingOnly(t *testing.T) {
	server := newsServer(t)

	s, err := NewWithConfig(ScraperConfig{
		BaseURL:        server.URL,
		RateLimit:      100,
		FollowSelector: "a.next",
	})
	require.NoError(t, err)

	docs, err := s.Fetch(context.Background(), server.URL+"/")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "Senate passes budget bill", docs[0].Title)
	assert.Equal(t, "Lawmakers approved the spending plan late on Tuesday.", docs[0].Content)
	assert.Equal(t, server.URL+"/story/1", docs[0].URL)
	assert.Equal(t, 0, docs[0].Metadata["depth"])

	assert.Equal(t, "Storm hits the coast", docs[1].Title)
	assert.Equal(t, "Thousands without power.", docs[1].Content)
	assert.Equal(t, server.URL+"/", docs[1].URL)
}

func TestFetch_FollowsPagination(t *testing.T) {
	server := newsServer(t)

	var visited []string
	s, err := NewWithConfig(ScraperConfig{
		BaseURL:        server.URL,
		MaxDepth:       1,
		RateLimit:      100,
		FollowSelector: "a.next",
		OnProgress:     func(url string) { visited = append(visited, url) },
	})
	require.NoError(t, err)

	docs, err := s.Fetch(context.Background(), server.URL+"/")
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "Markets rally on rate cut", docs[2].Title)
	assert.Equal(t, "https://example.org/elsewhere", docs[2].URL)
	assert.Equal(t, []string{server.URL + "/", server.URL + "/page2.html"}, visited)
}

func TestFetch_MaxDocuments(t *testing.T) {
	server := newsServer(t)

	s, err := NewWithConfig(ScraperConfig{
		BaseURL:      server.URL,
		RateLimit:    100,
		MaxDocuments: 1,
	})
	require.NoError(t, err)

	docs, err := s.Fetch(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestFetch_StatusErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		if n < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(listingPage))
	}))
	defer server.Close()

	s, err := NewWithConfig(ScraperConfig{
		BaseURL:    server.URL,
		RateLimit:  100,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)

	docs, err := s.Fetch(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, int32(2), calls.Load())

	calls.Store(0)
	_, err = s.Fetch(context.Background(), server.URL+"/missing")
	assert.ErrorContains(t, err, "status code 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_RejectsForeignURL(t *testing.T) {
	s := New("https://example.com")

	_, err := s.Fetch(context.Background(), "https://other.example.net/")
	assert.Error(t, err)
}
