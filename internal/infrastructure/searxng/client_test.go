package searxng

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-search-api/internal/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(&config.SearxNGConfig{
		BaseURL:    baseURL,
		Language:   "en",
		SafeSearch: 1,
		Timeout:    5 * time.Second,
	})
}

func TestRetrieveParsesAndEnriches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "golang slices", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "en", r.URL.Query().Get("language"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"title":"Slices intro","url":"https://go.dev/blog/slices","content":"Slices are views over arrays.","engine":"duckduckgo"},
			{"title":"SO answer","url":"https://stackoverflow.com/q/1","content":"Use append.","engine":""}
		]}`))
	}))
	defer srv.Close()

	set, err := newTestClient(srv.URL).Retrieve(context.Background(), "golang slices", 10)

	require.NoError(t, err)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, "Slices intro\nSlices are views over arrays.", set.Passages[0])
	assert.Equal(t, "https://go.dev/blog/slices", set.Hits[0].URL)
	assert.Equal(t, "duckduckgo", set.Hits[0].Engine)
	// go.dev 命中官方文档评分
	assert.Equal(t, 0.95, set.Hits[0].CredibilityScore)
	assert.Equal(t, "official_docs", set.Hits[0].CredibilityCategory)
	// engine 缺省回填
	assert.Equal(t, "searxng", set.Hits[1].Engine)
	assert.Equal(t, 0.78, set.Hits[1].CredibilityScore)
}

func TestRetrieveCapsToK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[
			{"title":"a","url":"https://a.com","content":"a"},
			{"title":"b","url":"https://b.com","content":"b"},
			{"title":"c","url":"https://c.com","content":"c"}
		]}`))
	}))
	defer srv.Close()

	set, err := newTestClient(srv.URL).Retrieve(context.Background(), "q", 2)

	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, "https://b.com", set.Hits[1].URL)
}

func TestRetrieveNon2xxDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	set, err := newTestClient(srv.URL).Retrieve(context.Background(), "q", 10)

	require.NoError(t, err)
	assert.True(t, set.Empty())
}

func TestRetrieveMalformedBodyDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	set, err := newTestClient(srv.URL).Retrieve(context.Background(), "q", 10)

	require.NoError(t, err)
	assert.True(t, set.Empty())
}

func TestRetrieveUnreachableDegradesToEmpty(t *testing.T) {
	set, err := newTestClient("http://127.0.0.1:1").Retrieve(context.Background(), "q", 10)

	require.NoError(t, err)
	assert.True(t, set.Empty())
}

func TestRetrieveMissingBaseURL(t *testing.T) {
	set, err := newTestClient("").Retrieve(context.Background(), "q", 10)

	require.NoError(t, err)
	assert.True(t, set.Empty())
}
