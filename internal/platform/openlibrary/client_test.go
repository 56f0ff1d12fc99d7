package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *prometheus.Registry) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	reg := prometheus.NewRegistry()
	c := NewClient(Options{
		BaseURL:    srv.URL,
		CoversURL:  "https://covers.test",
		UserAgent:  "bookshelf-test",
		RPS:        100,
		Timeout:    2 * time.Second,
		Registerer: reg,
	})
	return c, reg
}

func TestResolveKey(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "bookshelf-test", r.Header.Get("User-Agent"))
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"numFound":2,"docs":[{"key":"/works/OL45804W"},{"key":"/works/OL2W"}]}`))
	})

	key, ok := c.ResolveKey(context.Background(), "Fantastic Mr Fox", "Roald Dahl")

	assert.True(t, ok)
	assert.Equal(t, "/works/OL45804W", key)
	assert.Contains(t, gotQuery, "title=Fantastic+Mr+Fox")
	assert.Contains(t, gotQuery, "author=Roald+Dahl")
}

func TestResolveKey_NoMatchAndFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		outcome string
	}{
		{
			name: "no docs",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"numFound":0,"docs":[]}`))
			},
			outcome: "miss",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			outcome: "error",
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"docs": [`))
			},
			outcome: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.handler)

			key, ok := c.ResolveKey(context.Background(), "Unknown", "")

			assert.False(t, ok)
			assert.Empty(t, key)
			assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("resolve", tt.outcome)))
		})
	}
}

func TestResolveKey_TransportError(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1", RPS: 100, Timeout: time.Second})

	_, ok := c.ResolveKey(context.Background(), "X", "Y")
	assert.False(t, ok)
}

func TestFetchDetails(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCover string
		wantDesc  string
	}{
		{
			name:      "string description with cover",
			body:      `{"title":"X","covers":[8739161,123],"description":"A fox outwits three farmers."}`,
			wantCover: "https://covers.test/b/id/8739161-L.jpg",
			wantDesc:  "A fox outwits three farmers.",
		},
		{
			name:     "typed description without cover",
			body:     `{"title":"X","description":{"type":"/type/text","value":"Typed text."}}`,
			wantDesc: "Typed text.",
		},
		{
			name:     "no description",
			body:     `{"title":"X","covers":[-1]}`,
			wantDesc: NoDescription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/works/OL1W.json", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			})

			d, ok := c.FetchDetails(context.Background(), "/works/OL1W")

			require.True(t, ok)
			assert.Equal(t, tt.wantDesc, d.Description)
			if tt.wantCover == "" {
				assert.Nil(t, d.Cover)
			} else {
				require.NotNil(t, d.Cover)
				assert.Equal(t, tt.wantCover, *d.Cover)
			}
		})
	}
}

func TestFetchDetails_Failure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	d, ok := c.FetchDetails(context.Background(), "works/OL404W")

	assert.False(t, ok)
	assert.Equal(t, Details{}, d)
}

func TestNewClient_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewClient(Options{Registerer: reg})
	b := NewClient(Options{Registerer: reg})

	a.requests.WithLabelValues("resolve", "hit").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(b.requests.WithLabelValues("resolve", "hit")))
}
