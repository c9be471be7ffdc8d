package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/memory"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/metrics"
)

const petstoreJSON = `{"openapi":"3.0.0","info":{"title":"Pets","version":"1"},"paths":{"/pets":{"get":{"summary":"List"}}}}`

type fakeStore map[string]string

func (f fakeStore) SpecContent(_ context.Context, name string) ([]byte, error) {
	c, ok := f[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(c), nil
}

func countingServer(t *testing.T, body string) (*httptest.Server, *int32) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestSourceKind(t *testing.T) {
	assert.Equal(t, SourceHTTP, SourceKind("HTTPS://x/spec.json"))
	assert.Equal(t, SourceDB, SourceKind("db:pets"))
	assert.Equal(t, SourceFile, SourceKind("file:///tmp/a.yaml"))
	assert.Equal(t, SourceFile, SourceKind("./a.yaml"))
}

func TestFetchHTTP(t *testing.T) {
	srv, _ := countingServer(t, petstoreJSON)
	l := New(Options{Timeout: time.Second})

	doc, err := l.Fetch(context.Background(), srv.URL+"/openapi.json")
	require.NoError(t, err)
	assert.Equal(t, "Pets", doc.Title)
	assert.Equal(t, srv.URL+"/openapi.json", doc.Location)
	assert.Equal(t, 1, doc.OperationCount())
}

func TestFetchHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	m := metrics.NewCollector()
	l := New(Options{Metrics: m})
	_, err := l.Fetch(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "HTTP 404")
	count, err := testutil.GatherAndCount(m.Registry(), "mcp_openapi_proxy_spec_fetch_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFetchFileAndFileURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pets.json")
	require.NoError(t, os.WriteFile(path, []byte(petstoreJSON), 0o600))

	l := New(Options{})
	doc, err := l.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, doc.HasPaths)

	doc, err = l.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "Pets", doc.Title)

	_, err = l.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFetchFromStore(t *testing.T) {
	l := New(Options{Store: fakeStore{"pets": petstoreJSON}})

	doc, err := l.Fetch(context.Background(), "db:pets")
	require.NoError(t, err)
	assert.Equal(t, "Pets", doc.Title)

	_, err = l.Fetch(context.Background(), "db:ghost")
	assert.Error(t, err)

	_, err = New(Options{}).Fetch(context.Background(), "db:pets")
	assert.ErrorContains(t, err, "spec store is not configured")
}

func TestFetchRespectsSizeLimit(t *testing.T) {
	srv, _ := countingServer(t, petstoreJSON)
	l := New(Options{MaxBytes: 10})

	_, err := l.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, memory.ErrTooLarge)
}

func TestFetchCacheTTL(t *testing.T) {
	srv, hits := countingServer(t, petstoreJSON)
	l := New(Options{CacheTTL: time.Minute})
	now := time.Now()
	l.now = func() time.Time { return now }

	_, err := l.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	_, err = l.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))

	// a different location is a different cache key
	_, err = l.Fetch(context.Background(), srv.URL+"/other")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))

	now = now.Add(2 * time.Minute)
	_, err = l.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
}

func TestFetchWithoutCacheAlwaysRefetches(t *testing.T) {
	srv, hits := countingServer(t, petstoreJSON)
	l := New(Options{})

	for i := 0; i < 3; i++ {
		_, err := l.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
}

func TestFetchInvalidDocument(t *testing.T) {
	srv, _ := countingServer(t, "not: [valid")
	_, err := New(Options{}).Fetch(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "failed to parse spec")
}

func TestInvalidateStoreKeepsOtherSources(t *testing.T) {
	srv, hits := countingServer(t, petstoreJSON)
	store := fakeStore{"pets": petstoreJSON}
	l := New(Options{Store: store, CacheTTL: time.Hour})

	_, err := l.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	_, err = l.Fetch(context.Background(), "db:pets")
	require.NoError(t, err)

	store["pets"] = `{"openapi":"3.0.0","info":{"title":"Renamed","version":"2"},"paths":{}}`
	l.InvalidateStore()

	doc, err := l.Fetch(context.Background(), "db:pets")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", doc.Title)

	_, err = l.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}
