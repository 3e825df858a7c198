package processor_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rdtagger/pkg/collections"
	"rdtagger/pkg/logger"
	"rdtagger/pkg/processor"
	"rdtagger/pkg/raindrop"
	"rdtagger/pkg/retry"
	"rdtagger/pkg/tagger"
)

// mockRaindropServer mimics the Raindrop endpoints the tagger touches
type mockRaindropServer struct {
	server    *httptest.Server
	mu        sync.Mutex
	items     map[int64][]map[string]interface{}
	puts      map[int64][]string
	throttleN int
	throttled int
	pageCalls []string
}

func newMockRaindropServer(t *testing.T) *mockRaindropServer {
	m := &mockRaindropServer{
		items: map[int64][]map[string]interface{}{
			1: {{"_id": 100, "title": "Untagged", "link": "https://example.com/a", "tags": []string{}, "collection": map[string]int{"$id": 1}}},
			2: {{"_id": 200, "title": "Tagged", "link": "https://example.com/b", "tags": []string{"x", "y", "z"}, "collection": map[string]int{"$id": 2}}},
		},
		puts: map[int64][]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"result": true, "items": []map[string]interface{}{{"_id": 1, "title": "A", "count": 1}}})
	})
	mux.HandleFunc("/rest/v1/collections/childrens", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"result": true, "items": []map[string]interface{}{
			{"_id": 2, "title": "B", "count": 1, "parent": map[string]int{"$id": 1}},
		}})
	})
	mux.HandleFunc("/rest/v1/raindrops/", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/rest/v1/raindrops/"), 10, 64)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		m.mu.Lock()
		defer m.mu.Unlock()
		m.pageCalls = append(m.pageCalls, r.URL.RequestURI())

		w.Header().Set("X-RateLimit-Limit", "120")
		w.Header().Set("X-RateLimit-Remaining", "100")
		items := []map[string]interface{}{}
		if page == 0 {
			items = m.items[id]
		}
		writeJSON(w, map[string]interface{}{"result": true, "items": items})
	})
	mux.HandleFunc("/rest/v1/raindrop/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/rest/v1/raindrop/"), 10, 64)

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.throttled < m.throttleN {
			m.throttled++
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var body struct {
			Tags []string `json:"tags"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		m.puts[id] = body.Tags
		writeJSON(w, map[string]interface{}{"result": true, "item": map[string]interface{}{"_id": id, "tags": body.Tags}})
	})

	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func noSleep(context.Context, time.Duration) error { return nil }

func newClient(m *mockRaindropServer, sleeps *[]time.Duration) *raindrop.Client {
	rc := retry.ThrottleConfig(3, 10*time.Second, logger.NewNopLogger())
	rc.Sleep = func(ctx context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
	return raindrop.NewClient("token",
		raindrop.WithBaseURL(m.server.URL+"/rest/v1"),
		raindrop.WithRetry(rc),
		raindrop.WithLogger(logger.NewNopLogger()),
	)
}

func buildWorkList(t *testing.T, client *raindrop.Client) []int64 {
	t.Helper()
	ctx := context.Background()

	roots, err := client.ListRootCollections(ctx)
	require.NoError(t, err)
	nested, err := client.ListNestedCollections(ctx)
	require.NoError(t, err)

	return collections.Flatten(collections.BuildTree(roots, nested))
}

func TestEndToEndRun(t *testing.T) {
	m := newMockRaindropServer(t)
	m.throttleN = 2

	var sleeps []time.Duration
	client := newClient(m, &sleeps)
	ids := buildWorkList(t, client)
	require.Equal(t, []int64{1, 2}, ids)

	tg := tagger.Func(func(ctx context.Context, req tagger.Request) ([]string, error) {
		return tagger.ParseTags(`"Example", Reference`), nil
	})
	proc := processor.New(client, tg, processor.DefaultOptions(),
		processor.WithSleep(noSleep), processor.WithLogger(logger.NewNopLogger()))

	stats, err := proc.Run(context.Background(), ids)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Success)
	assert.Equal(t, 0, stats.Errors)

	assert.Equal(t, map[int64][]string{100: {"example", "reference"}}, m.puts)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second}, sleeps)
	assert.Equal(t, []string{
		"/rest/v1/raindrops/1?page=0&perpage=50",
		"/rest/v1/raindrops/1?page=1&perpage=50",
		"/rest/v1/raindrops/2?page=0&perpage=50",
		"/rest/v1/raindrops/2?page=1&perpage=50",
	}, m.pageCalls)
}

func TestEndToEndDryRun(t *testing.T) {
	m := newMockRaindropServer(t)

	var sleeps []time.Duration
	client := newClient(m, &sleeps)

	opts := processor.DefaultOptions()
	opts.DryRun = true
	proc := processor.New(client, nil, opts,
		processor.WithSleep(noSleep), processor.WithLogger(logger.NewNopLogger()))

	stats, err := proc.Run(context.Background(), buildWorkList(t, client))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Success)
	assert.Equal(t, 1, stats.Skipped)
	assert.Empty(t, m.puts)
}

func TestEndToEndWriteExhaustionCountsAsError(t *testing.T) {
	m := newMockRaindropServer(t)
	m.throttleN = 10

	var sleeps []time.Duration
	client := newClient(m, &sleeps)

	proc := processor.New(client, tagger.Placeholder{}, processor.DefaultOptions(),
		processor.WithSleep(noSleep), processor.WithLogger(logger.NewNopLogger()))

	stats, err := proc.Run(context.Background(), []int64{1, 2})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 1, stats.Skipped)
	assert.Len(t, sleeps, 3)
	assert.Equal(t, 4, m.throttled)
}
