package raindrop

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "rdtagger/pkg/errors"
	"rdtagger/pkg/logger"
	"rdtagger/pkg/retry"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func newResponse(req *http.Request, statusCode int, body string, header http.Header) *http.Response {
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     header,
		Request:    req,
	}
}

// recordingLimiter counts governor calls and remembers the last headers
type recordingLimiter struct {
	mu      sync.Mutex
	waits   int
	updates []http.Header
}

func (l *recordingLimiter) WaitIfNeeded(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.waits++
	return ctx.Err()
}

func (l *recordingLimiter) UpdateFromResponse(h http.Header) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updates = append(l.updates, h)
}

type testEnv struct {
	client  *Client
	limiter *recordingLimiter
	sleeps  []time.Duration
	log     *logger.TestLogger
}

func newTestEnv(handler func(req *http.Request) (*http.Response, error)) *testEnv {
	env := &testEnv{limiter: &recordingLimiter{}, log: logger.NewTestLogger()}

	rc := retry.ThrottleConfig(3, 10*time.Second, env.log)
	rc.Sleep = func(ctx context.Context, d time.Duration) error {
		env.sleeps = append(env.sleeps, d)
		return nil
	}

	env.client = NewClient("secret-token",
		WithBaseURL("https://api.test/rest/v1/"),
		WithHTTPClient(&http.Client{Transport: &mockRoundTripper{handler: handler}}),
		WithLimiter(env.limiter),
		WithRetry(rc),
		WithLogger(env.log),
	)
	return env
}

func TestListRootCollections(t *testing.T) {
	var gotReq *http.Request
	env := newTestEnv(func(req *http.Request) (*http.Response, error) {
		gotReq = req
		return newResponse(req, 200, `{"result":true,"items":[
			{"_id":1,"title":"Reading","count":4},
			{"_id":5,"title":"Tools","count":0,"parent":null}
		]}`, nil), nil
	})

	cols, err := env.client.ListRootCollections(context.Background())
	require.NoError(t, err)

	require.Len(t, cols, 2)
	assert.Equal(t, Collection{ID: 1, Title: "Reading", Count: 4}, cols[0])
	assert.Nil(t, cols[1].Parent)

	assert.Equal(t, "https://api.test/rest/v1/collections", gotReq.URL.String())
	assert.Equal(t, "Bearer secret-token", gotReq.Header.Get("Authorization"))
	assert.Equal(t, 1, env.limiter.waits)
	assert.Len(t, env.limiter.updates, 1)
}

func TestListNestedCollectionsNormalizesParent(t *testing.T) {
	env := newTestEnv(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/rest/v1/collections/childrens", req.URL.Path)
		return newResponse(req, 200, `{"result":true,"items":[
			{"_id":2,"title":"A","parent":{"$id":1}},
			{"_id":3,"title":"B","parent":{"id":1}},
			{"_id":4,"title":"C","parent":2},
			{"_id":6,"title":"D","parent":"2"}
		]}`, nil), nil
	})

	cols, err := env.client.ListNestedCollections(context.Background())
	require.NoError(t, err)
	require.Len(t, cols, 4)

	parents := make([]int64, 0, len(cols))
	for _, c := range cols {
		require.NotNil(t, c.Parent, "collection %d", c.ID)
		parents = append(parents, *c.Parent)
	}
	assert.Equal(t, []int64{1, 1, 2, 2}, parents)
}

func TestListItems(t *testing.T) {
	tests := []struct {
		name      string
		nested    bool
		wantQuery string
	}{
		{"plain", false, "page=3&perpage=50"},
		{"nested", true, "nested=true&page=3&perpage=50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, "/rest/v1/raindrops/42", req.URL.Path)
				assert.Equal(t, tt.wantQuery, req.URL.RawQuery)
				return newResponse(req, 200, `{"result":true,"count":1,"items":[
					{"_id":7,"title":"Go blog","link":"https://go.dev/blog","tags":["go"],"collection":{"$id":42}}
				]}`, nil), nil
			})

			items, err := env.client.ListItems(context.Background(), 42, 3, 50, tt.nested)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, Item{ID: 7, Title: "Go blog", Link: "https://go.dev/blog", Tags: []string{"go"}, CollectionID: 42}, items[0])
		})
	}
}

func TestUpdateItemTags(t *testing.T) {
	var body map[string][]string
	env := newTestEnv(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPut, req.Method)
		assert.Equal(t, "/rest/v1/raindrop/99", req.URL.Path)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		return newResponse(req, 200, `{"result":true,"item":{"_id":99}}`, nil), nil
	})

	require.NoError(t, env.client.UpdateItemTags(context.Background(), 99, []string{"go", "http"}))
	assert.Equal(t, map[string][]string{"tags": {"go", "http"}}, body)

	require.NoError(t, env.client.UpdateItemTags(context.Background(), 99, nil))
	assert.Equal(t, map[string][]string{"tags": {}}, body)
}

func TestThrottledThenSuccess(t *testing.T) {
	calls := 0
	env := newTestEnv(func(req *http.Request) (*http.Response, error) {
		calls++
		if calls <= 3 {
			return newResponse(req, 429, `{"error":"too many"}`, nil), nil
		}
		return newResponse(req, 200, `{"result":true,"items":[]}`, nil), nil
	})

	items, err := env.client.ListItems(context.Background(), 1, 0, 50, false)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second, 40 * time.Second}, env.sleeps)
	assert.Equal(t, 4, env.limiter.waits, "every attempt passes the governor")
	assert.Len(t, env.limiter.updates, 4, "quota headers are read from failed responses too")
}

func TestThrottleExhaustion(t *testing.T) {
	calls := 0
	env := newTestEnv(func(req *http.Request) (*http.Response, error) {
		calls++
		return newResponse(req, 429, "slow down", nil), nil
	})

	err := env.client.UpdateItemTags(context.Background(), 1, []string{"a"})
	require.Error(t, err)

	assert.Equal(t, 4, calls)
	assert.Len(t, env.sleeps, 3)
	assert.Equal(t, 429, errs.StatusCode(err))
	assert.Contains(t, err.Error(), "slow down")
}

func TestNonThrottlingErrorsAreNotRetried(t *testing.T) {
	for _, status := range []int{400, 401, 404, 500, 503} {
		calls := 0
		env := newTestEnv(func(req *http.Request) (*http.Response, error) {
			calls++
			return newResponse(req, status, `{"errorMessage":"nope"}`, nil), nil
		})

		_, err := env.client.ListRootCollections(context.Background())
		require.Error(t, err)
		assert.Equal(t, 1, calls, "status %d", status)
		assert.Empty(t, env.sleeps)
		assert.Equal(t, status, errs.StatusCode(err))
		assert.Contains(t, err.Error(), `{"errorMessage":"nope"}`)
	}
}

func TestResultFalseIsAnError(t *testing.T) {
	env := newTestEnv(func(req *http.Request) (*http.Response, error) {
		return newResponse(req, 200, `{"result":false,"errorMessage":"collection not found"}`, nil), nil
	})

	_, err := env.client.ListItems(context.Background(), 5, 0, 50, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collection not found")
}

func TestMalformedJSON(t *testing.T) {
	env := newTestEnv(func(req *http.Request) (*http.Response, error) {
		return newResponse(req, 200, `{"items":[`, nil), nil
	})

	_, err := env.client.ListRootCollections(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeParsing))
	assert.True(t, env.log.HasMessage("failed to parse JSON response"))
}

func TestNetworkError(t *testing.T) {
	env := newTestEnv(func(req *http.Request) (*http.Response, error) {
		return nil, io.ErrUnexpectedEOF
	})

	_, err := env.client.ListRootCollections(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeNetwork))
	assert.Empty(t, env.limiter.updates)
}

func TestRateLimitHeadersReachGovernor(t *testing.T) {
	env := newTestEnv(func(req *http.Request) (*http.Response, error) {
		h := http.Header{}
		h.Set("X-RateLimit-Remaining", "3")
		return newResponse(req, 200, `{"result":true,"items":[]}`, h), nil
	})

	_, err := env.client.ListRootCollections(context.Background())
	require.NoError(t, err)
	require.Len(t, env.limiter.updates, 1)
	assert.Equal(t, "3", env.limiter.updates[0].Get("X-RateLimit-Remaining"))
}

func TestCancelledContextSkipsRequest(t *testing.T) {
	env := newTestEnv(func(req *http.Request) (*http.Response, error) {
		t.Fatal("request should not be sent")
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.client.ListRootCollections(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
