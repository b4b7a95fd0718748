package cms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/hospital-site/internal/observability/metrics"
	"github.com/wolfman30/hospital-site/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api", logging.Discard(), opts...)
}

func TestClientList_DataEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/departments", r.URL.Path)
		assert.Equal(t, "*", r.URL.Query().Get("populate"))
		_, _ = w.Write([]byte(`{"data":[{"id":1,"attributes":{"name":"X"}}],"meta":{"pagination":{"page":1,"pageSize":25,"pageCount":3,"total":60}}}`))
	})

	page := client.List(context.Background(), ListQuery{Resource: "departments"})
	require.Len(t, page.Items, 1)
	assert.Equal(t, "1", page.Items[0].ID)
	assert.Equal(t, "X", page.Items[0].Attributes["name"])
	assert.Equal(t, Pagination{Page: 1, PageSize: 25, PageCount: 3, Total: 60}, page.Pagination)
	assert.True(t, page.Pagination.HasMore())
}

func TestClientList_BareListAndFlatRecords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"documentId":"abc","title":"Flat"}]`))
	})

	page := client.List(context.Background(), ListQuery{Resource: "projects", PageSize: 6})
	require.Len(t, page.Items, 1)
	assert.Equal(t, "abc", page.Items[0].ID)
	assert.Equal(t, "Flat", page.Items[0].Attributes["title"])
	assert.Equal(t, Pagination{Page: 1, PageSize: 6, PageCount: 1, Total: 1}, page.Pagination)
}

func TestClientList_FailureYieldsEmptyPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	page := client.List(context.Background(), ListQuery{Resource: "doctors", Page: 2, PageSize: 12})
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.Equal(t, Pagination{Page: 2, PageSize: 12, PageCount: 1, Total: 0}, page.Pagination)
}

func TestClientList_UnexpectedShapeYieldsEmptyPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"nope"}`))
	})
	page := client.List(context.Background(), ListQuery{Resource: "services"})
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Pagination.PageCount)
}

func TestClientGet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/doctors/7":
			_, _ = w.Write([]byte(`{"data":{"id":7,"attributes":{"name":"Dr. Wanjiku"}}}`))
		case "/api/doctors/null":
			_, _ = w.Write([]byte(`{"data":null}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	item, err := client.Get(ctx, "doctors", "7")
	require.NoError(t, err)
	assert.Equal(t, "7", item.ID)
	assert.Equal(t, "Dr. Wanjiku", item.Attributes["name"])

	_, err = client.Get(ctx, "doctors", "404")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.Get(ctx, "doctors", "null")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.Get(ctx, "doctors", " ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientGet_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := client.Get(context.Background(), "services", "1")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestClientSingle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/home-page", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"id":1,"attributes":{"heroTitle":"Welcome"}}}`))
	})
	attrs, err := client.Single(context.Background(), "home-page")
	require.NoError(t, err)
	assert.Equal(t, "Welcome", attrs["heroTitle"])
}

func TestClientSubmit_WrapsPayloadAndSendsToken(t *testing.T) {
	var received map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/contact-submissions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":11,"attributes":{"name":"Amina"}}}`))
	}, WithToken("secret"))

	item, err := client.Submit(context.Background(), "contact-submissions", map[string]any{"name": "Amina"})
	require.NoError(t, err)
	assert.Equal(t, "11", item.ID)
	assert.Equal(t, map[string]any{"data": map[string]any{"name": "Amina"}}, received)
}

func TestClientSubmit_Rejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"ValidationError"}}`, http.StatusBadRequest)
	})
	_, err := client.Submit(context.Background(), "appointments", map[string]any{})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestClient_CacheServesRepeatReads(t *testing.T) {
	var calls int32
	reg := prometheus.NewRegistry()
	m := metrics.NewCMSMetrics(reg)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"data":[{"id":1,"attributes":{"name":"Cached"}}]}`))
	}, WithCache(NewRedisCache(rdb), time.Minute), WithMetrics(m))

	ctx := context.Background()
	q := ListQuery{Resource: "services"}
	first := client.List(ctx, q)
	second := client.List(ctx, q)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, first, second)
}

func TestClient_MetricsRecordOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCMSMetrics(reg)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, WithMetrics(m))

	client.List(context.Background(), ListQuery{Resource: "jobs"})

	count, err := testutil.GatherAndCount(reg, "ktrh_cms_fetch_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
