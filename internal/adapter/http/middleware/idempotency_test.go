package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisrepo "github.com/iho/democredit/internal/adapter/repository/redis"
	"github.com/iho/democredit/internal/usecase"
)

type fakeIdempotencyStore struct {
	checkAndSetFn func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	updateFn      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	releaseFn     func(ctx context.Context, key string) error
}

func (f *fakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if f.checkAndSetFn != nil {
		return f.checkAndSetFn(ctx, key, response, ttl)
	}
	return false, nil, nil
}

func (f *fakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, key, response, ttl)
	}
	return nil
}

func (f *fakeIdempotencyStore) Release(ctx context.Context, key string) error {
	if f.releaseFn != nil {
		return f.releaseFn(ctx, key)
	}
	return nil
}

type resultCounter struct {
	mu      sync.Mutex
	results map[string]int
}

func (c *resultCounter) RecordIdempotency(result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = map[string]int{}
	}
	c.results[result]++
}

func newFundRequest(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPut, "/api/fund/8031234567", bytes.NewBufferString(`{"amount":10}`))
	req.Header.Set(IdempotencyKeyHeader, key)
	return req
}

func TestIdempotencyMiddleware_StoreErrorFailsRequest(t *testing.T) {
	var called bool
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return false, nil, context.DeadlineExceeded
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, nil)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, newFundRequest("key-err"))

	if called {
		t.Fatalf("handler should not be called when store errors")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_ReleasesFailedResponses(t *testing.T) {
	var updated, released bool
	store := &fakeIdempotencyStore{
		updateFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) error {
			updated = true
			return nil
		},
		releaseFn: func(ctx context.Context, key string) error {
			released = true
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, nil)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})).ServeHTTP(rr, newFundRequest("key-fail"))

	if updated {
		t.Fatalf("expected error responses not to be cached")
	}
	if !released {
		t.Fatalf("expected key to be released after a failed request")
	}
}

func TestIdempotencyMiddleware_InFlightConflict(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return true, []byte(usecase.IdempotencyPending), nil
		},
	}
	counter := &resultCounter{}
	mw := NewIdempotencyMiddleware(store, time.Hour, counter)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run while the first request is in flight")
	})).ServeHTTP(rr, newFundRequest("key-busy"))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, 1, counter.results["in_flight"])
}

func TestIdempotencyMiddleware_IgnoresReadsAndMissingKeys(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			t.Fatal("store must not be consulted")
			return false, nil, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, nil)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	get := httptest.NewRequest(http.MethodGet, "/api/accounts/8031234567", nil)
	get.Header.Set(IdempotencyKeyHeader, "k")
	rr := httptest.NewRecorder()
	mw.Wrap(ok).ServeHTTP(rr, get)
	assert.Equal(t, http.StatusOK, rr.Code)

	put := httptest.NewRequest(http.MethodPut, "/api/fund/8031234567", nil)
	rr = httptest.NewRecorder()
	mw.Wrap(ok).ServeHTTP(rr, put)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestIdempotencyMiddleware_ReplaysWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	counter := &resultCounter{}
	mw := NewIdempotencyMiddleware(redisrepo.NewIdempotencyStore(client), time.Hour, counter)

	var calls int
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"successful":true,"message":"Account funded successfully"}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, newFundRequest("fund-1"))
	require.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, newFundRequest("fund-1"))

	assert.Equal(t, 1, calls, "the duplicate must not reach the handler")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(IdempotencyReplayHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, counter.results["stored"])
	assert.Equal(t, 1, counter.results["replayed"])

	other := httptest.NewRecorder()
	handler.ServeHTTP(other, newFundRequest("fund-2"))
	assert.Equal(t, 2, calls, "a new key must reach the handler")
}
