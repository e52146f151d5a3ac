package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/democredit/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"

	msgInFlight = "A request with this Idempotency-Key is still being processed"
)

// IdempotencyRecorder observes idempotency outcomes.
type IdempotencyRecorder interface {
	RecordIdempotency(result string)
}

// storedResponse is what the store keeps for a completed request.
type storedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// IdempotencyMiddleware handles request idempotency using Redis.
type IdempotencyMiddleware struct {
	store    usecase.IdempotencyStore
	ttl      time.Duration
	recorder IdempotencyRecorder
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware. recorder may be nil.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, recorder IdempotencyRecorder) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, recorder: recorder}
}

// Wrap wraps an http.Handler with idempotency checking.
//
// The first request with a key reserves it. Retries while it runs get 409, retries
// after a 2xx get the stored status and body, and any other outcome releases the
// key so the client may try again.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		// Scope keys to the route so one key cannot replay another endpoint's answer.
		key = r.Method + ":" + r.URL.Path + ":" + key
		logger := zerolog.Ctx(r.Context())

		exists, cached, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			logger.Error().Err(err).Msg("idempotency check failed")
			writeFailure(w, http.StatusInternalServerError, msgInternal)
			return
		}

		if exists {
			var stored storedResponse
			if len(cached) == 0 || string(cached) == usecase.IdempotencyPending || json.Unmarshal(cached, &stored) != nil {
				m.record("in_flight")
				writeFailure(w, http.StatusConflict, msgInFlight)
				return
			}

			m.record("replayed")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(IdempotencyReplayHeader, "true")
			w.WriteHeader(stored.Status)
			_, _ = w.Write(stored.Body)
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(recorder, r)

		// The client may have gone away; the outcome must still be recorded.
		ctx := context.WithoutCancel(r.Context())

		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			if err := m.store.Release(ctx, key); err != nil {
				logger.Warn().Err(err).Msg("failed to release idempotency key")
			}
			return
		}

		payload, err := json.Marshal(storedResponse{Status: recorder.statusCode, Body: recorder.body.Bytes()})
		if err == nil {
			err = m.store.Update(ctx, key, payload, m.ttl)
		}
		if err != nil {
			logger.Warn().Err(err).Msg("failed to store idempotent response")
			return
		}
		m.record("stored")
	})
}

func (m *IdempotencyMiddleware) record(result string) {
	if m.recorder != nil {
		m.recorder.RecordIdempotency(result)
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
