// Package observer implements the audit observation interceptor: a
// middleware that wraps gated operations and records exactly one audit entry
// per completed request, on both success and failure paths.
package observer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"aegis/internal/audit/metrics"
	"aegis/internal/audit/models"
	"aegis/internal/authz"
	"aegis/internal/platform/device"
	"aegis/internal/platform/middleware"
	"aegis/internal/platform/privacy"
	"aegis/internal/transport/http/shared"
)

// maxCapturedBody bounds how much of the request body is parsed into the
// audit details. Larger bodies are audited without a body snapshot.
const maxCapturedBody = 64 << 10

// maxCapturedResponse bounds the buffered response prefix used to extract an
// error message on failure paths.
const maxCapturedResponse = 2 << 10

// Recorder is the write side of the audit trail. A nil return means the
// write was dropped downstream; the observer does not care.
type Recorder interface {
	Record(ctx context.Context, userID string, action models.Action, entity, entityID string, details map[string]any) *models.Entry
}

// Observer records an audit entry around every gated operation.
type Observer struct {
	recorder Recorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures the Observer.
type Option func(*Observer)

// WithMetrics sets the metrics collector for the observer.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Observer) {
		o.metrics = m
	}
}

// New builds an observer that forwards to the given recorder.
func New(recorder Recorder, logger *slog.Logger, opts ...Option) *Observer {
	o := &Observer{recorder: recorder, logger: logger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Observe returns a middleware auditing the operation. Operations without a
// declared resource pass through untouched, as do unauthenticated requests:
// an unauthenticated caller never reaches an authorized resource, so there
// is nothing to observe.
//
// The entry is recorded exactly once, after the request terminates, on
// whichever path (success, error response, or panic) terminates it. The
// audit action derives from the HTTP method; success is any status below 400.
func (o *Observer) Observe(op authz.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !op.Gated() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ident, ok := middleware.GetIdentity(ctx)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			snapshot := o.captureRequest(r)
			ww := &observedWriter{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				action := models.ActionForMethod(r.Method)
				entityID := chi.URLParam(r, "id")

				if p := recover(); p != nil {
					snapshot["success"] = false
					snapshot["error"] = fmt.Sprintf("panic: %v", p)
					o.recorder.Record(ctx, ident.UserID, action, op.Resource, entityID, snapshot)
					panic(p)
				}

				if params := routeParams(r); len(params) > 0 {
					snapshot["params"] = params
				}

				if ww.status < http.StatusBadRequest {
					snapshot["success"] = true
				} else {
					snapshot["success"] = false
					snapshot["error"] = extractError(ww.tail.Bytes(), ww.status)
				}

				o.recorder.Record(ctx, ident.UserID, action, op.Resource, entityID, snapshot)
				if o.metrics != nil {
					o.metrics.ObserveObserveLatency(time.Since(start).Seconds())
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// captureRequest snapshots the request context before the handler runs, so
// the recorded details reflect what arrived, not what the handler left
// behind. The body is restored for the handler to consume.
func (o *Observer) captureRequest(r *http.Request) map[string]any {
	details := map[string]any{
		"method":     r.Method,
		"url":        r.URL.RequestURI(),
		"ip":         privacy.AnonymizeIP(shared.ClientIP(r)),
		"user_agent": r.UserAgent(),
		"device":     device.Summarize(r.UserAgent()),
	}

	if body := o.captureBody(r); body != nil {
		details["body"] = models.SanitizeBody(body)
	}

	return details
}

func (o *Observer) captureBody(r *http.Request) map[string]any {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return nil
	}

	original := r.Body
	raw, err := io.ReadAll(io.LimitReader(original, maxCapturedBody+1))
	// Hand the handler back the bytes already consumed followed by whatever
	// remains unread, so the primary operation sees the stream untouched.
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), original))
	if err != nil {
		o.logger.Warn("failed to read request body for audit", "error", err)
		return nil
	}

	if len(raw) > maxCapturedBody {
		// Oversized bodies are audited without a snapshot.
		return nil
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		// Non-object bodies are not snapshotted; the entry still records
		// method, URL, and outcome.
		return nil
	}
	return body
}

// routeParams collects chi URL parameters after routing resolved them.
func routeParams(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		if key == "*" {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

// extractError pulls a failure message out of the buffered response
// envelope, preferring error_description over the bare code, with the HTTP
// status text as a last resort so the error field is never empty.
func extractError(responsePrefix []byte, status int) string {
	var envelope struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(responsePrefix, &envelope); err == nil {
		if envelope.ErrorDescription != "" {
			return envelope.ErrorDescription
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return http.StatusText(status)
}

// observedWriter captures the response status and a bounded prefix of the
// body so failure entries can carry the error message.
type observedWriter struct {
	http.ResponseWriter
	status int
	tail   bytes.Buffer
}

func (w *observedWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *observedWriter) Write(b []byte) (int, error) {
	if w.tail.Len() < maxCapturedResponse {
		remaining := maxCapturedResponse - w.tail.Len()
		if remaining > len(b) {
			remaining = len(b)
		}
		w.tail.Write(b[:remaining])
	}
	return w.ResponseWriter.Write(b)
}
