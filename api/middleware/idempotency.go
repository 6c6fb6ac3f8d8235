package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/forno-backend/api/responses"
	"github.com/angelmondragon/forno-backend/api/validators"
	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/angelmondragon/forno-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/forno-backend/pkg/redis"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"

	cartIdempotencyTTL  = 24 * time.Hour
	orderIdempotencyTTL = 7 * 24 * time.Hour
	claimTTL            = 2 * time.Minute
	inFlightMarker      = "in-flight"
)

type idempotencyPolicy struct {
	ttl        time.Duration
	requireKey bool
}

// Keyed by "METHOD pattern". Adding a line and placing an order refuse to run
// without a key; the handoff link dedupes only when the client sends one.
var idempotencyPolicies = map[string]idempotencyPolicy{
	"POST /api/v1/session/cart/lines":       {ttl: cartIdempotencyTTL, requireKey: true},
	"POST /api/v1/session/checkout/handoff": {ttl: cartIdempotencyTTL},
	"POST /api/v1/session/checkout":         {ttl: orderIdempotencyTTL, requireKey: true},
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	BodyHash    string `json:"body_hash"`
}

// Idempotency makes the listed session routes safe to resubmit. The first request
// for a key claims it before the handler runs, so a concurrent duplicate gets a
// conflict instead of a second order; later duplicates get the stored response.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if isNilStore(store) {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			policy, ok := policyFor(r.Method, routePattern(r))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if clientKey == "" {
				if policy.requireKey {
					responses.WriteError(ctx, logg, w, pkgerrors.Field(IdempotencyKeyHeader, "header is required on this route"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, validators.MaxBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("request body exceeds %d bytes", validators.MaxBodyBytes)))
					return
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			bodyHash := hashBody(body)
			key := store.IdempotencyKey(SessionIDFromContext(ctx)+"|"+r.Method+"|"+r.URL.Path, clientKey)

			claimed, err := store.SetNX(ctx, key, inFlightMarker, claimTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				replay(ctx, store, logg, w, key, bodyHash)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			completed := false
			defer func() {
				if !completed {
					release(ctx, store, logg, key)
				}
			}()
			next.ServeHTTP(capture, r)

			status := capture.statusCode()
			if status >= http.StatusInternalServerError {
				return
			}
			payload, err := json.Marshal(storedResponse{
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				BodyHash:    bodyHash,
			})
			if err != nil {
				logError(ctx, logg, "encode idempotent response", err)
				return
			}
			if err := store.Set(context.WithoutCancel(ctx), key, string(payload), policy.ttl); err != nil {
				logError(ctx, logg, "store idempotent response", err)
				return
			}
			completed = true
		})
	}
}

func replay(ctx context.Context, store pkgredis.IdempotencyStore, logg *logger.Logger, w http.ResponseWriter, key, bodyHash string) {
	raw, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, pkgredis.ErrNil) || raw == inFlightMarker:
		// the claim expired between SetNX and Get, or the first request is still running
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInProgress, "a request with this Idempotency-Key is still in progress"))
		return
	case err != nil:
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read idempotency record"))
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode idempotency record"))
		return
	}
	if stored.BodyHash != bodyHash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "Idempotency-Key was already used with a different request body"))
		return
	}
	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}

func release(ctx context.Context, store pkgredis.IdempotencyStore, logg *logger.Logger, key string) {
	if err := store.Del(context.WithoutCancel(ctx), key); err != nil {
		logError(ctx, logg, "release idempotency key", err)
	}
}

func isNilStore(store pkgredis.IdempotencyStore) bool {
	if store == nil {
		return true
	}
	c, ok := store.(*pkgredis.Client)
	return ok && c == nil
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// routePattern prefers the matched chi pattern; middleware mounted on a
// sub-router only sees a partial "/*" pattern, so fall back to the path.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "*") {
			return pattern
		}
	}
	return r.URL.Path
}

func policyFor(method, pattern string) (idempotencyPolicy, bool) {
	policy, ok := idempotencyPolicies[method+" "+pattern]
	return policy, ok
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
