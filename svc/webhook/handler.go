package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/quotakit/pkg/billing"
	"github.com/dmitrymomot/quotakit/pkg/lifecycle"
)

// Config represents environment-driven webhook receiver settings.
type Config struct {
	MaxBodyBytes       int64         `env:"WEBHOOK_MAX_BODY_BYTES" envDefault:"1048576"`
	RateCapacity       int           `env:"WEBHOOK_RATE_CAPACITY" envDefault:"60"`
	RateRefillInterval time.Duration `env:"WEBHOOK_RATE_REFILL_INTERVAL" envDefault:"1s"`
}

// Option configures the handler.
type Option func(*receiver)

// WithLogger sets the logger used for diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(h *receiver) {
		if log != nil {
			h.log = log
		}
	}
}

// WithClock overrides the time source used by the ingress gate.
func WithClock(now func() time.Time) Option {
	return func(h *receiver) {
		if now != nil {
			h.now = now
		}
	}
}

type receiver struct {
	reconciler *lifecycle.Reconciler
	cfg        Config
	gate       *gate
	log        *slog.Logger
	now        func() time.Time
}

// NewHandler builds the HTTP boundary of the engine:
//
//	POST /webhooks/billing   provider event ingestion
//	POST /internal/sweep     trigger for the external scheduler
//
// Delivery is acknowledged with 200 for everything that parses as JSON;
// per-event processing problems are logged, never surfaced to the
// provider, so deliveries are not retried into the same failure.
func NewHandler(reconciler *lifecycle.Reconciler, cfg Config, opts ...Option) http.Handler {
	if reconciler == nil {
		panic("webhook: lifecycle.Reconciler is required")
	}

	h := &receiver{
		reconciler: reconciler,
		cfg:        cfg,
		log:        slog.Default(),
		now:        func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(h)
	}

	h.gate = newGate(cfg.RateCapacity, cfg.RateRefillInterval, h.now)

	r := chi.NewRouter()
	r.Post("/webhooks/billing", h.handleBillingEvent)
	r.Post("/internal/sweep", h.handleSweep)
	return r
}

func (h *receiver) handleBillingEvent(w http.ResponseWriter, r *http.Request) {
	if !h.gate.allow(clientKey(r)) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": "rate limit exceeded"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, h.cfg.MaxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "failed to read body"})
		return
	}

	if err := h.reconciler.HandleEvent(r.Context(), body); err != nil {
		if errors.Is(err, billing.ErrUnparseablePayload) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON"})
			return
		}

		// Unprocessable events (unknown order status, store hiccups) are
		// acknowledged; retrying the same delivery would hit the same wall.
		h.log.WarnContext(r.Context(), "billing event processing failed",
			slog.Any("error", err))
	}

	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}

func (h *receiver) handleSweep(w http.ResponseWriter, r *http.Request) {
	processed, err := h.reconciler.Sweep(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "sweep failed",
			slog.Int("processed", processed),
			slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"processed": processed,
			"error":     "sweep failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"processed": processed})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
