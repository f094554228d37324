// Package api exposes presentation generation over HTTP.
package api

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/benjaminschreck/go-deck/pkg/deck"
	"github.com/benjaminschreck/go-deck/pkg/deck/pml"
)

// MissingMediaHeader lists the slides whose picture was dropped.
const MissingMediaHeader = "X-Deck-Missing-Media"

// Generator builds presentations. *deck.Engine implements it.
type Generator interface {
	Generate(ctx context.Context, units []deck.ContentUnit, opts deck.Options) (*deck.Result, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, units []deck.ContentUnit, opts deck.Options) (*deck.Result, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, units []deck.ContentUnit, opts deck.Options) (*deck.Result, error) {
	return f(ctx, units, opts)
}

// ErrorResponse is the body of every failed request. A failed request
// never carries a partial presentation.
type ErrorResponse struct {
	Error     string                 `json:"error"`
	Detail    string                 `json:"detail,omitempty"`
	Issues    []deck.ValidationIssue `json:"issues,omitempty"`
	RequestID string                 `json:"requestId,omitempty"`
}

// Handler handles the presentation endpoints
type Handler struct {
	generator       Generator
	logger          *deck.Logger
	maxRequestBytes int64
}

// NewHandler creates a new presentation handler
func NewHandler(generator Generator, logger *deck.Logger, maxRequestBytes int64) *Handler {
	if logger == nil {
		logger = deck.GetLogger()
	}
	return &Handler{
		generator:       generator,
		logger:          logger,
		maxRequestBytes: maxRequestBytes,
	}
}

// Routes returns the router for the v1 API
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/presentations", h.CreatePresentation)
	r.Get("/styles", h.ListStyles)
	return r
}

// NewRouter assembles the service: request ids, access logging, panic
// recovery, a per-request timeout, the health check and the v1 API.
func NewRouter(h *Handler, timeout time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Use(ensureRequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(h.logger))
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(requestTimeout(timeout))
	}

	r.Get("/health", Health)
	r.Mount("/api/v1", h.Routes())
	return r
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// ListStyles returns the available style presets.
func (h *Handler) ListStyles(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string][]string{"styles": pml.StyleNames()})
}

// CreatePresentation decodes content units and responds with the .pptx
// as an attachment.
func (h *Handler) CreatePresentation(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	log := h.logger.WithField("request_id", requestID)

	body := r.Body
	if h.maxRequestBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxRequestBytes)
	}
	req, err := deck.DecodeUnits(body)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}

	res, err := h.generator.Generate(r.Context(), req.Units, req.Options())
	if err != nil {
		h.fail(w, r, log, err)
		return
	}

	header := w.Header()
	header.Set("Content-Type", res.ContentType)
	header.Set("Content-Disposition", contentDisposition(res.FileName))
	header.Set("Content-Length", strconv.Itoa(len(res.Data)))
	if len(res.MissingMedia) > 0 {
		ordinals := make([]string, len(res.MissingMedia))
		for i, n := range res.MissingMedia {
			ordinals[i] = strconv.Itoa(n)
		}
		header.Set(MissingMediaHeader, strings.Join(ordinals, ","))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		log.Warn("failed to write response: %v", err)
	}
}

// fail maps an error to a status and a JSON body.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, log *deck.Logger, err error) {
	resp := ErrorResponse{RequestID: middleware.GetReqID(r.Context())}
	status := http.StatusInternalServerError

	var verr *deck.ValidationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
		resp.Error = "request too large"
		resp.Detail = "request body exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes"
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		resp.Error = "invalid request"
		resp.Detail = verr.Error()
		resp.Issues = verr.Issues
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		resp.Error = "timeout"
		resp.Detail = err.Error()
	case errors.Is(err, context.Canceled):
		// the client is gone; 499 as nginx does
		status = 499
		resp.Error = "canceled"
		resp.Detail = err.Error()
	default:
		resp.Error = "internal error"
		resp.Detail = err.Error()
	}

	if status >= http.StatusInternalServerError {
		log.Error("request failed: %v", err)
	} else {
		log.Warn("request rejected (%d): %v", status, err)
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}

// contentDisposition quotes ASCII names as is and falls back to the RFC 2231
// encoding for the rest.
func contentDisposition(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] >= utf8.RuneSelf {
			return mime.FormatMediaType("attachment", map[string]string{"filename": name})
		}
	}
	return `attachment; filename="` + name + `"`
}

// ensureRequestID gives requests without an X-Request-Id a UUID one, which
// middleware.RequestID then adopts, and echoes the id on the response.
func ensureRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(middleware.RequestIDHeader, id)
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// requestTimeout bounds the request context. The handler answers a
// deadline itself, with a JSON 504.
func requestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessLog(logger *deck.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.WithFields(deck.Fields{
					"request_id": middleware.GetReqID(r.Context()),
					"status":     ww.Status(),
					"bytes":      ww.BytesWritten(),
				}).Info("%s %s in %s", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
