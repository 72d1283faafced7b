package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/careerhub/hubclient/internal/apiclient"
	"github.com/careerhub/hubclient/internal/apierr"
)

// maxBodyBytes bounds buffered request bodies; they are held in memory for CSRF replay.
const maxBodyBytes = 10 << 20

// forwardedHeaders are the client headers passed on to the API. Credentials,
// cookies and content negotiation are owned by the API client.
var forwardedHeaders = []string{
	"Accept-Language",
	"If-Match",
	"If-None-Match",
}

// relayedHeaders are the API response headers copied back to the local client.
var relayedHeaders = []string{
	"Content-Type",
	"Cache-Control",
	"Etag",
	"Last-Modified",
	"Retry-After",
}

// Doer sends a request through the API client pipeline.
type Doer interface {
	Do(ctx context.Context, req *apiclient.Request) (*apiclient.Response, error)
}

// ForwardHandler relays local requests to the API through a Doer.
type ForwardHandler struct {
	Client Doer
	// Prefix is stripped from the local path before forwarding.
	Prefix string
}

// Compile-time check to ensure ForwardHandler implements http.Handler
var _ http.Handler = (*ForwardHandler)(nil)

// ServeHTTP implements http.Handler.
func (h *ForwardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSONError(ctx, w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeJSONError(ctx, w, "invalid request body", http.StatusBadRequest)
		return
	}

	req := &apiclient.Request{
		Method: r.Method,
		Path:   strings.TrimPrefix(r.URL.Path, h.Prefix),
		Query:  r.URL.Query(),
		Header: make(http.Header),
	}
	if len(body) > 0 {
		req.Body = body
	}
	for _, key := range forwardedHeaders {
		if v := r.Header.Values(key); len(v) > 0 {
			req.Header[key] = v
		}
	}

	resp, err := h.Client.Do(ctx, req)
	if err == nil {
		relay(w, resp.StatusCode, resp.Header, resp.Body)
		return
	}

	var apiErr *apierr.Error
	switch {
	case errors.As(err, &apiErr) && apiErr.Kind != apierr.KindNetwork:
		relay(w, apiErr.StatusCode, apiErr.Header, apiErr.Body)
	case errors.As(err, &apiErr):
		slog.WarnContext(ctx, "upstream unreachable", "error", err)
		writeJSONError(ctx, w, "upstream unreachable", http.StatusBadGateway)
	default:
		slog.ErrorContext(ctx, "failed to forward request", "error", err)
		writeJSONError(ctx, w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func relay(w http.ResponseWriter, status int, header http.Header, body []byte) {
	for _, key := range relayedHeaders {
		if v := header.Values(key); len(v) > 0 {
			w.Header()[key] = v
		}
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// ErrorResponse is the JSON body of errors produced by the gateway itself.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSONError writes ErrorResponse with the given status. Status is sent
// before encoding, so an encoding failure leaves a truncated body.
func writeJSONError(ctx context.Context, w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}
