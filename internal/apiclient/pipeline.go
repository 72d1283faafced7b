package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/careerhub/hubclient/internal/apierr"
	"github.com/careerhub/hubclient/internal/notify"
	"github.com/careerhub/hubclient/internal/tokenstore"
)

// User-facing notification texts.
const (
	msgNetwork     = "Network connection error. Please check your connection."
	msgRateLimited = "Too many requests. Please try again later."
	msgServer      = "Server error. Please try again later."
)

// sendWithCsrfRecovery sends req once and, on a 419, refreshes the CSRF
// cookie and sends it exactly once more. The replay goes through send, not
// through this function, so recovery cannot loop.
func (c *Client) sendWithCsrfRecovery(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.send(ctx, req)
	if !errors.Is(err, apierr.ErrCSRFMismatch) {
		return resp, err
	}

	refreshed := c.csrf.Refresh(ctx)
	c.metrics.observeRefresh(refreshRecovery, refreshed)
	if !refreshed {
		c.logger.ErrorContext(ctx, "failed to refresh csrf token, giving up", c.logAttrs(ctx, req)...)
		return nil, err
	}

	c.logger.DebugContext(ctx, "csrf token refreshed, replaying request", c.logAttrs(ctx, req)...)
	return c.send(ctx, req)
}

// send runs one request through outbound interception, the round trip and
// inbound interception.
func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := c.prepare(ctx, req)
	if err != nil {
		c.metrics.observeRequest(req.Method, outcomeBuildError)
		c.logger.ErrorContext(ctx, "request error", append(c.logAttrs(ctx, req), "error", err)...)
		return nil, fmt.Errorf("building request: %w", err)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.handleFailure(ctx, req, apierr.NewNetworkError(httpReq.Method, httpReq.URL.String(), err))
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.handleFailure(ctx, req, apierr.NewNetworkError(httpReq.Method, httpReq.URL.String(), err))
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, c.handleFailure(ctx, req,
			apierr.NewStatusError(httpReq.Method, httpReq.URL.String(), httpResp.StatusCode, httpResp.Header, body))
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}
	c.handleSuccess(ctx, req, resp)
	return resp, nil
}

// prepare builds the outgoing request: default and per-call headers, the
// stored bearer token, and a pre-emptive CSRF refresh when the cookie is
// missing. The request proceeds even if that refresh fails.
func (c *Client) prepare(ctx context.Context, req *Request) (*http.Request, error) {
	target, err := req.resolve(c.baseURL)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, req.bodyReader())
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	for key, values := range c.headers {
		httpReq.Header[key] = append([]string(nil), values...)
	}
	c.mu.RUnlock()

	for key, values := range req.Header {
		httpReq.Header[key] = append([]string(nil), values...)
	}

	token, err := c.tokenSource.TokenContext(ctx)
	switch {
	case err == nil:
		token.SetAuthHeader(httpReq)
	case tokenstore.IsNotFound(err):
		// anonymous call
	default:
		return nil, err
	}

	if !c.presence.Check() {
		refreshed := c.csrf.Refresh(ctx)
		c.metrics.observeRefresh(refreshPreemptive, refreshed)
		if !refreshed {
			c.logger.WarnContext(ctx, "csrf cookie missing and refresh failed, sending anyway", c.logAttrs(ctx, req)...)
		}
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	return httpReq, nil
}

// handleSuccess persists a token found at the top level of a JSON body and
// makes it the default Authorization header.
func (c *Client) handleSuccess(ctx context.Context, req *Request, resp *Response) {
	c.metrics.observeRequest(req.Method, outcomeSuccess)

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil || payload.Token == "" {
		return
	}

	if err := c.tokens.Write(ctx, payload.Token); err != nil {
		c.logger.ErrorContext(ctx, "failed to persist token", append(c.logAttrs(ctx, req), "error", err)...)
	}
	c.setDefaultAuthorization(payload.Token)
	c.logger.DebugContext(ctx, "stored new token", c.logAttrs(ctx, req)...)
}

// handleFailure runs the side effects for a failed call and returns apiErr.
// 419 has no side effect here; recovery happens in sendWithCsrfRecovery.
// A network failure shows the connectivity toast once, except when ctx itself
// was canceled or timed out: the caller gave up and no toast is shown.
func (c *Client) handleFailure(ctx context.Context, req *Request, apiErr *apierr.Error) error {
	c.metrics.observeRequest(req.Method, apiErr.Kind.String())
	c.logger.WarnContext(ctx, "response error", append(c.logAttrs(ctx, req),
		"kind", apiErr.Kind.String(),
		"status", apiErr.StatusCode,
		"error", apiErr,
	)...)

	switch apiErr.Kind {
	case apierr.KindNetwork:
		// A caller that gave up is not a connectivity problem
		if ctx.Err() == nil {
			c.notifier.Notify(ctx, msgNetwork, notify.Toast(notify.SeverityDanger))
		}
	case apierr.KindAuth:
		c.clearSession(ctx)
		c.router.Redirect(ctx, c.loginPath)
	case apierr.KindRateLimited:
		c.notifier.Notify(ctx, msgRateLimited, notify.Toast(notify.SeverityWarning))
	case apierr.KindServer:
		c.notifier.Notify(ctx, msgServer, notify.Toast(notify.SeverityDanger))
	}

	return apiErr
}

func (c *Client) logAttrs(ctx context.Context, req *Request) []any {
	attrs := []any{"request_id", req.ID, "method", req.Method, "path", req.Path}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs, "trace_id", sc.TraceID().String())
	}
	return attrs
}
