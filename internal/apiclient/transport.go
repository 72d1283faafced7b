package apiclient

import (
	"net/http"
	"net/url"

	"github.com/careerhub/hubclient/internal/csrf"
)

// XSRFTransport copies the CSRF cookie into the CSRF request header, the way
// browsers' XHR libraries do for Laravel backends. The cookie value is
// URL-encoded by Laravel; the header carries the decoded value.
//
// http.Client adds jar cookies to the request before calling its Transport, so
// the cookie is read from the outgoing request itself.
type XSRFTransport struct {
	Base       http.RoundTripper
	CookieName string
	HeaderName string
}

// Compile-time check that XSRFTransport implements http.RoundTripper.
var _ http.RoundTripper = (*XSRFTransport)(nil)

// RoundTrip implements http.RoundTripper.
func (t *XSRFTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	cookieName := t.CookieName
	if cookieName == "" {
		cookieName = csrf.DefaultCookieName
	}
	headerName := t.HeaderName
	if headerName == "" {
		headerName = csrf.DefaultHeaderName
	}

	cookie, err := req.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return base.RoundTrip(req)
	}

	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		value = cookie.Value
	}

	// RoundTrippers must not modify the caller's request
	newReq := req.Clone(req.Context())
	newReq.Header.Set(headerName, value)

	return base.RoundTrip(newReq)
}
