package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies the class of a failed call.
type Kind int

const (
	// KindUnclassified covers any non-2xx status without dedicated handling.
	KindUnclassified Kind = iota
	// KindNetwork means no response was received (DNS, refused, timeout).
	KindNetwork
	// KindAuth is a 401 response.
	KindAuth
	// KindCSRF is a 419 response (CSRF token mismatch or expired session).
	KindCSRF
	// KindRateLimited is a 429 response.
	KindRateLimited
	// KindServer is a 500 response.
	KindServer
)

// StatusCSRFMismatch is the non-standard status Laravel answers with when the
// CSRF token is missing or stale.
const StatusCSRFMismatch = 419

// Sentinels matched by errors.Is for each Kind.
var (
	ErrUnclassified = errors.New("unclassified failure")
	ErrNetwork      = errors.New("network failure")
	ErrUnauthorized = errors.New("unauthorized")
	ErrCSRFMismatch = errors.New("csrf token mismatch")
	ErrRateLimited  = errors.New("rate limited")
	ErrServer       = errors.New("server failure")
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindCSRF:
		return "csrf"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	default:
		return "unclassified"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindAuth:
		return ErrUnauthorized
	case KindCSRF:
		return ErrCSRFMismatch
	case KindRateLimited:
		return ErrRateLimited
	case KindServer:
		return ErrServer
	default:
		return ErrUnclassified
	}
}

// Classify maps an HTTP status code to a Kind. 2xx codes are not failures and
// must not be passed in.
func Classify(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindAuth
	case StatusCSRFMismatch:
		return KindCSRF
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusInternalServerError:
		return KindServer
	default:
		return KindUnclassified
	}
}

// Error describes a failed call. StatusCode and Body are zero for KindNetwork.
type Error struct {
	Kind       Kind
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte

	// Err is the transport error for KindNetwork, nil otherwise.
	Err error
}

// Compile-time check that *Error implements error.
var _ error = (*Error)(nil)

// NewStatusError builds an Error for a received non-2xx response.
func NewStatusError(method, url string, status int, header http.Header, body []byte) *Error {
	return &Error{
		Kind:       Classify(status),
		Method:     method,
		URL:        url,
		StatusCode: status,
		Header:     header,
		Body:       body,
	}
}

// NewNetworkError builds an Error for a call that produced no response.
func NewNetworkError(method, url string, err error) *Error {
	return &Error{
		Kind:   KindNetwork,
		Method: method,
		URL:    url,
		Err:    err,
	}
}

func (e *Error) Error() string {
	if e.Kind == KindNetwork {
		return fmt.Sprintf("%s %s: %v: %v", e.Method, e.URL, ErrNetwork, e.Err)
	}
	return fmt.Sprintf("%s %s: %v (status %d)", e.Method, e.URL, e.Kind.sentinel(), e.StatusCode)
}

// Unwrap exposes both the kind sentinel and the underlying transport error.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// KindOf returns the Kind of err and whether err carries one.
func KindOf(err error) (Kind, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return KindUnclassified, false
}
