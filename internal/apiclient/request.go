package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Request is a fully buffered description of an outbound call. It is captured
// before sending so the exact same call can be replayed after a CSRF refresh.
type Request struct {
	// ID correlates log lines of one call and its replay. Not sent on the wire.
	ID string

	Method string
	// Path is relative to the client base URL and may carry a query string.
	// Absolute URLs are sent as is.
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// RequestOption adjusts a single call.
type RequestOption func(*Request)

// WithHeader sets a header on this call only.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Header == nil {
			r.Header = make(http.Header)
		}
		r.Header.Set(key, value)
	}
}

// WithQuery adds a query parameter to this call.
func WithQuery(key, value string) RequestOption {
	return func(r *Request) {
		if r.Query == nil {
			r.Query = make(url.Values)
		}
		r.Query.Add(key, value)
	}
}

// NewRequest builds a Request. body is JSON encoded unless it is nil, []byte,
// json.RawMessage or an io.Reader, which are sent verbatim.
func NewRequest(method, path string, body any, opts ...RequestOption) (*Request, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	req := &Request{
		Method: method,
		Path:   path,
		Body:   payload,
	}
	for _, opt := range opts {
		opt(req)
	}
	return req, nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		return data, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		return data, nil
	}
}

// resolve builds the absolute request URL against base.
func (r *Request) resolve(base *url.URL) (string, error) {
	ref, err := url.Parse(r.Path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", r.Path, err)
	}

	var u *url.URL
	if ref.IsAbs() {
		u = ref
	} else {
		u = base.JoinPath(ref.Path)
		u.RawQuery = ref.RawQuery
	}

	if len(r.Query) > 0 {
		q := u.Query()
		for k, vs := range r.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (r *Request) bodyReader() io.Reader {
	if r.Body == nil {
		return nil
	}
	return bytes.NewReader(r.Body)
}

// Response is a received 2xx response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}
