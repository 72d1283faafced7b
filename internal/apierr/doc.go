// Package apierr classifies failed backend calls.
//
// Every failure surfaced by the API client or the CSRF cookie provider is an
// *Error carrying a Kind. Callers branch with errors.Is against the per-kind
// sentinels, or errors.As to reach the status code and response body:
//
//	if errors.Is(err, apierr.ErrUnauthorized) {
//		// session is gone
//	}
package apierr
