// Package csrf obtains the Sanctum CSRF cookie.
//
// The cookie is issued by a bootstrap endpoint on the bare backend host, not
// the /api application prefix. The Provider talks to that endpoint with its own
// http.Client that shares the API client's cookie jar, so a cookie installed
// here is sent on the next API request.
//
// InitializeCookie is strict and returns the failure. Refresh collapses the
// failure into a boolean for callers that only need to branch on it.
package csrf
