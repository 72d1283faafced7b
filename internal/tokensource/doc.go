// Package tokensource exposes a token store as an oauth2.TokenSource.
//
// The API issues opaque bearer tokens without expiry metadata, so the source
// re-reads storage on every call instead of caching: a 401 or logout removes
// the stored token and the very next request must go out without it.
//
//	ts := tokensource.New(store)
//	tok, err := ts.Token()
//	if err == nil {
//		tok.SetAuthHeader(req)
//	}
package tokensource
