// Package apiclient is the single HTTP client used to talk to the backend API.
//
// Every call runs through the same pipeline:
//
//	prepare ─▶ round trip ─▶ classify ─┬─▶ success: persist "token" from body
//	                                   └─▶ failure: notify / clear session / CSRF retry
//
// Outbound, the stored bearer token is attached and, when the CSRF cookie is
// missing, a cookie refresh is awaited (the request is sent whatever the
// refresh outcome). At the transport level the XSRF-TOKEN cookie is echoed in
// the X-XSRF-TOKEN header.
//
// Inbound, a 419 triggers exactly one CSRF refresh followed by exactly one
// replay of the buffered request. The replay is not itself recoverable, so a
// second 419 is returned to the caller.
//
// Failures are *apierr.Error values:
//
//	resp, err := client.Get(ctx, "/user")
//	if errors.Is(err, apierr.ErrUnauthorized) {
//		// token already cleared and login redirect fired
//	}
package apiclient
