package csrf

import (
	"fmt"
	"net/http"
	"net/url"
)

// JarPresence reports whether a cookie jar holds the CSRF cookie for a URL.
type JarPresence struct {
	jar  http.CookieJar
	url  *url.URL
	name string
}

// NewJarPresence checks jar for a cookie named name that would be sent to target.
func NewJarPresence(jar http.CookieJar, target, name string) (*JarPresence, error) {
	if jar == nil {
		return nil, fmt.Errorf("missing cookie jar")
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL: %w", err)
	}
	if name == "" {
		name = DefaultCookieName
	}
	return &JarPresence{jar: jar, url: u, name: name}, nil
}

// Check reports whether a non-empty CSRF cookie is present.
func (p *JarPresence) Check() bool {
	return lookup(p.jar, p.url, p.name) != ""
}

// lookup returns the raw value of the named cookie the jar would send to u,
// or "" if there is none.
func lookup(jar http.CookieJar, u *url.URL, name string) string {
	for _, c := range jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
