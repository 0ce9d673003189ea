package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// DefaultHeaders are consulted in order before falling back to RemoteAddr.
var DefaultHeaders = []string{"X-Forwarded-For", "X-Real-IP"}

// Resolver extracts the client IP from a request.
type Resolver struct {
	headers []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHeaders replaces the forwarding headers. With no headers only
// RemoteAddr is used.
func WithHeaders(headers ...string) Option {
	return func(r *Resolver) {
		r.headers = headers
	}
}

// New returns a Resolver using DefaultHeaders unless overridden.
func New(opts ...Option) *Resolver {
	r := &Resolver{headers: DefaultHeaders}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultResolver = New()

// FromRequest resolves the client IP with the default headers.
func FromRequest(r *http.Request) string {
	return defaultResolver.Resolve(r)
}

// Resolve returns the first valid address found in the configured headers,
// then RemoteAddr. Comma-separated header values are scanned left to right.
// It returns "" when nothing parses.
func (res *Resolver) Resolve(r *http.Request) string {
	for _, h := range res.headers {
		for candidate := range strings.SplitSeq(r.Header.Get(h), ",") {
			if ip := normalize(candidate); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return normalize(host)
}

// Middleware stores the resolved IP in the request context.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithContext(r.Context(), res.Resolve(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Middleware is Resolver.Middleware with the default headers.
func Middleware(next http.Handler) http.Handler {
	return defaultResolver.Middleware(next)
}

// normalize parses s, unmaps IPv4-in-IPv6 and drops zones.
func normalize(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}
