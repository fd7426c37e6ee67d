package httpclient

import (
	"net/http"
	"time"
)

const DefaultUserAgent = "bondly-api/1"

type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// New returns a client for outbound calls (LLM providers). Every request carries
// UserAgent unless the caller already set one.
func New(opts Options) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.MaxIdleConnsPerHost = 8
	base.IdleConnTimeout = 90 * time.Second

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: &userAgentTransport{next: base, userAgent: opts.UserAgent},
	}
}

type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(clone)
}
