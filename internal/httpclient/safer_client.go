// Package httpclient builds the HTTP client used for remote snapshot
// downloads: bounded redirects, an http(s) scheme allow-list and optional
// private network blocking.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teranos/stubgen/errors"
)

// Options configures New. Zero values select the defaults.
type Options struct {
	Timeout        time.Duration // Default: no timeout
	MaxRedirects   int           // Default: 10
	AllowedSchemes []string      // Default: ["http", "https"]
	// BlockPrivate refuses loopback, link-local and RFC 1918 targets,
	// checked on the URL and again on every resolved address.
	BlockPrivate bool
}

// Guard validates request URLs against Options.
type Guard struct {
	schemes      []string
	blockPrivate bool
}

// New creates a client enforcing opts on the initial request and on every
// redirect.
func New(opts Options) *http.Client {
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 10
	}
	g := NewGuard(opts)

	client := &http.Client{Timeout: opts.Timeout}
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= opts.MaxRedirects {
			return errors.Newf("stopped after %d redirects", opts.MaxRedirects)
		}
		return errors.Wrap(g.Check(req.URL), "redirect blocked")
	}

	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		if g.blockPrivate {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, errors.Wrap(err, "invalid address")
			}
			ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to resolve host %q", host)
			}
			for _, ip := range ips {
				if isPrivateIP(ip) {
					return nil, errors.Newf("private IP address blocked: %s", ip)
				}
			}
		}
		return dialer.DialContext(ctx, network, addr)
	}
	client.Transport = &guardedTransport{guard: g, next: transport}
	return client
}

// NewGuard creates a URL validator for opts.
func NewGuard(opts Options) *Guard {
	schemes := opts.AllowedSchemes
	if len(schemes) == 0 {
		schemes = []string{"http", "https"}
	}
	return &Guard{schemes: schemes, blockPrivate: opts.BlockPrivate}
}

// Check validates one URL.
func (g *Guard) Check(u *url.URL) error {
	scheme := strings.ToLower(u.Scheme)
	allowed := false
	for _, s := range g.schemes {
		if scheme == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return errors.Newf("scheme %q not allowed (allowed: %v)", scheme, g.schemes)
	}

	// http://evil.com@localhost/ style confusion
	if u.User != nil {
		return errors.New("URL carries user info")
	}

	hostname := u.Hostname()
	if hostname == "" {
		return errors.New("URL missing hostname")
	}

	if g.blockPrivate {
		if isLocalhost(hostname) {
			return errors.New("localhost access blocked")
		}
		if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
			return errors.Newf("private IP address blocked: %s", hostname)
		}
	}
	return nil
}

type guardedTransport struct {
	guard *Guard
	next  http.RoundTripper
}

func (t *guardedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.guard.Check(req.URL); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}

var privateBlocks = []*net.IPNet{
	mustCIDR("10.0.0.0/8"),
	mustCIDR("172.16.0.0/12"),
	mustCIDR("192.168.0.0/16"),
	mustCIDR("100.64.0.0/10"), // carrier-grade NAT
	mustCIDR("0.0.0.0/8"),
	mustCIDR("240.0.0.0/4"),
	mustCIDR("fc00::/7"),   // unique local
	mustCIDR("fec0::/10"),  // site-local
	mustCIDR("2001:db8::/32"),
}

func mustCIDR(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return n
}

// isPrivateIP checks if an IP is in a private or special use range
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsMulticast() || ip.IsUnspecified() {
		return true
	}
	for _, block := range privateBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

// isLocalhost checks for localhost variants
func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" ||
		hostname == "localhost.localdomain" ||
		strings.HasSuffix(hostname, ".localhost")
}
