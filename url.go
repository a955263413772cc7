package dbconn

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizedURL is the result of NormalizeURL: an HTTP(S) URL usable for
// request construction, plus (for unix-socket forms) the filesystem path of
// the socket the Endpoint Transport must dial instead of the URL's host:port.
type NormalizedURL struct {
	// URL is always an "http" or "https" scheme URL, suitable for building
	// requests against (its Host is a placeholder for unix-socket forms).
	URL *url.URL
	// UnixSocket is the filesystem path to dial, non-empty only for
	// unix-socket forms.
	UnixSocket string
}

// String returns the canonical string form, used as the dedup key for the
// Host List: "<scheme>+unix://" followed by the socket path for socket
// endpoints, otherwise the URL.
func (n NormalizedURL) String() string {
	if n.UnixSocket != "" {
		return n.URL.Scheme + "+unix://" + n.UnixSocket
	}
	return n.URL.String()
}

// NormalizeURL sanitizes a single server URL:
//
//   - tcp:// is an alias for http://, and ssl:// / tls:// are aliases for https://.
//   - unix:///path, http+unix:///path, https+unix:///path, ssl+unix:///path,
//     and http://unix:/path (plus the https variant) all address a named
//     unix socket; the returned URL carries a placeholder host, and the
//     actual socket path is returned separately so the transport can dial it.
//
// Panics are never used here; a malformed URL yields an error, since this
// runs against caller-supplied configuration, not internal invariants.
func NormalizeURL(raw string) (NormalizedURL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NormalizedURL{}, fmt.Errorf(`dbconn: empty url`)
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return NormalizedURL{}, fmt.Errorf(`dbconn: invalid url %q: missing scheme`, raw)
	}

	httpScheme := "http"
	unixPath := ""

	switch strings.ToLower(scheme) {
	case "http":
		httpScheme = "http"
	case "https":
		httpScheme = "https"
	case "tcp":
		httpScheme = "http"
	case "ssl", "tls":
		httpScheme = "https"
	case "unix":
		httpScheme = "http"
		unixPath = "/" + strings.TrimPrefix(rest, "/")
	case "unixs":
		httpScheme = "https"
		unixPath = "/" + strings.TrimPrefix(rest, "/")
	case "http+unix":
		httpScheme = "http"
		unixPath = "/" + strings.TrimPrefix(rest, "/")
	case "https+unix", "ssl+unix", "tls+unix":
		httpScheme = "https"
		unixPath = "/" + strings.TrimPrefix(rest, "/")
	default:
		return NormalizedURL{}, fmt.Errorf(`dbconn: invalid url %q: unsupported scheme %q`, raw, scheme)
	}

	// the http://unix:/path/to/sock form: a literal "unix:" host followed by
	// an absolute path, which net/url cannot parse directly (colon in host).
	if unixPath == "" {
		if after, ok := strings.CutPrefix(rest, "unix:"); ok && strings.HasPrefix(after, "/") {
			unixPath = after
		}
	}

	if unixPath != "" {
		u := &url.URL{Scheme: httpScheme, Host: "unix", Path: "/"}
		return NormalizedURL{URL: u, UnixSocket: unixPath}, nil
	}

	u, err := url.Parse(httpScheme + "://" + rest)
	if err != nil {
		return NormalizedURL{}, fmt.Errorf(`dbconn: invalid url %q: %w`, raw, err)
	}
	if u.Host == "" {
		return NormalizedURL{}, fmt.Errorf(`dbconn: invalid url %q: missing host`, raw)
	}
	return NormalizedURL{URL: u}, nil
}
