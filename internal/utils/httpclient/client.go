package httpclient

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/url"
	"time"

	"AdAttribution/internal/config"

	"github.com/sirupsen/logrus"
)

const defaultTimeout = 30 * time.Second

// NewHTTPClient builds the client a platform importer talks through.
// Requests carry the platform's bearer token and ask for JSON; gzip bodies
// are decoded before the caller sees them.
func NewHTTPClient(cfg *config.PlatformConfig, logger logrus.FieldLogger) *http.Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &apiTransport{
			token: cfg.AuthToken,
			next:  &gzipTransport{next: baseTransport(cfg, logger), logger: logger},
		},
	}
}

func baseTransport(cfg *config.PlatformConfig, logger logrus.FieldLogger) *http.Transport {
	t := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if cfg.Proxy == "" {
		return t
	}
	proxyURL, err := url.Parse(cfg.Proxy)
	if err != nil {
		logger.WithError(err).WithField("proxy", cfg.Proxy).Warn("invalid proxy url, connecting directly")
		return t
	}
	t.Proxy = http.ProxyURL(proxyURL)
	logger.WithField("proxy", cfg.Proxy).Info("http client using proxy")
	return t
}

// apiTransport stamps reporting API headers on a copy of each request.
type apiTransport struct {
	token string
	next  http.RoundTripper
}

func (t *apiTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.token != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return t.next.RoundTrip(req)
}

// gzipTransport asks for gzip and inflates the body itself.
type gzipTransport struct {
	next   http.RoundTripper
	logger logrus.FieldLogger
}

func (t *gzipTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.Header.Get("Content-Encoding") != "gzip" {
		return resp, err
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		t.logger.WithError(err).WithField("url", req.URL.Redacted()).Warn("gzip decode failed, returning raw body")
		return resp, nil
	}
	resp.Body = &gzipBody{Reader: zr, raw: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

type gzipBody struct {
	*gzip.Reader
	raw io.ReadCloser
}

func (b *gzipBody) Close() error {
	zerr := b.Reader.Close()
	if err := b.raw.Close(); err != nil {
		return err
	}
	return zerr
}
