// Package fetch is the bounded-time fetch-by-URL capability the sweep
// consumes. One attempt per call; the next scheduled run is the retry.
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	pulsecfg "github.com/zbreeden/pulse/internal/config/pulse"
)

// Broadcasts are small status documents; anything bigger is truncated.
const maxBody = 4 << 20

type Client struct {
	c  *http.Client
	ua string
}

func NewClient(cfg pulsecfg.HTTP) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !cfg.VerifyTLS,
			MinVersion:         tls.VersionTLS12,
		},
	}
	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(transport),
	}
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return &Client{c: client, ua: cfg.UserAgent}
}

// Fetch retrieves a source's current document. found is false when the
// source has not published yet (404), which is an expected steady state,
// not an error. Transport failures and other non-2xx codes come back as
// errors for the caller to log and isolate.
func (cl *Client) Fetch(ctx context.Context, url string) (raw []byte, found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	if cl.ua != "" {
		req.Header.Set("User-Agent", cl.ua)
	}
	resp, err := cl.c.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, false, fmt.Errorf("fetch %s: read body: %w", url, err)
	}
	return body, true, nil
}
