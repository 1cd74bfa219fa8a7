package r2media

import (
	"context"
	"net/http"
	"time"
)

// probeTimeout bounds a CDN existence check so a slow edge cannot stall the
// request pipeline.
const probeTimeout = 5 * time.Second

// HTTPProber checks object existence with a HEAD request
type HTTPProber struct {
	client *http.Client
}

// NewHTTPProber creates a prober with the fixed probe timeout
func NewHTTPProber() *HTTPProber {
	return &HTTPProber{client: &http.Client{Timeout: probeTimeout}}
}

// Probe issues a HEAD request and treats only a 200 as "exists". Transport
// errors are returned as-is so the caller can distinguish "check failed"
// from "confirmed absent".
func (p *HTTPProber) Probe(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}
