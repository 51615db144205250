// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"net/http"
	"time"
)

const probeTimeout = 30 * time.Second

// buildHTTPClient creates an HTTP client with sensible defaults.
// No overall client timeout is set: attempts stream arbitrarily large
// bodies and are bounded by the stall watchdog instead.
func buildHTTPClient() *http.Client {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		// Transparent gzip would change the on-disk byte offsets that
		// ranged resumes are computed from.
		DisableCompression: true,
	}
	return &http.Client{Transport: tr}
}

// addAuth adds authentication and user-agent headers to a request.
func addAuth(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("User-Agent", "ggufpack/1")
}

// probeSize asks the server for the expected total size with a HEAD
// request. Probe failures of any kind only leave the size unknown (0);
// definitive errors surface on the GET that follows.
func probeSize(ctx context.Context, httpc *http.Client, token, urlStr string) int64 {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "HEAD", urlStr, nil)
	if err != nil {
		return 0
	}
	addAuth(req, token)
	resp, err := httpc.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0
	}
	if resp.ContentLength > 0 {
		return resp.ContentLength
	}
	return 0
}
