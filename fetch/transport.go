package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// A Transport performs the two HTTP exchanges a clone needs: fetching
// the ref advertisement and POSTing a want/have negotiation body.
// Redirect following, if any, is the Transport's responsibility.
type Transport interface {
	// DiscoverRefs performs GET repoURL/info/refs?service=git-upload-pack
	// and returns the response body.
	DiscoverRefs(ctx context.Context, repoURL string) (io.ReadCloser, error)
	// UploadPack performs POST repoURL/git-upload-pack with the
	// given pkt-line-framed body and returns the response body.
	UploadPack(ctx context.Context, repoURL string, body []byte) (io.ReadCloser, error)
}

// DefaultUserAgent is sent with every request made by an HTTPTransport
// that was not given one of its own.
const DefaultUserAgent = "gitclone/1.0"

// HTTPTransport is a Transport built on net/http, the way the
// reference Git client itself speaks the smart HTTP protocol.
type HTTPTransport struct {
	// Client performs the requests. If nil, http.DefaultClient is
	// used.
	Client *http.Client
	// UserAgent is sent with every request. If empty,
	// DefaultUserAgent is sent instead.
	UserAgent string
}

func (t *HTTPTransport) client() *http.Client {
	if t.Client != nil {
		return t.Client
	}
	return http.DefaultClient
}

func (t *HTTPTransport) userAgent() string {
	if t.UserAgent != "" {
		return t.UserAgent
	}
	return DefaultUserAgent
}

func (t *HTTPTransport) DiscoverRefs(ctx context.Context, repoURL string) (io.ReadCloser, error) {
	url := repoURL + "/info/refs?service=git-upload-pack"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", t.userAgent())
	resp, err := t.client().Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch: GET %s: %s", url, resp.Status)
	}
	return resp.Body, nil
}

func (t *HTTPTransport) UploadPack(ctx context.Context, repoURL string, body []byte) (io.ReadCloser, error) {
	url := repoURL + "/git-upload-pack"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", t.userAgent())
	req.Header.Set("Content-Type", "application/x-git-upload-pack-request")
	resp, err := t.client().Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch: POST %s: %s", url, resp.Status)
	}
	return resp.Body, nil
}
