package timesource

import (
	"fmt"
	"github.com/valyala/fasthttp"
	"net/http"
	"time"
)

type Fetcher interface {
	// Fetch retrieves the raw timestamp string from a time source.
	Fetch() (string, error)
}

// HTTPFetcher fetches from a JSON endpoint using a fasthttp client.
type HTTPFetcher struct {
	url     string
	timeout time.Duration
	client  *fasthttp.Client
}

func NewHTTPFetcher(url string, timeout time.Duration) *HTTPFetcher {
	return NewHTTPFetcherWithClient(url, timeout, &fasthttp.Client{
		Name:                "clockface",
		MaxConnsPerHost:     4,
		MaxIdleConnDuration: time.Minute,
	})
}

// NewHTTPFetcherWithClient allows the client, and therefore its dialer, to be
// swapped out.
func NewHTTPFetcherWithClient(url string, timeout time.Duration, client *fasthttp.Client) *HTTPFetcher {
	return &HTTPFetcher{
		url:     url,
		timeout: timeout,
		client:  client,
	}
}

func (f *HTTPFetcher) Fetch() (string, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(f.url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	if err := f.client.DoTimeout(req, resp, f.timeout); err != nil {
		return "", fmt.Errorf("GET %s: %w", f.url, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("GET %s: %w: expected %d; got %d", f.url, ErrUnexpectedStatus, http.StatusOK, resp.StatusCode())
	}

	// The body is only valid until resp is released, so it is decoded here.
	return DecodeRaw(resp.Body())
}
