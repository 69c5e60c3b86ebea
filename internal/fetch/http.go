package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"
)

// retryStatuses are transient upstream statuses worth a re-request.
var retryStatuses = map[int]struct{}{
	http.StatusRequestTimeout:      {},
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

const (
	defaultTimeout = 30 * time.Second
	maxRetries     = 2
)

// HTTPFetcher fetches pages with plain net/http. Error statuses (4xx
// and 5xx) are captured as results, not failures; only transport
// errors surface as errors after retries are exhausted.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}

	var lastErr error
	var lastResp *Response
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		resp, err := f.doOnce(ctx, req, u.String())
		if err != nil {
			lastErr = err
			continue
		}
		lastResp = resp
		if _, retry := retryStatuses[resp.StatusCode]; retry && attempt < maxRetries {
			continue
		}
		return resp, nil
	}
	// Retries exhausted on a transient status; the last capture is
	// still a valid result.
	if lastResp != nil {
		return lastResp, nil
	}
	return nil, lastErr
}

func (f *HTTPFetcher) doOnce(ctx context.Context, req Request, target string) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.UserAgent != "" {
		httpReq.Header.Set("User-Agent", req.UserAgent)
	}
	if req.Referrer != "" {
		httpReq.Header.Set("Referer", req.Referrer)
	}

	start := time.Now()
	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	latency := time.Since(start).Seconds()

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	requestHeaders := make(map[string]string, len(httpReq.Header))
	for k := range httpReq.Header {
		requestHeaders[k] = httpReq.Header.Get(k)
	}

	return &Response{
		URL:            req.URL,
		FinalURL:       resp.Request.URL.String(),
		StatusCode:     resp.StatusCode,
		Headers:        headers,
		RequestHeaders: requestHeaders,
		Body:           string(body),
		LatencyS:       latency,
		Engine:         "http",
	}, nil
}
