package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"crypto-investigation-engine/internal/domain/entity"
	"crypto-investigation-engine/internal/infrastructure/logger"
)

// httpClient is the shared HTTP plumbing for explorer providers: request
// timeout, a client-side rate limiter per provider, and status-code
// classification into the domain error taxonomy.
type httpClient struct {
	provider string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *logger.Logger
}

// newHTTPClient builds the per-provider client. ratePerSecond caps outbound
// requests as a politeness limit toward possibly rate-limited explorers.
func newHTTPClient(provider string, timeout time.Duration, ratePerSecond float64, burst int, log *logger.Logger) *httpClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if ratePerSecond <= 0 {
		ratePerSecond = 5
	}
	if burst <= 0 {
		burst = 1
	}
	return &httpClient{
		provider: provider,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		logger:   log.WithComponent("explorer-" + provider),
	}
}

// getJSON performs a rate-limited GET and decodes the JSON body into out.
// 404 maps to NotFoundError; 429/5xx and transport failures map to
// ProviderError.
func (c *httpClient) getJSON(ctx context.Context, url string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &entity.ProviderError{Provider: c.provider, Op: "rate-wait", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &entity.ProviderError{Provider: c.provider, Op: "build-request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &entity.ProviderError{Provider: c.provider, Op: "request", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &entity.NotFoundError{Resource: "record", Key: url}
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("Provider rate limit hit", zap.String("url", url))
		return &entity.ProviderError{Provider: c.provider, Op: "request",
			Err: fmt.Errorf("rate limited (status %d)", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return &entity.ProviderError{Provider: c.provider, Op: "request",
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &entity.ProviderError{Provider: c.provider, Op: "read-body", Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &entity.ProviderError{Provider: c.provider, Op: "decode", Err: err}
	}
	return nil
}
