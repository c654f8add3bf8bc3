package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"mevwatcher/config"
)

// GetUrlResponseWithRetry GETs rawUrl and decodes the JSON body into result,
// trying up to retry times.
func GetUrlResponseWithRetry(ctx context.Context, rawUrl string, params map[string]string, result any, retry int, logger *slog.Logger) error {
	reqUrl := rawUrl
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		reqUrl += "?" + q.Encode()
	}

	var lastErr error
	for i := 0; i < retry; i++ {
		lastErr = doGet(ctx, reqUrl, result)
		if lastErr == nil {
			return nil
		}
		logger.Warn("GET request failed, retrying...", "url", reqUrl, "attempt", i+1, "err", lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(config.DefaultRetryInterval):
		}
	}
	return fmt.Errorf("GET request failed after %d attempts: %w", retry, lastErr)
}

func doGet(ctx context.Context, reqUrl string, result any) error {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqUrl, nil)
	if err != nil {
		return fmt.Errorf("failed to create GET request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET request returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(result); err != nil {
		return fmt.Errorf("failed to stream and unmarshal GET response: %w", err)
	}

	return nil
}
