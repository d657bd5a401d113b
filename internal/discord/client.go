// Package discord posts notifications to channels through the Discord REST
// API. It owns the delivery error taxonomy: rate limits are retried after the
// server hint, 403/404 are permanent, everything else is transient and
// retried with capped backoff.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"animehub/pkg/utils"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	attempts   uint
}

func New(cfg utils.DiscordConfig) *Client {
	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = 5
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    cfg.BaseURL,
		token:      cfg.BotToken,
		attempts:   attempts,
	}
}

// Post sends content to a channel and returns the created message ID.
func (c *Client) Post(ctx context.Context, channelID, content string) (string, error) {
	var messageID string

	err := retry.Do(
		func() error {
			id, err := c.postOnce(ctx, channelID, content)
			if err != nil {
				if IsPermanent(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			messageID = id
			return nil
		},
		retry.Attempts(c.attempts),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(2*time.Second),
		retry.DelayType(rateLimitAwareDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[discord] post to %s failed (attempt %d): %v", channelID, n+1, err)
		}),
	)
	if err != nil {
		return "", err
	}
	return messageID, nil
}

// rateLimitAwareDelay honors the server's retry-after hint when present and
// falls back to exponential backoff for everything else.
func rateLimitAwareDelay(n uint, err error, config *retry.Config) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	return retry.BackOffDelay(n, err, config)
}

func (c *Client) postOnce(ctx context.Context, channelID, content string) (string, error) {
	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bot "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post message: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var out struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		return out.ID, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &RateLimitError{RetryAfter: retryAfter(resp)}

	case resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w: channel %s", ErrForbidden, channelID)

	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: channel %s", ErrNotFound, channelID)

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("post message: status %d: %s", resp.StatusCode, body)
	}
}

// retryAfter reads the Retry-After header (seconds, possibly fractional).
// Falls back to one second when the header is missing or unparseable.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return time.Second
}
