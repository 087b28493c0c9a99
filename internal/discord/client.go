package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

const defaultAPIBase = "https://discord.com/api/v10"

// Discord JSON error code for an unknown channel.
const errCodeUnknownChannel = 10003

// ErrUnknownChannel signals the target channel does not exist or the bot
// cannot see it. Callers treat it as a non-fatal delivery failure.
var ErrUnknownChannel = errors.New("discord: unknown channel")

// Transport is the delivery contract the pipeline consumes. PostBatch
// returns the created message id; EditMessage rewrites an existing
// message in place.
type Transport interface {
	PostBatch(ctx context.Context, channelID string, b *domain.Batch) (messageID string, err error)
	EditMessage(ctx context.Context, channelID, messageID string, content *MessageContent) error
}

// Client talks to the Discord REST API with bot-token auth.
type Client struct {
	apiBase string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithAPIBase overrides the REST API base URL, used in tests.
func WithAPIBase(base string) ClientOption {
	return func(c *Client) {
		c.apiBase = base
	}
}

// WithRateLimit sets the token-bucket limit applied to every API call.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a Discord REST client.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		apiBase: defaultAPIBase,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 4),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// messageResponse is the subset of Discord's message object we read back.
type messageResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

// apiError is Discord's JSON error body.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// PostBatch renders and posts one batch, returning the new message id.
func (c *Client) PostBatch(ctx context.Context, channelID string, b *domain.Batch) (string, error) {
	content := RenderBatch(b)

	var msg messageResponse
	err := c.do(ctx, http.MethodPost,
		fmt.Sprintf("/channels/%s/messages", channelID), content, &msg)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// EditMessage replaces an existing message's content in place.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, content *MessageContent) error {
	return c.do(ctx, http.MethodPatch,
		fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID), content, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bot "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading discord response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Code == errCodeUnknownChannel {
			return fmt.Errorf("%w: %s", ErrUnknownChannel, apiErr.Message)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parsing discord response: %w", err)
		}
	}
	return nil
}
