// Package market implements the client for the public trading-listings API.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gardenmarket/listing-herald/internal/metrics"
	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

// Source is the contract the pipeline consumes: one call returning every
// current listing, normalized and sorted by creation time descending.
type Source interface {
	FetchAll(ctx context.Context) ([]domain.Listing, error)
}

// Client fetches sell-side and buy-side listings from the market API.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithRateLimit sets the token-bucket limit applied to every API request.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a market API client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAll retrieves both listing sides in parallel, merges them, sorts
// by createdAt descending (stable), and normalizes each record. Records
// that fail normalization are skipped and logged; network and HTTP errors
// from either side fail the whole fetch.
func (c *Client) FetchAll(ctx context.Context) ([]domain.Listing, error) {
	var (
		wg      sync.WaitGroup
		sells   []rawListing
		buys    []rawListing
		sellErr error
		buyErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		sells, sellErr = c.fetchSide(ctx, "sell")
	}()
	go func() {
		defer wg.Done()
		buys, buyErr = c.fetchSide(ctx, "buy")
	}()
	wg.Wait()

	if sellErr != nil {
		return nil, fmt.Errorf("fetching sell listings: %w", sellErr)
	}
	if buyErr != nil {
		return nil, fmt.Errorf("fetching buy listings: %w", buyErr)
	}

	raws := make([]rawListing, 0, len(sells)+len(buys))
	raws = append(raws, sells...)
	raws = append(raws, buys...)

	listings := make([]domain.Listing, 0, len(raws))
	for i := range raws {
		l, err := Normalize(&raws[i])
		if err != nil {
			c.log.Warn("skipping malformed listing record", "id", raws[i].ID, "error", err)
			metrics.MalformedRecordsTotal.Inc()
			continue
		}
		listings = append(listings, l)
	}

	// Stable keeps the sell-before-buy arrival order on equal timestamps.
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})

	return listings, nil
}

func (c *Client) fetchSide(ctx context.Context, side string) ([]rawListing, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	u := fmt.Sprintf("%s/listings?side=%s", c.baseURL, side)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market API error (status %d): %s", resp.StatusCode, body)
	}

	var parsed listingsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing listings response: %w", err)
	}

	return parsed.Listings, nil
}
