package mealdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Service defines the read operations Pantry needs from TheMealDB.
// This interface is implemented by *Client and can be replaced in tests.
type Service interface {
	RandomMeal(ctx context.Context) (*Meal, error)
	MealDetail(ctx context.Context, id string) (*Meal, error)
	MealsByCategory(ctx context.Context, category string) ([]MealSummary, error)
	Categories(ctx context.Context) ([]Category, error)
}

// Ensure Client implements Service at compile time.
var _ Service = (*Client)(nil)

// ErrFetchFailed matches every failure returned by the client.
var ErrFetchFailed = errors.New("remote fetch failed")

// FetchError normalizes transport, status and decoding failures into a
// single error kind. errors.Is(err, ErrFetchFailed) holds for all of them.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("mealdb %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is reports whether target is ErrFetchFailed.
func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// Client talks to TheMealDB HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *slog.Logger
}

// Options configure a Client. Zero values use defaults.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second
	Burst      int
	Logger     *slog.Logger
	HTTPClient *http.Client
}

const (
	// DefaultBaseURL is the public v1 endpoint with the shared test key.
	DefaultBaseURL   = "https://www.themealdb.com/api/json/v1/1/"
	defaultUserAgent = "pantry/0.1"
	requestTimeout   = 10 * time.Second
	defaultRateLimit = 5
	maxResponseBytes = 4 << 20
)

// NewClient builds a Client from opts.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = requestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := opts.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = int(limit)
		if burst < 1 {
			burst = 1
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:   base,
		http:      httpClient,
		limiter:   rate.NewLimiter(rate.Limit(limit), burst),
		userAgent: defaultUserAgent,
		logger:    logger,
	}, nil
}

// RandomMeal fetches one random meal. A nil meal with a nil error means the
// API answered without data.
func (c *Client) RandomMeal(ctx context.Context) (*Meal, error) {
	const op = "random"
	if c == nil {
		return nil, &FetchError{Op: op, Err: errors.New("client is nil")}
	}
	var payload MealList
	found, err := c.get(ctx, op, "random.php", nil, &payload)
	if err != nil {
		return nil, err
	}
	return firstMeal(found, payload), nil
}

// MealDetail looks a meal up by exact identifier. Zero results yield a nil
// meal and nil error.
func (c *Client) MealDetail(ctx context.Context, id string) (*Meal, error) {
	const op = "lookup"
	if c == nil {
		return nil, &FetchError{Op: op, Err: errors.New("client is nil")}
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &FetchError{Op: op, Err: errors.New("meal id required")}
	}
	values := url.Values{}
	values.Set("i", id)

	var payload MealList
	found, err := c.get(ctx, op, "lookup.php", values, &payload)
	if err != nil {
		return nil, err
	}
	return firstMeal(found, payload), nil
}

// MealsByCategory lists the meals filed under category. The result is never
// nil on success.
func (c *Client) MealsByCategory(ctx context.Context, category string) ([]MealSummary, error) {
	const op = "filter"
	if c == nil {
		return nil, &FetchError{Op: op, Err: errors.New("client is nil")}
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, &FetchError{Op: op, Err: errors.New("category name required")}
	}
	values := url.Values{}
	values.Set("c", category)

	var payload SummaryList
	if _, err := c.get(ctx, op, "filter.php", values, &payload); err != nil {
		return nil, err
	}
	if payload.Meals == nil {
		return []MealSummary{}, nil
	}
	return payload.Meals, nil
}

// Categories lists every meal category. The result is never nil on success.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	const op = "categories"
	if c == nil {
		return nil, &FetchError{Op: op, Err: errors.New("client is nil")}
	}
	var payload CategoryList
	if _, err := c.get(ctx, op, "categories.php", nil, &payload); err != nil {
		return nil, err
	}
	if payload.Categories == nil {
		return []Category{}, nil
	}
	return payload.Categories, nil
}

func firstMeal(found bool, payload MealList) *Meal {
	if !found || len(payload.Meals) == 0 {
		return nil
	}
	meal := payload.Meals[0]
	if meal.ID == "" {
		return nil
	}
	return &meal
}

// get issues a GET for path relative to the base URL and decodes the body
// into dest. It reports false without error when the body is empty.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, dest any) (bool, error) {
	rel := &url.URL{Path: path}
	if len(query) > 0 {
		rel.RawQuery = query.Encode()
	}
	found, err := c.doURL(ctx, http.MethodGet, rel, dest)
	if err != nil {
		c.logger.Debug("mealdb request failed",
			slog.String("op", op),
			slog.String("path", rel.String()),
			slog.String("error", err.Error()))
		return false, &FetchError{Op: op, Err: err}
	}
	return found, nil
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, dest any) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}

	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("mealdb request",
		slog.String("path", rel.String()),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api base url %q: missing host", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
