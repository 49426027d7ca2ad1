// Package racingapi implements the credentialed client for the
// third-party racing API. All outbound requests pass through a shared
// token bucket so the externally visible request rate never exceeds the
// provider's limit, regardless of how many fetchers run concurrently.
package racingapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/racing-sync/internal/config"
	"github.com/yourusername/racing-sync/internal/metrics"
)

// Client is the API contract consumed by all fetchers. Implementations
// must be safe for concurrent callers.
type Client interface {
	Courses(ctx context.Context, regions []string) ([]CourseDoc, error)
	Bookmakers(ctx context.Context) ([]BookmakerDoc, error)
	Jockeys(ctx context.Context, regions []string, page int) (PersonPage, error)
	Trainers(ctx context.Context, regions []string, page int) (PersonPage, error)
	Owners(ctx context.Context, regions []string, page int) (PersonPage, error)
	RacecardsPro(ctx context.Context, dateFrom, dateTo time.Time, regions []string) ([]RacecardDoc, error)
	Results(ctx context.Context, dateFrom, dateTo time.Time, regions []string) ([]ResultDoc, error)
	HorsePro(ctx context.Context, horseID string) (*HorseProDoc, error)
}

const (
	peoplePageLimit = 500
	dateFormat      = "2006-01-02"
)

// NewRateLimiter builds the process-wide token bucket governing all
// outbound API calls.
func NewRateLimiter(cfg *config.RacingAPIConfig) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
}

// HTTPClient implements Client over the provider's REST API with basic
// auth, retries and the shared rate limiter.
type HTTPClient struct {
	client   *retryablehttp.Client
	baseURL  string
	username string
	password string
	logger   *logrus.Logger
}

// rateLimitedTransport waits on the shared limiter before every
// attempt, including retries, so backoff never bypasses the bucket.
type rateLimitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}
	metrics.APIRequestsTotal.Inc()
	return t.base.RoundTrip(req)
}

// NewHTTPClient creates a new API client sharing the given limiter.
func NewHTTPClient(cfg *config.RacingAPIConfig, limiter *rate.Limiter, logger *logrus.Logger) *HTTPClient {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.HTTPTimeout()
	retryClient.HTTPClient.Transport = &rateLimitedTransport{
		base:    http.DefaultTransport,
		limiter: limiter,
	}
	retryClient.RetryMax = cfg.MaxRetries
	// Provider-advised pause on 429 defaults to 5s; doubling caps the
	// retry schedule at 5, 10, 20, 40, 80 seconds.
	retryClient.RetryWaitMin = 5 * time.Second
	retryClient.RetryWaitMax = 80 * time.Second
	retryClient.CheckRetry = retryPolicy()
	retryClient.Logger = nil

	return &HTTPClient{
		client:   retryClient,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		logger:   logger,
	}
}

// retryPolicy retries 429 and 5xx responses and network errors; all
// other client errors fail immediately.
func retryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return true, nil
		}
		return false, nil
	}
}

// getJSON performs an authenticated GET and decodes the response body
// into out.
func (c *HTTPClient) getJSON(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return NewFetchError(endpoint, 0, "failed to create request", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.APIErrorsTotal.WithLabelValues(endpoint, "network").Inc()
		return NewFetchError(endpoint, 0, "request failed after retries", err)
	}
	defer resp.Body.Close()

	metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		metrics.APIErrorsTotal.WithLabelValues(endpoint, "auth").Inc()
		return NewAuthenticationError("invalid API credentials", nil)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		metrics.APIErrorsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		return NewFetchError(endpoint, resp.StatusCode, string(body), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.APIErrorsTotal.WithLabelValues(endpoint, "decode").Inc()
		return NewFetchError(endpoint, resp.StatusCode, "failed to decode response", err)
	}

	return nil
}

func regionQuery(regions []string) url.Values {
	q := url.Values{}
	for _, r := range regions {
		q.Add("region", r)
	}
	return q
}

// Courses fetches the course reference table.
func (c *HTTPClient) Courses(ctx context.Context, regions []string) ([]CourseDoc, error) {
	var payload struct {
		Courses []CourseDoc `json:"courses"`
	}
	if err := c.getJSON(ctx, "/v1/courses", regionQuery(regions), &payload); err != nil {
		return nil, err
	}
	return payload.Courses, nil
}

// Bookmakers fetches the bookmaker reference table.
func (c *HTTPClient) Bookmakers(ctx context.Context) ([]BookmakerDoc, error) {
	var payload struct {
		Bookmakers []BookmakerDoc `json:"bookmakers"`
	}
	if err := c.getJSON(ctx, "/v1/bookmakers", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Bookmakers, nil
}

func (c *HTTPClient) people(ctx context.Context, endpoint, key string, regions []string, page int) (PersonPage, error) {
	q := regionQuery(regions)
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(peoplePageLimit))

	// People endpoints key their array by entity name.
	var raw map[string]json.RawMessage
	if err := c.getJSON(ctx, endpoint, q, &raw); err != nil {
		return PersonPage{}, err
	}

	result := PersonPage{Page: page, Limit: peoplePageLimit}
	if data, ok := raw[key]; ok {
		if err := json.Unmarshal(data, &result.People); err != nil {
			return PersonPage{}, NewFetchError(endpoint, 0, "failed to decode people array", err)
		}
	}
	if data, ok := raw["total"]; ok {
		_ = json.Unmarshal(data, &result.Total)
	}
	return result, nil
}

// Jockeys fetches one page of the jockeys table.
func (c *HTTPClient) Jockeys(ctx context.Context, regions []string, page int) (PersonPage, error) {
	return c.people(ctx, "/v1/jockeys", "jockeys", regions, page)
}

// Trainers fetches one page of the trainers table.
func (c *HTTPClient) Trainers(ctx context.Context, regions []string, page int) (PersonPage, error) {
	return c.people(ctx, "/v1/trainers", "trainers", regions, page)
}

// Owners fetches one page of the owners table.
func (c *HTTPClient) Owners(ctx context.Context, regions []string, page int) (PersonPage, error) {
	return c.people(ctx, "/v1/owners", "owners", regions, page)
}

// RacecardsPro fetches all racecards in the date window. The API
// returns the whole window in one response.
func (c *HTTPClient) RacecardsPro(ctx context.Context, dateFrom, dateTo time.Time, regions []string) ([]RacecardDoc, error) {
	q := regionQuery(regions)
	q.Set("date_from", dateFrom.Format(dateFormat))
	q.Set("date_to", dateTo.Format(dateFormat))

	var payload struct {
		Racecards []RacecardDoc `json:"racecards"`
	}
	if err := c.getJSON(ctx, "/v1/racecards/pro", q, &payload); err != nil {
		return nil, err
	}
	return payload.Racecards, nil
}

// Results fetches all results in the date window.
func (c *HTTPClient) Results(ctx context.Context, dateFrom, dateTo time.Time, regions []string) ([]ResultDoc, error) {
	q := regionQuery(regions)
	q.Set("date_from", dateFrom.Format(dateFormat))
	q.Set("date_to", dateTo.Format(dateFormat))

	var payload struct {
		Results []ResultDoc `json:"results"`
	}
	if err := c.getJSON(ctx, "/v1/results", q, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// HorsePro fetches the enrichment document for one horse.
func (c *HTTPClient) HorsePro(ctx context.Context, horseID string) (*HorseProDoc, error) {
	var doc HorseProDoc
	endpoint := "/v1/horses/" + url.PathEscape(horseID) + "/pro"
	if err := c.getJSON(ctx, endpoint, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
