// Package news fetches recent climate headlines from NewsAPI for the
// dashboard's news panel.
package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/httputil"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/metrics"
)

const (
	DefaultURL = "https://newsapi.org/v2/everything"

	Query    = "global warming OR climate change OR sea level rise"
	PageSize = 10
	Lookback = 30 * 24 * time.Hour
)

var ErrNoAPIKey = errors.New("NEWS_API_KEY not set")

// StatusError is a non-200 reply from the upstream API.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("news api returned status %d", e.Code)
}

// Article is the shape the dashboard renders.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Source      string `json:"source"`
}

// Status describes upstream reachability for the admin panel.
type Status struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	URL           string `json:"url"`
	KeyConfigured bool   `json:"key_configured"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	clock      clockwork.Clock
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		httpClient: httputil.NewClient(),
		baseURL:    baseURL,
		apiKey:     apiKey,
		clock:      clockwork.NewRealClock(),
	}
}

func (c *Client) SetClock(clock clockwork.Clock) {
	c.clock = clock
}

func (c *Client) URL() string         { return c.baseURL }
func (c *Client) KeyConfigured() bool { return c.apiKey != "" }

// Latest returns up to PageSize English articles from the last 30 days,
// newest first.
func (c *Client) Latest(ctx context.Context) ([]Article, error) {
	q := url.Values{}
	q.Set("q", Query)
	q.Set("language", "en")
	q.Set("sortBy", "publishedAt")
	q.Set("from", c.clock.Now().Add(-Lookback).Format("2006-01-02"))
	q.Set("pageSize", strconv.Itoa(PageSize))

	var body upstreamResponse
	if err := c.get(ctx, q, &body); err != nil {
		return nil, err
	}

	articles := make([]Article, 0, min(len(body.Articles), PageSize))
	for _, a := range body.Articles {
		if len(articles) == PageSize {
			break
		}
		articles = append(articles, a.article())
	}
	return articles, nil
}

// Check issues a one-article query and classifies the outcome.
func (c *Client) Check(ctx context.Context) Status {
	st := Status{URL: c.baseURL, KeyConfigured: c.KeyConfigured()}

	q := url.Values{}
	q.Set("q", "climate")
	q.Set("language", "en")
	q.Set("pageSize", "1")

	var statusErr *StatusError
	err := c.get(ctx, q, nil)
	switch {
	case err == nil:
		st.Status, st.Message = "connected", "News API is working correctly"
	case errors.Is(err, ErrNoAPIKey):
		st.Status, st.Message = "unconfigured", "NEWS_API_KEY is not set"
	case errors.As(err, &statusErr) && statusErr.Code == http.StatusUnauthorized:
		st.Status, st.Message = "unauthorized", "News API key is invalid or expired"
	default:
		st.Status, st.Message = "error", err.Error()
	}
	return st
}

// get queries the upstream API and decodes into out when it is non-nil.
func (c *Client) get(ctx context.Context, q url.Values, out any) error {
	if !c.KeyConfigured() {
		return ErrNoAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.NewsRequestsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("fetch news: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.NewsRequestsTotal.WithLabelValues("error").Inc()
		return &StatusError{Code: resp.StatusCode}
	}
	metrics.NewsRequestsTotal.WithLabelValues("ok").Inc()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode news: %w", err)
	}
	return nil
}

type upstreamResponse struct {
	Articles []upstreamArticle `json:"articles"`
}

type upstreamArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

func (a upstreamArticle) article() Article {
	return Article{
		Title:       orDefault(a.Title, "No title"),
		Description: orDefault(a.Description, "No description"),
		URL:         orDefault(a.URL, "#"),
		PublishedAt: a.PublishedAt,
		Source:      orDefault(a.Source.Name, "Unknown"),
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
