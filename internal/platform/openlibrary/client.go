// Package openlibrary is a client for the Open Library REST API,
// covering the endpoints the catalog fetcher needs: author search,
// author works, work details and editions.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"readmore/internal/platform/fscache"
)

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
	cache      *fscache.Cache
}

// NewClient builds a client limited to rps requests per second with
// bounded retries. cache may be nil to disable response caching.
func NewClient(userAgent string, rps int, maxRetries int, cache *fscache.Cache) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent:  userAgent,
		baseURL:    "https://openlibrary.org",
		limiter:    rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1),
		maxRetries: maxRetries,
		cache:      cache,
	}
}

// AuthorDoc matches one result of search/authors.json.
type AuthorDoc struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"`
	TopWork   string `json:"top_work"`
	WorkCount int    `json:"work_count"`
}

type authorSearchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []AuthorDoc `json:"docs"`
}

// Work matches one entry of authors/{key}/works.json.
type Work struct {
	Key            string   `json:"key"`
	Title          string   `json:"title"`
	FirstPublished string   `json:"first_publish_date"`
	Subjects       []string `json:"subjects"`
}

type worksResponse struct {
	Entries []Work `json:"entries"`
}

// WorkDetails matches works/{key}.json. Description can be a bare
// string or a typed {type, value} object.
type WorkDetails struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	Description      any      `json:"description"`
	Subjects         []string `json:"subjects"`
	Series           []string `json:"series"`
	FirstPublishDate string   `json:"first_publish_date"`
}

// DescriptionText flattens the two shapes Open Library uses for
// descriptions.
func (w WorkDetails) DescriptionText() string {
	switch d := w.Description.(type) {
	case string:
		return d
	case map[string]any:
		if v, ok := d["value"].(string); ok {
			return v
		}
	}
	return ""
}

// Edition matches one entry of works/{key}/editions.json.
type Edition struct {
	Key            string        `json:"key"`
	Title          string        `json:"title"`
	ISBN13         []string      `json:"isbn_13"`
	ISBN10         []string      `json:"isbn_10"`
	PublishDate    string        `json:"publish_date"`
	PhysicalFormat string        `json:"physical_format"`
	Languages      []LanguageRef `json:"languages"`
}

type LanguageRef struct {
	Key string `json:"key"` // "/languages/eng"
}

// ISBN returns the edition's preferred ISBN, 13 digits before 10.
func (e Edition) ISBN() string {
	if len(e.ISBN13) > 0 {
		return e.ISBN13[0]
	}
	if len(e.ISBN10) > 0 {
		return e.ISBN10[0]
	}
	return ""
}

// IsEnglish reports whether the edition declares English, defaulting to
// true when language data is absent.
func (e Edition) IsEnglish() bool {
	if len(e.Languages) == 0 {
		return true
	}
	for _, l := range e.Languages {
		if strings.HasSuffix(l.Key, "/eng") {
			return true
		}
	}
	return false
}

type editionsResponse struct {
	Entries []Edition `json:"entries"`
}

// SearchAuthors finds author records by name.
func (c *Client) SearchAuthors(ctx context.Context, name string) ([]AuthorDoc, error) {
	u := fmt.Sprintf("%s/search/authors.json?q=%s", c.baseURL, url.QueryEscape(name))

	var res authorSearchResponse
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	return res.Docs, nil
}

// AuthorWorks lists works for an author key ("OL123A" or
// "/authors/OL123A").
func (c *Client) AuthorWorks(ctx context.Context, authorKey string, limit int) ([]Work, error) {
	key := NormalizeAuthorKey(authorKey)
	u := fmt.Sprintf("%s%s/works.json?limit=%d", c.baseURL, key, limit)

	var res worksResponse
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	return res.Entries, nil
}

// GetWork fetches the detail document for a work key.
func (c *Client) GetWork(ctx context.Context, workKey string) (*WorkDetails, error) {
	key := normalizeWorkKey(workKey)
	u := fmt.Sprintf("%s%s.json", c.baseURL, key)

	var res WorkDetails
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// WorkEditions lists editions of a work, used for ISBN and language
// resolution.
func (c *Client) WorkEditions(ctx context.Context, workKey string) ([]Edition, error) {
	key := normalizeWorkKey(workKey)
	u := fmt.Sprintf("%s%s/editions.json?limit=100", c.baseURL, key)

	var res editionsResponse
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	return res.Entries, nil
}

// NormalizeAuthorKey canonicalizes the shapes author keys arrive in
// ("OL123A", "/OL123A", "/authors/OL123A").
func NormalizeAuthorKey(key string) string {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, "/authors/") {
		return key
	}
	return "/authors/" + strings.TrimPrefix(key, "/")
}

func normalizeWorkKey(key string) string {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, "/works/") {
		return key
	}
	return "/works/" + strings.TrimPrefix(key, "/")
}

func (c *Client) get(ctx context.Context, url string, target any) error {
	key := cacheKey(url)
	if c.cache.Get(key, target) {
		return nil
	}

	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// Backoff: 1s, 2s, 4s...
			backoff := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
				continue
			}
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(target)
		resp.Body.Close()
		if err != nil {
			return err
		}
		_ = c.cache.Set(key, target)
		return nil
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

func cacheKey(url string) string {
	return strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
}
