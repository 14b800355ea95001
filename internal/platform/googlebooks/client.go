// Package googlebooks is a client for the Google Books volumes API.
// It fills the metadata gaps Open Library leaves: descriptions,
// category labels and language codes.
package googlebooks

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
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	maxRetries int
	cache      *fscache.Cache
}

// NewClient builds a client. apiKey is optional; the volumes API serves
// anonymous requests at a lower quota. cache may be nil.
func NewClient(apiKey string, rps int, maxRetries int, cache *fscache.Cache) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:    "https://www.googleapis.com/books/v1",
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1),
		maxRetries: maxRetries,
		cache:      cache,
	}
}

// Volume matches one item of the volumes API response.
type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

type VolumeInfo struct {
	Title               string               `json:"title"`
	Subtitle            string               `json:"subtitle"`
	Authors             []string             `json:"authors"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	Categories          []string             `json:"categories"`
	Language            string               `json:"language"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
}

type IndustryIdentifier struct {
	Type       string `json:"type"` // ISBN_10, ISBN_13
	Identifier string `json:"identifier"`
}

// ISBN returns the volume's preferred ISBN, 13 digits before 10.
func (v Volume) ISBN() string {
	var isbn10 string
	for _, id := range v.VolumeInfo.IndustryIdentifiers {
		switch id.Type {
		case "ISBN_13":
			return id.Identifier
		case "ISBN_10":
			isbn10 = id.Identifier
		}
	}
	return isbn10
}

// IsEnglish reports whether the volume declares English, defaulting to
// true when the language code is absent.
func (v Volume) IsEnglish() bool {
	lang := strings.ToLower(v.VolumeInfo.Language)
	return lang == "" || lang == "en" || strings.HasPrefix(lang, "en-")
}

type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// SearchByAuthor lists volumes for an inauthor query, ordered by
// relevance.
func (c *Client) SearchByAuthor(ctx context.Context, author string, maxResults int) ([]Volume, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("inauthor:%q", author))
	q.Set("maxResults", fmt.Sprintf("%d", maxResults))
	q.Set("orderBy", "relevance")

	var res volumesResponse
	if err := c.get(ctx, "/volumes", q, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

// GetByISBN returns the first volume matching an ISBN, or nil when the
// API knows nothing about it.
func (c *Client) GetByISBN(ctx context.Context, isbn string) (*Volume, error) {
	q := url.Values{}
	q.Set("q", "isbn:"+isbn)

	var res volumesResponse
	if err := c.get(ctx, "/volumes", q, &res); err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, nil
	}
	return &res.Items[0], nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, target any) error {
	key := endpoint + "_" + query.Encode()
	if c.cache.Get(key, target) {
		return nil
	}

	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}
	fullURL := c.baseURL + endpoint + "?" + query.Encode()

	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
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

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return err
		}

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
