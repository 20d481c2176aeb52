// Package openlibrary is a small client for the Open Library books API, used to
// fill in catalog metadata and cover images for seeded books.
package openlibrary

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	coversBaseURL    = "https://covers.openlibrary.org"
	defaultUserAgent = "smartlibrary-seed/1.0"
)

// CoverSize is one of the sizes served by the covers API.
type CoverSize string

const (
	CoverSmall  CoverSize = "S"
	CoverMedium CoverSize = "M"
	CoverLarge  CoverSize = "L"
)

// CoverURL builds the cover image URL for a bare ISBN.
func CoverURL(isbn string, size CoverSize) string {
	return fmt.Sprintf("%s/b/isbn/%s-%s.jpg", coversBaseURL, isbn, size)
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

type Option func(*Client)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

func NewClient(userAgent string, rps int, maxRetries int, opts ...Option) *Client {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if rps <= 0 {
		rps = 1
	}
	c := &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent:  userAgent,
		baseURL:    DefaultBaseURL,
		limiter:    rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1),
		maxRetries: maxRetries,
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Publisher struct {
	Name string `json:"name"`
}

type Subject struct {
	Name string `json:"name"`
}

// Edition matches one entry of api/books?jscmd=data.
type Edition struct {
	Title         string      `json:"title"`
	Publishers    []Publisher `json:"publishers"`
	PublishDate   string      `json:"publish_date"`
	NumberOfPages int         `json:"number_of_pages"`
	Subjects      []Subject   `json:"subjects"`
	Cover         struct {
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"cover"`
}

var yearPattern = regexp.MustCompile(`\b(1[5-9]\d{2}|20\d{2})\b`)

// PublishYear extracts a four digit year from the free-form publish date.
func (e Edition) PublishYear() (int, bool) {
	m := yearPattern.FindString(e.PublishDate)
	if m == "" {
		return 0, false
	}
	y, err := strconv.Atoi(m)
	return y, err == nil
}

func (e Edition) Publisher() string {
	if len(e.Publishers) == 0 {
		return ""
	}
	return e.Publishers[0].Name
}

// Editions looks up editions by bare ISBN. ISBNs unknown to Open Library are
// absent from the result.
func (c *Client) Editions(ctx context.Context, isbns []string) (map[string]Edition, error) {
	out := make(map[string]Edition, len(isbns))
	if len(isbns) == 0 {
		return out, nil
	}

	bibkeys := make([]string, len(isbns))
	for i, isbn := range isbns {
		bibkeys[i] = "ISBN:" + isbn
	}
	u := fmt.Sprintf("%s/api/books?bibkeys=%s&jscmd=data&format=json",
		c.baseURL, strings.Join(bibkeys, ","))

	var res map[string]Edition
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	for key, ed := range res {
		out[strings.TrimPrefix(key, "ISBN:")] = ed
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, url string, target any) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// backoff doubles per attempt
			wait := c.backoff * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retry, err := c.do(ctx, url, target)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, url string, target any) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, err
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return false, nil
}
