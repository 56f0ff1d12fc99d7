package openlibrary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	DefaultCoversURL = "https://covers.openlibrary.org"

	// NoDescription is reported when a work has no description.
	NoDescription = "No description available."

	maxBodyBytes = 4 << 20
)

// Details is the live metadata merged into a collection entry on listing.
// Cover is nil when the work has no cover image.
type Details struct {
	Cover       *string
	Description string
}

type Options struct {
	BaseURL   string
	CoversURL string
	UserAgent string
	RPS       float64
	Timeout   time.Duration
	Logger    *zap.Logger
	// Registerer receives the lookup counters; nil skips registration.
	Registerer prometheus.Registerer
}

// Client is a best-effort Open Library lookup client. None of its lookups
// return errors: failures are logged and reported as "no match".
type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	coversURL  string
	limiter    *rate.Limiter
	log        *zap.Logger
	requests   *prometheus.CounterVec
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.CoversURL == "" {
		opts.CoversURL = DefaultCoversURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RPS <= 0 {
		opts.RPS = 5
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bookshelf_catalog_requests_total",
		Help: "Open Library lookups by operation and outcome.",
	}, []string{"op", "outcome"})
	if opts.Registerer != nil {
		if err := opts.Registerer.Register(requests); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				requests = are.ExistingCollector.(*prometheus.CounterVec)
			}
		}
	}

	burst := int(opts.RPS)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		userAgent:  opts.UserAgent,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		coversURL:  strings.TrimRight(opts.CoversURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(opts.RPS), burst),
		log:        opts.Logger,
		requests:   requests,
	}
}

// ResolveKey searches by title and author and returns the work key of the
// first hit, e.g. "/works/OL45804W".
func (c *Client) ResolveKey(ctx context.Context, title, author string) (string, bool) {
	q := url.Values{}
	q.Set("title", title)
	if author != "" {
		q.Set("author", author)
	}
	q.Set("fields", "key")
	q.Set("limit", "1")

	body, err := c.get(ctx, c.baseURL+"/search.json?"+q.Encode())
	if err != nil {
		c.fail("resolve", err, zap.String("title", title), zap.String("author", author))
		return "", false
	}
	if !gjson.ValidBytes(body) {
		c.fail("resolve", fmt.Errorf("malformed search payload"), zap.String("title", title))
		return "", false
	}

	key := gjson.GetBytes(body, "docs.0.key").String()
	if key == "" {
		c.requests.WithLabelValues("resolve", "miss").Inc()
		return "", false
	}
	c.requests.WithLabelValues("resolve", "hit").Inc()
	return key, true
}

// FetchDetails loads the cover and description of a work key. The second
// return value is false when the lookup failed.
func (c *Client) FetchDetails(ctx context.Context, key string) (Details, bool) {
	if !strings.HasPrefix(key, "/") {
		key = "/" + key
	}

	body, err := c.get(ctx, c.baseURL+key+".json")
	if err != nil {
		c.fail("details", err, zap.String("key", key))
		return Details{}, false
	}
	if !gjson.ValidBytes(body) {
		c.fail("details", fmt.Errorf("malformed work payload"), zap.String("key", key))
		return Details{}, false
	}

	doc := gjson.ParseBytes(body)
	d := Details{Description: NoDescription}

	// description is either a plain string or {"type": "/type/text", "value": "..."}
	desc := doc.Get("description")
	if desc.IsObject() {
		desc = desc.Get("value")
	}
	if s := strings.TrimSpace(desc.String()); s != "" {
		d.Description = s
	}

	if cover := doc.Get("covers.0"); cover.Exists() && cover.Int() > 0 {
		u := fmt.Sprintf("%s/b/id/%d-L.jpg", c.coversURL, cover.Int())
		d.Cover = &u
	}

	c.requests.WithLabelValues("details", "hit").Inc()
	return d, true
}

func (c *Client) fail(op string, err error, fields ...zap.Field) {
	c.requests.WithLabelValues(op, "error").Inc()
	c.log.Warn("open library lookup failed", append(fields, zap.String("op", op), zap.Error(err))...)
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
