package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/nutriscan/backend/internal/domain"
	"golang.org/x/time/rate"
)

// maxBodySize caps how much of a response body is read
const maxBodySize = 4 << 20

// ClientConfig holds configuration for the catalog client
type ClientConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerMinute int
	UserAgent     string
}

// Client handles communication with the Open Food Facts product API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new Open Food Facts API client
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	// Open Food Facts asks for at most 100 product reads per minute
	perMinute := config.RatePerMinute
	if perMinute <= 0 {
		perMinute = 100
	}
	limiter := rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 5)

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = "NutriScan/1.0"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     config.BaseURL,
		userAgent:   userAgent,
		rateLimiter: limiter,
	}
}

// SetDebug enables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[OFF] "+format, args...)
	}
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	return resp, nil
}

// GetProduct fetches a product by barcode. A missing product is reported as
// ErrProductNotFound. The call is made once and never retried.
func (c *Client) GetProduct(ctx context.Context, barcode string) (*domain.CatalogResponse, error) {
	log.Printf("[OFF] GetProduct called with barcode: %q", barcode)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		log.Printf("[OFF] Rate limiter error: %v", err)
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, url.PathEscape(barcode))
	c.debugLog("GET %s", reqURL)

	resp, err := c.doRequest(ctx, reqURL)
	if err != nil {
		log.Printf("[OFF] Request error: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body, maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrProviderUnavailable, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[OFF] API error - Status: %d, Body: %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var catalogResp domain.CatalogResponse
	if err := json.Unmarshal(body, &catalogResp); err != nil {
		log.Printf("[OFF] JSON decode error: %v", err)
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrProviderUnavailable, err)
	}

	if catalogResp.Status == 0 || catalogResp.Product == nil {
		log.Printf("[OFF] No product found for barcode: %q (%s)", barcode, catalogResp.StatusVerbose)
		return nil, domain.ErrProductNotFound
	}

	var raw struct {
		Product map[string]any `json:"product"`
	}
	if err := json.Unmarshal(body, &raw); err == nil {
		catalogResp.RawProduct = raw.Product
	}

	c.debugLog("Found product %q for barcode %q", catalogResp.Product.ProductName, barcode)
	return &catalogResp, nil
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func isTimeout(err error) bool {
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}
