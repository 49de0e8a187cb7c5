package realtor

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"realtor-agents-scraper/models"
	"realtor-agents-scraper/utils"
)

const (
	// SessionCookieName is the cookie the directory uses for bot-check sessions.
	SessionCookieName = "KP_UIDz-ssn"

	DefaultTimeout = 15 * time.Second

	acceptHeader         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguageHeader = "en-US,en;q=0.9"
)

// Limiter gates outbound requests.
type Limiter interface {
	Wait()
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL   string
	UserAgent string
	Cookie    string
	Timeout   time.Duration
	// Policy nil means NewPaginationPolicy.
	Policy    *PaginationPolicy
}

// Client fetches agent result pages for one zip code at a time.
type Client struct {
	baseURL string
	cookie  string
	policy  PaginationPolicy
	http    *resty.Client
	limiter Limiter
	logger  *utils.Logger
}

// NewClient creates a Client. A nil limiter disables throttling.
func NewClient(opts ClientOptions, limiter Limiter, logger *utils.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	policy := NewPaginationPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", acceptHeader).
		SetHeader("Accept-Language", acceptLanguageHeader)
	if opts.UserAgent != "" {
		httpClient.SetHeader("User-Agent", opts.UserAgent)
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		cookie:  opts.Cookie,
		policy:  policy,
		http:    httpClient,
		limiter: limiter,
		logger:  logger,
	}
}

// PageURL builds the results URL for a zip code and 1-based page number.
func (c *Client) PageURL(zipCode string, page int) string {
	u := c.baseURL + "/" + zipCode
	if page > 1 {
		u = fmt.Sprintf("%s/pg-%d", u, page)
	}
	return u
}

// SearchAgentsByZip walks the result pages of zipCode and returns the raw
// agents found. Request failures end the walk and return what was collected
// so far. A non-nil maxRecords caps the result length; negative caps count
// as zero.
func (c *Client) SearchAgentsByZip(ctx context.Context, zipCode string, maxRecords *int) []models.RawAgent {
	agents := make([]models.RawAgent, 0)
	if maxRecords != nil && *maxRecords < 0 {
		zero := 0
		maxRecords = &zero
	}

	for page := 1; ; page++ {
		html, err := c.fetchPage(ctx, zipCode, page)
		if err != nil {
			c.logger.Warn("[realtor] %v", err)
			break
		}

		pageAgents := ParseAgents(html, zipCode)
		agents = append(agents, pageAgents...)

		if maxRecords != nil && len(agents) >= *maxRecords {
			agents = agents[:*maxRecords]
			c.logger.Debug("[realtor] Zip %s: reached max records (%d)", zipCode, *maxRecords)
			break
		}

		if reason := c.policy.StopReason(page, len(pageAgents), len(agents), maxRecords); reason != "" {
			c.logger.Debug("[realtor] Zip %s: stopping after page %d, %s", zipCode, page, reason)
			break
		}
	}

	c.logger.Info("[realtor] Fetched %d raw agents for zip %s", len(agents), zipCode)
	return agents
}

func (c *Client) fetchPage(ctx context.Context, zipCode string, page int) (string, error) {
	url := c.PageURL(zipCode, page)
	c.logger.Debug("[realtor] Fetching %s (page %d)", url, page)

	if c.limiter != nil {
		c.limiter.Wait()
	}

	req := c.http.R().SetContext(ctx)
	if c.cookie != "" {
		req.SetCookie(&http.Cookie{Name: SessionCookieName, Value: c.cookie})
	}

	res, err := req.Get(url)
	if err != nil {
		return "", fmt.Errorf("request error for %s: %w", url, err)
	}
	if !res.IsSuccess() {
		return "", fmt.Errorf("request error for %s: status %d", url, res.StatusCode())
	}
	return res.String(), nil
}
