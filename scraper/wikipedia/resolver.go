// Package wikipedia resolves author names to Wikipedia article links using the
// MediaWiki OpenSearch API.
package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"loa-scraper/utils"
)

// UnknownAuthor is the placeholder author that is never looked up.
const UnknownAuthor = "Unknown"

const maxBodyBytes = 1 << 20

var (
	errEmptyBody   = errors.New("empty response body")
	errShortResult = errors.New("opensearch result has fewer than 4 elements")
	errNoURL       = errors.New("no url in opensearch result")
)

// Resolver looks up author profile links. Lookups are best effort: any
// failure yields an empty link.
type Resolver struct {
	client    utils.Doer
	endpoint  string
	userAgent string
	logger    *utils.Logger
}

// NewResolver creates a Resolver querying the OpenSearch endpoint.
func NewResolver(client utils.Doer, endpoint, userAgent string, logger *utils.Logger) *Resolver {
	return &Resolver{
		client:    client,
		endpoint:  endpoint,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Resolve returns the Wikipedia link for author, or "" when the author is
// unknown or the lookup fails for any reason.
func (r *Resolver) Resolve(ctx context.Context, author string) string {
	if author == "" || author == UnknownAuthor {
		return ""
	}

	link, err := r.lookup(ctx, author)
	if err != nil {
		r.logger.Debug("[wikipedia] No link for %q: %v", author, err)
		return ""
	}
	return link
}

func (r *Resolver) lookup(ctx context.Context, author string) (string, error) {
	req, err := r.buildRequest(ctx, author)
	if err != nil {
		return "", err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if strings.TrimSpace(string(body)) == "" {
		return "", errEmptyBody
	}

	return firstURL(body)
}

func (r *Resolver) buildRequest(ctx context.Context, author string) (*http.Request, error) {
	q := url.Values{}
	q.Set("action", "opensearch")
	q.Set("search", author)
	q.Set("limit", "1")
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// firstURL extracts the first link from an OpenSearch response of the form
// [query, [titles], [descriptions], [urls]].
func firstURL(body []byte) (string, error) {
	var result []json.RawMessage
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(result) < 4 {
		return "", errShortResult
	}

	var urls []any
	if err := json.Unmarshal(result[3], &urls); err != nil {
		return "", fmt.Errorf("decode urls: %w", err)
	}
	if len(urls) == 0 {
		return "", errNoURL
	}
	link, ok := urls[0].(string)
	if !ok || link == "" {
		return "", errNoURL
	}
	return link, nil
}
