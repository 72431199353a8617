package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"gobasket/domain/basket"
	"gobasket/internal"
	"gobasket/internal/errors"
)

// APIReader handles fetching transactions from REST API endpoints
type APIReader struct {
	config      *APIDataSource
	httpClient  *http.Client
	rateLimiter *RateLimiter
	logger      *internal.Logger
}

// NewAPIReader creates a new API reader for a data source
func NewAPIReader(config *APIDataSource) (*APIReader, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &APIReader{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter(config.RateLimit),
		logger:      internal.DefaultLogger.Named("APIReader"),
	}, nil
}

// Source returns the endpoint URL
func (r *APIReader) Source() string { return r.config.BaseURL }

// Read fetches every page and maps records onto basket lines
func (r *APIReader) Read(ctx context.Context) (*basket.Dataset, error) {
	data, err := r.FetchData(ctx)
	if err != nil {
		return nil, err
	}
	return r.ToDataset(data), nil
}

// FetchData retrieves data from the configured API endpoint
func (r *APIReader) FetchData(ctx context.Context) (*APIData, error) {
	startTime := time.Now()

	var allRecords []string
	var finalMetadata APIMetadata
	cursor := ""
	page := 0

	for page < r.config.MaxPages {
		if err := r.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait aborted: %w", err)
		}

		// Build request URL with pagination
		url := r.buildURL(cursor, page)

		req, err := r.buildRequest(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}

		reqStart := time.Now()
		resp, err := r.httpClient.Do(req)
		reqDuration := time.Since(reqStart)
		if err != nil {
			return nil, errors.ExternalServiceError(r.name(), fmt.Errorf("HTTP request failed: %w", err))
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, errors.ExternalServiceError(r.name(), fmt.Errorf("failed to read response: %w", err))
		}

		if resp.StatusCode != http.StatusOK {
			return nil, errors.ExternalServiceError(r.name(), fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body)))
		}

		records, pageMeta, err := r.parseResponse(body, reqDuration, resp)
		if err != nil {
			return nil, errors.ExternalServiceError(r.name(), fmt.Errorf("failed to parse response: %w", err))
		}
		allRecords = append(allRecords, records...)
		r.logger.Debug("page %d: %d records in %v", page+1, len(records), reqDuration)

		// Initialize metadata from first page
		if page == 0 {
			finalMetadata = pageMeta
			finalMetadata.URL = url
			finalMetadata.FetchedAt = startTime
		}

		page++
		cursor = r.extractNextCursor(body)
		if !r.hasMorePages(pageMeta, page, len(records), cursor) {
			break
		}
	}

	finalMetadata.ResponseTime = time.Since(startTime)
	finalMetadata.RecordsCount = len(allRecords)
	finalMetadata.Pages = page
	r.logger.Info("fetched %d records from %s in %d pages", len(allRecords), r.config.BaseURL, page)

	return &APIData{
		Source:   r.config,
		Records:  allRecords,
		Metadata: finalMetadata,
	}, nil
}

// buildURL constructs the request URL with pagination parameters
func (r *APIReader) buildURL(cursor string, page int) string {
	params := url.Values{}

	// Add configured query params
	for k, v := range r.config.QueryParams {
		params.Set(k, v)
	}

	// Add pagination
	switch r.config.PaginationType {
	case "offset":
		params.Set("offset", strconv.Itoa(page*r.config.PageSize))
		params.Set("limit", strconv.Itoa(r.config.PageSize))
	case "page":
		params.Set("page", strconv.Itoa(page+1))
		params.Set("per_page", strconv.Itoa(r.config.PageSize))
	case "cursor":
		if cursor != "" {
			params.Set("cursor", cursor)
		}
	}

	if len(params) == 0 {
		return r.config.BaseURL
	}
	sep := "?"
	if strings.Contains(r.config.BaseURL, "?") {
		sep = "&"
	}
	// Encode sorts keys
	return r.config.BaseURL + sep + params.Encode()
}

// buildRequest creates an HTTP request with authentication
func (r *APIReader) buildRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	for k, v := range r.config.Headers {
		req.Header.Set(k, v)
	}

	switch r.config.AuthMethod {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+r.config.AuthToken)
	case "api_key":
		req.Header.Set("X-API-Key", r.config.AuthToken)
	case "basic":
		req.SetBasicAuth(r.config.Username, r.config.Password)
	}

	return req, nil
}

// parseResponse extracts the raw records at DataPath
func (r *APIReader) parseResponse(body []byte, responseTime time.Duration, resp *http.Response) ([]string, APIMetadata, error) {
	if !gjson.ValidBytes(body) {
		return nil, APIMetadata{}, fmt.Errorf("response is not valid JSON")
	}

	dataResult := gjson.ParseBytes(body)
	if r.config.DataPath != "" {
		dataResult = dataResult.Get(r.config.DataPath)
	}
	if !dataResult.Exists() {
		return nil, APIMetadata{}, fmt.Errorf("data path '%s' not found in response", r.config.DataPath)
	}

	var records []string
	switch {
	case dataResult.IsArray():
		for _, rec := range dataResult.Array() {
			records = append(records, rec.Raw)
		}
	case dataResult.IsObject():
		records = []string{dataResult.Raw}
	default:
		return nil, APIMetadata{}, fmt.Errorf("data path '%s' is not an array or object", r.config.DataPath)
	}

	metadata := APIMetadata{
		StatusCode:   resp.StatusCode,
		ResponseTime: responseTime,
		ContentType:  resp.Header.Get("Content-Type"),
	}
	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			metadata.RateLimitRemaining = val
		}
	}
	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil {
			metadata.RateLimitReset = time.Unix(val, 0)
		}
	}

	return records, metadata, nil
}

// hasMorePages determines if there are more pages to fetch
func (r *APIReader) hasMorePages(metadata APIMetadata, fetched, lastCount int, cursor string) bool {
	switch r.config.PaginationType {
	case "", "none":
		return false
	case "cursor":
		if cursor == "" {
			return false
		}
	default:
		if lastCount == 0 || (r.config.PageSize > 0 && lastCount < r.config.PageSize) {
			return false
		}
	}

	// Conservative: stop if we have less than 10 requests remaining
	if metadata.RateLimitRemaining > 0 && metadata.RateLimitRemaining < 10 {
		return false
	}

	return fetched < r.config.MaxPages
}

// extractNextCursor extracts cursor for next page
func (r *APIReader) extractNextCursor(body []byte) string {
	cursorFields := []string{"next_cursor", "meta.next_cursor", "cursor", "continuation_token"}

	for _, field := range cursorFields {
		if cursor := gjson.GetBytes(body, field); cursor.Exists() && cursor.String() != "" {
			return cursor.String()
		}
	}

	return ""
}

// ToDataset turns raw records into line records. With LinesPath set each record is
// a receipt holding an array of lines; otherwise each record is one line.
func (r *APIReader) ToDataset(data *APIData) *basket.Dataset {
	dimensions := make([]string, len(r.config.Fields))
	for i, f := range r.config.Fields {
		dimensions[i] = f.Dimension
	}

	var records []basket.Record
	for _, raw := range data.Records {
		rec := gjson.Parse(raw)
		txID := scalar(rec.Get(r.config.TransactionPath))

		lines := []gjson.Result{rec}
		if r.config.LinesPath != "" {
			lines = rec.Get(r.config.LinesPath).Array()
		}
		for _, line := range lines {
			values := make(map[string]string, len(r.config.Fields))
			for _, f := range r.config.Fields {
				values[f.Dimension] = scalar(line.Get(f.Path))
			}
			records = append(records, basket.Record{TransactionID: txID, Values: values})
		}
	}

	return basket.NewDataset(r.name(), dimensions, records)
}

func (r *APIReader) name() string {
	if r.config.Name != "" {
		return r.config.Name
	}
	return r.config.BaseURL
}

// scalar renders strings and numbers; objects, arrays and null map to "".
func scalar(v gjson.Result) string {
	switch v.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return v.String()
	default:
		return ""
	}
}

// RateLimiter spaces requests evenly to stay under a per-minute budget
type RateLimiter struct {
	interval time.Duration
	next     time.Time
}

func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &RateLimiter{interval: time.Minute / time.Duration(requestsPerMinute)}
}

// Wait blocks until the next request slot. The first call never blocks.
// Not safe for concurrent use; one reader fetches pages sequentially.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	now := time.Now()
	if rl.next.IsZero() || !now.Before(rl.next) {
		rl.next = now.Add(rl.interval)
		return ctx.Err()
	}

	timer := time.NewTimer(rl.next.Sub(now))
	defer timer.Stop()
	select {
	case <-timer.C:
		rl.next = rl.next.Add(rl.interval)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
