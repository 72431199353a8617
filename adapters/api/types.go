package api

import (
	"time"
)

// FieldBinding maps a gjson path inside a record onto a basket dimension
type FieldBinding struct {
	Dimension string `json:"dimension" yaml:"dimension"`
	Path      string `json:"path" yaml:"path"`
}

// APIDataSource represents an API endpoint serving transactions
type APIDataSource struct {
	// Connection settings
	Name        string            `json:"name"`
	BaseURL     string            `json:"base_url"`
	Headers     map[string]string `json:"headers,omitempty"`
	QueryParams map[string]string `json:"query_params,omitempty"`

	// Authentication
	AuthMethod string `json:"auth_method"` // "none", "bearer", "api_key", "basic"
	AuthToken  string `json:"auth_token,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`

	// Data extraction, all gjson paths
	DataPath        string         `json:"data_path"`        // records array (e.g., "data.receipts")
	TransactionPath string         `json:"transaction_path"` // transaction id inside a record
	LinesPath       string         `json:"lines_path"`       // optional line array inside a record
	Fields          []FieldBinding `json:"fields"`           // dimension values inside a line

	// Pagination
	PaginationType string `json:"pagination_type"` // "none", "offset", "cursor", "page"
	PageSize       int    `json:"page_size"`
	MaxPages       int    `json:"max_pages"`

	RateLimit int           `json:"rate_limit"` // Requests per minute
	Timeout   time.Duration `json:"timeout"`
}

// APIData represents fetched API data
type APIData struct {
	Source   *APIDataSource `json:"source"`
	Records  []string       `json:"records"` // raw JSON of every record, in fetch order
	Metadata APIMetadata    `json:"metadata"`
}

// APIMetadata contains information about the API fetch
type APIMetadata struct {
	URL                string        `json:"url"`
	StatusCode         int           `json:"status_code"`
	ResponseTime       time.Duration `json:"response_time"`
	FetchedAt          time.Time     `json:"fetched_at"`
	RecordsCount       int           `json:"records_count"`
	Pages              int           `json:"pages"`
	ContentType        string        `json:"content_type"`
	RateLimitRemaining int           `json:"rate_limit_remaining,omitempty"`
	RateLimitReset     time.Time     `json:"rate_limit_reset,omitempty"`
}
