// Package dataforseo implements the primary SEO data source adapter over
// the DataForSEO v3 live endpoints.
package dataforseo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/seoscout/marketintel/internal/intel"
	"github.com/seoscout/marketintel/internal/metrics"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.dataforseo.com/v3"

// statusOK is the provider's success code, returned on both the response
// envelope and each task.
const statusOK = 20000

// Provider-documented batch caps per call.
const (
	maxVolumeKeywords     = 700
	maxDifficultyKeywords = 1000
)

// Config controls the client.
type Config struct {
	BaseURL  string
	Login    string
	Password string
	Timeout  time.Duration
}

// Client is the DataForSEO adapter. All methods issue one idempotent
// read-only request; retry policy belongs to callers.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// New builds a Client. The logger may not be nil.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// envelope is the provider's standard response wrapper.
type envelope struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []task `json:"tasks"`
}

type task struct {
	StatusCode    int               `json:"status_code"`
	StatusMessage string            `json:"status_message"`
	Result        []json.RawMessage `json:"result"`
}

// post issues one API call and validates the envelope. It returns the
// typed fetch errors from the intel package.
func (c *Client) post(ctx context.Context, endpoint string, payload any) (*task, error) {
	if c.cfg.Login == "" || c.cfg.Password == "" {
		return nil, intel.ErrRemoteUnavailable
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.cfg.Login, c.cfg.Password)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveProviderCall("dataforseo", endpoint, "transport_error", time.Since(start))
		return nil, &intel.TransportError{Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("close response body failed", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveProviderCall("dataforseo", endpoint, "http_error", time.Since(start))
		return nil, &intel.RemoteError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		metrics.ObserveProviderCall("dataforseo", endpoint, "malformed", time.Since(start))
		return nil, &intel.MalformedResponseError{Missing: "response body"}
	}
	if env.StatusCode != statusOK {
		metrics.ObserveProviderCall("dataforseo", endpoint, "remote_error", time.Since(start))
		return nil, &intel.RemoteError{Code: env.StatusCode, Message: env.StatusMessage}
	}
	if len(env.Tasks) == 0 {
		metrics.ObserveProviderCall("dataforseo", endpoint, "malformed", time.Since(start))
		return nil, &intel.MalformedResponseError{Missing: "tasks"}
	}
	t := env.Tasks[0]
	if t.StatusCode != statusOK {
		metrics.ObserveProviderCall("dataforseo", endpoint, "remote_error", time.Since(start))
		return nil, &intel.RemoteError{Code: t.StatusCode, Message: t.StatusMessage}
	}
	metrics.ObserveProviderCall("dataforseo", endpoint, "ok", time.Since(start))
	return &t, nil
}

// Search returns local-pack or organic SERP results for a keyword.
func (c *Client) Search(
	ctx context.Context,
	keyword string,
	locale intel.Locale,
	kind intel.ResultKind,
	maxResults int,
) ([]intel.SERPResult, error) {
	endpoint := "serp/google/organic/live/advanced"
	depth := 10
	if kind == intel.ResultKindLocal {
		endpoint = "serp/google/maps/live/advanced"
		// Fetch extra so filtered ads do not starve the result set.
		depth = 20
	}
	t, err := c.post(ctx, endpoint, []map[string]any{{
		"keyword":       keyword,
		"location_name": locale.Name(),
		"language_name": "English",
		"depth":         depth,
	}})
	if err != nil {
		return nil, err
	}
	results, err := parseSERP(t, kind, maxResults)
	if err != nil {
		return nil, c.swallowMalformed(endpoint, err)
	}
	return results, nil
}

// SearchVolumes returns Google Ads volume/CPC/competition data. Inputs
// beyond the provider's 700-keyword cap are split across calls.
func (c *Client) SearchVolumes(ctx context.Context, keywords []string, locale intel.Locale) ([]intel.KeywordRecord, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	endpoint := "keywords_data/google_ads/search_volume/live"
	var records []intel.KeywordRecord
	for _, batch := range chunkKeywords(keywords, maxVolumeKeywords) {
		t, err := c.post(ctx, endpoint, []map[string]any{{
			"keywords":      batch,
			"location_name": locale.Name(),
			"language_name": "English",
		}})
		if err != nil {
			return nil, err
		}
		parsed, err := parseVolumes(t)
		if err != nil {
			return records, c.swallowMalformed(endpoint, err)
		}
		records = append(records, parsed...)
	}
	return records, nil
}

// RankedKeywords returns keywords a domain currently ranks for, ordered by
// estimated traffic value.
func (c *Client) RankedKeywords(ctx context.Context, domain string, locale intel.Locale, limit int) ([]intel.KeywordRecord, error) {
	endpoint := "dataforseo_labs/google/ranked_keywords/live"
	t, err := c.post(ctx, endpoint, []map[string]any{{
		"target":        domain,
		"location_name": locale.Name(),
		"language_name": "English",
		"limit":         limit,
		"order_by":      []string{"etv,desc"},
	}})
	if err != nil {
		return nil, err
	}
	records, err := parseRankedKeywords(t)
	if err != nil {
		return nil, c.swallowMalformed(endpoint, err)
	}
	return records, nil
}

// Overview returns aggregate visibility metrics for a domain.
func (c *Client) Overview(ctx context.Context, domain string, locale intel.Locale) (intel.DomainOverview, error) {
	endpoint := "dataforseo_labs/google/domain_rank_overview/live"
	t, err := c.post(ctx, endpoint, []map[string]any{{
		"target":        domain,
		"location_name": locale.Name(),
		"language_name": "English",
	}})
	if err != nil {
		return intel.DomainOverview{}, err
	}
	overview, err := parseOverview(t)
	if err != nil {
		return intel.DomainOverview{}, c.swallowMalformed(endpoint, err)
	}
	return overview, nil
}

// Difficulty returns 0-100 ranking difficulty scores. Inputs beyond the
// provider's 1000-keyword cap are split across calls.
func (c *Client) Difficulty(ctx context.Context, keywords []string, locale intel.Locale) ([]intel.DifficultyScore, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	endpoint := "dataforseo_labs/google/bulk_keyword_difficulty/live"
	var scores []intel.DifficultyScore
	for _, batch := range chunkKeywords(keywords, maxDifficultyKeywords) {
		t, err := c.post(ctx, endpoint, []map[string]any{{
			"keywords":      batch,
			"location_name": locale.Name(),
			"language_name": "English",
		}})
		if err != nil {
			return nil, err
		}
		parsed, err := parseDifficulty(t)
		if err != nil {
			return scores, c.swallowMalformed(endpoint, err)
		}
		scores = append(scores, parsed...)
	}
	return scores, nil
}

// chunkKeywords splits keywords into provider-cap sized batches.
func chunkKeywords(keywords []string, size int) [][]string {
	var chunks [][]string
	for len(keywords) > size {
		chunks = append(chunks, keywords[:size])
		keywords = keywords[size:]
	}
	return append(chunks, keywords)
}

// swallowMalformed converts a malformed-response parse error into nil at
// the adapter boundary, so callers see an empty result; other errors pass
// through.
func (c *Client) swallowMalformed(endpoint string, err error) error {
	var malformed *intel.MalformedResponseError
	if errors.As(err, &malformed) {
		c.logger.Warn("provider response malformed",
			zap.String("endpoint", endpoint),
			zap.String("missing", malformed.Missing),
		)
		return nil
	}
	return err
}
