// Package searchatlas implements the secondary keyword data source over the
// Search Atlas MCP endpoint. It is consulted only when the primary source
// returns sparse ranked-keyword data for a domain.
package searchatlas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seoscout/marketintel/internal/intel"
	"github.com/seoscout/marketintel/internal/metrics"
)

// DefaultBaseURL is the production MCP endpoint.
const DefaultBaseURL = "https://mcp.searchatlas.com/api/v1/mcp"

// fallbackPageSize bounds how many keyword rows one fallback call requests.
const fallbackPageSize = 20

// Config controls the client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is the Search Atlas adapter.
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

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int       `json:"id"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
}

type rpcParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type rpcResponse struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
}

// call invokes one MCP tool operation and returns the text payload.
func (c *Client) call(ctx context.Context, tool, op string, params map[string]any) (string, error) {
	if c.cfg.APIKey == "" {
		return "", intel.ErrRemoteUnavailable
	}

	args := map[string]any{"op": op}
	if len(params) > 0 {
		args["params"] = params
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  rpcParams{Name: tool, Arguments: args},
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	endpoint := tool + "." + op
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveProviderCall("searchatlas", endpoint, "transport_error", time.Since(start))
		return "", &intel.TransportError{Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("close response body failed", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveProviderCall("searchatlas", endpoint, "http_error", time.Since(start))
		return "", &intel.RemoteError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.ObserveProviderCall("searchatlas", endpoint, "malformed", time.Since(start))
		return "", &intel.MalformedResponseError{Missing: "response body"}
	}
	if out.Error != nil {
		metrics.ObserveProviderCall("searchatlas", endpoint, "remote_error", time.Since(start))
		return "", &intel.RemoteError{Code: out.Error.Code, Message: out.Error.Message}
	}
	if len(out.Result.Content) == 0 {
		metrics.ObserveProviderCall("searchatlas", endpoint, "malformed", time.Since(start))
		return "", &intel.MalformedResponseError{Missing: "result.content"}
	}
	metrics.ObserveProviderCall("searchatlas", endpoint, "ok", time.Since(start))
	return out.Result.Content[0].Text, nil
}

type organicPayload struct {
	Results []struct {
		Keyword      string   `json:"keyword"`
		SearchVolume *int     `json:"search_volume"`
		CPC          *float64 `json:"cpc"`
		Position     *int     `json:"position"`
		Traffic      *float64 `json:"traffic"`
	} `json:"results"`
}

// RankedKeywords returns the domain's top organic keywords ordered by
// traffic. It implements intel.FallbackSource.
func (c *Client) RankedKeywords(ctx context.Context, domain string) ([]intel.KeywordRecord, error) {
	text, err := c.call(ctx, "Site_Explorer_Organic_Tool", "get_organic_keywords", map[string]any{
		"project_identifier": intel.NormalizeDomain(domain),
		"page_size":          fallbackPageSize,
		"ordering":           "-traffic",
	})
	if err != nil {
		return nil, err
	}

	records, err := parseOrganicKeywords(text)
	if err != nil {
		var malformed *intel.MalformedResponseError
		if errors.As(err, &malformed) {
			c.logger.Warn("fallback response malformed",
				zap.String("domain", domain),
				zap.String("missing", malformed.Missing),
			)
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}

func parseOrganicKeywords(text string) ([]intel.KeywordRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &intel.MalformedResponseError{Missing: "content[0].text"}
	}
	var payload organicPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, &intel.MalformedResponseError{Missing: "content[0].text results"}
	}

	records := make([]intel.KeywordRecord, 0, len(payload.Results))
	for _, row := range payload.Results {
		term := intel.NormalizeTerm(row.Keyword)
		if term == "" {
			continue
		}
		rec := intel.KeywordRecord{Term: term}
		if row.SearchVolume != nil {
			rec.SearchVolume = *row.SearchVolume
		}
		if row.CPC != nil {
			rec.CPC = *row.CPC
		}
		if row.Position != nil {
			rec.Rank = *row.Position
		}
		if row.Traffic != nil {
			rec.TrafficEstimate = *row.Traffic
		}
		records = append(records, rec)
	}
	return records, nil
}
