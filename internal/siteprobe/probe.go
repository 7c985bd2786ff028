// Package siteprobe fetches a domain's homepage and extracts the on-page
// basics used in the report snapshot.
package siteprobe

import (
	"context"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/seoscout/marketintel/internal/intel"
)

// DefaultUserAgent identifies the probe to target sites.
const DefaultUserAgent = "marketintel-audit/1.0"

const maxHeadings = 5

// Config controls the prober.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Prober fetches one page per call. It never follows links.
type Prober struct {
	cfg    Config
	logger *zap.Logger
}

// New builds a Prober.
func New(cfg Config, logger *zap.Logger) *Prober {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Prober{cfg: cfg, logger: logger}
}

// Snapshot fetches the homepage of target (a bare domain or a full URL)
// and returns its title, meta description, and H1 headings. Fetch failures
// come back as a TransportError so callers can degrade.
func (p *Prober) Snapshot(ctx context.Context, target string) (intel.SiteSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return intel.SiteSnapshot{}, &intel.TransportError{Err: err}
	}

	url := target
	if !strings.Contains(url, "://") {
		url = "https://" + intel.NormalizeDomain(target)
	}
	snap := intel.SiteSnapshot{URL: url}

	collector := colly.NewCollector(
		colly.UserAgent(p.cfg.UserAgent),
		colly.MaxDepth(1),
	)
	collector.SetRequestTimeout(p.cfg.Timeout)

	collector.OnHTML("title", func(e *colly.HTMLElement) {
		if snap.Title == "" {
			snap.Title = strings.TrimSpace(e.Text)
		}
	})
	collector.OnHTML(`meta[name="description"]`, func(e *colly.HTMLElement) {
		if snap.MetaDescription == "" {
			snap.MetaDescription = strings.TrimSpace(e.Attr("content"))
		}
	})
	collector.OnHTML("h1", func(e *colly.HTMLElement) {
		if len(snap.Headings) >= maxHeadings {
			return
		}
		if text := strings.TrimSpace(e.Text); text != "" {
			snap.Headings = append(snap.Headings, text)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		snap.StatusCode = r.StatusCode
	})

	var fetchErr error
	collector.OnError(func(r *colly.Response, err error) {
		snap.StatusCode = r.StatusCode
		fetchErr = err
	})

	if err := collector.Visit(url); err != nil {
		return snap, &intel.TransportError{Err: err}
	}
	collector.Wait()

	if fetchErr != nil {
		p.logger.Warn("homepage probe failed", zap.String("url", url), zap.Error(fetchErr))
		return snap, &intel.TransportError{Err: fetchErr}
	}
	return snap, nil
}
