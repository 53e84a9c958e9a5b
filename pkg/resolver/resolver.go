// Package resolver implements the two storage-rate pipelines: per-station data files
// and the water authority's aggregate summary table.
package resolver

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/dtnitsch/dam-storage/models"
	"github.com/dtnitsch/dam-storage/pkg/fetcher"
)

// stationPagePath is the station detail query; KIND=3 selects the storage page and PAGE=0 its first page.
const stationPagePath = "/cgi-bin/DspDamData.exe?ID=%s&KIND=3&PAGE=0"

// Resolver holds only immutable settings, so one value may serve concurrent calls.
type Resolver struct {
	fetcher          *fetcher.Fetcher
	riverOrigin      *url.URL
	aggregateURL     string
	browserUserAgent string
	userAgent        string
	aggregateLabel   string
	logger           *slog.Logger
	now              func() time.Time
}

// New builds a Resolver from cfg. f performs every request.
func New(cfg models.Config, f *fetcher.Fetcher, logger *slog.Logger) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	origin, err := url.Parse(cfg.RiverOrigin)
	if err != nil {
		return nil, fmt.Errorf("invalid river origin: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		fetcher:          f,
		riverOrigin:      origin,
		aggregateURL:     cfg.AggregateURL,
		browserUserAgent: cfg.BrowserUserAgent,
		userAgent:        cfg.UserAgent,
		aggregateLabel:   cfg.AggregateLabel,
		logger:           logger,
		now:              time.Now,
	}, nil
}
