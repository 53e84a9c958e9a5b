package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dtnitsch/dam-storage/models"
	"github.com/dtnitsch/dam-storage/pkg/parser"
)

// StationPageURL is the detail page for id on the river observation site.
func (r *Resolver) StationPageURL(id models.StationID) string {
	return strings.TrimRight(r.riverOrigin.String(), "/") + fmt.Sprintf(stationPagePath, url.QueryEscape(string(id)))
}

// ResolveStation returns the most recent storage rate published for one station.
// The station page is lower-cased before parsing because the site mixes attribute case.
func (r *Resolver) ResolveStation(ctx context.Context, id models.StationID) (*models.Reading, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, models.ErrEmptyStationID
	}

	pageURL := r.StationPageURL(id)
	r.logger.Debug("fetching station page", "station_id", id, "url", pageURL)
	doc, err := r.fetcher.GetHtml(ctx, pageURL, r.browserUserAgent, true)
	if err != nil {
		return nil, fmt.Errorf("station %s: %w", id, err)
	}

	href, err := parser.FindDataFileLink(doc, parser.DataFileSuffix)
	if err != nil {
		return nil, fmt.Errorf("station %s: %w", id, err)
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("station %s: invalid data file link %q: %w", id, href, err)
	}
	dataURL := r.riverOrigin.ResolveReference(ref).String()

	r.logger.Debug("fetching data file", "station_id", id, "url", dataURL)
	body, err := r.fetcher.GetText(ctx, dataURL, "")
	if err != nil {
		return nil, fmt.Errorf("station %s: %w", id, err)
	}

	rate, err := parser.LatestRate(body)
	if err != nil {
		return nil, fmt.Errorf("station %s: %s: %w", id, dataURL, err)
	}

	return &models.Reading{
		StationID: id,
		Rate:      rate,
		SourceURL: dataURL,
		FetchedAt: r.now(),
	}, nil
}
