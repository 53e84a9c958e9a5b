package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtnitsch/dam-storage/models"
	"github.com/dtnitsch/dam-storage/pkg/parser"
)

// ResolveAggregate returns the combined storage rate from the summary page's total row.
// The page is parsed as-is; the label is matched by substring.
func (r *Resolver) ResolveAggregate(ctx context.Context) (*models.Reading, error) {
	r.logger.Debug("fetching aggregate page", "url", r.aggregateURL)
	doc, err := r.fetcher.GetHtml(ctx, r.aggregateURL, r.userAgent, false)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	rate, err := parser.FindAggregateRate(doc, r.aggregateLabel)
	if err != nil {
		if errors.Is(err, models.ErrRowNotFound) {
			r.logger.Debug("summary rows seen", "label", r.aggregateLabel, "rows", parser.SummaryRows(doc))
		}
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	return &models.Reading{
		Rate:      rate,
		SourceURL: r.aggregateURL,
		FetchedAt: r.now(),
	}, nil
}
