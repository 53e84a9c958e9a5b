package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/dam-storage/models"
)

const (
	// minSummaryCells filters header and spacer rows out of the summary table.
	minSummaryCells = 5
	// summaryRateCell is the zero-based cell holding the storage rate in the total row.
	summaryRateCell = 5
)

// FindAggregateRate scans table rows in document order and returns the rate cell of the
// first row whose label cell contains label. Row order on the summary page is not stable,
// so the row is found by its label and never by position.
func FindAggregateRate(doc *goquery.Document, label string) (models.StorageRate, error) {
	label = compactText(label)
	var rate string
	found := false

	doc.Find("tr").EachWithBreak(func(i int, tr *goquery.Selection) bool {
		cells := tr.ChildrenFiltered("th, td")
		if cells.Length() < minSummaryCells {
			return true
		}
		if !strings.Contains(compactText(cells.First().Text()), label) {
			return true
		}
		// A labelled row too short to carry the rate is not the total row.
		if cells.Length() <= summaryRateCell {
			return true
		}
		rate = cellText(cells.Eq(summaryRateCell))
		found = true
		return false
	})

	if !found {
		return "", models.ErrRowNotFound
	}
	return models.StorageRate(rate), nil
}

// SummaryRows returns the normalized text of every summary row with at least the
// minimum cell count. Used to snapshot the table when diagnosing upstream drift.
func SummaryRows(doc *goquery.Document) [][]string {
	var rows [][]string
	doc.Find("tr").Each(func(i int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("th, td")
		if cells.Length() < minSummaryCells {
			return
		}
		row := make([]string, 0, cells.Length())
		cells.Each(func(j int, td *goquery.Selection) {
			row = append(row, normalizeText(td.Text()))
		})
		rows = append(rows, row)
	})
	return rows
}
