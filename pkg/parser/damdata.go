package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/dam-storage/models"
)

const (
	// DataFileSuffix marks the time-series export among a station page's links.
	DataFileSuffix = ".dat"

	// rateField is the zero-based column of the storage rate in a data record.
	// Upstream does not document the layout; a reordered export would yield a wrong value, not an error.
	rateField = 10
)

// FindDataFileLink returns the href of the first anchor, in document order, whose href
// ends in suffix. The comparison ignores case.
func FindDataFileLink(doc *goquery.Document, suffix string) (string, error) {
	suffix = strings.ToLower(suffix)
	var link string
	doc.Find("a[href]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if strings.HasSuffix(strings.ToLower(href), suffix) {
			link = href
			return false
		}
		return true
	})
	if link == "" {
		return "", models.ErrLinkNotFound
	}
	return link, nil
}

// LatestRate returns the storage-rate column of the last non-blank record in a
// comma-delimited data file. Records are chronological, so the last one is the newest.
func LatestRate(body string) (models.StorageRate, error) {
	var last string
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			last = line
		}
	}
	if last == "" {
		return "", models.ErrEmptyDataFile
	}

	fields := strings.Split(last, ",")
	if len(fields) <= rateField {
		return "", models.ErrMissingRateField
	}
	return models.StorageRate(strings.TrimSpace(fields[rateField])), nil
}
