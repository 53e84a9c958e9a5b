package dam

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dtnitsch/dam-storage/models"
	"github.com/dtnitsch/dam-storage/pkg/fetcher"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const aggregateName = "9ダム合計"

const (
	errTypeFetch            = "fetch_error"
	errTypeTimeout          = "timeout"
	errTypeLinkNotFound     = "link_not_found"
	errTypeEmptyDataFile    = "empty_data_file"
	errTypeMissingRateField = "missing_rate_field"
	errTypeRowNotFound      = "row_not_found"
	errTypeUnknownDam       = "unknown_dam"
	errTypeMalformedRate    = "malformed_rate"
	errTypeUnknown          = "error"
)

var errorMessages = map[string]string{
	errTypeFetch:            "データの取得に失敗しました",
	errTypeTimeout:          "データの取得がタイムアウトしました",
	errTypeLinkNotFound:     "データファイルへのリンクが見つかりませんでした",
	errTypeEmptyDataFile:    "データファイルにデータがありません",
	errTypeMissingRateField: "データファイルに貯水率の列がありません",
	errTypeRowNotFound:      "合計行が見つかりませんでした",
	errTypeUnknownDam:       "対応していないダム名です",
	errTypeMalformedRate:    "貯水率が数値ではありません",
	errTypeUnknown:          "貯水率を取得できませんでした",
}

var errMalformedRate = errors.New("storage rate is not a number")

// Result is the structured output for one requested value.
type Result struct {
	Name      string   `json:"name" yaml:"name"`
	StationID string   `json:"station_id,omitempty" yaml:"station_id,omitempty"`
	Status    string   `json:"status" yaml:"status"`
	Rate      string   `json:"rate,omitempty" yaml:"rate,omitempty"`
	Percent   *float64 `json:"percent,omitempty" yaml:"percent,omitempty"`
	SourceURL string   `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	FetchedAt string   `json:"fetched_at,omitempty" yaml:"fetched_at,omitempty"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorType string   `json:"error_type,omitempty" yaml:"error_type,omitempty"`
}

// FinalOutput is the structured output for the entire run.
type FinalOutput struct {
	Status  string   `json:"status" yaml:"status"`
	Results []Result `json:"results" yaml:"results"`
}

// ErrorType classifies err into one of the reported error types.
func ErrorType(err error) string {
	var fe *fetcher.FetchError
	switch {
	case errors.As(err, &fe):
		if fe.Timeout {
			return errTypeTimeout
		}
		return errTypeFetch
	case errors.Is(err, models.ErrLinkNotFound):
		return errTypeLinkNotFound
	case errors.Is(err, models.ErrEmptyDataFile):
		return errTypeEmptyDataFile
	case errors.Is(err, models.ErrMissingRateField):
		return errTypeMissingRateField
	case errors.Is(err, models.ErrRowNotFound):
		return errTypeRowNotFound
	case errors.Is(err, models.ErrUnknownDamName):
		return errTypeUnknownDam
	case errors.Is(err, errMalformedRate):
		return errTypeMalformedRate
	default:
		return errTypeUnknown
	}
}

// decimalPattern is a plain decimal; ParseFloat alone would also accept NaN, Inf and hex floats.
var decimalPattern = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)

// rateText is the upstream rate with surrounding space and a trailing "%" removed.
func rateText(rate models.StorageRate) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(string(rate)), "%"))
}

// parseRate validates the upstream text as a decimal percentage. A trailing "%" is accepted.
func parseRate(rate models.StorageRate) (float64, error) {
	s := rateText(rate)
	if !decimalPattern.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", errMalformedRate, string(rate))
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errMalformedRate, string(rate))
	}
	return v, nil
}

func buildResult(name string, reading *models.Reading, err error) Result {
	res := Result{Name: name}
	if err == nil {
		res.StationID = string(reading.StationID)
		res.Rate = string(reading.Rate)
		res.SourceURL = reading.SourceURL
		res.FetchedAt = reading.FetchedAt.Format(time.RFC3339)

		var v float64
		if v, err = parseRate(reading.Rate); err == nil {
			res.Percent = &v
			res.Status = "success"
			return res
		}
	}
	res.Status = "failed"
	res.Error = err.Error()
	res.ErrorType = ErrorType(err)
	return res
}

func (e *env) write(c *cli.Context, results []Result) error {
	failed := 0
	for _, r := range results {
		if r.Status != "success" {
			failed++
		}
	}

	if e.format == "text" {
		for _, r := range results {
			if r.Status == "success" {
				fmt.Fprintf(c.App.Writer, "%s: %s%%\n", r.Name, rateText(models.StorageRate(r.Rate)))
				continue
			}
			fmt.Fprintf(c.App.ErrWriter, "%s: %s (%s)\n", r.Name, errorMessages[r.ErrorType], r.Error)
		}
	} else {
		status := "success"
		switch {
		case failed == len(results):
			status = "failed"
		case failed > 0:
			status = "partial_failure"
		}
		if err := e.encode(c, FinalOutput{Status: status, Results: results}); err != nil {
			return err
		}
	}

	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func (e *env) encode(c *cli.Context, v any) error {
	var data []byte
	var err error
	if e.format == "yaml" {
		data, err = yaml.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(c.App.Writer, strings.TrimRight(string(data), "\n"))
	return nil
}
