package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// maxBodyBytes caps how much of a response is read. Larger bodies fail rather than being truncated.
const maxBodyBytes = 8 << 20

// ErrBodyTooLarge is wrapped by a FetchError when a response exceeds the body limit.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// FetchError reports a transport failure or a non-success status for one URL.
type FetchError struct {
	URL        string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("fetch %s: timed out: %v", e.URL, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: status code %d", e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher performs GET requests against upstream sites. It is safe for concurrent use.
type Fetcher struct {
	client       *http.Client
	textEncoding encoding.Encoding
	maxBody      int64
}

// NewFetcher returns a Fetcher whose requests each expire after timeout.
// Plain-text bodies without a declared charset are decoded as Shift_JIS.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:       &http.Client{Timeout: timeout},
		textEncoding: japanese.ShiftJIS,
		maxBody:      maxBodyBytes,
	}
}

// WithTextEncoding returns a copy of f that decodes undeclared plain-text bodies with the
// named encoding (any WHATWG label, e.g. "shift_jis", "euc-jp", "utf-8").
func (f *Fetcher) WithTextEncoding(label string) (*Fetcher, error) {
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("unknown text encoding %q", label)
	}
	return &Fetcher{client: f.client, textEncoding: enc, maxBody: f.maxBody}, nil
}

// GetHtml fetches url and parses it. When lower is set the decoded markup is
// lower-cased before parsing, which folds both tag/attribute names and values.
func (f *Fetcher) GetHtml(ctx context.Context, url, userAgent string, lower bool) (*goquery.Document, error) {
	body, contentType, err := f.GetHtmlBytes(ctx, url, userAgent)
	if err != nil {
		return nil, err
	}

	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode HTML from %s: %w", url, err)
	}
	if lower {
		decoded, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to decode HTML from %s: %w", url, err)
		}
		r = strings.NewReader(strings.ToLower(string(decoded)))
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// GetText fetches url and returns the body decoded to UTF-8.
func (f *Fetcher) GetText(ctx context.Context, url, userAgent string) (string, error) {
	body, contentType, err := f.GetHtmlBytes(ctx, url, userAgent)
	if err != nil {
		return "", err
	}

	enc := f.textEncoding
	if _, params, perr := mime.ParseMediaType(contentType); perr == nil {
		if declared, _ := charset.Lookup(params["charset"]); declared != nil {
			enc = declared
		}
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("failed to decode text: %w", err)}
	}
	return string(decoded), nil
}

// GetHtmlBytes performs the GET and returns the raw body with its Content-Type.
// An empty userAgent leaves Go's default header in place.
func (f *Fetcher) GetHtmlBytes(ctx context.Context, url, userAgent string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", &FetchError{URL: url, Err: err}
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", &FetchError{URL: url, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBody))
		return nil, "", &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", resp.Status),
		}
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, "", &FetchError{URL: url, Timeout: isTimeout(err), Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if int64(len(bodyBytes)) > f.maxBody {
		return nil, "", &FetchError{URL: url, Err: fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, f.maxBody)}
	}
	return bodyBytes, resp.Header.Get("Content-Type"), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
