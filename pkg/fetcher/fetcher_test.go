package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

func shiftJIS(t *testing.T, s string) string {
	t.Helper()
	out, err := japanese.ShiftJIS.NewEncoder().String(s)
	require.NoError(t, err)
	return out
}

func TestGetHtml_SendsUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Mozilla/5.0 test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><a href="/x.dat">x</a></body></html>`))
	}))
	defer srv.Close()

	doc, err := NewFetcher(5*time.Second).GetHtml(context.Background(), srv.URL, "Mozilla/5.0 test", false)
	require.NoError(t, err)
	href, ok := doc.Find("a").Attr("href")
	assert.True(t, ok)
	assert.Equal(t, "/x.dat", href)
}

func TestGetHtml_LowerCasesMarkup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<HTML><BODY><A HREF="/DATA/FOO.DAT">Data</A></BODY></HTML>`))
	}))
	defer srv.Close()

	doc, err := NewFetcher(5*time.Second).GetHtml(context.Background(), srv.URL, "", true)
	require.NoError(t, err)
	href, _ := doc.Find("a").Attr("href")
	assert.Equal(t, "/data/foo.dat", href)
	assert.Equal(t, "data", doc.Find("a").Text())
}

func TestGetHtml_DecodesMetaCharset(t *testing.T) {
	page := `<html><head><meta http-equiv="Content-Type" content="text/html; charset=Shift_JIS"></head>` +
		`<body><table><tr><td>9ダム以上合計</td></tr></table></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(shiftJIS(t, page)))
	}))
	defer srv.Close()

	doc, err := NewFetcher(5*time.Second).GetHtml(context.Background(), srv.URL, "", false)
	require.NoError(t, err)
	assert.Equal(t, "9ダム以上合計", doc.Find("td").Text())
}

func TestGetText(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        func(t *testing.T) string
		want        string
	}{
		{
			name:        "undeclared charset falls back to Shift_JIS",
			contentType: "text/plain",
			body:        func(t *testing.T) string { return shiftJIS(t, "矢木沢,73.2\n") },
			want:        "矢木沢,73.2\n",
		},
		{
			name:        "declared charset wins",
			contentType: "text/plain; charset=utf-8",
			body:        func(*testing.T) string { return "矢木沢,73.2\n" },
			want:        "矢木沢,73.2\n",
		},
		{
			name:        "server-sniffed content type",
			contentType: "",
			body:        func(*testing.T) string { return "2024/06/01,73.2\n" },
			want:        "2024/06/01,73.2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body(t)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				}
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			got, err := NewFetcher(5*time.Second).GetText(context.Background(), srv.URL, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithTextEncoding(t *testing.T) {
	f, err := NewFetcher(time.Second).WithTextEncoding("euc-jp")
	require.NoError(t, err)
	assert.Equal(t, japanese.EUCJP, f.textEncoding)

	_, err = NewFetcher(time.Second).WithTextEncoding("klingon")
	require.Error(t, err)
}

func TestGetHtmlBytes_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, _, err := NewFetcher(5*time.Second).GetHtmlBytes(context.Background(), srv.URL, "")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusForbidden, fe.StatusCode)
	assert.False(t, fe.Timeout)
	assert.Equal(t, srv.URL, fe.URL)
	assert.Contains(t, err.Error(), "403")
}

func TestGetHtmlBytes_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, _, err := NewFetcher(50*time.Millisecond).GetHtmlBytes(context.Background(), srv.URL, "")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.True(t, fe.Timeout)
}

func TestGetHtmlBytes_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := NewFetcher(5*time.Second).GetHtmlBytes(ctx, srv.URL, "")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.True(t, fe.Timeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetHtmlBytes_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, _, err := NewFetcher(time.Second).GetHtmlBytes(context.Background(), url, "")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.StatusCode)
}

func TestGetHtmlBytes_BodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for i := 0; i < 10; i++ {
			_, _ = w.Write([]byte("0,1,2,3,4,5,6,7,8,9,73.2\n"))
		}
		_, _ = w.Write([]byte("0,1,2,3,4,5,6,7,8,9,99.9\n"))
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	f.maxBody = 64

	_, err := f.GetText(context.Background(), srv.URL, "")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.ErrorIs(t, err, ErrBodyTooLarge)
	assert.Zero(t, fe.StatusCode)
}

func TestGetHtmlBytes_BodyAtLimit(t *testing.T) {
	body := strings.Repeat("x", 64)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	f.maxBody = 64

	got, err := f.GetText(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.Equal(t, body, got)
}
