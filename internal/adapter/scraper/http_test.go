package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const ratioPage = `<!DOCTYPE html>
<html>
<head>
  <title>2024 수시 경쟁률</title>
  <style>td { color: red; }</style>
  <script>var x = "hidden";</script>
</head>
<body>
  <h1>세종대학교   경쟁률 현황</h1>
  <table>
    <tr><th>모집단위</th><th>모집인원</th><th>경쟁률</th></tr>
    <tr><td>경제학과</td><td>20</td><td><b>3.5</b>:1</td></tr>
    <tr><td>경영학부</td><td>45</td><td>7.1:1</td></tr>
  </table>
  <p>
     최종 업데이트
  </p>
</body>
</html>`

func TestExtractTextFromServer(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(ratioPage))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, "admissionrag-test")
	text, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	want := "2024 수시 경쟁률\n" +
		"세종대학교   경쟁률 현황\n" +
		"모집단위 | 모집인원 | 경쟁률\n" +
		"경제학과 | 20 | 3.5 :1\n" +
		"경영학부 | 45 | 7.1:1\n" +
		"최종 업데이트"
	require.Equal(t, want, text)
	require.Equal(t, "admissionrag-test", gotUA)
	require.NotContains(t, text, "hidden")
}

func TestFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(time.Second, "").Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestFetchLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratio.html")
	require.NoError(t, os.WriteFile(path, []byte(ratioPage), 0644))

	text, err := NewHTTPFetcher(time.Second, "").Fetch(context.Background(), path)
	require.NoError(t, err)
	require.Contains(t, text, "경제학과 | 20 | 3.5 :1")
}

func TestFetchMissingLocalFile(t *testing.T) {
	_, err := NewHTTPFetcher(time.Second, "").Fetch(context.Background(), filepath.Join(t.TempDir(), "none.html"))
	require.Error(t, err)
}
