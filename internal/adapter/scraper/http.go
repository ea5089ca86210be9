package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"admissionrag/internal/logutil"
)

// DefaultTargets are the competition-ratio pages the admissions corpus was
// first built from.
var DefaultTargets = []string{
	"https://addon.jinhakapply.com/RatioV1/RatioH/Ratio10950551.html",
	"https://addon.jinhakapply.com/RatioV1/RatioH/Ratio10950471.html",
	"https://addon.jinhakapply.com/RatioV1/RatioH/Ratio10950401.html",
}

// maxBodyBytes caps how much of a page is read.
const maxBodyBytes = 16 << 20

// HTTPFetcher retrieves a page and renders its visible text, one text node per
// line. Table rows become "cell | cell" lines so ratio tables stay readable.
// Targets without a URL scheme are read from the local filesystem.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, target string) (string, error) {
	body, err := f.open(ctx, target)
	if err != nil {
		return "", err
	}
	defer body.Close()

	doc, err := html.Parse(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", target, err)
	}

	text := ExtractText(doc)
	logutil.GetLogger(ctx).Debug("scraped page",
		zap.String("target", target), zap.Int("chars", len(text)))
	return text, nil
}

func (f *HTTPFetcher) open(ctx context.Context, target string) (io.ReadCloser, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Scheme == "file" {
		path := target
		if err == nil && u.Scheme == "file" {
			path = u.Path
		}
		return os.Open(path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", target, resp.StatusCode)
	}
	return resp.Body, nil
}

// ExtractText renders the visible text of an HTML tree.
func ExtractText(root *html.Node) string {
	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if s := strings.TrimSpace(n.Data); s != "" {
				lines = append(lines, s)
			}
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			case "tr":
				if row := tableRow(n); row != "" {
					lines = append(lines, row)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.Join(lines, "\n")
}

func tableRow(tr *html.Node) string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		cells = append(cells, strings.Join(strings.Fields(nodeText(c)), " "))
	}
	return strings.Join(cells, " | ")
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
