package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/valueinvest/valueinvest/pkg/config"
	"github.com/valueinvest/valueinvest/pkg/httputil"
)

const sinaKlineFixture = `[
	{"day":"2025-08-18","open":"34.80","high":"35.20","low":"34.60","close":"35.00","volume":"52110400"},
	{"day":"2025-08-19","open":"35.00","high":"35.60","low":"34.90","close":"35.40","volume":"48221100"},
	{"day":"2025-08-20","open":"35.40","high":"35.50","low":"34.70","close":"bad","volume":"51000000"}
]`

const sinaNewsFixture = `<html><body>
<div class="datelist"><ul>
2025-08-20&nbsp;08:30&nbsp;<a href="https://finance.sina.com.cn/a/1.shtml">招商银行发布中报 净利润增长</a><br>
2025-08-18&nbsp;19:02&nbsp;<a href="https://finance.sina.com.cn/a/2.shtml">股东大会通过分红方案</a><br>
</ul></div>
</body></html>`

func TestParseSinaKlines(t *testing.T) {
	h, err := parseSinaKlines("600036.SH", []byte(sinaKlineFixture))
	if err != nil {
		t.Fatal(err)
	}

	// The malformed close is skipped, not fatal.
	if h.Len() != 2 {
		t.Fatalf("points = %d, want 2", h.Len())
	}
	if h.Points[0].Close != 35.00 || h.Points[1].Close != 35.40 {
		t.Errorf("closes = %v/%v", h.Points[0].Close, h.Points[1].Close)
	}
	if !h.Points[0].Date.Equal(time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first date = %v", h.Points[0].Date)
	}
}

func TestParseSinaKlines_BadPayload(t *testing.T) {
	if _, err := parseSinaKlines("600036.SH", []byte(`<html>error</html>`)); err == nil {
		t.Error("expected parse error for non-JSON payload")
	}
}

func TestParseSinaNews(t *testing.T) {
	items, err := parseSinaNews("600036.SH", strings.NewReader(sinaNewsFixture), 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}

	first := items[0]
	if first.Title != "招商银行发布中报 净利润增长" {
		t.Errorf("title = %q", first.Title)
	}
	if first.URL != "https://finance.sina.com.cn/a/1.shtml" || first.Source != "sina" {
		t.Errorf("url/source = %q/%q", first.URL, first.Source)
	}
	if !first.PublishedAt.Equal(time.Date(2025, 8, 20, 8, 30, 0, 0, time.UTC)) {
		t.Errorf("published = %v", first.PublishedAt)
	}
}

func TestParseSinaNews_Limit(t *testing.T) {
	items, err := parseSinaNews("600036.SH", strings.NewReader(sinaNewsFixture), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Errorf("items = %d, want 1", len(items))
	}
}

func TestSinaHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "sh600036" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, sinaKlineFixture)
	}))
	t.Cleanup(server.Close)

	p := NewSinaProvider(config.SinaConfig{}, httputil.New(&config.Config{}, newTestLogger()), newTestLogger())
	p.klineURL = server.URL

	h, err := p.History(context.Background(), "600036.SH", 252)
	if err != nil {
		t.Fatal(err)
	}
	if h.Len() != 2 || h.Ticker != "600036.SH" {
		t.Errorf("history = %d points for %q", h.Len(), h.Ticker)
	}
}

func TestSinaSymbol(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"600036", "sh600036"},
		{"000001", "sz000001"},
	}

	for _, tt := range tests {
		if got := sinaSymbol(tt.code); got != tt.want {
			t.Errorf("sinaSymbol(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
