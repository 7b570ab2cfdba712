package screener

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseTickers reads a watchlist: one ticker per line, with blank
// lines, comma-separated groups, and # comments allowed.
func ParseTickers(r io.Reader) ([]string, error) {
	var tickers []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}

		for _, field := range strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		}) {
			ticker := strings.ToUpper(strings.TrimSpace(field))
			if ticker == "" || seen[ticker] {
				continue
			}
			seen[ticker] = true
			tickers = append(tickers, ticker)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}

	return tickers, nil
}

// ReadTickerFile loads a watchlist file.
func ReadTickerFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open watchlist: %w", err)
	}
	defer f.Close()

	return ParseTickers(f)
}
