package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"insightviz/internal/analysis"

	"github.com/dustin/go-humanize"
)

// Row is one label/value line of the data overview table.
type Row struct {
	Label string
	Value string
}

// DateUnavailable is shown when no date column parses.
const DateUnavailable = "Date range unavailable"

// metric probes the first present alias and formats its value. ok is false
// when the row should be left out.
type metric struct {
	label   string
	aliases []string
	value   func(ds *analysis.Dataset, col string) (string, bool)
}

var (
	dateAliases  = []string{"date", "Date", "DATE"}
	closeAliases = []string{"close", "Close"}
)

var metrics = []metric{
	{"Total Revenue", []string{"total", "Total"}, func(ds *analysis.Dataset, col string) (string, bool) {
		sum, err := ds.Sum(col)
		if err != nil {
			return "", false
		}
		return fmt.Sprintf("$%.2f", sum), true
	}},
	{"Number of Branches", []string{"branch", "Branch"}, distinct},
	{"Number of Symbols", []string{"symbol", "Symbol"}, distinct},
	{"Average Close Price", closeAliases, func(ds *analysis.Dataset, col string) (string, bool) {
		mean, err := ds.Mean(col)
		if err != nil || math.IsNaN(mean) {
			return "", false
		}
		return fmt.Sprintf("$%.2f", mean), true
	}},
	{"Total Volume", []string{"volume", "Volume"}, func(ds *analysis.Dataset, col string) (string, bool) {
		sum, err := ds.Sum(col)
		if err != nil {
			return "", false
		}
		return humanize.Commaf(sum), true
	}},
}

func distinct(ds *analysis.Dataset, col string) (string, bool) {
	return strconv.Itoa(ds.Distinct(col)), true
}

// firstColumn returns the first alias present in ds.
func firstColumn(ds *analysis.Dataset, aliases []string) (string, bool) {
	for _, a := range aliases {
		if ds.HasColumn(a) {
			return a, true
		}
	}
	return "", false
}

// Overview builds the data overview rows. Total Records and Date Range are
// always present; the remaining metrics appear when one of their columns does.
func Overview(ds *analysis.Dataset) []Row {
	rows := []Row{
		{"Total Records", strconv.Itoa(ds.Len())},
		{"Date Range", dateRange(ds)},
	}
	for _, m := range metrics {
		col, ok := firstColumn(ds, m.aliases)
		if !ok {
			continue
		}
		if v, ok := m.value(ds, col); ok {
			rows = append(rows, Row{m.label, v})
		}
	}
	return rows
}

func dateRange(ds *analysis.Dataset) string {
	for _, col := range dateAliases {
		if !ds.HasColumn(col) {
			continue
		}
		if min, max, ok := ds.DateRange(col); ok {
			return min.Format("2006-01-02") + " to " + max.Format("2006-01-02")
		}
	}
	return DateUnavailable
}

const sentencesPerParagraph = 3

// Paragraphs splits the summary on blank lines. A summary without blank lines
// is regrouped into paragraphs of three sentences.
func Paragraphs(summary string) []string {
	var out []string
	summary = strings.ReplaceAll(summary, "\r\n", "\n")
	blocks := strings.Split(summary, "\n\n")
	if len(blocks) > 1 {
		for _, b := range blocks {
			if b = strings.TrimSpace(b); b != "" {
				out = append(out, b)
			}
		}
		return out
	}

	var group []string
	flush := func() {
		if len(group) == 0 {
			return
		}
		out = append(out, strings.Join(group, ". ")+".")
		group = nil
	}
	for _, s := range strings.Split(summary, ". ") {
		s = strings.TrimSuffix(strings.TrimSpace(s), ".")
		if s == "" {
			continue
		}
		group = append(group, s)
		if len(group) >= sentencesPerParagraph {
			flush()
		}
	}
	flush()
	return out
}

var recommendationKeywords = []string{"recommend", "should", "could", "opportunity", "improve"}

var genericRecommendations = []string{
	"Optimize inventory for top-performing product lines",
	"Focus marketing efforts on key customer segments",
	"Investigate underperforming branches",
	"Consider expanding payment options based on preferred methods",
}

var marketRecommendations = []string{
	"Monitor price volatility patterns for trading opportunities",
	"Analyze volume trends to identify potential market sentiment shifts",
	"Consider correlation analysis with market indices for broader context",
	"Implement technical analysis indicators for trading decisions",
}

// Recommendations pulls the action-oriented sentences out of the summary.
// When none are found a fixed list is returned, geared to market data when
// ds has a close price column.
func Recommendations(summary string, ds *analysis.Dataset) []string {
	var out []string
	for _, s := range strings.Split(summary, ".") {
		lower := strings.ToLower(s)
		if !containsAny(lower, recommendationKeywords) {
			continue
		}
		s = strings.TrimSpace(s)
		s = strings.TrimSpace(strings.TrimPrefix(s, "•"))
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) > 0 {
		return out
	}
	if ds != nil {
		if _, ok := firstColumn(ds, closeAliases); ok {
			return append([]string(nil), marketRecommendations...)
		}
	}
	return append([]string(nil), genericRecommendations...)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// breakAfter reports whether a page break follows chart i of n.
func breakAfter(i, n int) bool {
	return i%2 == 1 && i < n-1
}
