package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/cinemood/pkg/model"
)

const (
	maxTopLanguages = 3
	maxTopGenres    = 5
	maxSummaryItems = 8

	noHistorySummary = "New user with no watch history"
)

// TasteProfile is a compact digest of a history snapshot. It is a pure
// function of its input and is discarded at the end of an invocation.
type TasteProfile struct {
	TopLanguages []string
	TopGenres    []int64
	Summary      string

	// Items is the number of history entries the profile was derived from
	Items int
}

// AnalyzeProfile derives a taste profile from history. It never fails.
// defaultLanguage is used when no item carries a language.
func AnalyzeProfile(history []*model.HistoryItem, defaultLanguage string) *TasteProfile {
	items := make([]*model.HistoryItem, 0, len(history))
	for _, h := range history {
		if h != nil {
			items = append(items, h)
		}
	}

	if len(items) == 0 {
		return &TasteProfile{
			TopLanguages: []string{defaultLanguage},
			TopGenres:    []int64{},
			Summary:      noHistorySummary,
		}
	}

	languages := newCounter[string]()
	genres := newCounter[int64]()
	for _, h := range items {
		if lang := strings.TrimSpace(h.Language); lang != "" {
			languages.add(lang)
		}
		for _, g := range h.Genres {
			genres.add(g)
		}
	}

	topLanguages := languages.top(maxTopLanguages)
	if len(topLanguages) == 0 {
		topLanguages = []string{defaultLanguage}
	}

	return &TasteProfile{
		TopLanguages: topLanguages,
		TopGenres:    genres.top(maxTopGenres),
		Summary:      summarize(items),
		Items:        len(items),
	}
}

func summarize(items []*model.HistoryItem) string {
	recent := make([]*model.HistoryItem, len(items))
	copy(recent, items)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Order > recent[j].Order
	})
	if len(recent) > maxSummaryItems {
		recent = recent[:maxSummaryItems]
	}

	entries := make([]string, 0, len(recent))
	for _, h := range recent {
		year := "Unknown"
		if h.ReleaseYear > 0 {
			year = fmt.Sprintf("%d", h.ReleaseYear)
		}
		lang := strings.ToUpper(strings.TrimSpace(h.Language))
		if lang == "" {
			lang = "UNKNOWN"
		}
		entries = append(entries, fmt.Sprintf("%s (%s, %s)", h.Title, year, lang))
	}

	return "User's recent watchlist: " + strings.Join(entries, ", ")
}

// counter counts occurrences and remembers first-seen order for tie breaking
type counter[K comparable] struct {
	counts map[K]int
	order  []K
}

func newCounter[K comparable]() *counter[K] {
	return &counter[K]{counts: make(map[K]int)}
}

func (c *counter[K]) add(k K) {
	if _, ok := c.counts[k]; !ok {
		c.order = append(c.order, k)
	}
	c.counts[k]++
}

func (c *counter[K]) top(n int) []K {
	keys := make([]K, len(c.order))
	copy(keys, c.order)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.counts[keys[i]] > c.counts[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
