package media

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/m3rciful/arrbot/bot/arr"
)

// titleIndex implements fuzzy.Source over lowercase item titles.
type titleIndex struct {
	lower []string
}

func (t titleIndex) String(i int) string { return t.lower[i] }
func (t titleIndex) Len() int            { return len(t.lower) }

// Filter ranks items by fuzzy title match, best first. An empty query keeps
// the library order.
func Filter(items []arr.Item, query string) []arr.Item {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}
	idx := titleIndex{lower: make([]string, len(items))}
	for i, it := range items {
		idx.lower[i] = strings.ToLower(it.Title)
	}
	matches := fuzzy.FindFrom(query, idx)
	out := make([]arr.Item, 0, len(matches))
	for _, m := range matches {
		out = append(out, items[m.Index])
	}
	return out
}
