package options

import (
	"sort"
	"strings"
)

// Search filters items whose label or value contains query, ignoring case.
// Label prefix matches rank first; ties keep the source order.
func Search(items []Option, query string, limit int, opts Options) []Option {
	limit = clampLimit(limit, opts)
	if limit == 0 {
		return nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		if opts.EmptySearchMode != EmptySearchTop {
			return nil
		}
		if len(items) <= limit {
			return append([]Option{}, items...)
		}
		return append([]Option{}, items[:limit]...)
	}

	q := strings.ToLower(query)
	matches := make([]match, 0, 32)
	for _, item := range items {
		label := strings.ToLower(item.Label)
		value := strings.ToLower(item.text())
		if !strings.Contains(label, q) && !strings.Contains(value, q) {
			continue
		}
		matches = append(matches, match{option: item, isPrefix: strings.HasPrefix(label, q)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].isPrefix && !matches[j].isPrefix
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]Option, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.option)
	}
	return out
}

type match struct {
	option   Option
	isPrefix bool
}
