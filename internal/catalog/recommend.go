package catalog

import (
	"sort"
	"strings"

	pkgcatalog "github.com/switchdeck/switchdeck/pkg/catalog"
)

// DefaultTopN is the number of matches returned when the caller does not ask
// for a specific count.
const DefaultTopN = 5

// Match pairs a catalogue record with its keyword score.
type Match struct {
	Entry pkgcatalog.SwitchRecord `json:"entry"`
	Score int                     `json:"score"`
}

// Recommend ranks records against a free-text query. The query is split
// into case-insensitive keywords; a record's score is the number of distinct
// keywords found as substrings of its searchable text. Records scoring zero
// are excluded. Results are sorted by score descending with ties broken by
// original catalogue order, truncated to topN (DefaultTopN when topN <= 0).
// An empty or whitespace-only query yields no matches.
func Recommend(records []pkgcatalog.SwitchRecord, query string, topN int) []Match {
	keywords := tokenize(query)
	if len(keywords) == 0 {
		return []Match{}
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	matches := make([]Match, 0, len(records))
	for i := range records {
		hay := records[i].Haystack()
		score := 0
		for _, kw := range keywords {
			if strings.Contains(hay, kw) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, Match{Entry: records[i], Score: score})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})

	if len(matches) > topN {
		matches = matches[:topN]
	}
	return matches
}

// tokenize splits a query into lowercased, deduplicated keywords.
func tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]struct{}, len(fields))
	keywords := fields[:0]
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		keywords = append(keywords, f)
	}
	return keywords
}
