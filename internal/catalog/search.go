package catalog

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/webforge/internal/model"
)

const minSimilarity = 0.6

// Match is a catalog entry scored against a search query.
type Match struct {
	Entry model.ProjectSummary
	Score float64
}

// Search ranks entries whose prompt resembles query. Substring hits score 1;
// otherwise the closest prompt word must be within edit-distance tolerance.
// Ties keep service order. An empty query matches everything.
func (c *Catalog) Search(query string) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	entries := c.Entries()
	out := make([]Match, 0, len(entries))
	for _, e := range entries {
		if q == "" {
			out = append(out, Match{Entry: e, Score: 1})
			continue
		}
		if s := score(q, strings.ToLower(e.Prompt)); s >= minSimilarity {
			out = append(out, Match{Entry: e, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func score(query, prompt string) float64 {
	if strings.Contains(prompt, query) {
		return 1
	}
	best := 0.0
	for _, word := range strings.Fields(prompt) {
		if s := similarity(query, word); s > best {
			best = s
		}
	}
	return best
}

func similarity(a, b string) float64 {
	maxlen := len(a)
	if len(b) > maxlen {
		maxlen = len(b)
	}
	if maxlen == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxlen)
}
