package enrich

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// ExtractKeywords returns the topN most frequent non-trivial tokens of text,
// most frequent first, ties broken by first occurrence. Tokens of length <= 2
// and stop-words never appear. Empty input yields an empty list.
func (a *Analyzer) ExtractKeywords(text string, topN int) (kws []string) {
	if strings.TrimSpace(text) == "" || topN <= 0 {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("keyword extraction failed")
			kws = nil
		}
	}()

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order int
	for _, t := range preprocess(text) {
		if utf8.RuneCountInString(t) <= 2 {
			continue
		}
		if _, ok := counts[t]; !ok {
			firstSeen[t] = order
			order++
		}
		counts[t]++
	}
	if len(counts) == 0 {
		return nil
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return firstSeen[words[i]] < firstSeen[words[j]]
	})

	if len(words) > topN {
		words = words[:topN]
	}
	return words
}
