package enrich

import (
	"regexp"
	"strings"
)

var (
	urlRE = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagRE = regexp.MustCompile(`<[^>]*>`)
	// letters and digits in any script survive; everything else is punctuation
	punctRE = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

// preprocess normalizes review text for scoring: lowercase, strip URLs,
// strip markup, strip punctuation, tokenize, drop stop-words. Pure and
// deterministic.
func preprocess(text string) []string {
	text = strings.ToLower(text)
	text = urlRE.ReplaceAllString(text, "")
	text = tagRE.ReplaceAllString(text, "")
	text = punctRE.ReplaceAllString(text, "")

	fields := strings.Fields(text)
	tokens := fields[:0]
	for _, f := range fields {
		if _, stop := stopwords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
