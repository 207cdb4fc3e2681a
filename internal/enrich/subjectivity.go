package enrich

// subjectivityLexicon assigns a subjectivity weight in [0,1] to evaluative
// words, in the spirit of pattern-style lexicons: 1.0 is pure opinion, low
// values are close to factual. Words absent from the lexicon contribute
// nothing.
var subjectivityLexicon = map[string]float64{
	"amazing": 1.0, "awesome": 1.0, "awful": 1.0, "terrible": 1.0,
	"horrible": 1.0, "fantastic": 0.9, "wonderful": 1.0, "perfect": 1.0,
	"excellent": 1.0, "great": 0.75, "good": 0.6, "bad": 0.667,
	"best": 0.3, "worst": 1.0, "love": 0.6, "loved": 0.6, "hate": 0.9,
	"hated": 0.9, "like": 0.5, "liked": 0.5, "dislike": 0.7,
	"nice": 1.0, "lovely": 0.95, "beautiful": 1.0, "ugly": 1.0,
	"delicious": 1.0, "tasty": 1.0, "disgusting": 1.0, "bland": 0.8,
	"friendly": 0.7, "rude": 0.9, "helpful": 0.6, "unhelpful": 0.6,
	"slow": 0.4, "fast": 0.4, "quick": 0.5, "clean": 0.5, "dirty": 0.7,
	"cheap": 0.7, "expensive": 0.6, "overpriced": 0.9, "fresh": 0.6,
	"stale": 0.8, "cozy": 0.9, "comfortable": 0.8, "uncomfortable": 0.8,
	"noisy": 0.7, "quiet": 0.6, "crowded": 0.5, "spacious": 0.6,
	"recommend": 0.6, "recommended": 0.6, "disappointing": 0.85,
	"disappointed": 0.85, "impressive": 0.9, "impressed": 0.9,
	"mediocre": 0.8, "average": 0.5, "decent": 0.6, "solid": 0.5,
	"outstanding": 1.0, "superb": 1.0, "poor": 0.7, "fine": 0.5,
	"okay": 0.5, "ok": 0.5, "pleasant": 0.8, "unpleasant": 0.8,
	"annoying": 0.9, "enjoyable": 0.8, "enjoyed": 0.6, "favorite": 0.9,
	"charming": 0.9, "attentive": 0.6, "professional": 0.4,
	"unprofessional": 0.8, "reliable": 0.5, "unreliable": 0.7,
	"happy": 0.8, "unhappy": 0.8, "sad": 0.8, "angry": 0.9,
	"never": 0.3, "always": 0.35, "really": 0.4, "very": 0.3,
	"definitely": 0.6, "absolutely": 0.7, "probably": 0.5,
	"maybe": 0.6, "highly": 0.6, "truly": 0.7, "honestly": 0.7,
}

// subjectivity is the mean lexicon weight over matched tokens, or 0 when
// nothing matches. Result is always within [0,1].
func subjectivity(tokens []string) float64 {
	var sum float64
	var n int
	for _, t := range tokens {
		if w, ok := subjectivityLexicon[t]; ok {
			sum += w
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
