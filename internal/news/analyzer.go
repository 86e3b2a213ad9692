package news

import (
	"strings"
)

// Sentiment summarizes the tone of a set of headlines for one symbol.
type Sentiment struct {
	Symbol    string
	Label     string // POSITIVE, NEGATIVE, NEUTRAL or MIXED
	Score     float64
	Positive  int
	Negative  int
	Neutral   int
	Headlines []string
}

// Analyzer scores headlines against weighted keyword lists. Word
// matching is case-insensitive on whole tokens.
type Analyzer struct {
	positive map[string]float64
	negative map[string]float64
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		positive: map[string]float64{
			"surge": 1, "rally": 1, "soar": 1, "bullish": 1, "breakout": 1,
			"adoption": 0.7, "approval": 0.7, "etf": 0.5, "upgrade": 0.7,
			"gain": 0.5, "rebound": 0.5, "record": 0.5, "institutional": 0.4,
			"accumulation": 0.4, "halving": 0.3, "partnership": 0.3,
		},
		negative: map[string]float64{
			"crash": -1, "plunge": -1, "selloff": -1, "bearish": -1, "dump": -1,
			"hack": -0.9, "exploit": -0.9, "lawsuit": -0.7, "ban": -0.7,
			"sec": -0.3, "drop": -0.5, "liquidation": -0.6, "outflow": -0.5,
			"fraud": -0.9, "downgrade": -0.7, "fear": -0.4,
		},
	}
}

// ScoreArticle returns the net keyword score of one article. Title words
// count double since summaries are often truncated boilerplate.
func (a *Analyzer) ScoreArticle(art Article) float64 {
	score := a.scoreText(art.Title) * 2
	score += a.scoreText(art.Content)
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return score
}

func (a *Analyzer) scoreText(text string) float64 {
	var score float64
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		if w, ok := a.positive[tok]; ok {
			score += w
		}
		if w, ok := a.negative[tok]; ok {
			score += w
		}
	}
	return score
}

// Aggregate scores every article and folds them into an overall sentiment.
func (a *Analyzer) Aggregate(symbol string, articles []Article) Sentiment {
	s := Sentiment{Symbol: symbol, Label: "NEUTRAL"}
	if len(articles) == 0 {
		return s
	}

	var total float64
	for _, art := range articles {
		score := a.ScoreArticle(art)
		total += score
		switch {
		case score > 0.1:
			s.Positive++
		case score < -0.1:
			s.Negative++
		default:
			s.Neutral++
		}
		s.Headlines = append(s.Headlines, art.Title)
	}
	s.Score = total / float64(len(articles))

	switch {
	case s.Positive > s.Negative*2:
		s.Label = "POSITIVE"
	case s.Negative > s.Positive*2:
		s.Label = "NEGATIVE"
	case s.Positive > 0 && s.Negative > 0:
		s.Label = "MIXED"
	}
	return s
}
