package sentiment

import (
	"context"
	"errors"
	"strings"

	"github.com/market-pulse/backend/internal/textnorm"
)

// Scorer produces one independent sentiment estimate in [-1, 1].
type Scorer interface {
	Name() string
	Score(ctx context.Context, text string) (float64, error)
}

var errNoMatches = errors.New("no lexicon terms matched")

// LexiconScorer counts positive and negative term occurrences and
// normalizes the difference by text length. The language family of the
// text selects which term list applies.
type LexiconScorer struct {
	lexicons Lexicons
}

func NewLexiconScorer(lexicons Lexicons) *LexiconScorer {
	return &LexiconScorer{lexicons: lexicons}
}

func (s *LexiconScorer) Name() string { return "lexicon" }

func (s *LexiconScorer) Score(_ context.Context, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, errors.New("empty text")
	}

	var positives, negatives int
	var tokens int
	if textnorm.ContainsCJK(text) {
		lex := s.lexicons.CJK
		for term := range lex.Positive {
			positives += strings.Count(text, term)
		}
		for term := range lex.Negative {
			negatives += strings.Count(text, term)
		}
		// CJK has no space-delimited words; approximate length by
		// counting Han runes in pairs, the typical term length.
		tokens = cjkTokenCount(text)
	} else {
		lex := s.lexicons.English
		words := strings.Fields(strings.ToLower(text))
		tokens = len(words)
		for _, word := range words {
			word = strings.Trim(word, ".,!?\"'()[]{}:;")
			if _, ok := lex.Positive[word]; ok {
				positives++
			} else if _, ok := lex.Negative[word]; ok {
				negatives++
			}
		}
	}

	if tokens == 0 {
		return 0, errors.New("no tokens")
	}
	return clamp(float64(positives-negatives)/float64(tokens), -1, 1), nil
}

// IntensityScorer averages the signed intensity weights of every
// matched term, so a single strong word moves the score further than
// several mild ones.
type IntensityScorer struct {
	lexicons Lexicons
}

func NewIntensityScorer(lexicons Lexicons) *IntensityScorer {
	return &IntensityScorer{lexicons: lexicons}
}

func (s *IntensityScorer) Name() string { return "intensity" }

func (s *IntensityScorer) Score(_ context.Context, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, errors.New("empty text")
	}

	var score float64
	var matches int

	if textnorm.ContainsCJK(text) {
		lex := s.lexicons.CJK
		for term, weight := range lex.Positive {
			if n := strings.Count(text, term); n > 0 {
				score += weight * float64(n)
				matches += n
			}
		}
		for term, weight := range lex.Negative {
			if n := strings.Count(text, term); n > 0 {
				score -= weight * float64(n)
				matches += n
			}
		}
	} else {
		lex := s.lexicons.English
		for _, word := range strings.Fields(strings.ToLower(text)) {
			word = strings.Trim(word, ".,!?\"'()[]{}:;")
			if weight, ok := lex.Positive[word]; ok {
				score += weight
				matches++
			} else if weight, ok := lex.Negative[word]; ok {
				score -= weight
				matches++
			}
		}
	}

	if matches == 0 {
		return 0, errNoMatches
	}
	return clamp(score/float64(matches), -1, 1), nil
}

// Classifier is the external-model contract consumed by RemoteScorer.
type Classifier interface {
	Name() string
	ClassifySentiment(ctx context.Context, texts []string) ([]float64, error)
}

// RemoteScorer delegates to an external sentiment provider. Provider
// failures surface as scorer errors and are absorbed by the ensemble.
type RemoteScorer struct {
	client Classifier
}

func NewRemoteScorer(client Classifier) *RemoteScorer {
	return &RemoteScorer{client: client}
}

func (s *RemoteScorer) Name() string { return "external" }

func (s *RemoteScorer) Score(ctx context.Context, text string) (float64, error) {
	scores, err := s.client.ClassifySentiment(ctx, []string{text})
	if err != nil {
		return 0, err
	}
	if len(scores) == 0 {
		return 0, errors.New("provider returned no scores")
	}
	return clamp(scores[0], -1, 1), nil
}

func cjkTokenCount(text string) int {
	han := 0
	latinWords := 0
	inWord := false
	for _, r := range text {
		switch {
		case r == ' ' || r == '\t' || r == '\n':
			inWord = false
		case r >= 0x4E00 && r <= 0x9FFF:
			han++
			inWord = false
		default:
			if !inWord {
				latinWords++
				inWord = true
			}
		}
	}
	tokens := han/2 + latinWords
	if tokens == 0 && han > 0 {
		tokens = 1
	}
	return tokens
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
