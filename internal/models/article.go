package models

import "time"

// Label classifies the fused sentiment of a document.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNeutral  Label = "neutral"
	LabelNegative Label = "negative"
)

// RawNews is the payload collectors publish onto the intake topic.
// Only title, body and published_at are required; everything else is
// best effort.
type RawNews struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	Summary     string `json:"summary,omitempty"`
	PublishedAt string `json:"published_at"`
	Source      string `json:"source,omitempty"`
	Category    string `json:"category,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Sentiment holds the fused ensemble output for one article.
type Sentiment struct {
	Score         float64  `json:"score"`
	Confidence    float64  `json:"confidence"`
	Label         Label    `json:"label"`
	ExternalScore *float64 `json:"external_score,omitempty"`
	ScorerCount   int      `json:"scorer_count"`
	Failed        bool     `json:"failed,omitempty"`
}

// Article is the canonical scored document stored in Elasticsearch.
// Clean* fields hold the normalized text; the original fields are kept
// unchanged for audit.
type Article struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Summary      string    `json:"summary,omitempty"`
	CleanTitle   string    `json:"clean_title"`
	CleanBody    string    `json:"clean_body"`
	CleanSummary string    `json:"clean_summary,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
	Source       string    `json:"source"`
	Category     string    `json:"category,omitempty"`
	URL          string    `json:"url,omitempty"`
	Keywords     []string  `json:"keywords,omitempty"`
	Sentiment    Sentiment `json:"sentiment"`
}

// AnalysisText concatenates the cleaned fields the same way the
// ensemble consumes them.
func (a Article) AnalysisText() string {
	text := a.CleanTitle
	if a.CleanSummary != "" {
		text += " " + a.CleanSummary
	}
	if a.CleanBody != "" {
		text += " " + a.CleanBody
	}
	return text
}
