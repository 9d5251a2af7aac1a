package sentiment

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Lexicon maps sentiment-bearing terms to intensity weights in (0, 1].
type Lexicon struct {
	Positive map[string]float64 `yaml:"positive"`
	Negative map[string]float64 `yaml:"negative"`
}

// Lexicons groups the per-language-family term lists.
type Lexicons struct {
	English Lexicon `yaml:"english"`
	CJK     Lexicon `yaml:"cjk"`
}

// DefaultLexicons returns the built-in financial-news term lists.
func DefaultLexicons() Lexicons {
	return Lexicons{
		English: Lexicon{
			Positive: map[string]float64{
				// Strong positive
				"surge": 1.0, "soar": 1.0, "skyrocket": 1.0, "breakthrough": 1.0,
				"bullish": 0.95, "rally": 0.95, "boom": 0.95,
				"outperform": 0.9, "breakout": 0.9, "triumph": 0.9,

				// Moderate positive
				"beat": 0.85, "exceed": 0.85, "upgrade": 0.85, "optimistic": 0.85,
				"profit": 0.8, "growth": 0.8, "gain": 0.8, "gains": 0.8,
				"jump": 0.8, "strong": 0.8, "boost": 0.8, "success": 0.8,
				"improve": 0.75, "rising": 0.75, "advance": 0.75, "climb": 0.75,
				"expansion": 0.75, "momentum": 0.75, "upside": 0.75, "favorable": 0.75,
				"recover": 0.7, "rebound": 0.7, "strength": 0.7,

				// Mild positive
				"positive": 0.65, "rise": 0.65, "higher": 0.65, "increase": 0.65,
				"better": 0.65, "good": 0.65, "solid": 0.65, "confident": 0.65,
				"opportunity": 0.6, "promising": 0.6, "attractive": 0.6,
				"resilient": 0.6, "steady": 0.6, "healthy": 0.55, "progress": 0.55,
				"robust": 0.5, "stable": 0.5,
			},
			Negative: map[string]float64{
				// Strong negative
				"crash": 1.0, "plunge": 1.0, "collapse": 1.0, "catastrophic": 1.0,
				"crisis": 0.95, "bankruptcy": 0.95, "plummet": 0.95, "tumble": 0.95,
				"panic": 0.9, "worst": 0.9,

				// Moderate negative
				"bearish": 0.85, "downgrade": 0.85, "warning": 0.85, "lawsuit": 0.85,
				"miss": 0.8, "loss": 0.8, "losses": 0.8, "slump": 0.8,
				"decline": 0.8, "deteriorate": 0.8, "underperform": 0.8, "fail": 0.8,
				"struggle": 0.75, "weak": 0.75, "weakness": 0.75,
				"drop": 0.75, "fall": 0.75, "falls": 0.75, "falling": 0.75,
				"concern": 0.7, "concerns": 0.7, "worry": 0.7, "worries": 0.7,
				"disappoint": 0.7, "uncertain": 0.7, "risky": 0.7,

				// Mild negative
				"problem": 0.65, "problems": 0.65, "risk": 0.65, "risks": 0.65,
				"threat": 0.65, "volatile": 0.65, "uncertainty": 0.65, "doubt": 0.65,
				"pressure": 0.6, "difficult": 0.6, "lower": 0.6, "negative": 0.6,
				"poor": 0.6, "slowdown": 0.6, "dip": 0.55, "slip": 0.55,
				"caution": 0.55, "downside": 0.55, "correction": 0.5,
				"pullback": 0.5, "cut": 0.5, "headwind": 0.5,
			},
		},
		CJK: Lexicon{
			Positive: map[string]float64{
				"上涨": 0.8, "增长": 0.8, "盈利": 0.8, "利好": 0.85, "突破": 0.9,
				"创新高": 0.95, "涨幅": 0.7, "收益": 0.7, "发展": 0.6,
				"积极": 0.65, "乐观": 0.7, "看好": 0.75, "推荐": 0.6,
				"买入": 0.75, "持有": 0.5, "反弹": 0.7, "回升": 0.7,
			},
			Negative: map[string]float64{
				"下跌": 0.8, "亏损": 0.85, "利空": 0.85, "跌破": 0.9,
				"创新低": 0.95, "跌幅": 0.7, "损失": 0.75, "风险": 0.65,
				"危机": 0.95, "衰退": 0.9, "消极": 0.65, "悲观": 0.7,
				"看空": 0.75, "卖出": 0.75, "减持": 0.6, "暴跌": 1.0,
			},
		},
	}
}

// LoadLexicons reads term lists from a YAML file, filling any section
// the file omits from the built-in defaults.
func LoadLexicons(path string) (Lexicons, error) {
	lex := DefaultLexicons()
	if path == "" {
		return lex, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return lex, fmt.Errorf("read lexicon file: %w", err)
	}

	var fromFile Lexicons
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return lex, fmt.Errorf("parse lexicon file: %w", err)
	}

	if len(fromFile.English.Positive) > 0 || len(fromFile.English.Negative) > 0 {
		lex.English = fromFile.English
	}
	if len(fromFile.CJK.Positive) > 0 || len(fromFile.CJK.Negative) > 0 {
		lex.CJK = fromFile.CJK
	}
	return lex, nil
}
