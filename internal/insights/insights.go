// Package insights turns KPI values into short, deterministic summary sentences.
package insights

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"insightreport/pkg/contracts/domain"
)

// MaxInsights is the number of sentences Generate returns.
const MaxInsights = 3

// Suitability thresholds, in percent.
const (
	HighSuitability     = 80.0
	ModerateSuitability = 60.0
)

// Message keys
const (
	keySuitabilityHigh     = "suitability.high"
	keySuitabilityModerate = "suitability.moderate"
	keySuitabilityLow      = "suitability.low"
	keySuitabilityNoData   = "suitability.nodata"
	keyBudgetSavings       = "budget.savings"
	keyBudgetNoData        = "budget.nodata"
	keyLiftImproved        = "lift.improved"
	keyLiftRoom            = "lift.room"
)

var supported = []language.Tag{language.English, language.Japanese}

var matcher = language.NewMatcher(supported)

var translations = map[language.Tag]map[string]string{
	language.English: {
		keySuitabilityHigh:     "Brand suitability is %.1f%%, a high level that keeps delivery on brand-safe content.",
		keySuitabilityModerate: "Brand suitability is %.1f%%. There is room to improve placement quality.",
		keySuitabilityLow:      "Brand suitability is only %.1f%%. Review the placement strategy.",
		keySuitabilityNoData:   "Brand suitability data is not available.",
		keyBudgetSavings:       "Excluding unsuitable impressions saves an estimated %s%d of budget.",
		keyBudgetNoData:        "Exclusion data is not available.",
		keyLiftImproved:        "Suitability is %.1f points above the baseline, improving content visibility.",
		keyLiftRoom:            "Suitability is not above the baseline yet, so there is room for improvement.",
	},
	language.Japanese: {
		keySuitabilityHigh:     "ブランド適合性が%.1f%%と高い水準を維持しており、ターゲット層への到達が効果的です。",
		keySuitabilityModerate: "ブランド適合性が%.1f%%です。さらに改善の余地があります。",
		keySuitabilityLow:      "ブランド適合性が%.1f%%と低い水準です。配置戦略の見直しをお勧めします。",
		keySuitabilityNoData:   "ブランド適合性データが利用できません。",
		keyBudgetSavings:       "除外インプレッションの削減により、推定%s%d円の予算最適化が可能です。",
		keyBudgetNoData:        "除外インプレッションデータが利用できません。",
		keyLiftImproved:        "ブランド適合性がベースラインを%.1fポイント上回り、コンテンツの視認性が向上しています。",
		keyLiftRoom:            "ブランド適合性はまだベースラインを上回っていません。改善の余地があります。",
	},
}

var builder = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Generator renders insight sentences in one language.
type Generator struct {
	tag     language.Tag
	printer *message.Printer
	// currencyPrefix is printed before budget amounts ("" for languages that suffix the unit).
	currencyPrefix string
}

// NewGenerator returns a generator for lang ("en", "ja", "ja-JP", ...).
// Unsupported or malformed languages fall back to English.
func NewGenerator(lang string) *Generator {
	tag := language.English
	if parsed, err := language.Parse(lang); err == nil {
		_, idx, conf := matcher.Match(parsed)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	prefix := "¥"
	if tag == language.Japanese {
		prefix = ""
	}
	return &Generator{
		tag:            tag,
		printer:        message.NewPrinter(tag, message.Catalog(builder)),
		currencyPrefix: prefix,
	}
}

// Language returns the resolved language tag
func (g *Generator) Language() language.Tag {
	return g.tag
}

// Generate returns at most MaxInsights sentences: suitability, budget and lift, in that order.
func (g *Generator) Generate(k domain.KPISet) []string {
	return []string{
		g.Suitability(k.FinalSuitability),
		g.Budget(k.BudgetOptimization),
		g.Lift(k.Lift),
	}
}

// Suitability describes the final suitability rate
func (g *Generator) Suitability(v float64) string {
	switch {
	case invalid(v) || v <= 0:
		return g.printer.Sprintf(keySuitabilityNoData)
	case v > HighSuitability:
		return g.printer.Sprintf(keySuitabilityHigh, v)
	case v > ModerateSuitability:
		return g.printer.Sprintf(keySuitabilityModerate, v)
	default:
		return g.printer.Sprintf(keySuitabilityLow, v)
	}
}

// Budget describes the estimated savings
func (g *Generator) Budget(v float64) string {
	if invalid(v) || v <= 0 {
		return g.printer.Sprintf(keyBudgetNoData)
	}
	return g.printer.Sprintf(keyBudgetSavings, g.currencyPrefix, int64(math.Round(v)))
}

// Lift describes suitability relative to the baseline
func (g *Generator) Lift(v float64) string {
	if invalid(v) || v <= 0 {
		return g.printer.Sprintf(keyLiftRoom)
	}
	return g.printer.Sprintf(keyLiftImproved, v)
}

func invalid(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
