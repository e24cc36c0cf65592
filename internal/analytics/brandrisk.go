package analytics

import (
	"sort"

	"insightreport/internal/dataprocessing"
	"insightreport/pkg/contracts/domain"
)

// GARMCategory is one entry of the brand-safety taxonomy.
type GARMCategory struct {
	Key      string
	Name     string
	Japanese string
}

// GARMCategories is the fixed 12-entry taxonomy, in canonical order.
var GARMCategories = []GARMCategory{
	{"adult", "Adult", "アダルト"},
	{"arms_ammunition", "Arms & Ammunition", "武器・弾薬"},
	{"crime_harmful_acts", "Crime & Harmful Acts", "犯罪・有害行為"},
	{"death_injury_military_conflict", "Death, Injury & Military Conflict", "死傷・軍事衝突"},
	{"drugs_alcohol_tobacco", "Drugs, Alcohol & Tobacco", "薬物・アルコール・タバコ"},
	{"hate_speech_aggression", "Hate Speech & Acts of Aggression", "ヘイトスピーチ・攻撃的行為"},
	{"misinformation", "Misinformation", "誤情報"},
	{"online_piracy", "Online Piracy", "オンライン海賊版"},
	{"profanity_obscenity", "Profanity & Obscenity", "不適切表現・わいせつ"},
	{"debated_social_issues", "Debated Sensitive Social Issues", "議論の分かれる社会問題"},
	{"spam", "Spam", "スパム"},
	{"terrorism", "Terrorism", "テロリズム"},
}

type suitabilitySplit struct {
	suitable, unsuitable float64
}

// BrandRisk sums the per-category "{Category} - Suitable Impressions" and
// "{Category} - Unsuitable Impressions" columns and expresses each side as a
// share of that category's own total. Every taxonomy entry is present; entries
// without data are 0/0. The result is sorted by unsuitable share, highest first,
// then by key.
func BrandRisk(reports []*domain.ClassifiedReport) []domain.BrandRiskEntry {
	sums := make([]suitabilitySplit, len(GARMCategories))

	for _, r := range reports {
		index := make(map[string]string, len(r.Headers))
		for _, h := range r.Headers {
			index[normalizeLabel(h)] = h
		}
		for i, cat := range GARMCategories {
			suitableCol := index[normalizeLabel(cat.Name+" - Suitable Impressions")]
			unsuitableCol := index[normalizeLabel(cat.Name+" - Unsuitable Impressions")]
			if suitableCol == "" && unsuitableCol == "" {
				continue
			}
			for _, row := range r.Rows {
				if suitableCol != "" {
					sums[i].suitable += dataprocessing.CleanNumber(row[suitableCol])
				}
				if unsuitableCol != "" {
					sums[i].unsuitable += dataprocessing.CleanNumber(row[unsuitableCol])
				}
			}
		}
	}

	entries := make([]domain.BrandRiskEntry, len(GARMCategories))
	for i, cat := range GARMCategories {
		s := sums[i]
		entry := domain.BrandRiskEntry{
			Key:               cat.Key,
			Category:          cat.Name,
			LocalizedCategory: cat.Japanese,
			Suitable:          s.suitable,
			Unsuitable:        s.unsuitable,
		}
		if total := s.suitable + s.unsuitable; total > 0 {
			entry.SuitablePct = 100 * s.suitable / total
			entry.UnsuitablePct = 100 * s.unsuitable / total
		}
		entries[i] = entry
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].UnsuitablePct != entries[j].UnsuitablePct {
			return entries[i].UnsuitablePct > entries[j].UnsuitablePct
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}
