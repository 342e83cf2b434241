package service

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// technicalTermPatterns recognize domain shorthand that would otherwise score
// poorly: bus names, ranged electrical parameters, pipe and protection
// ratings, accuracy expressions and I/O point labels.
var technicalTermPatterns = []string{
	`(?:rs)?485`,
	`\d+-\d+(?:ma|v|ppm|pa)`,
	`dn\d+`,
	`pn\d+`,
	`ip\d+`,
	`±\d+%?`,
	`(?:ai|ao|di|do)\d*`,
}

// qualityScore rates one candidate feature on a 0-100 scale. The base is 50;
// configured bonuses and penalties move it from there.
func (p *Preprocessor) qualityScore(f string) float64 {
	rules := p.cfg.IntelligentExtraction.FeatureQualityScoring.Rules
	score := 50.0

	if p.isTechnicalTerm(f) {
		score += rules.IsTechnicalTerm
	}
	if hasDigit(f) {
		score += rules.HasNumber
	}
	if hasUnit(f) {
		score += rules.HasUnit
	}
	if p.inDeviceKeywords(f) {
		score += rules.InDeviceKeywords
	}
	n := utf8.RuneCountInString(f)
	if n >= 2 && n <= 15 {
		score += rules.AppropriateLength
	}
	if p.metaKeywordSet[f] {
		score += rules.IsMetadataLabel
	}
	if isCommonCounterWord(f) {
		score += rules.IsCommonWord
	}
	// Short device vocabulary ("水", "风") is exempt from the length penalty.
	if n < 2 && !p.inDeviceKeywords(f) {
		score += rules.TooShort
	}
	if isPureNumber(f) {
		score += rules.IsPureNumber
	}
	if isPurePunct(f) {
		score += rules.IsPurePunctuation
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (p *Preprocessor) isTechnicalTerm(f string) bool {
	for _, t := range p.cfg.TechnicalTerms {
		if f == t {
			return true
		}
	}
	for _, re := range p.techPatterns {
		if loc := re.FindStringIndex(f); loc != nil && loc[0] == 0 && loc[1] == len(f) {
			return true
		}
	}
	return false
}

// inDeviceKeywords reports whether the feature contains (or is) a configured
// brand, device type or medium keyword.
func (p *Preprocessor) inDeviceKeywords(f string) bool {
	for _, kw := range p.brandsLower {
		if kw != "" && strings.Contains(f, kw) {
			return true
		}
	}
	for _, kw := range p.cfg.DeviceTypeKeywords {
		if kw != "" && strings.Contains(f, kw) {
			return true
		}
	}
	for _, kw := range p.cfg.MediumKeywords {
		if kw != "" && strings.Contains(f, kw) {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// unitHints are substrings that suggest a measured quantity. Checked as
// substrings, not suffixes: "4-20ma" and "ma output" both count.
var unitHints = []string{
	"ma", "ppm", "pa", "hz", "kw", "mm", "cm", "kg", "rh",
	"v", "w", "a", "m", "c", "f", "%", "℃", "°",
}

func hasUnit(s string) bool {
	if !hasDigit(s) {
		return false
	}
	for _, u := range unitHints {
		if strings.Contains(s, u) {
			return true
		}
	}
	return false
}

// isCommonCounterWord catches bare CJK measure words that carry no signal.
func isCommonCounterWord(s string) bool {
	if utf8.RuneCountInString(s) != 1 {
		return false
	}
	return strings.ContainsAny(s, "个台套只根条张片块颗粒")
}

func isPureNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isPurePunct(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// isMeaninglessSingleChar rejects single Latin letters and digits that
// survive splitting. Single CJK characters and unit letters stay: "水" is a
// medium and "v" can be a voltage reference.
func isMeaninglessSingleChar(s string) bool {
	if utf8.RuneCountInString(s) != 1 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	if isCJKRune(r) {
		return false
	}
	if strings.ContainsRune("vawmkhlgfcpts", r) {
		return false
	}
	return true
}

func isCJKRune(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

func containsCJK(s string) bool {
	for _, r := range s {
		if isCJKRune(r) {
			return true
		}
	}
	return false
}

func sortStrings(s []string) { sort.Strings(s) }
