package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"device-match-service/internal/match/model"
)

var (
	bracketRe           = regexp.MustCompile(`([^()]+)\(([^)]+)\)`)
	incompleteBracketRe = regexp.MustCompile(`([^()]+)\((.+)$`)
	valueUnitRe         = regexp.MustCompile(`^([-+±]?\d+(?:\.\d+)?%?)([a-z]+)$`)
	unitOnlyRe          = regexp.MustCompile(`^[a-z%]+\)?$`)
)

// extract is stages 6-7: split on canonical separators, handle brackets and
// compound parameters, split recognizable sub-terms out of long tokens, then
// quality-filter and deduplicate preserving first occurrence.
func (p *Preprocessor) extract(text string) ([]string, *model.ExtractionDetail) {
	detail := &model.ExtractionDetail{
		SplitChars: append([]string(nil), p.cfg.FeatureSplitChars...),
	}
	if text == "" {
		return []string{}, detail
	}

	details := map[string]*model.FeatureDetail{}
	note := func(f string, cat model.FeatureCategory, source string) {
		if _, ok := details[f]; !ok {
			details[f] = &model.FeatureDetail{Feature: f, Category: cat, Source: source}
		}
	}

	var raw []string
	for _, segment := range p.splitRe.Split(text, -1) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		for _, bf := range p.bracketFeatures(segment) {
			f := p.removeMetadataPrefix(bf)
			if f == "" {
				continue
			}
			f = p.removeUnitSuffix(f)
			if f == "" {
				continue
			}
			raw = append(raw, f)
			note(f, model.CategoryParameter, "split")
		}
	}

	if p.cfg.IntelligentExtraction.ComplexParamDecompose.Enabled {
		var decomposed []string
		for _, f := range raw {
			if subs := p.decomposeComplex(f); len(subs) > 0 {
				for _, sub := range subs {
					decomposed = append(decomposed, sub)
					note(sub, model.CategoryParameter, "complex_parameter_decomposition")
				}
			}
			decomposed = append(decomposed, f)
		}
		raw = decomposed
	}

	brandSet := map[string]bool{}
	typeSet := map[string]bool{}
	var enhanced []string
	for _, f := range raw {
		enhanced = append(enhanced, f)

		for _, brand := range p.brandsLower {
			if strings.Contains(f, brand) {
				brandSet[brand] = true
				if d := details[f]; d != nil && d.Category == model.CategoryParameter {
					d.Category = model.CategoryBrand
					d.Source = "brand_keywords"
				}
			}
		}
		for _, dt := range p.cfg.DeviceTypeKeywords {
			if strings.Contains(f, dt) {
				typeSet[dt] = true
				if d := details[f]; d != nil && d.Category == model.CategoryParameter {
					d.Category = model.CategoryDeviceType
					d.Source = "device_type_keywords"
				}
			}
		}

		if utf8.RuneCountInString(f) > 4 {
			for _, sub := range p.smartSplit(f) {
				enhanced = append(enhanced, sub)
				switch {
				case containsString(p.brandsLower, sub):
					brandSet[sub] = true
					note(sub, model.CategoryBrand, "brand_keywords")
				case containsString(p.cfg.DeviceTypeKeywords, sub):
					typeSet[sub] = true
					note(sub, model.CategoryDeviceType, "device_type_keywords")
				default:
					note(sub, model.CategoryParameter, "smart_split")
				}
			}
		}
	}

	qs := p.cfg.IntelligentExtraction.FeatureQualityScoring
	qualityOn := p.cfg.IntelligentExtraction.Enabled && qs.Enabled

	var features []string
	seen := map[string]bool{}
	for _, f := range enhanced {
		score := p.qualityScore(f)
		if d := details[f]; d != nil {
			d.QualityScore = score
		}

		minLen := p.cfg.Global.MinFeatureLength
		if containsCJK(f) {
			minLen = p.cfg.Global.MinFeatureLengthChinese
		}

		reason := ""
		switch {
		case utf8.RuneCountInString(f) < minLen:
			reason = "invalid"
		case isMeaninglessSingleChar(f):
			reason = "invalid"
		case seen[f]:
			reason = "duplicate"
		case qualityOn && score < qs.MinQualityScore:
			reason = "low_quality"
		}
		if reason != "" {
			detail.Filtered = append(detail.Filtered, model.FilteredFeature{
				Feature: f, Reason: reason, QualityScore: score,
			})
			continue
		}
		features = append(features, f)
		seen[f] = true
	}

	detail.IdentifiedBrands = sortedKeys(brandSet)
	detail.IdentifiedDeviceTypes = sortedKeys(typeSet)
	for _, f := range features {
		if d := details[f]; d != nil {
			detail.Features = append(detail.Features, *d)
		}
	}
	if features == nil {
		features = []string{}
	}
	return features, detail
}

// bracketFeatures splits "1/2\"(dn15)" into its outside and inside parts,
// tolerating an unclosed bracket, and strips a leading metadata keyword.
func (p *Preprocessor) bracketFeatures(segment string) []string {
	for _, kw := range p.metaKeywordsByLen {
		if strings.HasPrefix(segment, kw) {
			segment = segment[len(kw):]
			break
		}
	}
	if segment == "" {
		return nil
	}

	m := bracketRe.FindStringSubmatch(segment)
	if m == nil {
		m = incompleteBracketRe.FindStringSubmatch(segment)
	}
	if m == nil {
		return []string{segment}
	}

	var out []string
	if outside := strings.TrimSpace(m[1]); outside != "" {
		out = append(out, extractValueFromUnitPrefix(outside))
	}
	if inside := strings.TrimSpace(m[2]); inside != "" {
		out = append(out, inside)
	}
	return out
}

// extractValueFromUnitPrefix reduces "50%rh" to "50" and "100ppm" to "100".
// Anything that is not a plain value+unit token passes through unchanged.
func extractValueFromUnitPrefix(s string) string {
	if m := valueUnitRe.FindStringSubmatch(s); m != nil {
		return strings.TrimRight(m[1], "%")
	}
	return s
}

// removeMetadataPrefix drops a "型号:" style prefix when the prefix is a
// configured metadata keyword; the label is structure, not content.
func (p *Preprocessor) removeMetadataPrefix(f string) string {
	i := strings.Index(f, ":")
	if i < 0 {
		return f
	}
	prefix := strings.TrimSpace(f[:i])
	value := strings.TrimSpace(f[i+1:])
	if p.metaKeywordSet[prefix] {
		if value != "" {
			return value
		}
	}
	return f
}

// removeUnitSuffix strips a trailing measurement unit ("0-2000ppm" → "0-2000")
// and discards tokens that are nothing but a dangling unit ("ppm)").
func (p *Preprocessor) removeUnitSuffix(f string) string {
	if !p.cfg.UnitRemoval.Enabled || f == "" {
		return f
	}
	f = strings.TrimPrefix(f, "@")
	f = strings.TrimRight(f, ".")
	if f == "" {
		return ""
	}
	if unitOnlyRe.MatchString(f) && !hasDigit(f) {
		return ""
	}
	for _, unit := range p.unitsByLen {
		if strings.HasSuffix(f, unit+")") {
			if rest := f[:len(f)-len(unit)-1]; endsInDigit(rest) {
				return rest
			}
		}
		if strings.HasSuffix(f, unit) {
			if rest := f[:len(f)-len(unit)]; endsInDigit(rest) {
				return rest
			}
		}
	}
	return f
}

// endsInDigit distinguishes a real measurement suffix ("0-100ppm") from a
// unit letter that is part of a larger expression ("±5%@25c.50%rh").
func endsInDigit(s string) bool {
	if s == "" {
		return false
	}
	c := s[len(s)-1]
	return c >= '0' && c <= '9'
}

// decomposeComplex expands a compound parameter expression into its numeric
// sub-features via the configured emit templates. Returns nil when no
// pattern applies.
func (p *Preprocessor) decomposeComplex(f string) []string {
	for _, d := range p.decompose {
		m := d.re.FindStringSubmatchIndex(f)
		if m == nil {
			continue
		}
		out := make([]string, 0, len(d.emit))
		for _, tmpl := range d.emit {
			if sub := string(d.re.ExpandString(nil, tmpl, f, m)); sub != "" {
				out = append(out, sub)
			}
		}
		return out
	}
	return nil
}

// smartSplit peels recognizable vocabulary (brands, locations, technical
// terms, common CJK words, one device type) out of a long token so each
// becomes an independently matchable feature.
func (p *Preprocessor) smartSplit(f string) []string {
	if utf8.RuneCountInString(f) <= 4 {
		return nil
	}
	remaining := f

	for _, kw := range p.metaKeywordsByLen {
		if strings.HasPrefix(remaining, kw) {
			remaining = remaining[len(kw):]
			if remaining != "" {
				return []string{remaining}
			}
			return nil
		}
	}

	var subs []string
	take := func(words []string, all bool) {
		for _, w := range words {
			if w == "" || !strings.Contains(remaining, w) {
				continue
			}
			subs = append(subs, w)
			remaining = strings.Replace(remaining, w, "", 1)
			if !all {
				return
			}
		}
	}
	take(p.brandsLower, true)
	take(p.cfg.LocationWords, true)
	remaining = strings.TrimSpace(remaining)

	// A remainder naming a device type stays whole: "co传感器" must remain
	// one matchable token, with the bare type emitted alongside it.
	for _, dt := range p.deviceTypesByLen {
		if dt == "" || !strings.Contains(remaining, dt) {
			continue
		}
		if remaining == dt {
			if remaining != f {
				subs = append(subs, remaining)
			}
			return subs
		}
		if remaining != f {
			subs = append(subs, remaining)
		}
		subs = append(subs, dt)
		return subs
	}

	take(p.cfg.TechnicalTerms, true)
	take(p.cfg.CommonChineseWords, true)

	remaining = strings.TrimSpace(remaining)
	if len(subs) == 0 && remaining == f {
		return nil
	}
	if utf8.RuneCountInString(remaining) >= 2 {
		subs = append(subs, remaining)
	}
	return subs
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sortStrings(out)
	return out
}
