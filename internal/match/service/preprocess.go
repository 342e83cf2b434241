// Package service implements the matching core: text preprocessing and
// feature extraction, rule generation and the weighted match engine.
// Everything here is pure with respect to a single invocation; concurrent
// calls are safe as long as each call gets its own rule/config snapshot.
package service

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"device-match-service/internal/match/conf"
	"device-match-service/internal/match/model"
)

// Mode selects the small pipeline divergences between catalog text and
// free-form spreadsheet text.
type Mode string

const (
	ModeDevice   Mode = "device"
	ModeMatching Mode = "matching"
)

// Temperature-unit mappings are kept out of device-mode normalization so that
// catalog text retains its original unit rendering.
var skipInDeviceMode = map[string]bool{"℃": true, "°C": true, "°c": true, "度": true}

// Whitespace inside a numeric range is deleted, not turned into a separator,
// so "0 ~ 250" stays one token.
var rangeSpaceRe = regexp.MustCompile(`(\d+)[ \t]*([~\x{FF5E}-])[ \t]*(\d+)`)

// Literal backslash-n pairs show up when text is copied out of spreadsheets.
const literalNewline = `\n`

type namedRe struct {
	name string
	re   *regexp.Regexp
}

type metadataRe struct {
	keyword string
	re      *regexp.Regexp
}

type decomposeRe struct {
	name string
	re   *regexp.Regexp
	emit []string
}

// Preprocessor is the compiled form of a conf.Config. Construct once, share
// freely: all methods are read-only.
type Preprocessor struct {
	cfg conf.Config

	splitRe    *regexp.Regexp
	rowSplitRe *regexp.Regexp
	truncate   []namedRe
	noise      []namedRe
	metadata   []metadataRe
	extraMeta  []*regexp.Regexp
	decompose  []decomposeRe

	metaKeywordsByLen []string
	metaKeywordSet    map[string]bool
	unitsByLen        []string
	deviceTypesByLen  []string
	brandsLower       []string
	techPatterns      []*regexp.Regexp
}

func NewPreprocessor(cfg conf.Config) (*Preprocessor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Preprocessor{cfg: cfg}

	alts := make([]string, len(cfg.FeatureSplitChars))
	for i, s := range cfg.FeatureSplitChars {
		alts[i] = regexp.QuoteMeta(s)
	}
	p.splitRe = regexp.MustCompile(`(?:` + strings.Join(alts, "|") + `)+`)
	p.rowSplitRe = regexp.MustCompile(`[,\t ]+`)

	tc := cfg.IntelligentExtraction.TextCleaning
	for _, np := range tc.TruncateDelimiters {
		p.truncate = append(p.truncate, namedRe{name: np.Name, re: regexp.MustCompile(np.Pattern)})
	}
	for _, np := range tc.NoisePatterns {
		p.noise = append(p.noise, namedRe{name: np.Name, re: regexp.MustCompile(np.Pattern)})
	}

	// Longest keyword first so compound labels win over their prefixes
	// ("规格参数" before "规格").
	p.metaKeywordsByLen = sortedByRuneLen(cfg.MetadataKeywords)
	p.metaKeywordSet = make(map[string]bool, len(cfg.MetadataKeywords))
	for _, kw := range cfg.MetadataKeywords {
		p.metaKeywordSet[kw] = true
	}
	for _, kw := range p.metaKeywordsByLen {
		// "2.型号:" and "型号：" both reduce to the bare value.
		re := regexp.MustCompile(`(?:\d+\.?)?` + regexp.QuoteMeta(kw) + `[:：]`)
		p.metadata = append(p.metadata, metadataRe{keyword: kw, re: re})
	}
	for _, pat := range cfg.IntelligentExtraction.MetadataLabelPatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, &conf.ConfigError{Field: "metadata_label_patterns", Reason: err.Error()}
		}
		p.extraMeta = append(p.extraMeta, re)
	}

	for _, dp := range cfg.IntelligentExtraction.ComplexParamDecompose.Patterns {
		p.decompose = append(p.decompose, decomposeRe{
			name: dp.Name,
			re:   regexp.MustCompile(dp.Pattern),
			emit: dp.Emit,
		})
	}

	p.unitsByLen = sortedByRuneLen(cfg.UnitRemoval.Units)
	p.deviceTypesByLen = sortedByRuneLen(cfg.DeviceTypeKeywords)
	p.brandsLower = make([]string, len(cfg.BrandKeywords))
	for i, b := range cfg.BrandKeywords {
		p.brandsLower[i] = strings.ToLower(b)
	}
	for _, pat := range technicalTermPatterns {
		p.techPatterns = append(p.techPatterns, regexp.MustCompile(pat))
	}

	return p, nil
}

// Config returns the configuration snapshot the preprocessor was built from.
func (p *Preprocessor) Config() conf.Config { return p.cfg }

// Preprocess runs the full pipeline. Empty input degrades to an empty result;
// no stage ever fails on malformed text.
func (p *Preprocessor) Preprocess(text string, mode Mode) model.PreprocessResult {
	res := model.PreprocessResult{Original: text}
	if text == "" {
		res.Features = []string{}
		res.Cleaning = &model.CleaningDetail{AppliedRules: []string{}}
		res.Normalization = &model.NormalizationDetail{}
		res.Extraction = &model.ExtractionDetail{SplitChars: append([]string(nil), p.cfg.FeatureSplitChars...)}
		return res
	}

	cleaned, cleaning := p.clean(text, mode)
	normalized, normalization := p.normalize(cleaned, mode)
	features, extraction := p.extract(normalized)

	res.Cleaned = cleaned
	res.Normalized = normalized
	res.Features = features
	res.Cleaning = cleaning
	res.Normalization = normalization
	res.Extraction = extraction
	return res
}

// Normalize applies only the normalization stage (no cleaning, no
// extraction). Used by the rule generator on fields that must stay whole.
func (p *Preprocessor) Normalize(text string, mode Mode) string {
	s, _ := p.normalize(text, mode)
	return s
}

// clean is stages 1-4: noise truncation, noise sections, metadata labels,
// ignore keywords and (matching mode only) separator unification.
func (p *Preprocessor) clean(text string, mode Mode) (string, *model.CleaningDetail) {
	detail := &model.CleaningDetail{
		AppliedRules:   []string{},
		OriginalLength: utf8.RuneCountInString(text),
	}
	tc := p.cfg.IntelligentExtraction.TextCleaning
	if !p.cfg.IntelligentExtraction.Enabled || !tc.Enabled {
		detail.CleanedLength = detail.OriginalLength
		return text, detail
	}

	if tc.FilterRowNumbers {
		filtered := p.filterRowNumbers(text, tc.RowNumberColumns)
		if filtered != text {
			detail.AppliedRules = append(detail.AppliedRules, "row_number_filter")
			text = filtered
		}
	}

	if cut, m := p.truncateAtNoise(text); m != nil {
		detail.AppliedRules = append(detail.AppliedRules, "truncation")
		detail.Truncations = append(detail.Truncations, *m)
		text = cut
	}

	if cleaned, matches := p.removeNoiseSections(text); len(matches) > 0 {
		detail.AppliedRules = append(detail.AppliedRules, "noise_pattern")
		detail.NoiseMatches = matches
		text = cleaned
	}

	if cleaned, matches := p.removeMetadataLabels(text); len(matches) > 0 {
		detail.AppliedRules = append(detail.AppliedRules, "metadata_tag")
		detail.MetadataMatches = matches
		text = cleaned
	}

	changed := false
	for _, kw := range p.cfg.IgnoreKeywords {
		if n := strings.Count(text, kw); n > 0 {
			detail.IgnoredKeywords = append(detail.IgnoredKeywords, model.KeywordMatch{Keyword: kw, Count: n})
			text = strings.ReplaceAll(text, kw, "")
			changed = true
		}
	}
	if changed {
		detail.AppliedRules = append(detail.AppliedRules, "ignore_keywords")
	}

	if mode == ModeMatching {
		unified := p.unifySeparators(text)
		if unified != text {
			detail.AppliedRules = append(detail.AppliedRules, "separator_unification")
			text = unified
		}
	}

	detail.CleanedLength = utf8.RuneCountInString(text)
	return text, detail
}

// filterRowNumbers drops leading pure-integer columns: spreadsheet row
// indices leaking into description text, not device attributes.
func (p *Preprocessor) filterRowNumbers(text string, columns int) string {
	if columns <= 0 {
		columns = 1
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := p.rowSplitRe.Split(line, -1)
		n := columns
		if n > len(parts) {
			n = len(parts)
		}
		prefixNumeric := n > 0
		for i := 0; i < n; i++ {
			if !isPureNumber(strings.TrimSpace(parts[i])) {
				prefixNumeric = false
				break
			}
		}
		if !prefixNumeric {
			out = append(out, line)
			continue
		}
		if len(parts) > columns {
			rest := strings.TrimSpace(strings.Join(parts[columns:], " "))
			if rest != "" {
				out = append(out, rest)
			}
		}
		// A line that is nothing but numbers is dropped entirely.
	}
	return strings.Join(out, "\n")
}

// truncateAtNoise cuts the text at the earliest configured noise delimiter.
// Everything after such a marker is boilerplate with no matching signal.
func (p *Preprocessor) truncateAtNoise(text string) (string, *model.TruncationMatch) {
	earliest := len(text)
	var hit *namedRe
	for i := range p.truncate {
		if loc := p.truncate[i].re.FindStringIndex(text); loc != nil && loc[0] < earliest {
			earliest = loc[0]
			hit = &p.truncate[i]
		}
	}
	if hit == nil {
		return text, nil
	}
	return text[:earliest], &model.TruncationMatch{
		Delimiter:   hit.name,
		Position:    utf8.RuneCountInString(text[:earliest]),
		DeletedText: text[earliest:],
	}
}

func (p *Preprocessor) removeNoiseSections(text string) (string, []model.PatternMatch) {
	var matches []model.PatternMatch
	for _, nr := range p.noise {
		for _, loc := range nr.re.FindAllStringIndex(text, -1) {
			matches = append(matches, model.PatternMatch{
				Pattern:     nr.name,
				MatchedText: text[loc[0]:loc[1]],
				Position:    utf8.RuneCountInString(text[:loc[0]]),
			})
		}
		text = nr.re.ReplaceAllString(text, "")
	}
	return text, matches
}

func (p *Preprocessor) removeMetadataLabels(text string) (string, []model.PatternMatch) {
	var matches []model.PatternMatch
	for _, mr := range p.metadata {
		for _, loc := range mr.re.FindAllStringIndex(text, -1) {
			matches = append(matches, model.PatternMatch{
				Pattern:     mr.keyword,
				MatchedText: text[loc[0]:loc[1]],
				Position:    utf8.RuneCountInString(text[:loc[0]]),
			})
		}
		text = mr.re.ReplaceAllString(text, "")
	}
	for _, re := range p.extraMeta {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			matches = append(matches, model.PatternMatch{
				Pattern:     re.String(),
				MatchedText: text[loc[0]:loc[1]],
				Position:    utf8.RuneCountInString(text[:loc[0]]),
			})
		}
		text = re.ReplaceAllString(text, "")
	}
	return text, matches
}

// unifySeparators collapses all configured delimiters plus incidental
// whitespace into the canonical separator (the first split char).
func (p *Preprocessor) unifySeparators(text string) string {
	text = rangeSpaceRe.ReplaceAllString(text, "$1$2$3")
	target := p.cfg.FeatureSplitChars[0]
	seps := []string{",", "，", "\t", " "}
	seps = append(seps, p.cfg.FeatureSplitChars[1:]...)
	for _, sep := range seps {
		if sep != target {
			text = strings.ReplaceAll(text, sep, target)
		}
	}
	return text
}

// normalize is stage 5: ordered substitutions, width folding, whitespace
// removal and case folding. Re-applying it to its own output is a no-op.
func (p *Preprocessor) normalize(text string, mode Mode) (string, *model.NormalizationDetail) {
	detail := &model.NormalizationDetail{Before: text}
	if text == "" {
		return text, detail
	}

	if strings.Contains(text, literalNewline) {
		text = strings.ReplaceAll(text, literalNewline, "\n")
		detail.GlobalConfigs = append(detail.GlobalConfigs, "literal_newline")
	}

	for _, m := range p.cfg.NormalizationMap {
		if mode == ModeDevice && skipInDeviceMode[m.From] {
			continue
		}
		if n := strings.Count(text, m.From); n > 0 {
			detail.Mappings = append(detail.Mappings, model.MappingApplication{From: m.From, To: m.To, Count: n})
			text = strings.ReplaceAll(text, m.From, m.To)
		}
	}

	if p.cfg.Global.FullwidthToHalfwidth {
		folded := foldFullwidth(text)
		if folded != text {
			detail.GlobalConfigs = append(detail.GlobalConfigs, "fullwidth_to_halfwidth")
			text = folded
		}
	}

	if p.cfg.Global.RemoveWhitespace {
		stripped := strings.Map(func(r rune) rune {
			switch r {
			case ' ', '\t', '\n', '\r':
				return -1
			}
			return r
		}, text)
		if stripped != text {
			detail.GlobalConfigs = append(detail.GlobalConfigs, "remove_whitespace")
			text = stripped
		}
	}

	if p.cfg.Global.UnifyLowercase {
		lowered := strings.ToLower(text)
		if lowered != text {
			detail.GlobalConfigs = append(detail.GlobalConfigs, "unify_lowercase")
			text = lowered
		}
	}

	detail.After = text
	return text, detail
}

// foldFullwidth converts full-width ASCII forms (U+FF01..U+FF5E) and the
// ideographic space to their half-width counterparts. CJK ideographs are
// untouched.
func foldFullwidth(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == 0x3000:
			return ' '
		case r >= 0xFF01 && r <= 0xFF5E:
			return r - 0xFEE0
		}
		return r
	}, s)
}

func sortedByRuneLen(in []string) []string {
	out := append([]string(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i]) > utf8.RuneCountInString(out[j])
	})
	return out
}
