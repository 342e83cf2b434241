package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"device-match-service/internal/match/conf"
	"device-match-service/internal/match/model"
)

// RuleGenerator derives one weighted matching rule per catalog device.
// Generation is deterministic: the same device and config always produce the
// same rule, so regeneration is safe to run on every catalog change.
type RuleGenerator struct {
	pre        *Preprocessor
	cfg        conf.Config
	modelRes   []*regexp.Regexp
	excludeRes []*regexp.Regexp
}

func NewRuleGenerator(pre *Preprocessor) *RuleGenerator {
	cfg := pre.Config()
	g := &RuleGenerator{pre: pre, cfg: cfg}
	for _, p := range cfg.ModelPatterns {
		g.modelRes = append(g.modelRes, regexp.MustCompile(p))
	}
	for _, p := range cfg.ModelExclusionPatterns {
		g.excludeRes = append(g.excludeRes, regexp.MustCompile(p))
	}
	return g
}

// GenerateRule builds the rule for one device. Brand and device name stay
// whole tokens; the spec/model field splits on "+"; detailed parameters are
// processed line by line with their metadata labels stripped.
func (g *RuleGenerator) GenerateRule(d model.Device) (model.Rule, error) {
	var features []string
	seen := map[string]bool{}
	add := func(f string) {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			return
		}
		minLen := g.cfg.Global.MinFeatureLength
		if containsCJK(f) {
			minLen = g.cfg.Global.MinFeatureLengthChinese
		}
		if utf8.RuneCountInString(f) < minLen {
			return
		}
		seen[f] = true
		features = append(features, f)
	}

	add(g.pre.Normalize(d.Brand, ModeDevice))
	add(g.pre.Normalize(d.DeviceName, ModeDevice))

	for _, part := range strings.Split(d.SpecModel, "+") {
		add(g.pre.Normalize(part, ModeDevice))
	}

	params := strings.ReplaceAll(d.DetailedParams, literalNewline, "\n")
	for _, line := range strings.Split(params, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		value := line
		if i := strings.IndexAny(line, ":："); i >= 0 {
			// IndexAny returns a byte offset; the full-width colon is 3 bytes.
			_, w := utf8.DecodeRuneInString(line[i:])
			value = line[i+w:]
		}
		for _, f := range g.pre.Preprocess(value, ModeDevice).Features {
			add(f)
		}
	}

	if len(features) == 0 {
		return model.Rule{}, &model.InvariantError{
			RuleID: ruleID(d.DeviceID),
			Reason: "no features extracted from device fields",
		}
	}

	weights := make(map[string]float64, len(features))
	for _, f := range features {
		weights[f] = g.weightFor(f)
	}

	threshold := g.cfg.Global.DefaultMatchThreshold
	if d.MatchThreshold > 0 {
		threshold = d.MatchThreshold
	}

	rule := model.Rule{
		RuleID:         ruleID(d.DeviceID),
		TargetDeviceID: d.DeviceID,
		Features:       features,
		FeatureWeights: weights,
		MatchThreshold: threshold,
		Remark:         fmt.Sprintf("auto-generated for %s", d.DisplayText()),
	}
	if err := rule.Validate(); err != nil {
		return model.Rule{}, err
	}
	return rule, nil
}

// GenerateRules maps GenerateRule over a device list, skipping devices that
// yield no features. Order follows the input.
func (g *RuleGenerator) GenerateRules(devices []model.Device) ([]model.Rule, error) {
	rules := make([]model.Rule, 0, len(devices))
	for _, d := range devices {
		rule, err := g.GenerateRule(d)
		if err != nil {
			if _, ok := err.(*model.InvariantError); ok {
				continue
			}
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Classify assigns a feature its category. Checks run in fixed priority
// order; the first hit wins, so a token that is both a device type and a
// brand substring classifies as device type.
func (g *RuleGenerator) Classify(f string) model.FeatureCategory {
	for _, kw := range g.cfg.DeviceTypeKeywords {
		if kw != "" && strings.Contains(f, kw) {
			return model.CategoryDeviceType
		}
	}
	for _, kw := range g.pre.brandsLower {
		if kw != "" && strings.Contains(f, kw) {
			return model.CategoryBrand
		}
	}
	if g.isModelNumber(f) {
		return model.CategoryModel
	}
	for _, kw := range g.cfg.MediumKeywords {
		if f == kw {
			return model.CategoryMedium
		}
	}
	return model.CategoryParameter
}

func (g *RuleGenerator) weightFor(f string) float64 {
	w := g.cfg.FeatureWeights
	switch g.Classify(f) {
	case model.CategoryDeviceType:
		return w.DeviceType
	case model.CategoryBrand:
		return w.Brand
	case model.CategoryModel:
		return w.Model
	case model.CategoryMedium:
		return w.Medium
	default:
		return w.Parameter
	}
}

// isModelNumber matches the configured model-number shapes, minus the
// exclusions that veto ranged parameters like 4-20ma.
func (g *RuleGenerator) isModelNumber(f string) bool {
	for _, re := range g.excludeRes {
		if re.MatchString(f) {
			return false
		}
	}
	for _, re := range g.modelRes {
		if re.MatchString(f) {
			return true
		}
	}
	return false
}

func ruleID(deviceID string) string { return "R_" + deviceID }
