package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"device-match-service/internal/match/conf"
	"device-match-service/internal/match/model"
)

// DetailRecorder persists a match explanation and returns its lookup key.
// The engine never reads details back; recording is strictly write-only.
type DetailRecorder interface {
	Record(*model.MatchDetail) string
}

// DeviceLookup resolves a matched rule's target device for result display.
type DeviceLookup interface {
	Device(id string) (model.Device, bool)
}

// DeviceMap is the trivial in-memory DeviceLookup.
type DeviceMap map[string]model.Device

func (m DeviceMap) Device(id string) (model.Device, bool) {
	d, ok := m[id]
	return d, ok
}

// Engine scores input features against rules. It holds no mutable state:
// rules arrive per call and the config snapshot is fixed at construction, so
// concurrent Match calls need no locking.
type Engine struct {
	cfg      conf.Config
	lookup   DeviceLookup
	synonyms map[string][]string
	recorder DetailRecorder
	log      zerolog.Logger
}

func NewEngine(cfg conf.Config, lookup DeviceLookup, recorder DetailRecorder, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		lookup:   lookup,
		synonyms: buildSynonymIndex(cfg.SynonymMap),
		recorder: recorder,
		log:      log,
	}
}

// Match scores every rule against the input feature set and returns the best
// candidate's outcome plus a detail key when recording was requested.
// A rule feature is satisfied when it, or any of its synonyms, appears in the
// input set; matching it through a synonym contributes the same weight.
// Success requires the best score to strictly exceed that rule's threshold.
func (e *Engine) Match(features []string, rules []model.Rule, recordDetail bool) (model.MatchResult, string) {
	started := time.Now()

	input := make(map[string]bool, len(features))
	for _, f := range features {
		if f != "" {
			input[f] = true
		}
	}

	if len(input) == 0 {
		result := model.MatchResult{
			MatchStatus: model.StatusFailed,
			MatchScore:  0,
			MatchReason: "no usable features in input description",
		}
		key := ""
		if recordDetail && e.recorder != nil {
			key = e.recorder.Record(&model.MatchDetail{
				InputFeatures:  []string{},
				Candidates:     []model.CandidateDetail{},
				Result:         result,
				DecisionReason: "empty input",
				Timestamp:      started,
				Duration:       time.Since(started),
			})
		}
		return result, key
	}

	candidates := make([]model.CandidateDetail, 0, len(rules))
	best := -1
	for _, rule := range rules {
		cand := e.score(input, rule)
		candidates = append(candidates, cand)
		i := len(candidates) - 1
		if best < 0 || betterCandidate(candidates[i], candidates[best]) {
			best = i
		}
	}

	var result model.MatchResult
	var selectedRuleID, decision string

	switch {
	case best < 0:
		result = model.MatchResult{
			MatchStatus: model.StatusFailed,
			MatchReason: "no rules available",
		}
		decision = "rule set is empty"
	case candidates[best].Score > candidates[best].Threshold:
		cand := candidates[best]
		result = model.MatchResult{
			DeviceID:       cand.TargetDeviceID,
			MatchStatus:    model.StatusSuccess,
			MatchScore:     cand.Score,
			MatchThreshold: cand.Threshold,
			MatchReason:    successReason(cand),
		}
		if d, ok := e.lookup.Device(cand.TargetDeviceID); ok {
			result.MatchedDeviceText = d.DisplayText()
			result.UnitPrice = d.UnitPrice
		} else {
			// The rule outlived its device; report the match but flag it.
			result.MatchStatus = model.StatusFailed
			result.MatchReason = fmt.Sprintf("rule %s points to unknown device %s", cand.RuleID, cand.TargetDeviceID)
			e.log.Warn().Str("rule_id", cand.RuleID).Str("device_id", cand.TargetDeviceID).
				Msg("matched rule references missing device")
		}
		selectedRuleID = cand.RuleID
		decision = fmt.Sprintf("rule %s scored %.1f against threshold %.1f", cand.RuleID, cand.Score, cand.Threshold)
	default:
		cand := candidates[best]
		result = model.MatchResult{
			MatchStatus:    model.StatusFailed,
			MatchScore:     cand.Score,
			MatchThreshold: cand.Threshold,
			MatchReason: fmt.Sprintf("best score %.1f did not exceed threshold %.1f (closest rule %s)",
				cand.Score, cand.Threshold, cand.RuleID),
		}
		decision = fmt.Sprintf("closest rule %s below threshold", cand.RuleID)
	}

	key := ""
	if recordDetail && e.recorder != nil {
		sorted := append([]model.CandidateDetail(nil), candidates...)
		sort.SliceStable(sorted, func(i, j int) bool { return betterCandidate(sorted[i], sorted[j]) })
		key = e.recorder.Record(&model.MatchDetail{
			InputFeatures:  features,
			Candidates:     sorted,
			Result:         result,
			SelectedRuleID: selectedRuleID,
			DecisionReason: decision,
			Timestamp:      started,
			Duration:       time.Since(started),
		})
	}
	return result, key
}

// score evaluates one rule: each satisfied feature contributes its configured
// weight exactly once, no matter how many synonyms of it appear in the input.
func (e *Engine) score(input map[string]bool, rule model.Rule) model.CandidateDetail {
	cand := model.CandidateDetail{
		RuleID:         rule.RuleID,
		TargetDeviceID: rule.TargetDeviceID,
		Threshold:      rule.MatchThreshold,
	}
	for _, f := range rule.Features {
		weight := rule.FeatureWeights[f]
		cand.MaxPossibleScore += weight
		if e.satisfied(input, f) {
			cand.Score += weight
			cand.MatchedFeatures = append(cand.MatchedFeatures, model.FeatureMatch{Feature: f, Weight: weight})
		} else {
			cand.UnmatchedFeatures = append(cand.UnmatchedFeatures, f)
		}
	}
	cand.Qualified = cand.Score > cand.Threshold
	return cand
}

func (e *Engine) satisfied(input map[string]bool, feature string) bool {
	if input[feature] {
		return true
	}
	for _, syn := range e.synonyms[feature] {
		if input[syn] {
			return true
		}
	}
	return false
}

// betterCandidate orders by score descending with a deterministic tie-break:
// lowest target device id, then lowest rule id.
func betterCandidate(a, b model.CandidateDetail) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.TargetDeviceID != b.TargetDeviceID {
		return a.TargetDeviceID < b.TargetDeviceID
	}
	return a.RuleID < b.RuleID
}

func successReason(cand model.CandidateDetail) string {
	parts := make([]string, 0, 5)
	for i, fm := range cand.MatchedFeatures {
		if i == 5 {
			parts = append(parts, fmt.Sprintf("and %d more", len(cand.MatchedFeatures)-5))
			break
		}
		parts = append(parts, fmt.Sprintf("%s(%.1f)", fm.Feature, fm.Weight))
	}
	return fmt.Sprintf("score %.1f exceeded threshold %.1f; matched features: %s",
		cand.Score, cand.Threshold, strings.Join(parts, ", "))
}
