// internal/workers/bulk-operations/parse-bulk-request/intent.go
package parsebulkrequest

import (
	"context"
	stderrors "errors"
	"regexp"
	"strconv"
	"strings"

	"chore-workers/internal/common/aigateway"
	"chore-workers/internal/common/workload"
	"chore-workers/internal/models"
)

type intentPattern struct {
	intent     models.IntentType
	re         *regexp.Regexp
	confidence float64
	relevant   []models.EntityType
}

// intentPatterns are evaluated in order; ties keep the earlier pattern.
var intentPatterns = []intentPattern{
	{
		intent:     models.IntentAssign,
		re:         regexp.MustCompile(`\b(assign|reassign|give|hand over|delegate|allocate)\b`),
		confidence: 0.8,
		relevant:   []models.EntityType{models.EntityMember, models.EntityChoreType, models.EntityRoom},
	},
	{
		intent:     models.IntentReschedule,
		re:         regexp.MustCompile(`\b(reschedule|move|postpone|delay|push back|shift)\b`),
		confidence: 0.8,
		relevant:   []models.EntityType{models.EntityTime, models.EntityChoreType, models.EntityRoom},
	},
	{
		intent:     models.IntentModify,
		re:         regexp.MustCompile(`\b(change|modify|update|increase|decrease|raise|lower|double|halve|adjust|set)\b`),
		confidence: 0.75,
		relevant:   []models.EntityType{models.EntityPoints, models.EntityDifficulty, models.EntityChoreType},
	},
	{
		intent:     models.IntentDelete,
		re:         regexp.MustCompile(`\b(delete|remove|cancel|drop|clear)\b`),
		confidence: 0.85,
		relevant:   []models.EntityType{models.EntityChoreType, models.EntityRoom, models.EntityCategory},
	},
	{
		intent:     models.IntentCreate,
		re:         regexp.MustCompile(`\b(create|add|new|make)\b`),
		confidence: 0.7,
		relevant:   []models.EntityType{models.EntityChoreType, models.EntityRoom, models.EntityPoints, models.EntityDifficulty},
	},
	{
		intent:     models.IntentOptimize,
		re:         regexp.MustCompile(`\b(optimi[sz]e|balance|rebalance|distribute|even out|fairer|fairly)\b`),
		confidence: 0.8,
		relevant:   []models.EntityType{models.EntityMember, models.EntityCategory},
	},
}

const (
	entityBoostPerMatch = 0.1
	maxEntityBoost      = 0.2
	// fallbackIntentConfidence applies when no pattern matches at all.
	fallbackIntentConfidence = 0.3
)

var (
	allScopePattern    = regexp.MustCompile(`\b(all|every|everything|each)\b`)
	someScopePattern   = regexp.MustCompile(`\b(some|few|several|certain|these|those|selected)\b`)
	increasePattern    = regexp.MustCompile(`\b(increase|raise|boost|more|double)\b`)
	decreasePattern    = regexp.MustCompile(`\b(decrease|lower|reduce|less|fewer|halve|cut)\b`)
	createCountPattern = regexp.MustCompile(`\b(\d+) (?:new )?(?:chores|tasks)\b`)
)

// Ambiguity tags.
const (
	AmbiguityMissingTarget    = "missing_target"
	AmbiguityMissingAssignee  = "missing_assignee"
	AmbiguityMissingTime      = "missing_time"
	AmbiguityConflictingScope = "conflicting_scope"
	AmbiguityUnclearOperation = "unclear_operation"
	AmbiguityExcessiveCount   = "excessive_count"
)

type classification struct {
	intent     models.IntentType
	confidence float64
	matched    []models.IntentType
	fromAI     bool
}

// classifyIntent scores every pattern that matches text and keeps the best.
func classifyIntent(text string, entities []models.Entity) classification {
	best := classification{intent: models.IntentModify, confidence: fallbackIntentConfidence}
	found := false

	for _, p := range intentPatterns {
		if !p.re.MatchString(text) {
			continue
		}
		best.matched = append(best.matched, p.intent)

		relevant := 0
		for _, e := range entities {
			for _, t := range p.relevant {
				if e.Type == t {
					relevant++
					break
				}
			}
		}
		boost := float64(relevant) * entityBoostPerMatch
		if boost > maxEntityBoost {
			boost = maxEntityBoost
		}
		score := p.confidence + boost
		if score > 1 {
			score = 1
		}

		if !found || score > best.confidence {
			best.intent = p.intent
			best.confidence = score
			found = true
		}
	}
	return best
}

// augmentWithAI asks the gateway to classify text when it is available for
// the family. Any gateway failure leaves c untouched.
func (h *Handler) augmentWithAI(ctx context.Context, text, familyID string, snap *models.FamilyContextSnapshot, c classification) (classification, *aigateway.Analysis) {
	if h.gateway == nil || !h.gateway.IsAvailable(ctx, familyID) {
		return c, nil
	}

	resp, err := h.gateway.ProcessRequest(ctx, aigateway.Request{
		FamilyID:  familyID,
		Type:      aigateway.RequestBulkOperation,
		Prompt:    text,
		Context:   snap,
		Timestamp: h.now(),
	})
	if err != nil {
		fields := map[string]interface{}{
			"familyId":    familyID,
			"requestType": string(aigateway.RequestBulkOperation),
			"error":       err.Error(),
		}
		var gwErr *aigateway.GatewayError
		if stderrors.As(err, &gwErr) {
			fields["errorCode"] = string(gwErr.Code)
		}
		h.logger.Warn("AI classification unavailable, keeping pattern intent", fields)
		return c, nil
	}
	if resp == nil || resp.Analysis == nil {
		return c, nil
	}

	intent := models.IntentType(resp.Analysis.Intent)
	if !intent.Valid() {
		return c, resp.Analysis
	}

	confidence := resp.Analysis.Confidence
	if confidence == 0 {
		confidence = resp.Confidence
	}
	if confidence < c.confidence {
		confidence = c.confidence
	}
	c.intent = intent
	c.confidence = confidence
	c.fromAI = true
	return c, resp.Analysis
}

func detectScope(text string, entities []models.Entity) models.Scope {
	switch {
	case allScopePattern.MatchString(text):
		return models.ScopeAll
	case someScopePattern.MatchString(text):
		return models.ScopeSelected
	case hasType(entities, models.EntityRoom), hasType(entities, models.EntityChoreType),
		hasType(entities, models.EntityCategory), hasType(entities, models.EntityDifficulty):
		return models.ScopeFiltered
	default:
		return models.ScopeSpecific
	}
}

// buildModifiers collects the operation parameters mentioned in text.
func buildModifiers(text string, entities []models.Entity, vocab *vocabulary) map[string]string {
	mods := make(map[string]string)

	if m, ok := firstOf(entities, models.EntityMember); ok {
		if id, known := vocab.memberIDs[m.Value]; known {
			mods["assignTo"] = id
		} else {
			mods["assignTo"] = m.Value
		}
	}
	if t, ok := firstOf(entities, models.EntityTime); ok {
		mods["time"] = t.Value
	}
	if d, ok := firstOf(entities, models.EntityDifficulty); ok {
		mods["difficulty"] = d.Value
	}
	for _, e := range entities {
		if e.Type != models.EntityPoints {
			continue
		}
		if strings.HasSuffix(e.Value, "%") {
			if _, ok := mods["percent"]; !ok {
				mods["percent"] = strings.TrimSuffix(e.Value, "%")
			}
		} else if _, ok := mods["points"]; !ok {
			mods["points"] = e.Value
		}
	}

	switch {
	case decreasePattern.MatchString(text):
		mods["direction"] = "decrease"
	case increasePattern.MatchString(text):
		mods["direction"] = "increase"
	}
	if m := createCountPattern.FindStringSubmatch(text); m != nil {
		mods["count"] = m[1]
	}
	return mods
}

func detectAmbiguities(text string, intent models.ParsedIntent, entities []models.Entity, c classification) []string {
	ambiguities := []string{}

	switch intent.Type {
	case models.IntentAssign, models.IntentModify, models.IntentDelete:
		if len(intent.Target) == 0 && intent.Scope != models.ScopeAll {
			ambiguities = append(ambiguities, AmbiguityMissingTarget)
		}
	}
	if intent.Type == models.IntentAssign && !hasType(entities, models.EntityMember) {
		ambiguities = append(ambiguities, AmbiguityMissingAssignee)
	}
	if intent.Type == models.IntentReschedule && !hasType(entities, models.EntityTime) {
		ambiguities = append(ambiguities, AmbiguityMissingTime)
	}
	if intent.Type == models.IntentCreate && !draftableCount(intent.Modifiers["count"]) {
		ambiguities = append(ambiguities, AmbiguityExcessiveCount)
	}
	if allScopePattern.MatchString(text) && someScopePattern.MatchString(text) {
		ambiguities = append(ambiguities, AmbiguityConflictingScope)
	}
	if len(c.matched) > 2 || (len(c.matched) == 0 && !c.fromAI) {
		ambiguities = append(ambiguities, AmbiguityUnclearOperation)
	}
	return ambiguities
}

// draftableCount reports whether a create count (absent means the default)
// fits within workload.MaxCreateCount.
func draftableCount(raw string) bool {
	if raw == "" {
		return true
	}
	n, err := strconv.Atoi(raw)
	return err == nil && n > 0 && n <= workload.MaxCreateCount
}

// scoreConfidence combines entity quality, ambiguity count and how complete
// the intent is, clamped to [0.1, 1].
func scoreConfidence(entities []models.Entity, ambiguities []string, intent models.ParsedIntent) float64 {
	avg := 0.0
	if len(entities) > 0 {
		for _, e := range entities {
			avg += e.Confidence
		}
		avg /= float64(len(entities))
	}

	score := 0.7 + (avg-0.5)*0.3 - 0.15*float64(len(ambiguities))
	if len(intent.Target) > 0 {
		score += 0.1
	}
	if len(intent.Modifiers) > 0 {
		score += 0.1
	}
	return clamp(score, 0.1, 1)
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
