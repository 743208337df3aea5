package aigateway

import (
	"strings"

	"chore-workers/internal/common/validation"
	"chore-workers/internal/models"
)

var unitInterval = validation.Property{Type: "number", Minimum: validation.FloatPtr(0), Maximum: validation.FloatPtr(1)}

var structuredSchemas = map[RequestType]validation.JSONSchema{
	RequestBulkOperation: {
		Type:     "object",
		Required: []string{"intent"},
		Properties: map[string]validation.Property{
			"intent":     {Type: "string", Enum: []string{"assign", "reschedule", "modify", "delete", "create", "optimize"}},
			"scope":      {Type: "string"},
			"targets":    {Type: "array", Items: &validation.Property{Type: "string"}},
			"assignTo":   {Type: "string"},
			"newDueDate": {Type: "string"},
			"confidence": unitInterval,
			"reasoning":  {Type: "string"},
		},
	},
	RequestSuggestions: {
		Type:     "object",
		Required: []string{"suggestions"},
		Properties: map[string]validation.Property{
			"suggestions": {
				Type: "array",
				Items: &validation.Property{
					Type:     "object",
					Required: []string{"title"},
					Properties: map[string]validation.Property{
						"title":  {Type: "string", MinLength: validation.IntPtr(1)},
						"points": {Type: "integer", Minimum: validation.FloatPtr(0)},
					},
				},
			},
			"reasoning": {Type: "string"},
		},
	},
	RequestConflictAnalysis: {
		Type:     "object",
		Required: []string{"resolutions"},
		Properties: map[string]validation.Property{
			"resolutions": {
				Type: "array",
				Items: &validation.Property{
					Type:     "object",
					Required: []string{"strategy", "description"},
					Properties: map[string]validation.Property{
						"strategy":      {Type: "string", Enum: []string{"reschedule", "reassign", "split_workload", "adjust_requirements", "seek_approval"}},
						"description":   {Type: "string", MinLength: validation.IntPtr(1)},
						"confidence":    unitInterval,
						"modifications": {Type: "object"},
					},
				},
			},
			"reasoning": {Type: "string"},
		},
	},
	RequestImpactAssessment: {
		Type:     "object",
		Required: []string{"recommendations"},
		Properties: map[string]validation.Property{
			"recommendations": {Type: "array", Items: &validation.Property{Type: "string", MinLength: validation.IntPtr(1)}},
			"reasoning":       {Type: "string"},
		},
	},
}

type structuredBody struct {
	Analysis
	Suggestions []Suggestion `json:"suggestions"`
	Reasoning   string       `json:"reasoning"`
}

// extractJSON returns the outermost JSON object in text, tolerating code
// fences and prose around it.
func extractJSON(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// buildResponse maps the first candidate onto a Response. A candidate that
// is not valid structured output for reqType becomes plain-text reasoning.
func buildResponse(requestID string, reqType RequestType, env *generateResponse) *Response {
	cand := env.Candidates[0]

	var texts []string
	for _, p := range cand.Content.Parts {
		texts = append(texts, p.Text)
	}
	text := strings.Join(texts, "")

	resp := &Response{
		RequestID:  requestID,
		Success:    true,
		Confidence: scoreConfidence(cand),
		Reasoning:  strings.TrimSpace(text),
		Usage: Usage{
			PromptTokens:    env.UsageMetadata.PromptTokenCount,
			CandidateTokens: env.UsageMetadata.CandidatesTokenCount,
			TotalTokens:     env.UsageMetadata.TotalTokenCount,
		},
	}

	raw, ok := extractJSON(text)
	if !ok {
		return resp
	}
	schema, ok := structuredSchemas[reqType]
	if !ok {
		return resp
	}
	var body structuredBody
	if err := validation.DecodeInto([]byte(raw), schema, &body); err != nil {
		return resp
	}

	if body.Reasoning != "" {
		resp.Reasoning = body.Reasoning
	}
	resp.Suggestions = body.Suggestions
	analysis := body.Analysis
	for i := range analysis.Resolutions {
		if analysis.Resolutions[i].Confidence == 0 {
			analysis.Resolutions[i].Confidence = 0.5
		}
	}
	if reqType != RequestSuggestions {
		resp.Analysis = &analysis
	}
	return resp
}

// scoreConfidence is 0.3 for a generation that did not finish cleanly,
// otherwise 1 minus 0.2 per HIGH or MEDIUM safety rating, floored at 0.1.
func scoreConfidence(c candidate) float64 {
	if c.FinishReason != "STOP" {
		return 0.3
	}
	flagged := 0
	for _, r := range c.SafetyRatings {
		if r.Probability == "HIGH" || r.Probability == "MEDIUM" {
			flagged++
		}
	}
	conf := 1.0 - 0.2*float64(flagged)
	if conf < 0.1 {
		return 0.1
	}
	return conf
}

// ResolutionsFromResponse returns the valid resolutions in resp, if any.
func ResolutionsFromResponse(resp *Response) []models.ConflictResolution {
	if resp == nil || resp.Analysis == nil {
		return nil
	}
	var out []models.ConflictResolution
	for _, r := range resp.Analysis.Resolutions {
		if r.Strategy.Valid() && r.Description != "" {
			out = append(out, r)
		}
	}
	return out
}
