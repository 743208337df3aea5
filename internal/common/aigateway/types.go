// Package aigateway fronts the external text-generation service used to
// augment bulk chore analysis. Every failure is returned as a *GatewayError
// alongside an unsuccessful Response; nothing panics across this boundary.
package aigateway

import (
	"fmt"
	"time"

	"chore-workers/internal/common/errors"
	"chore-workers/internal/models"
)

type RequestType string

const (
	RequestBulkOperation    RequestType = "bulk_operation"
	RequestSuggestions      RequestType = "suggestions"
	RequestConflictAnalysis RequestType = "conflict_analysis"
	RequestImpactAssessment RequestType = "impact_assessment"
)

func (t RequestType) Valid() bool {
	switch t {
	case RequestBulkOperation, RequestSuggestions, RequestConflictAnalysis, RequestImpactAssessment:
		return true
	}
	return false
}

// Options overrides the configured sampling parameters for one request.
// Zero fields fall back to the per-type settings.
type Options struct {
	MaxTokens   int     `json:"maxTokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"topP,omitempty"`
}

// Request is one gateway call. Prompt is the caller's input (the user's text
// or a summary of what needs analysing); the gateway wraps it in the
// template for Type together with a summary of Context.
type Request struct {
	RequestID string                        `json:"requestId"`
	FamilyID  string                        `json:"familyId"`
	Type      RequestType                   `json:"requestType"`
	Prompt    string                        `json:"prompt"`
	Context   *models.FamilyContextSnapshot `json:"-"`
	Operation *models.BulkOperation         `json:"-"`
	Conflicts []models.OperationConflict    `json:"-"`
	Options   Options                       `json:"options"`
	Timestamp time.Time                     `json:"timestamp"`
}

type Usage struct {
	PromptTokens    int `json:"promptTokens"`
	CandidateTokens int `json:"candidateTokens"`
	TotalTokens     int `json:"totalTokens"`
}

// Analysis holds the structured part of a successful response. Which fields
// are set depends on the request type.
type Analysis struct {
	Intent          string                      `json:"intent,omitempty"`
	Scope           string                      `json:"scope,omitempty"`
	Targets         []string                    `json:"targets,omitempty"`
	AssignTo        string                      `json:"assignTo,omitempty"`
	NewDueDate      string                      `json:"newDueDate,omitempty"`
	Confidence      float64                     `json:"confidence,omitempty"`
	Resolutions     []models.ConflictResolution `json:"resolutions,omitempty"`
	Recommendations []string                    `json:"recommendations,omitempty"`
}

type Suggestion struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Room        string            `json:"room,omitempty"`
	Difficulty  models.Difficulty `json:"difficulty,omitempty"`
	Points      int               `json:"points,omitempty"`
}

type Response struct {
	RequestID   string       `json:"requestId"`
	Success     bool         `json:"success"`
	Confidence  float64      `json:"confidence"`
	Reasoning   string       `json:"reasoning,omitempty"`
	Analysis    *Analysis    `json:"analysis,omitempty"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
	Errors      []string     `json:"errors,omitempty"`
	Usage       Usage        `json:"usage"`
	Cached      bool         `json:"cached"`
}

// GatewayError is the typed failure of a gateway call.
type GatewayError struct {
	Code      errors.ErrorCode `json:"code"`
	Message   string           `json:"message"`
	Retryable bool             `json:"retryable"`
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newGatewayError(code errors.ErrorCode, format string, args ...interface{}) *GatewayError {
	return &GatewayError{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Retryable: errors.IsRetryableErrorCode(code),
	}
}

func failedResponse(requestID string, gwErr *GatewayError) *Response {
	return &Response{
		RequestID: requestID,
		Success:   false,
		Errors:    []string{gwErr.Error()},
	}
}

// UsageRecord counts one family's gateway traffic for one day.
type UsageRecord struct {
	FamilyID        string              `json:"familyId"`
	Date            string              `json:"date"`
	TotalRequests   int                 `json:"totalRequests"`
	RequestsByType  map[RequestType]int `json:"requestsByType"`
	CacheHits       int                 `json:"cacheHits"`
	PromptTokens    int                 `json:"promptTokens"`
	CandidateTokens int                 `json:"candidateTokens"`
	TotalTokens     int                 `json:"totalTokens"`
}
