// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// AI gateway outcomes. These never fail a job on their own; workers degrade
// to heuristic results when they see one.
const (
	ErrCodeAPIKeyInvalid      ErrorCode = "API_KEY_INVALID"
	ErrCodeRateLimitExceeded  ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTimeout     ErrorCode = "REQUEST_TIMEOUT"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeParsingFailed      ErrorCode = "PARSING_FAILED"
)

// Worker and infrastructure codes.
const (
	ErrCodeInvalidJobInput          ErrorCode = "INVALID_JOB_INPUT"
	ErrCodeIntentProcessingFailed   ErrorCode = "INTENT_PROCESSING_FAILED"
	ErrCodeConflictAnalysisFailed   ErrorCode = "CONFLICT_ANALYSIS_FAILED"
	ErrCodeImpactAnalysisFailed     ErrorCode = "IMPACT_ANALYSIS_FAILED"
	ErrCodeFamilyConfigLookupFailed ErrorCode = "FAMILY_CONFIG_LOOKUP_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns the error with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidJobInputError is raised when job variables fail decoding or schema validation.
func NewInvalidJobInputError(details string) *StandardError {
	return newError(ErrCodeInvalidJobInput, "Job variables are invalid", details, false)
}

func NewIntentProcessingFailedError(err error) *StandardError {
	return newError(ErrCodeIntentProcessingFailed, "Bulk request could not be interpreted", err.Error(), false)
}

func NewConflictAnalysisFailedError(err error) *StandardError {
	return newError(ErrCodeConflictAnalysisFailed, "Conflict analysis failed", err.Error(), false)
}

func NewImpactAnalysisFailedError(err error) *StandardError {
	return newError(ErrCodeImpactAnalysisFailed, "Impact analysis failed", err.Error(), false)
}

// NewFamilyConfigLookupFailedError wraps a failed read of the per-family AI settings.
func NewFamilyConfigLookupFailedError(familyID string, err error) *StandardError {
	return newError(ErrCodeFamilyConfigLookupFailed, "Family AI configuration lookup failed",
		fmt.Sprintf("familyId: %s, error: %s", familyID, err.Error()), true).
		WithMetadata("familyId", familyID)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

// NewServiceUnavailableError wraps a failure to reach an external service.
func NewServiceUnavailableError(service string, err error) *StandardError {
	return newError(ErrCodeServiceUnavailable, "External service unavailable",
		fmt.Sprintf("service: %s, error: %s", service, err.Error()), true).
		WithMetadata("service", service)
}

func NewRequestTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeRequestTimeout, "External service request timed out",
		fmt.Sprintf("service: %s, error: %s", service, err.Error()), true).
		WithMetadata("service", service)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// BPMNErrorMapping maps internal error codes to BPMN error codes. Codes
// without an entry are passed through unchanged.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidJobInput:          "BULK_OPERATION_INPUT_INVALID",
	ErrCodeIntentProcessingFailed:   "BULK_OPERATION_PARSE_FAILED",
	ErrCodeConflictAnalysisFailed:   "BULK_OPERATION_CONFLICTS_FAILED",
	ErrCodeImpactAnalysisFailed:     "BULK_OPERATION_IMPACT_FAILED",
	ErrCodeFamilyConfigLookupFailed: "FAMILY_CONFIG_LOOKUP_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeFamilyConfigLookupFailed,
		ErrCodeServiceUnavailable:
		return 3

	case ErrCodeRequestTimeout:
		return 2

	case ErrCodeRateLimitExceeded:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeAPIKeyInvalid, ErrCodeRateLimitExceeded, ErrCodeRequestTimeout,
		ErrCodeServiceUnavailable, ErrCodeParsingFailed:
		return "AI"
	}

	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "CONFIG"):
		return "DATABASE"
	case strings.Contains(codeStr, "INTENT") || strings.Contains(codeStr, "CONFLICT") || strings.Contains(codeStr, "IMPACT"):
		return "ANALYSIS"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
