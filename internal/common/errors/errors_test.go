package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewFamilyConfigLookupFailedError("fam-1", fmt.Errorf("connection refused"))

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "FAMILY_CONFIG_LOOKUP_FAILED", bpmnErr.Code)
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 3, bpmnErr.Retries)
	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "FAMILY_CONFIG_LOOKUP_FAILED", vars["originalErrorCode"])
	assert.Equal(t, "fam-1", vars["familyId"])
	assert.Equal(t, true, vars["retryable"])
}

func TestConvertToBPMNErrorNonRetryable(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewInvalidJobInputError("text is required"))

	assert.Equal(t, "BULK_OPERATION_INPUT_INVALID", bpmnErr.Code)
	assert.False(t, bpmnErr.Retryable)
	assert.Zero(t, bpmnErr.Retries)
	assert.Equal(t, "text is required", bpmnErr.Details)
}

func TestNormalize(t *testing.T) {
	original := NewConflictAnalysisFailedError(fmt.Errorf("boom"))
	wrapped := fmt.Errorf("execute: %w", original)

	assert.Same(t, original, Normalize(wrapped))

	plain := Normalize(fmt.Errorf("plain"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "plain", plain.Details)
}

func TestRetriesFor(t *testing.T) {
	tests := []struct {
		name      string
		err       *StandardError
		remaining int32
		want      int
	}{
		{"retryable with budget", NewDatabaseConnectionFailedError(fmt.Errorf("x")), 5, 3},
		{"capped by remaining", NewDatabaseConnectionFailedError(fmt.Errorf("x")), 1, 1},
		{"no retries left", NewDatabaseConnectionFailedError(fmt.Errorf("x")), 0, 0},
		{"business error", NewInvalidJobInputError("bad"), 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RetriesFor(tt.err, tt.remaining))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeRateLimitExceeded:        "AI",
		ErrCodeParsingFailed:            "AI",
		ErrCodeQueryExecutionFailed:     "DATABASE",
		ErrCodeFamilyConfigLookupFailed: "DATABASE",
		ErrCodeConflictAnalysisFailed:   "ANALYSIS",
		ErrCodeInvalidJobInput:          "VALIDATION",
		ErrorCode("SOMETHING_ELSE"):     "OTHER",
	}
	for code, want := range tests {
		assert.Equal(t, want, GetErrorCategory(code), code)
	}
}

func TestStandardErrorMessage(t *testing.T) {
	err := NewQueryExecutionFailedError("family_ai_settings", fmt.Errorf("timeout"))
	require.Error(t, err)
	assert.Equal(t, "StandardError[QUERY_EXECUTION_FAILED]: Database query execution error", err.Error())
	assert.True(t, IsRetryableErrorCode(err.Code))
	assert.False(t, IsRetryableErrorCode(ErrCodeParsingFailed))
}

func TestExternalServiceErrors(t *testing.T) {
	unavailable := NewServiceUnavailableError("zeebe", fmt.Errorf("connection refused"))
	assert.Equal(t, ErrCodeServiceUnavailable, unavailable.Code)
	assert.True(t, unavailable.Retryable)
	assert.Equal(t, "zeebe", unavailable.Metadata["service"])

	timeout := NewRequestTimeoutError("zeebe", fmt.Errorf("deadline exceeded"))
	assert.Equal(t, 2, GetRetryCount(timeout.Code))

	internal := NewInternalError(fmt.Errorf("boom"))
	assert.False(t, internal.Retryable)
	assert.Equal(t, "boom", internal.Details)
}
