// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"chore-workers/internal/common/validation"
)

const (
	TaskParseBulkRequest = "parse-bulk-request"
	TaskDetectConflicts  = "detect-conflicts"
	TaskAnalyzeImpact    = "analyze-impact"
)

// Default is the registry compiled into the service.
func Default() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     "1.0.0",
		LastUpdated: "2026-10-01",
		Activities: []Activity{
			{
				ID:                   "bulk-operations.parse-request",
				DisplayName:          "Parse Bulk Chore Request",
				Description:          "Turns a free-text bulk chore request into an intent, entities and a draft operation",
				Category:             "bulk-operations",
				Version:              "1.0.0",
				TaskType:             TaskParseBulkRequest,
				ImplementationStatus: "implemented",
				InputSchema: validation.JSONSchema{
					Type:     "object",
					Required: []string{"familyId", "text"},
					Properties: map[string]validation.Property{
						"familyId": {Type: "string", MinLength: validation.IntPtr(1)},
						"text":     {Type: "string", MaxLength: validation.IntPtr(2000)},
						"snapshot": snapshotSchema,
					},
				},
				ErrorCodes: []string{"INVALID_JOB_INPUT"},
				Timeout:    "15s",
				Retries:    0,
				Tags:       []string{"nlp", "ai-assisted"},
			},
			{
				ID:                   "bulk-operations.detect-conflicts",
				DisplayName:          "Detect Bulk Operation Conflicts",
				Description:          "Runs schedule, workload, skill, resource and dependency checks against a family snapshot",
				Category:             "bulk-operations",
				Version:              "1.0.0",
				TaskType:             TaskDetectConflicts,
				ImplementationStatus: "implemented",
				InputSchema:          analysisInputSchema,
				ErrorCodes:           []string{"INVALID_JOB_INPUT"},
				Timeout:              "15s",
				Tags:                 []string{"analysis", "ai-assisted"},
			},
			{
				ID:                   "bulk-operations.analyze-impact",
				DisplayName:          "Analyze Family Impact",
				Description:          "Simulates per-member workload changes and scores the operation's impact on the family",
				Category:             "bulk-operations",
				Version:              "1.0.0",
				TaskType:             TaskAnalyzeImpact,
				ImplementationStatus: "implemented",
				InputSchema:          analysisInputSchema,
				ErrorCodes:           []string{"INVALID_JOB_INPUT"},
				Timeout:              "15s",
				Tags:                 []string{"analysis", "simulation", "ai-assisted"},
			},
		},
	}
}

// LoadRegistry reads a registry file. An empty path returns Default.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry %s: %w", path, err)
	}
	return &reg, nil
}

func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// InputSchema returns the input schema for taskType, or an error when the
// task type is not registered.
func (r *ActivityRegistry) InputSchema(taskType string) (validation.JSONSchema, error) {
	a, ok := r.Find(taskType)
	if !ok {
		return validation.JSONSchema{}, fmt.Errorf("task type %q not registered", taskType)
	}
	return a.InputSchema, nil
}
