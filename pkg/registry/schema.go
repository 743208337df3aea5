// pkg/registry/schema.go
package registry

import (
	"chore-workers/internal/common/validation"
	"chore-workers/internal/common/workload"
)

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID                   string                `json:"id"`
	DisplayName          string                `json:"displayName"`
	Description          string                `json:"description"`
	Category             string                `json:"category"`
	Version              string                `json:"version"`
	TaskType             string                `json:"taskType"`
	ImplementationStatus string                `json:"implementationStatus"`
	InputSchema          validation.JSONSchema `json:"inputSchema"`
	ErrorCodes           []string              `json:"errorCodes"`
	Timeout              string                `json:"timeout"`
	Retries              int                   `json:"retries"`
	Tags                 []string              `json:"tags"`
}

var operationTypes = []string{"assign", "reschedule", "modify", "delete", "create", "optimize"}

var snapshotSchema = validation.Property{
	Type:     "object",
	Required: []string{"familyId"},
	Properties: map[string]validation.Property{
		"familyId":   {Type: "string", MinLength: validation.IntPtr(1)},
		"familySize": {Type: "integer", Minimum: validation.FloatPtr(0)},
		"members": {
			Type: "array",
			Items: &validation.Property{
				Type:     "object",
				Required: []string{"id"},
				Properties: map[string]validation.Property{
					"id":  {Type: "string", MinLength: validation.IntPtr(1)},
					"age": {Type: "integer", Minimum: validation.FloatPtr(0)},
				},
			},
		},
		"activeChores": {
			Type: "array",
			Items: &validation.Property{
				Type:     "object",
				Required: []string{"id"},
				Properties: map[string]validation.Property{
					"id":         {Type: "string", MinLength: validation.IntPtr(1)},
					"points":     {Type: "integer"},
					"difficulty": {Type: "string", Enum: []string{"", "easy", "medium", "hard"}},
				},
			},
		},
	},
}

var operationSchema = validation.Property{
	Type:     "object",
	Required: []string{"type", "choreIds"},
	Properties: map[string]validation.Property{
		"id":       {Type: "string"},
		"familyId": {Type: "string"},
		"type":     {Type: "string", Enum: operationTypes},
		"choreIds": {Type: "array", UniqueItems: true, Items: &validation.Property{Type: "string"}},
		"modifications": {
			Type: "object",
			Properties: map[string]validation.Property{
				"assignTo":         {Type: "string"},
				"newDueDate":       {Type: "string"},
				"points":           {Type: "integer", Minimum: validation.FloatPtr(0)},
				"pointsMultiplier": {Type: "number", Minimum: validation.FloatPtr(0)},
				"difficulty":       {Type: "string", Enum: []string{"", "easy", "medium", "hard"}},
				"count":            {Type: "integer", Minimum: validation.FloatPtr(0), Maximum: validation.FloatPtr(workload.MaxCreateCount)},
			},
		},
	},
}

// analysisInputSchema is shared by the conflict and impact activities.
var analysisInputSchema = validation.JSONSchema{
	Type:     "object",
	Required: []string{"operation", "snapshot"},
	Properties: map[string]validation.Property{
		"operation": operationSchema,
		"snapshot":  snapshotSchema,
	},
}
