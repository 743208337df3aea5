// internal/workers/bulk-operations/analyze-impact/models.go
package analyzeimpact

import "chore-workers/internal/models"

type Input struct {
	Operation models.BulkOperation          `json:"operation"`
	Snapshot  *models.FamilyContextSnapshot `json:"snapshot"`
}

type Output struct {
	ImpactAssessment models.FamilyImpactAssessment `json:"impactAssessment"`
}
