// internal/workers/bulk-operations/detect-conflicts/models.go
package detectconflicts

import "chore-workers/internal/models"

type Input struct {
	Operation models.BulkOperation          `json:"operation"`
	Snapshot  *models.FamilyContextSnapshot `json:"snapshot"`
}

type Output struct {
	ConflictAnalysis models.ConflictAnalysis `json:"conflictAnalysis"`
}
