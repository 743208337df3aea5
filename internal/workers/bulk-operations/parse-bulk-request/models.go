// internal/workers/bulk-operations/parse-bulk-request/models.go
package parsebulkrequest

import "chore-workers/internal/models"

type Input struct {
	FamilyID string                        `json:"familyId"`
	Text     string                        `json:"text"`
	Snapshot *models.FamilyContextSnapshot `json:"snapshot,omitempty"`
}

type Output struct {
	ParseResult            models.NLPParseResult `json:"parseResult"`
	ClarificationQuestions []string              `json:"clarificationQuestions"`
}
