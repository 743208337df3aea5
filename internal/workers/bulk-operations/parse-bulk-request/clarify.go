// internal/workers/bulk-operations/parse-bulk-request/clarify.go
package parsebulkrequest

import "chore-workers/internal/models"

var clarificationQuestions = map[string]string{
	AmbiguityMissingTarget:    "Which chores should this apply to?",
	AmbiguityMissingAssignee:  "Who should these chores be assigned to?",
	AmbiguityMissingTime:      "When should these chores be moved to?",
	AmbiguityConflictingScope: "Did you mean all of the matching chores, or only some of them?",
	AmbiguityUnclearOperation: "What would you like to do with these chores: assign, reschedule, change, delete, create or rebalance them?",
	AmbiguityExcessiveCount:   "How many chores should be created? At most 50 can be added at once.",
}

const lowConfidenceQuestion = "Could you rephrase the request, naming the chores and the change you want?"

// GenerateClarificationQuestions returns one question per ambiguity, or a
// rephrase prompt when confidence is low without a specific ambiguity.
func GenerateClarificationQuestions(result *models.NLPParseResult) []string {
	questions := []string{}
	if result == nil {
		return append(questions, lowConfidenceQuestion)
	}

	seen := make(map[string]bool)
	for _, a := range result.Ambiguities {
		q, ok := clarificationQuestions[a]
		if !ok || seen[q] {
			continue
		}
		seen[q] = true
		questions = append(questions, q)
	}

	if len(questions) == 0 && result.Confidence < clarificationThreshold {
		questions = append(questions, lowConfidenceQuestion)
	}
	return questions
}
