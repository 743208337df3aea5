package parsebulkrequest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chore-workers/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Assign ALL the kitchen chores -- to Sarah!!": "assign all the kitchen chores to sarah",
		"Move to 2026-03-07.":                         "move to 2026-03-07",
		"Raise   points by 20%":                       "raise points by 20%",
		"re-do the\tdishes":                           "re do the dishes",
		"":                                            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalize(in), in)
	}
}

func TestExtractEntitiesDedupesAndOrders(t *testing.T) {
	text := normalize("Clean the kitchen and the kitchen floor, 10 points, hard")

	got := extractEntities(text, newVocabulary(nil))

	require.Len(t, got, 3)
	assert.Equal(t, models.Entity{Type: models.EntityRoom, Value: "kitchen", Confidence: 0.9, Span: models.Span{Start: 10, End: 17}}, got[0])
	assert.Equal(t, models.EntityPoints, got[1].Type)
	assert.Equal(t, "10", got[1].Value)
	assert.Equal(t, models.EntityDifficulty, got[2].Type)
	assert.Equal(t, "hard", got[2].Value)
}

func TestExtractEntitiesIsIdempotent(t *testing.T) {
	text := normalize("Move all the laundry and dishes in the bathroom to tomorrow, worth 5 pts")
	vocab := newVocabulary(testSnapshot())

	first := extractEntities(text, vocab)
	second := extractEntities(text, vocab)

	assert.Equal(t, first, second)
	assert.Equal(t, dedupeEntities(first), first)
}

func TestExtractEntitiesCanonicalValues(t *testing.T) {
	got := extractEntities(normalize("a difficult garbage job in the bedrooms, 15 percent"), newVocabulary(nil))

	assert.Equal(t, []string{"bedroom"}, valuesOf(got, models.EntityRoom))
	assert.Equal(t, []string{"trash"}, valuesOf(got, models.EntityChoreType))
	assert.Equal(t, []string{"hard"}, valuesOf(got, models.EntityDifficulty))
	assert.Equal(t, []string{"15%"}, valuesOf(got, models.EntityPoints))
}

func TestExtractEntitiesSnapshotVocabulary(t *testing.T) {
	got := extractEntities(normalize("give the dishes to Sarah"), newVocabulary(testSnapshot()))

	member, ok := firstOf(got, models.EntityMember)
	require.True(t, ok)
	assert.Equal(t, "sarah", member.Value)
	assert.Equal(t, snapshotMemberConfidence, member.Confidence)

	chore, ok := firstOf(got, models.EntityChoreType)
	require.True(t, ok)
	assert.Equal(t, snapshotChoreConfidence, chore.Confidence, "snapshot title beats the static vocabulary")
}

func TestExtractEntitiesGuessesAssignee(t *testing.T) {
	got := extractEntities(normalize("give the dishes to Tom"), newVocabulary(nil))

	member, ok := firstOf(got, models.EntityMember)
	require.True(t, ok)
	assert.Equal(t, "tom", member.Value)
	assert.Equal(t, guessedMemberConfidence, member.Confidence)
}

func TestExtractEntitiesIgnoresNonNames(t *testing.T) {
	for _, text := range []string{
		"move the dishes to friday",
		"increase points for kitchen",
		"assign chores to everyone",
		"add a chore for the garage",
		"assign all kitchen chores to my brother",
		"give the laundry to our kids",
		"hand the dishes to their dad",
	} {
		got := extractEntities(normalize(text), newVocabulary(nil))
		assert.False(t, hasType(got, models.EntityMember), text)
	}
}
