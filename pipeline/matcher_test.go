package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clauseguard-backend/models"
)

func ref(id string, t models.ClauseType) models.ReferenceClause {
	return models.ReferenceClause{ID: id, Type: t, Content: "reference " + id}
}

func clause(pos int, t models.ClauseType, content string) models.Clause {
	return models.Clause{Content: content, Type: t, Position: pos}
}

func TestMatch_ExactTypeFirstReference(t *testing.T) {
	refs := []models.ReferenceClause{
		ref("term-1", models.ClauseTypeTermination),
		ref("lol-1", models.ClauseTypeLimitationOfLiability),
		ref("lol-2", models.ClauseTypeLimitationOfLiability),
	}

	pairs := Match([]models.Clause{clause(0, models.ClauseTypeLimitationOfLiability, "cap")}, refs)

	require.Len(t, pairs, 1)
	assert.Equal(t, "lol-1", pairs[0].Reference.ID)
	assert.Equal(t, models.ConfidenceExact, pairs[0].Confidence)
}

func TestMatch_FallsBackToOtherReference(t *testing.T) {
	refs := []models.ReferenceClause{
		ref("term-1", models.ClauseTypeTermination),
		ref("other-1", models.ClauseTypeOther),
	}

	pairs := Match([]models.Clause{clause(0, models.ClauseTypeWarranty, "warranty")}, refs)

	require.Len(t, pairs, 1)
	assert.Equal(t, "other-1", pairs[0].Reference.ID)
	assert.Equal(t, models.ConfidenceFallback, pairs[0].Confidence)
}

func TestMatch_FallsBackToFirstReference(t *testing.T) {
	refs := []models.ReferenceClause{
		ref("term-1", models.ClauseTypeTermination),
		ref("pay-1", models.ClauseTypePaymentTerms),
	}

	pairs := Match([]models.Clause{clause(0, models.ClauseTypeOther, "misc")}, refs)

	require.Len(t, pairs, 1)
	assert.Equal(t, "term-1", pairs[0].Reference.ID)
	assert.Equal(t, models.ConfidenceFallback, pairs[0].Confidence)
}

func TestMatch_EmptyReferencesDropsAll(t *testing.T) {
	pairs := Match([]models.Clause{
		clause(0, models.ClauseTypeTermination, "a"),
		clause(1, models.ClauseTypeOther, "b"),
	}, nil)

	assert.Empty(t, pairs)
}

func TestMatch_PreservesInputOrderAndInputs(t *testing.T) {
	refs := []models.ReferenceClause{ref("other-1", models.ClauseTypeOther)}
	clauses := []models.Clause{
		clause(2, models.ClauseTypeOther, "c"),
		clause(0, models.ClauseTypeTermination, "a"),
		clause(1, models.ClauseTypeWarranty, "b"),
	}
	before := append([]models.Clause(nil), clauses...)

	pairs := Match(clauses, refs)

	require.Len(t, pairs, 3)
	assert.Equal(t, "c", pairs[0].Clause.Content)
	assert.Equal(t, "a", pairs[1].Clause.Content)
	assert.Equal(t, "b", pairs[2].Clause.Content)
	assert.Equal(t, before, clauses)
}

func TestLookupReference_Branches(t *testing.T) {
	_, _, ok := lookupReference(models.ClauseTypeTermination, nil)
	assert.False(t, ok)

	r, c, ok := lookupReference(models.ClauseTypeTermination, []models.ReferenceClause{ref("t", models.ClauseTypeTermination)})
	assert.True(t, ok)
	assert.Equal(t, "t", r.ID)
	assert.Equal(t, models.ConfidenceExact, c)
}
