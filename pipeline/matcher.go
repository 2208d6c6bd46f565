package pipeline

import "clauseguard-backend/models"

// Match pairs each clause with a reference clause. Clauses are expected to be
// classified already. Output preserves input order; a clause for which no
// reference exists is dropped.
func Match(clauses []models.Clause, refs []models.ReferenceClause) []models.MatchedPair {
	pairs := make([]models.MatchedPair, 0, len(clauses))
	for _, c := range clauses {
		ref, confidence, ok := lookupReference(c.Type, refs)
		if !ok {
			continue
		}
		pairs = append(pairs, models.MatchedPair{
			Clause:     c,
			Reference:  ref,
			Confidence: confidence,
		})
	}
	return pairs
}

// lookupReference selects the reference for a clause type in two branches:
// the first reference of the same type, else a fallback reference.
func lookupReference(t models.ClauseType, refs []models.ReferenceClause) (models.ReferenceClause, float64, bool) {
	if ref, ok := firstOfType(t, refs); ok {
		return ref, models.ConfidenceExact, true
	}
	if ref, ok := fallbackReference(refs); ok {
		return ref, models.ConfidenceFallback, true
	}
	return models.ReferenceClause{}, 0, false
}

func firstOfType(t models.ClauseType, refs []models.ReferenceClause) (models.ReferenceClause, bool) {
	for _, ref := range refs {
		if ref.Type == t {
			return ref, true
		}
	}
	return models.ReferenceClause{}, false
}

// fallbackReference prefers the first "other" reference, then the first
// reference in the set.
func fallbackReference(refs []models.ReferenceClause) (models.ReferenceClause, bool) {
	if ref, ok := firstOfType(models.ClauseTypeOther, refs); ok {
		return ref, true
	}
	if len(refs) > 0 {
		return refs[0], true
	}
	return models.ReferenceClause{}, false
}
