package pipeline

import (
	"strings"

	"clauseguard-backend/models"
)

type classificationRule struct {
	clauseType models.ClauseType
	keywords   []string
}

// classificationRules are checked in order; the first rule with a matching
// keyword wins.
var classificationRules = []classificationRule{
	{models.ClauseTypeLimitationOfLiability, []string{"liability", "damages", "limit"}},
	{models.ClauseTypeTermination, []string{"terminat"}},
	{models.ClauseTypeIntellectualProperty, []string{"intellectual property", "copyright", "patent", "trademark"}},
	{models.ClauseTypeIndemnification, []string{"indemnif"}},
	{models.ClauseTypePaymentTerms, []string{"payment", "invoice", "fee"}},
	{models.ClauseTypeConfidentiality, []string{"confidential"}},
	{models.ClauseTypeGoverningLaw, []string{"governing law", "jurisdiction"}},
	{models.ClauseTypeWarranty, []string{"warrant"}},
	{models.ClauseTypeAssignment, []string{"assign"}},
}

// Classify assigns a taxonomy type to a span of clause text. It never fails:
// text matching no rule is classified as other.
func Classify(text string) models.ClauseType {
	lower := strings.ToLower(text)
	for _, rule := range classificationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.clauseType
			}
		}
	}
	return models.ClauseTypeOther
}

// ClassifyAll returns a copy of clauses with every unset type classified.
// Clauses that arrive with a taxonomy type keep it; a type outside the
// taxonomy is treated as unset.
func ClassifyAll(clauses []models.Clause) []models.Clause {
	out := make([]models.Clause, len(clauses))
	for i, c := range clauses {
		if !c.Type.Valid() {
			c = c.WithType(Classify(c.Content))
		}
		out[i] = c
	}
	return out
}
