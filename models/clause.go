package models

import "strings"

// ClauseType is the closed taxonomy of legal clause categories.
// The zero value means the clause has not been classified yet.
type ClauseType string

const (
	ClauseTypeUnset                 ClauseType = ""
	ClauseTypeLimitationOfLiability ClauseType = "limitation_of_liability"
	ClauseTypeTermination           ClauseType = "termination"
	ClauseTypeIntellectualProperty  ClauseType = "intellectual_property"
	ClauseTypeIndemnification       ClauseType = "indemnification"
	ClauseTypePaymentTerms          ClauseType = "payment_terms"
	ClauseTypeConfidentiality       ClauseType = "confidentiality"
	ClauseTypeGoverningLaw          ClauseType = "governing_law"
	ClauseTypeWarranty              ClauseType = "warranty"
	ClauseTypeAssignment            ClauseType = "assignment"
	ClauseTypeOther                 ClauseType = "other"
)

var clauseTypeLabels = map[ClauseType]string{
	ClauseTypeLimitationOfLiability: "Limitation of Liability",
	ClauseTypeTermination:           "Termination",
	ClauseTypeIntellectualProperty:  "Intellectual Property",
	ClauseTypeIndemnification:       "Indemnification",
	ClauseTypePaymentTerms:          "Payment Terms",
	ClauseTypeConfidentiality:       "Confidentiality",
	ClauseTypeGoverningLaw:          "Governing Law",
	ClauseTypeWarranty:              "Warranty",
	ClauseTypeAssignment:            "Assignment",
	ClauseTypeOther:                 "General Provision",
}

// ClauseTypes returns every taxonomy value in declaration order.
func ClauseTypes() []ClauseType {
	return []ClauseType{
		ClauseTypeLimitationOfLiability,
		ClauseTypeTermination,
		ClauseTypeIntellectualProperty,
		ClauseTypeIndemnification,
		ClauseTypePaymentTerms,
		ClauseTypeConfidentiality,
		ClauseTypeGoverningLaw,
		ClauseTypeWarranty,
		ClauseTypeAssignment,
		ClauseTypeOther,
	}
}

// Valid reports whether t is a member of the taxonomy. The unset value is not valid.
func (t ClauseType) Valid() bool {
	_, ok := clauseTypeLabels[t]
	return ok
}

// IsSet reports whether the clause type has been assigned.
func (t ClauseType) IsSet() bool {
	return t != ClauseTypeUnset
}

// Label returns the human-readable title for the clause type
func (t ClauseType) Label() string {
	if label, ok := clauseTypeLabels[t]; ok {
		return label
	}
	return clauseTypeLabels[ClauseTypeOther]
}

// ParseClauseType converts free text (e.g. "Limitation of Liability", "payment-terms")
// into a taxonomy value. Unknown input yields ClauseTypeUnset and false.
func ParseClauseType(s string) (ClauseType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	if normalized == "" {
		return ClauseTypeUnset, false
	}
	t := ClauseType(normalized)
	if t.Valid() {
		return t, true
	}
	for candidate, label := range clauseTypeLabels {
		if strings.EqualFold(label, strings.TrimSpace(s)) {
			return candidate, true
		}
	}
	return ClauseTypeUnset, false
}

// Clause is one negotiable span of contract text.
type Clause struct {
	Content  string     `json:"content"`
	Type     ClauseType `json:"type,omitempty"`
	Position int        `json:"position"`
}

// WithType returns a copy of the clause carrying the given type
func (c Clause) WithType(t ClauseType) Clause {
	c.Type = t
	return c
}

// ReferenceClause is a pre-approved "gold standard" clause for one clause type
type ReferenceClause struct {
	ID          string                 `json:"id"`
	Type        ClauseType             `json:"type"`
	Content     string                 `json:"content"`
	Description string                 `json:"description,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Match confidence values
const (
	ConfidenceExact    = 0.8
	ConfidenceFallback = 0.5
)

// MatchedPair pairs a classified clause with the reference used to rewrite it.
type MatchedPair struct {
	Clause     Clause          `json:"clause"`
	Reference  ReferenceClause `json:"reference"`
	Confidence float64         `json:"confidence"`
}
