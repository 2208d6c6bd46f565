// Package reference holds the built-in gold-standard clause set and an
// in-memory reference source backed by it.
package reference

import (
	"context"

	"clauseguard-backend/models"
)

// Seed returns the built-in reference clauses: one per taxonomy type, with a
// neutral boilerplate clause for other. The slice is freshly allocated on
// every call.
func Seed() []models.ReferenceClause {
	return []models.ReferenceClause{
		{
			ID:   "ref-limitation-of-liability",
			Type: models.ClauseTypeLimitationOfLiability,
			Content: "Except for liability arising from a party's gross negligence, wilful misconduct, fraud, or breach " +
				"of its confidentiality obligations, neither party shall be liable for any indirect, incidental, special " +
				"or consequential damages, including loss of profits or data, and each party's total aggregate liability " +
				"arising out of or relating to this Agreement shall not exceed the total fees paid or payable under this " +
				"Agreement in the twelve (12) months preceding the event giving rise to the claim.",
			Description: "Mutual cap tied to fees with carve-outs for misconduct and confidentiality.",
			Metadata:    map[string]interface{}{"balance": "mutual"},
		},
		{
			ID:   "ref-termination",
			Type: models.ClauseTypeTermination,
			Content: "Either party may terminate this Agreement for convenience on sixty (60) days' prior written notice. " +
				"Either party may terminate this Agreement immediately by written notice if the other party materially " +
				"breaches it and fails to cure the breach within thirty (30) days after receiving written notice. On " +
				"termination the Client shall pay for all services performed up to the effective date of termination.",
			Description: "Mutual termination rights with cure period and payment for work performed.",
			Metadata:    map[string]interface{}{"balance": "mutual"},
		},
		{
			ID:   "ref-intellectual-property",
			Type: models.ClauseTypeIntellectualProperty,
			Content: "Each party retains all intellectual property rights it owned before the Effective Date. Upon full " +
				"payment, all intellectual property rights in deliverables created specifically for the Client under this " +
				"Agreement vest in the Client. The Provider grants the Client a perpetual, royalty-free licence to use any " +
				"pre-existing Provider materials incorporated into the deliverables solely for their intended purpose.",
			Description: "Background IP retained, foreground IP assigned on payment, licence to embedded materials.",
		},
		{
			ID:   "ref-indemnification",
			Type: models.ClauseTypeIndemnification,
			Content: "Each party shall defend, indemnify and hold harmless the other party from third-party claims, losses " +
				"and reasonable legal costs to the extent arising from the indemnifying party's breach of this Agreement, " +
				"negligence or wilful misconduct, provided the indemnified party gives prompt written notice of the claim, " +
				"allows the indemnifying party to control the defence, and provides reasonable cooperation.",
			Description: "Mutual fault-based indemnity with notice and control conditions.",
			Metadata:    map[string]interface{}{"balance": "mutual"},
		},
		{
			ID:   "ref-payment-terms",
			Type: models.ClauseTypePaymentTerms,
			Content: "The Provider shall invoice the Client monthly in arrears. Undisputed amounts are payable within thirty " +
				"(30) days of receipt of a valid invoice. The Client shall notify the Provider of any disputed amount in " +
				"writing within fifteen (15) days, and the parties shall work in good faith to resolve the dispute. Late " +
				"payments bear interest at one percent (1%) per month.",
			Description: "Net-30 payment with dispute window and modest late interest.",
		},
		{
			ID:   "ref-confidentiality",
			Type: models.ClauseTypeConfidentiality,
			Content: "Each party shall keep the other party's Confidential Information confidential, use it only to perform " +
				"this Agreement, and disclose it only to personnel and advisers who need to know it and are bound by " +
				"equivalent obligations. These obligations do not apply to information that is public, already known, " +
				"independently developed or lawfully received from a third party, and continue for three (3) years after " +
				"termination.",
			Description: "Mutual confidentiality with standard exclusions and a fixed survival period.",
			Metadata:    map[string]interface{}{"balance": "mutual"},
		},
		{
			ID:   "ref-governing-law",
			Type: models.ClauseTypeGoverningLaw,
			Content: "This Agreement is governed by the laws of the jurisdiction agreed by the parties, without regard to its " +
				"conflict of laws rules. The parties shall attempt to resolve any dispute by good-faith negotiation for " +
				"thirty (30) days before either may commence proceedings in the courts of that jurisdiction.",
			Description: "Single governing law with negotiation step before litigation.",
		},
		{
			ID:   "ref-warranty",
			Type: models.ClauseTypeWarranty,
			Content: "The Provider warrants that the services will be performed with reasonable skill and care in accordance " +
				"with good industry practice, and that the deliverables will materially conform to their specifications for " +
				"ninety (90) days after delivery. The Provider shall re-perform any non-conforming services at no " +
				"additional cost.",
			Description: "Time-limited performance warranty with re-performance remedy.",
		},
		{
			ID:   "ref-assignment",
			Type: models.ClauseTypeAssignment,
			Content: "Neither party may assign or transfer this Agreement without the prior written consent of the other " +
				"party, which shall not be unreasonably withheld, except that either party may assign it to a successor in " +
				"a merger or sale of substantially all of its assets that agrees in writing to be bound by it.",
			Description: "Consent-based assignment with change-of-control exception.",
		},
		{
			ID:   "ref-general-provision",
			Type: models.ClauseTypeOther,
			Content: "This Agreement constitutes the entire agreement between the parties about its subject matter. No " +
				"amendment is effective unless in writing and signed by both parties. If any provision is held invalid, the " +
				"remaining provisions continue in full force, and no failure to exercise a right operates as a waiver of it.",
			Description: "Neutral boilerplate used when no type-specific reference exists.",
		},
	}
}

// Static serves a fixed reference set from memory.
type Static struct {
	refs []models.ReferenceClause
}

// NewStatic creates a static source. A nil set defaults to Seed().
func NewStatic(refs []models.ReferenceClause) *Static {
	if refs == nil {
		refs = Seed()
	}
	copied := make([]models.ReferenceClause, len(refs))
	copy(copied, refs)
	return &Static{refs: copied}
}

// References returns a copy of the reference set
func (s *Static) References(ctx context.Context) ([]models.ReferenceClause, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.ReferenceClause, len(s.refs))
	copy(out, s.refs)
	return out, nil
}
