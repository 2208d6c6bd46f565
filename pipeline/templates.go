package pipeline

import (
	"strings"

	"clauseguard-backend/models"
)

// Template is the canned recommendation for one clause type. Suggestion is a
// complete clause that can be inserted into a contract as written.
type Template struct {
	Title       string
	Explanation string
	Suggestion  string
	RiskLevel   models.RiskLevel
}

// complete reports whether the template can be emitted as-is.
func (t Template) complete() bool {
	return strings.TrimSpace(t.Title) != "" &&
		strings.TrimSpace(t.Explanation) != "" &&
		strings.TrimSpace(t.Suggestion) != "" &&
		t.RiskLevel.Valid()
}

// TemplateProvider supplies deterministic fallback templates by clause type.
type TemplateProvider interface {
	Template(t models.ClauseType) (Template, bool)
}

// StaticTemplates is a map-backed TemplateProvider.
type StaticTemplates map[models.ClauseType]Template

func (s StaticTemplates) Template(t models.ClauseType) (Template, bool) {
	tpl, ok := s[t]
	return tpl, ok
}

// genericProvision is used for clause types without a dedicated template.
var genericProvision = Template{
	Title: models.ClauseTypeOther.Label(),
	Explanation: "This provision does not fall into one of the standard risk categories, but its wording " +
		"may still leave obligations, timing or responsibilities open to interpretation. Vague or one-sided " +
		"language in a general provision can be used to shift costs or obligations onto your side later. " +
		"The suggested rewrite states each party's obligations plainly and ties any change to a signed written amendment.",
	Suggestion: "Each party shall perform its obligations under this provision in good faith, in a timely and " +
		"professional manner, and in accordance with applicable law. Any obligation that is not expressly " +
		"assigned to a party under this Agreement shall be agreed in writing before it is performed. This " +
		"provision may be amended or waived only by a written instrument signed by authorised representatives of both parties.",
	RiskLevel: models.RiskMedium,
}

// absoluteFallback is the last-resort recommendation text when neither a
// dedicated nor the generic template is usable.
var absoluteFallback = Template{
	Title: "Contract Provision",
	Explanation: "This clause could not be analysed automatically. Review it with qualified counsel to confirm " +
		"that obligations, liabilities and remedies are balanced between the parties. The suggested text " +
		"provides a neutral baseline that can replace the clause until that review is complete.",
	Suggestion: "The parties shall perform their respective obligations under this clause reasonably and in good " +
		"faith, and no party shall be bound by any obligation under this clause that is not expressly set out " +
		"in this Agreement or in a written amendment signed by both parties.",
	RiskLevel: models.RiskMedium,
}

// DefaultTemplates returns the built-in template set, one per taxonomy type.
func DefaultTemplates() StaticTemplates {
	return StaticTemplates{
		models.ClauseTypeLimitationOfLiability: {
			Title: models.ClauseTypeLimitationOfLiability.Label(),
			Explanation: "This clause restricts how much one party can recover if the other breaches the contract. " +
				"As written it may exclude liability for most losses or set a cap so low that you would carry the " +
				"cost of the other party's failures yourself. The rewrite makes the cap mutual, ties it to the fees " +
				"actually paid, and keeps liability uncapped for fraud, gross negligence, wilful misconduct and " +
				"breaches of confidentiality.",
			Suggestion: "Except for liability arising from fraud, gross negligence, wilful misconduct, breach of " +
				"confidentiality obligations, or a party's indemnification obligations, neither party shall be liable " +
				"to the other for any indirect, incidental, special or consequential damages, including loss of profits, " +
				"revenue or data, arising out of or relating to this Agreement. Subject to the foregoing exceptions, each " +
				"party's aggregate liability arising out of or relating to this Agreement shall not exceed the total fees " +
				"paid or payable under this Agreement in the twelve (12) months preceding the event giving rise to the claim.",
			RiskLevel: models.RiskHigh,
		},
		models.ClauseTypeIndemnification: {
			Title: models.ClauseTypeIndemnification.Label(),
			Explanation: "This clause decides who pays when a third party makes a claim connected to the contract. " +
				"One-sided or open-ended wording can make you responsible for claims you did not cause and could not " +
				"control, with no limit on the amount. The rewrite makes the indemnity mutual, limits it to claims caused " +
				"by each party's own breach or negligence, and sets out a fair procedure for handling claims.",
			Suggestion: "Each party (the \"Indemnifying Party\") shall defend, indemnify and hold harmless the other party " +
				"and its officers, directors and employees (the \"Indemnified Party\") from and against any third-party " +
				"claims, losses, damages and reasonable legal fees to the extent arising from the Indemnifying Party's " +
				"breach of this Agreement, negligence or wilful misconduct. The Indemnified Party shall give prompt written " +
				"notice of any claim, allow the Indemnifying Party to control the defence and settlement of the claim, and " +
				"provide reasonable cooperation at the Indemnifying Party's expense, provided that no settlement admitting " +
				"fault on behalf of the Indemnified Party shall be made without its prior written consent.",
			RiskLevel: models.RiskHigh,
		},
		models.ClauseTypeIntellectualProperty: {
			Title: models.ClauseTypeIntellectualProperty.Label(),
			Explanation: "This clause governs who owns the work, inventions and materials involved in the contract. " +
				"Broad transfer language can hand over rights to things you created before the contract or outside its " +
				"scope, and may leave you unable to reuse your own know-how. The rewrite separates pre-existing rights " +
				"from newly created deliverables and transfers only what is paid for, with a licence back where needed.",
			Suggestion: "Each party retains all right, title and interest in and to its intellectual property existing " +
				"before the Effective Date or developed independently of this Agreement (\"Background IP\"). Upon full payment " +
				"of the applicable fees, all intellectual property rights in the deliverables specifically created for the " +
				"Client under this Agreement shall vest in the Client. To the extent any Background IP is incorporated into " +
				"a deliverable, the owning party grants the other party a non-exclusive, royalty-free, perpetual licence to " +
				"use that Background IP solely as part of the deliverable.",
			RiskLevel: models.RiskHigh,
		},
		models.ClauseTypeTermination: {
			Title: models.ClauseTypeTermination.Label(),
			Explanation: "This clause controls when and how the contract can be ended. If only one party can terminate, " +
				"or termination is allowed without notice, you could lose the contract suddenly with work unpaid or " +
				"commitments left stranded. The rewrite gives both parties the same termination rights, requires written " +
				"notice and a chance to fix breaches, and guarantees payment for work already performed.",
			Suggestion: "Either party may terminate this Agreement for convenience upon thirty (30) days' prior written " +
				"notice to the other party. Either party may terminate this Agreement immediately upon written notice if the " +
				"other party materially breaches this Agreement and fails to cure such breach within fifteen (15) days after " +
				"receiving written notice describing the breach. Upon any termination, the Client shall pay for all services " +
				"performed and expenses properly incurred up to the effective date of termination, and each party shall " +
				"return or destroy the other party's confidential information.",
			RiskLevel: models.RiskMedium,
		},
		models.ClauseTypePaymentTerms: {
			Title: models.ClauseTypePaymentTerms.Label(),
			Explanation: "This clause sets out how much is paid, when, and what happens if payment is late. Unclear due " +
				"dates, open-ended price changes or the absence of late-payment remedies can delay your cash flow or " +
				"expose you to unexpected costs. The rewrite fixes the payment period, provides a dispute process for " +
				"invoices and allows interest and suspension of services when payment is overdue.",
			Suggestion: "The Client shall pay each undisputed invoice within thirty (30) days of the invoice date. If the " +
				"Client disputes any portion of an invoice in good faith, it shall notify the Provider in writing within " +
				"ten (10) days of receipt, pay the undisputed portion, and the parties shall cooperate to resolve the " +
				"dispute promptly. Overdue amounts shall bear interest at the lesser of one percent (1%) per month or the " +
				"maximum rate permitted by law, and the Provider may suspend performance upon ten (10) days' written notice " +
				"if any undisputed amount remains unpaid. Fees may be changed only by written agreement of both parties.",
			RiskLevel: models.RiskMedium,
		},
		models.ClauseTypeConfidentiality: {
			Title: models.ClauseTypeConfidentiality.Label(),
			Explanation: "This clause protects sensitive information shared under the contract. If it protects only one " +
				"party, lacks standard exceptions or has no time limit, you may be unable to use information you already " +
				"had or be bound indefinitely. The rewrite makes the obligation mutual, defines the usual exceptions and " +
				"sets a clear duration.",
			Suggestion: "Each party shall keep confidential all non-public information disclosed by the other party in " +
				"connection with this Agreement (\"Confidential Information\"), use it solely to perform this Agreement, and " +
				"disclose it only to its employees and advisers who need to know it and are bound by equivalent obligations. " +
				"Confidential Information does not include information that is or becomes public through no fault of the " +
				"receiving party, was lawfully known to the receiving party before disclosure, is independently developed, " +
				"or is lawfully received from a third party without restriction. A party may disclose Confidential Information " +
				"where required by law after giving the other party prompt notice where lawful. These obligations continue " +
				"for three (3) years after termination of this Agreement.",
			RiskLevel: models.RiskMedium,
		},
		models.ClauseTypeWarranty: {
			Title: models.ClauseTypeWarranty.Label(),
			Explanation: "This clause states what each party promises about the quality of the work or products. Broad " +
				"disclaimers can leave you with no remedy if the deliverables are defective, while overly wide promises " +
				"can expose you to claims you cannot control. The rewrite gives a clear, time-limited performance " +
				"warranty with a defined remedy and a reasonable disclaimer of everything else.",
			Suggestion: "The Provider warrants that the services will be performed in a professional and workmanlike " +
				"manner consistent with generally accepted industry standards, and that the deliverables will materially " +
				"conform to their agreed specifications for ninety (90) days after delivery. If a deliverable fails to " +
				"conform during that period, the Provider shall, at its own expense, correct or re-perform the " +
				"non-conforming work within a reasonable time after written notice. Except as expressly stated in this " +
				"Agreement, neither party makes any other warranty, express or implied.",
			RiskLevel: models.RiskMedium,
		},
		models.ClauseTypeGoverningLaw: {
			Title: models.ClauseTypeGoverningLaw.Label(),
			Explanation: "This clause decides which law applies and where disputes are heard. A distant or unfamiliar " +
				"jurisdiction can make enforcing your rights slow and expensive. The rewrite names a single governing law, " +
				"adds a good-faith negotiation step before litigation and fixes a neutral forum.",
			Suggestion: "This Agreement shall be governed by and construed in accordance with the laws of the jurisdiction " +
				"agreed by the parties in the signature block, without regard to its conflict of laws principles. The parties " +
				"shall first attempt in good faith to resolve any dispute arising out of or relating to this Agreement through " +
				"negotiation between senior representatives for a period of thirty (30) days. Any dispute not so resolved " +
				"shall be submitted to the exclusive jurisdiction of the competent courts of that jurisdiction, and each party " +
				"irrevocably submits to such jurisdiction.",
			RiskLevel: models.RiskLow,
		},
		models.ClauseTypeAssignment: {
			Title: models.ClauseTypeAssignment.Label(),
			Explanation: "This clause controls whether the contract can be transferred to someone else. If the other party " +
				"can assign freely, you may end up bound to a company you never chose to work with. The rewrite requires " +
				"consent for assignment while allowing a transfer as part of a genuine merger or sale of the business.",
			Suggestion: "Neither party may assign or transfer this Agreement, or any of its rights or obligations under it, " +
				"without the prior written consent of the other party, which shall not be unreasonably withheld or delayed. " +
				"Either party may, however, assign this Agreement without consent to a successor in connection with a merger, " +
				"acquisition or sale of all or substantially all of its assets, provided the successor agrees in writing to be " +
				"bound by this Agreement. Any attempted assignment in violation of this clause is void.",
			RiskLevel: models.RiskLow,
		},
		models.ClauseTypeOther: GenericTemplate(models.ClauseTypeOther),
	}
}

// GenericTemplate returns the generic provision template titled for t.
func GenericTemplate(t models.ClauseType) Template {
	tpl := genericProvision
	tpl.Title = t.Label()
	return tpl
}

// fallbackTemplate resolves the template for t. A type without a dedicated
// template gets the generic provision; a dedicated template that is missing
// text gets the absolute fallback.
func fallbackTemplate(provider TemplateProvider, t models.ClauseType) (Template, models.RecommendationSource) {
	if provider == nil {
		return GenericTemplate(t), models.SourceTemplate
	}
	tpl, ok := provider.Template(t)
	if !ok {
		return GenericTemplate(t), models.SourceTemplate
	}
	if !tpl.complete() {
		return absoluteFallback, models.SourceGeneric
	}
	return tpl, models.SourceTemplate
}
