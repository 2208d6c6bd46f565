package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"clauseguard-backend/models"
	"clauseguard-backend/pipeline"
)

const recommendationInstruction = `You are an experienced commercial contracts lawyer reviewing clauses for a non-lawyer client.
Use plain language in explanations and formal legal drafting in suggested clauses.
Never invent facts, party names, amounts or dates that are not in the original clause or the reference clause.`

const recommendationPrompt = `Review each contract clause below against the reference clause of the same type.

For every clause return one object with:
- "id": the id of the clause exactly as given
- "riskLevel": "high", "medium" or "low"
- "explanation": three to five plain-language sentences covering what risk the clause creates, why the current wording is unfavourable, and how the rewrite mitigates it
- "suggestion": a complete replacement clause ready to paste into the contract, not commentary

Return exactly %d objects, one per clause, in the same order.

CLAUSES:
%s`

const extractionInstruction = `You extract clauses from contract documents. Copy clause text verbatim and do not summarise.`

const extractionPrompt = `Extract the full text of the attached contract and split it into its individual clauses.
Classify each clause as one of: %s.
Use "other" for clauses that fit none of the specific types. Omit signature blocks, headers and page numbers.`

type promptClause struct {
	ID            string `json:"id"`
	ClauseType    string `json:"clauseType"`
	OriginalText  string `json:"originalText"`
	ReferenceText string `json:"referenceText"`
}

func buildRecommendationPrompt(batch []pipeline.GenerationRequest) (string, error) {
	items := make([]promptClause, len(batch))
	for i, req := range batch {
		items[i] = promptClause{
			ID:            req.ID,
			ClauseType:    req.ClauseType.Label(),
			OriginalText:  req.OriginalText,
			ReferenceText: req.ReferenceText,
		}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal clauses: %w", err)
	}
	return fmt.Sprintf(recommendationPrompt, len(batch), data), nil
}

func buildExtractionPrompt() string {
	return fmt.Sprintf(extractionPrompt, strings.Join(clauseTypeEnum(), ", "))
}

var recommendationSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id":          {Type: genai.TypeString},
			"riskLevel":   {Type: genai.TypeString, Enum: []string{"high", "medium", "low"}},
			"explanation": {Type: genai.TypeString},
			"suggestion":  {Type: genai.TypeString},
		},
		Required: []string{"id", "riskLevel", "explanation", "suggestion"},
	},
}

func clauseTypeEnum() []string {
	types := models.ClauseTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

var extractionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"text": {Type: genai.TypeString},
		"clauses": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"content": {Type: genai.TypeString},
					"type":    {Type: genai.TypeString, Enum: clauseTypeEnum()},
				},
				Required: []string{"content"},
			},
		},
	},
	Required: []string{"text", "clauses"},
}

type generatedRecommendation struct {
	ID          string `json:"id"`
	RiskLevel   string `json:"riskLevel"`
	Explanation string `json:"explanation"`
	Suggestion  string `json:"suggestion"`
}

type extractedDocument struct {
	Text    string `json:"text"`
	Clauses []struct {
		Content string `json:"content"`
		Type    string `json:"type"`
	} `json:"clauses"`
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func parseRecommendations(text string) ([]pipeline.GenerationResult, error) {
	var items []generatedRecommendation
	if err := json.Unmarshal([]byte(stripFences(text)), &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	results := make([]pipeline.GenerationResult, len(items))
	for i, item := range items {
		results[i] = pipeline.GenerationResult{
			ID:          item.ID,
			RiskLevel:   models.RiskLevel(item.RiskLevel),
			Explanation: item.Explanation,
			Suggestion:  item.Suggestion,
		}
	}
	return results, nil
}

func parseExtraction(text string) (*models.Extraction, error) {
	var doc extractedDocument
	if err := json.Unmarshal([]byte(stripFences(text)), &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	out := &models.Extraction{Text: strings.TrimSpace(doc.Text)}
	for _, c := range doc.Clauses {
		content := strings.TrimSpace(c.Content)
		if content == "" {
			continue
		}
		// Unknown labels stay unset for the keyword classifier.
		t, _ := models.ParseClauseType(c.Type)
		out.Clauses = append(out.Clauses, models.Clause{
			Content:  content,
			Type:     t,
			Position: len(out.Clauses),
		})
	}
	return out, nil
}
