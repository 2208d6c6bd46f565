package models

// Extraction is what a text extractor recovers from an uploaded document.
// Clauses is empty when only raw text is available; the text is then split
// on paragraph boundaries before analysis.
type Extraction struct {
	Text    string   `json:"text"`
	Clauses []Clause `json:"clauses,omitempty"`
}
