package analyze

import "google.golang.org/genai"

func scoreSchema(desc string) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score":         {Type: genai.TypeInteger, Description: desc},
			"justification": {Type: genai.TypeString},
		},
		Required: []string{"score", "justification"},
	}
}

// Schema declares the exact field set of an Analysis for the model.
// Enforced at the service boundary; callers still handle missing fields
// defensively because the model occasionally strays anyway.
func Schema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {
				Type:        genai.TypeString,
				Description: "A concise, 3-4 sentence summary of the source's main content.",
			},
			"authorThesis": {
				Type:        genai.TypeString,
				Description: "A single sentence stating the author's central argument or thesis.",
			},
			"academicContext": {
				Type:        genai.TypeString,
				Description: "A paragraph on how this source contributes to the broader field: does it support, refute, or extend existing theories?",
			},
			"keyArguments": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "The 3-5 most important supporting arguments or findings.",
			},
			"directQuotes": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"quote":    {Type: genai.TypeString, Description: "An exact, verbatim quote highly relevant to the project question."},
						"analysis": {Type: genai.TypeString, Description: "1-2 sentences on why this quote matters for the project question."},
					},
				},
				Description: "3-4 of the most relevant direct quotes, each with an analysis.",
			},
			"methodology": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"type":    {Type: genai.TypeString, Description: "Primary research methodology, e.g. 'Qualitative Case Study'."},
					"details": {Type: genai.TypeString, Description: "How the methodology was applied in this source."},
				},
			},
			"evidence": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "The primary data or evidence the source relies on.",
			},
			"limitations": {
				Type:        genai.TypeString,
				Description: "Critical analysis of weaknesses, unaddressed questions, or biases.",
			},
			"targetAudience": {
				Type:        genai.TypeString,
				Description: "The intended audience, e.g. 'Academic Specialists'.",
			},
			"keyDefinitions": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"term":       {Type: genai.TypeString},
						"definition": {Type: genai.TypeString},
					},
				},
				Description: "A glossary of 2-4 important terms defined in the source.",
			},
			"scorecard": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"relevance":   scoreSchema("Score 1-10. How directly relevant is this source to the project question?"),
					"credibility": scoreSchema("Score 1-10. Is the source reputable and well-cited?"),
					"depth":       scoreSchema("Score 1-10. How deeply does the source explore the topic?"),
					"novelty":     scoreSchema("Score 1-10. Does this source introduce new ideas or review existing ones?"),
				},
				Required: []string{"relevance", "credibility", "depth", "novelty"},
			},
		},
		Required: []string{
			"summary", "authorThesis", "academicContext", "keyArguments",
			"directQuotes", "methodology", "evidence", "limitations",
			"targetAudience", "keyDefinitions", "scorecard",
		},
	}
}
