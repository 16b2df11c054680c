package deepdive

import "google.golang.org/genai"

func scoreItem() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score":         {Type: genai.TypeInteger},
			"justification": {Type: genai.TypeString},
		},
		Required: []string{"score", "justification"},
	}
}

// Schema declares the DeepDiveReport contract for the structuring stage.
func Schema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"synopsis": {Type: genai.TypeString},
			"potentialAngles": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"viabilityScorecard": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"novelty":            scoreItem(),
					"sourceAvailability": scoreItem(),
					"impactPotential":    scoreItem(),
					"researchComplexity": scoreItem(),
					"discussionVolume":   scoreItem(),
				},
				Required: []string{"novelty", "sourceAvailability", "impactPotential", "researchComplexity", "discussionVolume"},
			},
			"feasibility": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"researchGap": {Type: genai.TypeString},
					"methodologies": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"name":        {Type: genai.TypeString},
								"description": {Type: genai.TypeString},
							},
						},
					},
					"requirements": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"name":    {Type: genai.TypeString},
								"details": {Type: genai.TypeString},
							},
						},
					},
					"ethicalConsiderations": {Type: genai.TypeString},
				},
			},
			"academicBattleground": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"currentConsensus": {Type: genai.TypeString},
					"pointsOfContention": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
					"keyContributors": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"name":         {Type: genai.TypeString},
								"contribution": {Type: genai.TypeString},
							},
						},
					},
				},
			},
			"projectRoadmap": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"phase":    {Type: genai.TypeString},
						"duration": {Type: genai.TypeString},
						"tasks": {
							Type:  genai.TypeArray,
							Items: &genai.Schema{Type: genai.TypeString},
						},
					},
				},
			},
			"readingList": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title": {Type: genai.TypeString},
						"url":   {Type: genai.TypeString},
						"sourceName": {
							Type:        genai.TypeString,
							Description: "The name of the publication or website, e.g. 'Nature'.",
						},
						"aiSummary": {Type: genai.TypeString},
					},
				},
			},
		},
		Required: []string{
			"synopsis", "potentialAngles", "viabilityScorecard",
			"feasibility", "academicBattleground", "projectRoadmap", "readingList",
		},
	}
}
