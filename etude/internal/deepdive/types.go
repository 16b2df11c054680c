package deepdive

import "github.com/hazyhaar/etude/etude/internal/gemini"

// ScoreItem is a 1-10 rating with its justification.
type ScoreItem struct {
	Score         int    `json:"score"`
	Justification string `json:"justification"`
}

// ViabilityScorecard rates the question on the five fixed axes.
type ViabilityScorecard struct {
	Novelty            ScoreItem `json:"novelty"`
	SourceAvailability ScoreItem `json:"sourceAvailability"`
	ImpactPotential    ScoreItem `json:"impactPotential"`
	ResearchComplexity ScoreItem `json:"researchComplexity"`
	DiscussionVolume   ScoreItem `json:"discussionVolume"`
}

// NamedItem is a (name, description) pair used for methodologies.
type NamedItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Requirement is one concrete prerequisite for the project.
type Requirement struct {
	Name    string `json:"name"`
	Details string `json:"details"`
}

// Feasibility covers the practical side of the viability report.
type Feasibility struct {
	ResearchGap           string        `json:"researchGap"`
	Methodologies         []NamedItem   `json:"methodologies"`
	Requirements          []Requirement `json:"requirements"`
	EthicalConsiderations string        `json:"ethicalConsiderations"`
}

// Contributor is a key entity in the field.
type Contributor struct {
	Name         string `json:"name"`
	Contribution string `json:"contribution"`
}

// Battleground separates what is agreed from what is debated.
type Battleground struct {
	CurrentConsensus   string        `json:"currentConsensus"`
	PointsOfContention []string      `json:"pointsOfContention"`
	KeyContributors    []Contributor `json:"keyContributors"`
}

// Phase is one stage of the project roadmap.
type Phase struct {
	Phase    string   `json:"phase"`
	Duration string   `json:"duration"`
	Tasks    []string `json:"tasks"`
}

// ReadingEntry is one cited source with a generated summary. Title and URL
// must match the supplied citation verbatim.
type ReadingEntry struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	SourceName string `json:"sourceName,omitempty"`
	AISummary  string `json:"aiSummary"`
}

// Report is the structured viability report for one research question.
type Report struct {
	Synopsis             string             `json:"synopsis"`
	PotentialAngles      []string           `json:"potentialAngles"`
	ViabilityScorecard   ViabilityScorecard `json:"viabilityScorecard"`
	Feasibility          Feasibility        `json:"feasibility"`
	AcademicBattleground Battleground       `json:"academicBattleground"`
	ProjectRoadmap       []Phase            `json:"projectRoadmap"`
	ReadingList          []ReadingEntry     `json:"readingList"`
}

// Forensics carries the raw grounding evidence alongside the report.
type Forensics struct {
	WebSearchQueries []string       `json:"webSearchQueries"`
	GroundingChunks  []gemini.Chunk `json:"groundingChunks"`
}

// Result is the final pipeline output: report plus forensic metadata.
// The merge performs no additional validation.
type Result struct {
	Analysis  *Report   `json:"analysis"`
	Forensics Forensics `json:"forensics"`
}
