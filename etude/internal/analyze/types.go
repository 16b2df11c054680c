package analyze

// Quote is a verbatim excerpt with its significance to the question.
type Quote struct {
	Quote    string `json:"quote"`
	Analysis string `json:"analysis"`
}

// Methodology describes how the source's research was conducted.
type Methodology struct {
	Type    string `json:"type"`
	Details string `json:"details"`
}

// Definition is one glossary entry found in the source.
type Definition struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Score is a 1-10 rating with its justification.
type Score struct {
	Score         int    `json:"score"`
	Justification string `json:"justification"`
}

// Scorecard rates the source on the four fixed axes.
type Scorecard struct {
	Relevance   Score `json:"relevance"`
	Credibility Score `json:"credibility"`
	Depth       Score `json:"depth"`
	Novelty     Score `json:"novelty"`
}

// Analysis is the structured critique of one source for one question.
type Analysis struct {
	Summary         string       `json:"summary"`
	AuthorThesis    string       `json:"authorThesis"`
	AcademicContext string       `json:"academicContext"`
	KeyArguments    []string     `json:"keyArguments"`
	DirectQuotes    []Quote      `json:"directQuotes"`
	Methodology     Methodology  `json:"methodology"`
	Evidence        []string     `json:"evidence"`
	Limitations     string       `json:"limitations"`
	TargetAudience  string       `json:"targetAudience"`
	KeyDefinitions  []Definition `json:"keyDefinitions"`
	Scorecard       Scorecard    `json:"scorecard"`
}

// fill substitutes the NotAvailable marker for anything the model omitted
// and clamps scores into [1,10]. The invariant is that no field of a
// returned Analysis is ever empty.
func (a *Analysis) fill() {
	fillStr(&a.Summary)
	fillStr(&a.AuthorThesis)
	fillStr(&a.AcademicContext)
	fillStr(&a.Methodology.Type)
	fillStr(&a.Methodology.Details)
	fillStr(&a.Limitations)
	fillStr(&a.TargetAudience)
	if len(a.KeyArguments) == 0 {
		a.KeyArguments = []string{NotAvailable}
	}
	if len(a.Evidence) == 0 {
		a.Evidence = []string{NotAvailable}
	}
	if a.DirectQuotes == nil {
		a.DirectQuotes = []Quote{}
	}
	if a.KeyDefinitions == nil {
		a.KeyDefinitions = []Definition{}
	}
	fillScore(&a.Scorecard.Relevance)
	fillScore(&a.Scorecard.Credibility)
	fillScore(&a.Scorecard.Depth)
	fillScore(&a.Scorecard.Novelty)
}

func fillStr(s *string) {
	if *s == "" {
		*s = NotAvailable
	}
}

func fillScore(s *Score) {
	if s.Score < 1 {
		s.Score = 1
	}
	if s.Score > 10 {
		s.Score = 10
	}
	fillStr(&s.Justification)
}
