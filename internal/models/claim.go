package models

// Coverage classifies how well retrieved evidence addresses a claim.
type Coverage string

const (
	CoverageFullyAddressed     Coverage = "fully_addressed"
	CoveragePartiallyAddressed Coverage = "partially_addressed"
	CoverageNotAddressed       Coverage = "not_addressed"
)

// Valid reports whether c is one of the three known coverage values.
func (c Coverage) Valid() bool {
	switch c {
	case CoverageFullyAddressed, CoveragePartiallyAddressed, CoverageNotAddressed:
		return true
	}
	return false
}

// Claim is a discrete, checkable factual assertion extracted from a short
// report. Created once per report by the claim extractor, immutable after.
type Claim struct {
	ClaimID     string `json:"claim_id"`
	ClaimText   string `json:"claim_text"`
	ClaimType   string `json:"claim_type"`
	PageNumbers []int  `json:"page_numbers"`
}

// Citation references one indexed chunk of internal evidence with its
// quoted text. Always traceable back to a Chunk by ChunkID.
type Citation struct {
	DocTitle string `json:"doc_title"`
	ChunkID  string `json:"chunk_id"`
	Quote    string `json:"quote"`
}

// ClaimAnalysis is the judgment for one claim. Gaps and RecommendedActions
// are present only when Coverage is not fully_addressed. Degraded marks an
// analysis produced by the safe fallback path (judgment failure recovered
// locally) rather than a completed model judgment.
type ClaimAnalysis struct {
	ClaimID            string     `json:"claim_id"`
	Coverage           Coverage   `json:"coverage"`
	Reasoning          string     `json:"reasoning"`
	Citations          []Citation `json:"citations"`
	Confidence         int        `json:"confidence"`
	Gaps               []string   `json:"gaps,omitempty"`
	RecommendedActions []string   `json:"recommended_actions,omitempty"`
	Degraded           bool       `json:"degraded,omitempty"`
}

// ClampConfidence bounds v to [0, 100].
func ClampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
