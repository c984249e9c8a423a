package report

import (
	"strings"
	"testing"

	"github.com/hyperjump/hanron/internal/models"
)

func sampleClaims() []models.Claim {
	return []models.Claim{
		{ClaimID: "c1", ClaimText: "Revenue was overstated.", ClaimType: "financial", PageNumbers: []int{1}},
		{ClaimID: "c2", ClaimText: "The CFO resigned.", ClaimType: "governance", PageNumbers: []int{2}},
		{ClaimID: "c3", ClaimText: "Inventory is obsolete.", ClaimType: "accounting", PageNumbers: []int{3}},
	}
}

func sampleAnalyses() []models.ClaimAnalysis {
	return []models.ClaimAnalysis{
		{
			ClaimID:    "c1",
			Coverage:   models.CoverageFullyAddressed,
			Reasoning:  "Audited figures contradict the claim.",
			Confidence: 90,
			Citations: []models.Citation{
				{DocTitle: "Audit 2023.pdf", ChunkID: "audit_2023_chunk_0", Quote: "Revenue confirmed."},
				{DocTitle: "Audit 2023.pdf", ChunkID: "audit_2023_chunk_1", Quote: "No restatement."},
			},
		},
		{
			ClaimID:    "c2",
			Coverage:   models.CoveragePartiallyAddressed,
			Reasoning:  "Resignation letter is on file but lacks context.",
			Confidence: 50,
			Gaps:       []string{"No board minutes covering the transition."},
			RecommendedActions: []string{
				"Obtain board minutes from March.",
			},
		},
		{
			ClaimID:    "c3",
			Coverage:   models.CoverageNotAddressed,
			Reasoning:  "Automated judgment failed.",
			Confidence: 0,
			Degraded:   true,
		},
	}
}

func TestBuildSummary(t *testing.T) {
	r := Build("r-1", sampleClaims(), sampleAnalyses())
	s := r.Summary
	if s.TotalClaims != 3 || s.FullyAddressed != 1 || s.PartiallyAddressed != 1 || s.NotAddressed != 1 {
		t.Errorf("unexpected coverage counts: %+v", s)
	}
	if s.DegradedClaims != 1 {
		t.Errorf("degraded = %d, want 1", s.DegradedClaims)
	}
	if s.AverageConfidence != 46 {
		t.Errorf("average confidence = %d, want 46", s.AverageConfidence)
	}
	if r.GeneratedAt.IsZero() {
		t.Error("generated_at not set")
	}
}

func TestBuildEmpty(t *testing.T) {
	r := Build("r-2", nil, nil)
	if r.Summary.TotalClaims != 0 || r.Summary.AverageConfidence != 0 {
		t.Errorf("empty report summary not zeroed: %+v", r.Summary)
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(Build("r-3", sampleClaims(), sampleAnalyses()))
	for _, want := range []string{
		"# Rebuttal Analysis Report",
		"**Report ID:** r-3",
		"| Total claims | 3 |",
		"Revenue was overstated.",
		"**Coverage:** Fully Addressed",
		"audit_2023_chunk_0",
		"No board minutes covering the transition.",
		"Obtain board minutes from March.",
		"(judgment degraded)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if strings.Contains(md, "**Gaps:**\n\n\n") {
		t.Error("empty gaps section rendered")
	}
}
