package report

import (
	"fmt"
	"strings"

	"github.com/hyperjump/hanron/internal/models"
	"github.com/hyperjump/hanron/pkg/utils"
)

var coverageLabels = map[models.Coverage]string{
	models.CoverageFullyAddressed:     "Fully Addressed",
	models.CoveragePartiallyAddressed: "Partially Addressed",
	models.CoverageNotAddressed:       "Not Addressed",
}

// RenderMarkdown renders the narrative form of a report. The claim list is
// joined with analyses by claim id so reordering in either slice is harmless.
func RenderMarkdown(r models.Report) string {
	claimText := make(map[string]models.Claim, len(r.Claims))
	for _, c := range r.Claims {
		claimText[c.ClaimID] = c
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Rebuttal Analysis Report\n\n")
	fmt.Fprintf(&b, "**Report ID:** %s\n\n", r.ReportID)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total claims | %d |\n", r.Summary.TotalClaims)
	fmt.Fprintf(&b, "| Fully addressed | %d |\n", r.Summary.FullyAddressed)
	fmt.Fprintf(&b, "| Partially addressed | %d |\n", r.Summary.PartiallyAddressed)
	fmt.Fprintf(&b, "| Not addressed | %d |\n", r.Summary.NotAddressed)
	fmt.Fprintf(&b, "| Average confidence | %d%% |\n", r.Summary.AverageConfidence)
	if r.Summary.DegradedClaims > 0 {
		fmt.Fprintf(&b, "| Degraded judgments | %d |\n", r.Summary.DegradedClaims)
	}
	b.WriteString("\n## Claim Analyses\n")

	for i, a := range r.Analyses {
		claim := claimText[a.ClaimID]
		fmt.Fprintf(&b, "\n### %d. %s\n\n", i+1, a.ClaimID)
		if claim.ClaimText != "" {
			fmt.Fprintf(&b, "> %s\n\n", claim.ClaimText)
		}
		if claim.ClaimType != "" {
			fmt.Fprintf(&b, "**Type:** %s\n\n", claim.ClaimType)
		}
		label := coverageLabels[a.Coverage]
		if label == "" {
			label = string(a.Coverage)
		}
		fmt.Fprintf(&b, "**Coverage:** %s", label)
		if a.Degraded {
			b.WriteString(" (judgment degraded)")
		}
		fmt.Fprintf(&b, "\n\n**Confidence:** %d%%\n\n", a.Confidence)
		if a.Reasoning != "" {
			fmt.Fprintf(&b, "**Reasoning:**\n\n%s\n\n", a.Reasoning)
		}
		if len(a.Citations) > 0 {
			b.WriteString("**Evidence:**\n\n")
			for _, c := range a.Citations {
				fmt.Fprintf(&b, "- %s (`%s`): %s\n", c.DocTitle, c.ChunkID, utils.Truncate(c.Quote, 300))
			}
			b.WriteString("\n")
		}
		if len(a.Gaps) > 0 {
			b.WriteString("**Gaps:**\n\n")
			for _, g := range a.Gaps {
				fmt.Fprintf(&b, "- %s\n", g)
			}
			b.WriteString("\n")
		}
		if len(a.RecommendedActions) > 0 {
			b.WriteString("**Recommended actions:**\n\n")
			for _, act := range a.RecommendedActions {
				fmt.Fprintf(&b, "- %s\n", act)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
