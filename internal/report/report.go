// Package report assembles per-claim analyses into the final rebuttal
// report and its renderings.
package report

import (
	"time"

	"github.com/hyperjump/hanron/internal/models"
)

// Build assembles the report aggregate for one report id. Summary counts
// and the confidence average are derived here so both renderings share one
// source of truth.
func Build(reportID string, claims []models.Claim, analyses []models.ClaimAnalysis) models.Report {
	summary := models.ReportSummary{TotalClaims: len(analyses)}
	confidenceSum := 0
	for _, a := range analyses {
		switch a.Coverage {
		case models.CoverageFullyAddressed:
			summary.FullyAddressed++
		case models.CoveragePartiallyAddressed:
			summary.PartiallyAddressed++
		default:
			summary.NotAddressed++
		}
		if a.Degraded {
			summary.DegradedClaims++
		}
		confidenceSum += a.Confidence
	}
	if len(analyses) > 0 {
		summary.AverageConfidence = confidenceSum / len(analyses)
	}
	return models.Report{
		ReportID:    reportID,
		GeneratedAt: time.Now().UTC(),
		Claims:      claims,
		Analyses:    analyses,
		Summary:     summary,
	}
}
