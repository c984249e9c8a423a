package models

import "time"

// Report aggregates all claim analyses for one report id. It is the single
// source of truth behind both the structured (JSON) and narrative
// (Markdown) renderings.
type Report struct {
	ReportID    string          `json:"report_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Claims      []Claim         `json:"claims"`
	Analyses    []ClaimAnalysis `json:"analyses"`
	Summary     ReportSummary   `json:"summary"`
}

// ReportSummary holds coverage counts and the mean confidence over all analyses.
type ReportSummary struct {
	TotalClaims        int `json:"total_claims"`
	FullyAddressed     int `json:"fully_addressed"`
	PartiallyAddressed int `json:"partially_addressed"`
	NotAddressed       int `json:"not_addressed"`
	DegradedClaims     int `json:"degraded_claims"`
	AverageConfidence  int `json:"average_confidence"`
}

// ExtractedArtifact is the persisted result of the upload stage: the raw
// page texts of the uploaded short report.
type ExtractedArtifact struct {
	ReportID    string    `json:"report_id"`
	Filename    string    `json:"filename"`
	FileType    string    `json:"file_type"`
	ExtractedAt time.Time `json:"extracted_at"`
	Pages       []Page    `json:"pages"`
}

// ClaimsArtifact is the persisted result of the claim-extraction stage.
type ClaimsArtifact struct {
	ReportID    string    `json:"report_id"`
	ExtractedAt time.Time `json:"extracted_at"`
	Claims      []Claim   `json:"claims"`
}
