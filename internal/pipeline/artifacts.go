package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/hanron/internal/models"
)

// Artifacts persists per-report pipeline artifacts as JSON files under the
// reports directory. File presence is the pipeline's only stage signal.
type Artifacts struct {
	dir string
}

// NewArtifacts creates the store, ensuring the reports directory exists.
func NewArtifacts(dir string) (*Artifacts, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}
	return &Artifacts{dir: dir}, nil
}

// Dir returns the reports directory.
func (a *Artifacts) Dir() string { return a.dir }

func (a *Artifacts) extractedPath(reportID string) string {
	return filepath.Join(a.dir, reportID+".extracted.json")
}

func (a *Artifacts) claimsPath(reportID string) string {
	return filepath.Join(a.dir, reportID+".claims.json")
}

// ReportPath returns the path of the structured report artifact, or the
// Markdown rendering when markdown is true.
func (a *Artifacts) ReportPath(reportID string, markdown bool) string {
	if markdown {
		return filepath.Join(a.dir, reportID+".report.md")
	}
	return filepath.Join(a.dir, reportID+".report.json")
}

// RawPath returns where the uploaded report file itself is stored.
func (a *Artifacts) RawPath(reportID, ext string) string {
	return filepath.Join(a.dir, reportID+ext)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (a *Artifacts) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (a *Artifacts) readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", filepath.Base(path), models.ErrNotFound)
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteExtracted persists the upload-stage artifact. It never overwrites.
func (a *Artifacts) WriteExtracted(art *models.ExtractedArtifact) error {
	return a.writeJSON(a.extractedPath(art.ReportID), art)
}

// ReadExtracted loads the upload-stage artifact, wrapping models.ErrNotFound
// when the report id is unknown.
func (a *Artifacts) ReadExtracted(reportID string) (*models.ExtractedArtifact, error) {
	var art models.ExtractedArtifact
	if err := a.readJSON(a.extractedPath(reportID), &art); err != nil {
		return nil, err
	}
	return &art, nil
}

// HasClaims reports whether the claim-extraction stage already ran.
func (a *Artifacts) HasClaims(reportID string) bool {
	_, err := os.Stat(a.claimsPath(reportID))
	return err == nil
}

// WriteClaims persists the claim-extraction artifact.
func (a *Artifacts) WriteClaims(art *models.ClaimsArtifact) error {
	return a.writeJSON(a.claimsPath(art.ReportID), art)
}

// ReadClaims loads the claim-extraction artifact.
func (a *Artifacts) ReadClaims(reportID string) (*models.ClaimsArtifact, error) {
	var art models.ClaimsArtifact
	if err := a.readJSON(a.claimsPath(reportID), &art); err != nil {
		return nil, err
	}
	return &art, nil
}

// WriteReport persists both report renderings, overwriting previous runs.
func (a *Artifacts) WriteReport(r models.Report, markdown string) error {
	if err := a.writeJSON(a.ReportPath(r.ReportID, false), r); err != nil {
		return err
	}
	if err := os.WriteFile(a.ReportPath(r.ReportID, true), []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("write report markdown: %w", err)
	}
	return nil
}

// ReadReport loads the structured report artifact.
func (a *Artifacts) ReadReport(reportID string) (*models.Report, error) {
	var r models.Report
	if err := a.readJSON(a.ReportPath(reportID, false), &r); err != nil {
		return nil, err
	}
	return &r, nil
}
