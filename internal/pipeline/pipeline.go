// Package pipeline orchestrates the staged rebuttal workflow: upload →
// claim extraction → analysis. Each stage persists its artifact and later
// stages trust artifact presence alone.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/hanron/internal/claims"
	"github.com/hyperjump/hanron/internal/config"
	"github.com/hyperjump/hanron/internal/extract"
	"github.com/hyperjump/hanron/internal/models"
	"github.com/hyperjump/hanron/internal/report"
	"github.com/hyperjump/hanron/internal/retrieval"
)

// reportExtensions are the upload formats accepted for short reports.
var reportExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".docx": true,
	".doc":  true,
}

// Pipeline wires the extractor, claim components, and retriever behind the
// three staged operations.
type Pipeline struct {
	cfg       *config.Config
	artifacts *Artifacts
	extractor *extract.Extractor
	claims    *claims.Extractor
	judge     *claims.Judge
	retriever *retrieval.Retriever
	logger    *zap.Logger
}

// New creates the pipeline orchestrator.
func New(cfg *config.Config, artifacts *Artifacts, extractor *extract.Extractor,
	claimExtractor *claims.Extractor, judge *claims.Judge,
	retriever *retrieval.Retriever, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:       cfg,
		artifacts: artifacts,
		extractor: extractor,
		claims:    claimExtractor,
		judge:     judge,
		retriever: retriever,
		logger:    logger,
	}
}

// Artifacts exposes the artifact store for transport handlers (downloads).
func (p *Pipeline) Artifacts() *Artifacts { return p.artifacts }

// Upload ingests a short report: validates the extension, assigns a fresh
// report id, saves the raw file, extracts page text (bounded by
// claims.max_pages), and persists the extracted artifact.
func (p *Pipeline) Upload(ctx context.Context, filename string, data []byte) (*models.ExtractedArtifact, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !reportExtensions[ext] {
		return nil, fmt.Errorf("unsupported report format %q: %w", ext, models.ErrFormat)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload: %w", models.ErrFormat)
	}

	reportID := uuid.NewString()
	rawPath := p.artifacts.RawPath(reportID, ext)
	if err := writeFile(rawPath, data); err != nil {
		return nil, err
	}

	pages, err := p.extractor.ExtractBytes(data, ext, p.cfg.Claims.MaxPages)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}
	if pagesEmpty(pages) {
		return nil, fmt.Errorf("no text extracted from %s: %w", filename, models.ErrFormat)
	}

	art := &models.ExtractedArtifact{
		ReportID:    reportID,
		Filename:    filename,
		FileType:    strings.TrimPrefix(ext, "."),
		ExtractedAt: time.Now().UTC(),
		Pages:       pages,
	}
	if err := p.artifacts.WriteExtracted(art); err != nil {
		return nil, err
	}
	p.logger.Info("report uploaded",
		zap.String("report_id", reportID),
		zap.String("filename", filename),
		zap.Int("pages", len(pages)))
	return art, nil
}

// ExtractClaims runs the claim-extraction stage. When the claims artifact
// already exists it is returned unchanged and no model call is made.
func (p *Pipeline) ExtractClaims(ctx context.Context, reportID string) (*models.ClaimsArtifact, bool, error) {
	if p.artifacts.HasClaims(reportID) {
		art, err := p.artifacts.ReadClaims(reportID)
		if err != nil {
			return nil, false, err
		}
		p.logger.Info("returning cached claims",
			zap.String("report_id", reportID),
			zap.Int("count", len(art.Claims)))
		return art, true, nil
	}

	extracted, err := p.artifacts.ReadExtracted(reportID)
	if err != nil {
		return nil, false, err
	}
	claimList, err := p.claims.Extract(ctx, extracted.Pages)
	if err != nil {
		return nil, false, err
	}
	art := &models.ClaimsArtifact{
		ReportID:    reportID,
		ExtractedAt: time.Now().UTC(),
		Claims:      claimList,
	}
	if err := p.artifacts.WriteClaims(art); err != nil {
		return nil, false, err
	}
	return art, false, nil
}

// Analyze runs retrieval and judgment for every extracted claim and writes
// both report renderings. A failed judgment degrades that claim's analysis
// rather than aborting the batch; re-running overwrites the previous report.
func (p *Pipeline) Analyze(ctx context.Context, reportID string, topK, maxClaims int) (*models.Report, error) {
	art, err := p.artifacts.ReadClaims(reportID)
	if err != nil {
		return nil, err
	}
	claimList := art.Claims
	if maxClaims > 0 && len(claimList) > maxClaims {
		claimList = claimList[:maxClaims]
	}
	p.logger.Info("analyzing claims",
		zap.String("report_id", reportID),
		zap.Int("count", len(claimList)))

	analyses := make([]models.ClaimAnalysis, 0, len(claimList))
	for i, claim := range claimList {
		p.logger.Debug("processing claim",
			zap.Int("n", i+1),
			zap.Int("total", len(claimList)),
			zap.String("claim_id", claim.ClaimID))

		citations, err := p.retriever.Retrieve(ctx, claim.ClaimText, topK)
		if err != nil {
			p.logger.Warn("retrieval failed for claim",
				zap.String("claim_id", claim.ClaimID), zap.Error(err))
			analyses = append(analyses, models.ClaimAnalysis{
				ClaimID:            claim.ClaimID,
				Coverage:           models.CoverageNotAddressed,
				Reasoning:          "Evidence retrieval failed for this claim; it was not evaluated.",
				Citations:          []models.Citation{},
				Confidence:         0,
				Gaps:               []string{"Evidence retrieval could not be completed."},
				RecommendedActions: []string{"Verify the evidence index and re-run the analysis."},
				Degraded:           true,
			})
			continue
		}
		analyses = append(analyses, p.judge.Judge(ctx, claim, citations))
	}

	rpt := report.Build(reportID, claimList, analyses)
	if err := p.artifacts.WriteReport(rpt, report.RenderMarkdown(rpt)); err != nil {
		return nil, err
	}
	p.logger.Info("report generated",
		zap.String("report_id", reportID),
		zap.Int("fully", rpt.Summary.FullyAddressed),
		zap.Int("partially", rpt.Summary.PartiallyAddressed),
		zap.Int("not", rpt.Summary.NotAddressed))
	return &rpt, nil
}

func pagesEmpty(pages []models.Page) bool {
	for _, pg := range pages {
		if strings.TrimSpace(pg.Text) != "" {
			return false
		}
	}
	return true
}
