package claims

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/hanron/internal/config"
	"github.com/hyperjump/hanron/internal/llm"
	"github.com/hyperjump/hanron/internal/models"
)

const (
	noEvidenceGap    = "No internal evidence was found that relates to this claim."
	noEvidenceAction = "Gather internal documentation that addresses this claim directly."
)

// Judge evaluates how well retrieved evidence covers a claim. Judgment never
// fails the pipeline: any model or parse problem degrades to a conservative
// analysis instead of an error.
type Judge struct {
	client llm.Client
	cfg    *config.ClaimsConfig
	logger *zap.Logger
}

// NewJudge creates a coverage judge.
func NewJudge(client llm.Client, cfg *config.ClaimsConfig, logger *zap.Logger) *Judge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Judge{client: client, cfg: cfg, logger: logger}
}

// rawJudgment tolerates the shapes models actually emit: confidence as a
// number of either kind, reasoning as a string or a list of strings.
type rawJudgment struct {
	Coverage           string          `json:"coverage"`
	Reasoning          json.RawMessage `json:"reasoning"`
	Confidence         json.RawMessage `json:"confidence"`
	Gaps               []string        `json:"gaps"`
	RecommendedActions []string        `json:"recommended_actions"`
}

// Judge produces the coverage analysis for one claim. With no citations the
// result is deterministic (not_addressed, confidence 0) and no model call is
// made. Otherwise the model judgment is validated and normalized; on call or
// parse failure the analysis falls back to not_addressed and is flagged
// Degraded so the report can surface it.
func (j *Judge) Judge(ctx context.Context, claim models.Claim, citations []models.Citation) models.ClaimAnalysis {
	if len(citations) == 0 {
		return models.ClaimAnalysis{
			ClaimID:            claim.ClaimID,
			Coverage:           models.CoverageNotAddressed,
			Reasoning:          "No relevant internal evidence was retrieved for this claim.",
			Citations:          []models.Citation{},
			Confidence:         0,
			Gaps:               []string{noEvidenceGap},
			RecommendedActions: []string{noEvidenceAction},
		}
	}

	prompt := buildJudgmentPrompt(claim, citations)
	reply, err := j.client.Chat(ctx, []llm.Message{
		{Role: "system", Content: judgmentSystemPrompt},
		{Role: "user", Content: prompt},
	}, llm.Options{Temperature: j.cfg.Temperature, JSONMode: true})
	if err != nil {
		j.logger.Warn("judgment call failed, using fallback analysis",
			zap.String("claim_id", claim.ClaimID), zap.Error(err))
		return j.fallback(claim, citations)
	}

	analysis, ok := j.parseJudgment(claim, citations, reply)
	if !ok {
		j.logger.Warn("judgment output unparseable, using fallback analysis",
			zap.String("claim_id", claim.ClaimID))
		return j.fallback(claim, citations)
	}
	return analysis
}

// fallback is the degraded analysis used when a model judgment could not be
// obtained. Citations are kept so the evidence is not lost from the report.
func (j *Judge) fallback(claim models.Claim, citations []models.Citation) models.ClaimAnalysis {
	return models.ClaimAnalysis{
		ClaimID:            claim.ClaimID,
		Coverage:           models.CoverageNotAddressed,
		Reasoning:          "Automated judgment failed for this claim; retrieved evidence is attached but was not evaluated.",
		Citations:          citations,
		Confidence:         0,
		Gaps:               []string{"Coverage judgment could not be completed."},
		RecommendedActions: []string{"Review the attached evidence manually and re-run the analysis."},
		Degraded:           true,
	}
}

func (j *Judge) parseJudgment(claim models.Claim, citations []models.Citation, reply string) (models.ClaimAnalysis, bool) {
	text := extractJSONObject(reply)
	if text == "" {
		return models.ClaimAnalysis{}, false
	}
	var raw rawJudgment
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return models.ClaimAnalysis{}, false
	}

	coverage := models.Coverage(strings.TrimSpace(raw.Coverage))
	if !coverage.Valid() {
		coverage = models.CoverageNotAddressed
	}
	// A fully-addressed verdict needs corroboration from more than one
	// chunk; with a single citation the best it can be is partial.
	if coverage == models.CoverageFullyAddressed && len(citations) < 2 {
		if len(citations) >= 1 {
			coverage = models.CoveragePartiallyAddressed
		} else {
			coverage = models.CoverageNotAddressed
		}
	}

	analysis := models.ClaimAnalysis{
		ClaimID:    claim.ClaimID,
		Coverage:   coverage,
		Reasoning:  coerceReasoning(raw.Reasoning),
		Citations:  citations,
		Confidence: models.ClampConfidence(coerceConfidence(raw.Confidence)),
	}

	if coverage == models.CoverageFullyAddressed {
		return analysis, true
	}
	analysis.Gaps = raw.Gaps
	if len(analysis.Gaps) == 0 {
		analysis.Gaps = []string{"The evidence does not fully cover this claim."}
	}
	analysis.RecommendedActions = raw.RecommendedActions
	if len(analysis.RecommendedActions) == 0 {
		analysis.RecommendedActions = []string{"Collect additional internal documentation addressing the uncovered aspects."}
	}
	return analysis, true
}

// coerceReasoning accepts a string or a list of strings, joining the latter
// into bullet lines.
func coerceReasoning(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			item = strings.TrimSpace(item)
			if item != "" {
				parts = append(parts, "• "+item)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

// coerceConfidence accepts an int or float confidence; anything else is 0.
func coerceConfidence(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0
	}
	return int(f)
}

// extractJSONObject returns the outermost JSON object in text, tolerating
// surrounding prose or code fences.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
