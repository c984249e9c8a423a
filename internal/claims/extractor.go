package claims

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/hanron/internal/config"
	"github.com/hyperjump/hanron/internal/llm"
	"github.com/hyperjump/hanron/internal/models"
)

// Extractor turns report pages into a structured claim list via the LLM.
type Extractor struct {
	client llm.Client
	cfg    *config.ClaimsConfig
	logger *zap.Logger
}

// NewExtractor creates a claim extractor.
func NewExtractor(client llm.Client, cfg *config.ClaimsConfig, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{client: client, cfg: cfg, logger: logger}
}

// rawClaim defers page_numbers parsing so malformed shapes can be rejected
// explicitly instead of silently coerced.
type rawClaim struct {
	ClaimID     string          `json:"claim_id"`
	ClaimText   string          `json:"claim_text"`
	ClaimType   string          `json:"claim_type"`
	PageNumbers json.RawMessage `json:"page_numbers"`
}

// Extract sends the page-tagged report text to the LLM and parses the claim
// list. Malformed output fails closed with models.ErrFormat: there is no
// meaningful partial claim set. Fewer claims than MinClaims yields
// models.ErrClaimBounds; more than MaxClaims are truncated.
func (e *Extractor) Extract(ctx context.Context, pages []models.Page) ([]models.Claim, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to extract claims from: %w", models.ErrFormat)
	}
	prompt := buildExtractionPrompt(pages, e.cfg.MinClaims, e.cfg.MaxClaims)
	reply, err := e.client.Chat(ctx, []llm.Message{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: prompt},
	}, llm.Options{Temperature: e.cfg.Temperature, JSONMode: false})
	if err != nil {
		return nil, fmt.Errorf("claim extraction call: %w", err)
	}

	claims, err := parseClaims(reply)
	if err != nil {
		e.logger.Warn("claim extraction returned malformed output", zap.Error(err))
		return nil, err
	}
	if len(claims) > e.cfg.MaxClaims {
		e.logger.Info("truncating extracted claims",
			zap.Int("extracted", len(claims)),
			zap.Int("max", e.cfg.MaxClaims))
		claims = claims[:e.cfg.MaxClaims]
	}
	if len(claims) < e.cfg.MinClaims {
		return nil, fmt.Errorf("extracted %d claims, need at least %d: %w",
			len(claims), e.cfg.MinClaims, models.ErrClaimBounds)
	}
	e.logger.Info("claims extracted", zap.Int("count", len(claims)))
	return claims, nil
}

// parseClaims validates the model reply as a strict JSON claim array.
func parseClaims(reply string) ([]models.Claim, error) {
	text := extractJSONArray(reply)
	if text == "" {
		return nil, fmt.Errorf("no JSON array in model output: %w", models.ErrFormat)
	}
	var raw []rawClaim
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse claim array: %v: %w", err, models.ErrFormat)
	}

	claims := make([]models.Claim, 0, len(raw))
	for i, rc := range raw {
		if strings.TrimSpace(rc.ClaimText) == "" {
			return nil, fmt.Errorf("claim %d has empty claim_text: %w", i, models.ErrFormat)
		}
		id := strings.TrimSpace(rc.ClaimID)
		if id == "" {
			id = fmt.Sprintf("c%d", i+1)
		}
		pageNumbers, err := parsePageNumbers(rc.PageNumbers)
		if err != nil {
			return nil, fmt.Errorf("claim %s: %w", id, err)
		}
		claims = append(claims, models.Claim{
			ClaimID:     id,
			ClaimText:   strings.TrimSpace(rc.ClaimText),
			ClaimType:   strings.TrimSpace(rc.ClaimType),
			PageNumbers: pageNumbers,
		})
	}
	return claims, nil
}

// parsePageNumbers accepts only a JSON list of numbers. Floats are truncated
// to ints (models emit 1.0 for 1); strings and scalars are rejected rather
// than coerced so a malformed reply surfaces instead of producing bogus
// page references.
func parsePageNumbers(raw json.RawMessage) ([]int, error) {
	if len(raw) == 0 {
		return []int{}, nil
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return []int{}, nil
	}
	if !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("page_numbers is not a list: %w", models.ErrFormat)
	}
	var nums []float64
	if err := json.Unmarshal(raw, &nums); err != nil {
		return nil, fmt.Errorf("page_numbers contains non-numeric entries: %w", models.ErrFormat)
	}
	out := make([]int, len(nums))
	for i, n := range nums {
		out[i] = int(n)
	}
	return out, nil
}

// extractJSONArray returns the outermost JSON array in text, tolerating
// surrounding prose or code fences.
func extractJSONArray(text string) string {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
