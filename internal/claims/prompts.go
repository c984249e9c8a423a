// Package claims extracts verifiable claims from short-seller reports and
// judges how well internal evidence addresses each one.
package claims

import (
	"fmt"
	"strings"

	"github.com/hyperjump/hanron/internal/models"
)

const extractionSystemPrompt = "You are a professional financial analyst skilled at " +
	"dissecting short-seller reports. Always return valid JSON."

const judgmentSystemPrompt = "You are a professional financial analyst skilled at " +
	"evaluating evidence quality. Always return valid JSON format."

const judgmentCriteria = `## Judgment Criteria

### Classification Rules:

1. **fully_addressed**:
   - Internal evidence directly and clearly refutes or addresses the claim
   - Provides specific, verifiable facts and data
   - Must cite at least 2 relevant evidence pieces

2. **partially_addressed**:
   - Internal evidence is partially relevant but incomplete
   - Provides some information but lacks key evidence
   - Must cite at least 1 relevant evidence piece

3. **not_addressed**:
   - Internal evidence is not relevant or very weak
   - No relevant rebuttal evidence found
   - If evidence is weak or not relevant, must be classified as "not_addressed"

### Output Requirements:
- reasoning: 5-10 points of analysis based on evidence
- confidence: confidence score 0-100
- gaps: if not fully addressed, list missing evidence types (e.g. "audit letter", "contract", "invoice sample")
- recommended_actions: recommendations for follow-up by IR/Legal/Finance`

// buildExtractionPrompt tags each page so the model can report page numbers.
func buildExtractionPrompt(pages []models.Page, minClaims, maxClaims int) string {
	var b strings.Builder
	for _, p := range pages {
		fmt.Fprintf(&b, "[Page %d]\n%s\n\n", p.Number, p.Text)
	}
	return fmt.Sprintf(`You are analyzing a short-seller report. Extract the distinct factual claims and allegations it makes about the target company.

## Report Text (tagged by page):
%s
## Task:
Extract between %d and %d claims. For each claim return:
- claim_id: "c1", "c2", ... in order of appearance
- claim_text: the claim restated as one clear, self-contained sentence
- claim_type: one of "financial", "accounting", "governance", "operational", "legal", "other"
- page_numbers: JSON list of integer page numbers where the claim appears

Output Format (JSON array only):
[
  {"claim_id": "c1", "claim_text": "...", "claim_type": "financial", "page_numbers": [1]},
  ...
]

Return ONLY the JSON array, no other text.`, b.String(), minClaims, maxClaims)
}

// buildJudgmentPrompt formats the claim and its retrieved evidence.
func buildJudgmentPrompt(claim models.Claim, citations []models.Citation) string {
	var ev strings.Builder
	for i, cit := range citations {
		fmt.Fprintf(&ev, "[Evidence %d]\nDocument: %s\nChunk ID: %s\nQuote: %s\n\n",
			i+1, cit.DocTitle, cit.ChunkID, cit.Quote)
	}
	return fmt.Sprintf(`You are evaluating whether a short-seller report claim is sufficiently rebutted by internal evidence.

%s

## Claim:
ID: %s
Type: %s
Content: %s
Page Numbers: %v

## Retrieved Evidence:
%s## Task:
Based on the judgment criteria, evaluate the claim and return results in JSON.

Output Format (JSON):
{
  "coverage": "fully_addressed" | "partially_addressed" | "not_addressed",
  "reasoning": "5-10 bullet points of analysis based on evidence",
  "confidence": integer 0-100,
  "gaps": ["missing evidence type 1", "missing evidence type 2"],
  "recommended_actions": ["recommended action 1", "recommended action 2"]
}

Important Notes:
- Must strictly follow the judgment criteria
- If evidence is weak or not relevant, must classify as "not_addressed"
- Mention every evidence piece you relied on explicitly in the reasoning
- If coverage is not "fully_addressed", must provide gaps and recommended_actions

Return ONLY valid JSON, do not include other text.`,
		judgmentCriteria, claim.ClaimID, claim.ClaimType, claim.ClaimText, claim.PageNumbers, ev.String())
}
