package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/hanron/internal/config"
	"github.com/hyperjump/hanron/internal/embedding"
	"github.com/hyperjump/hanron/internal/indexer"
	"github.com/hyperjump/hanron/internal/models"
	"github.com/hyperjump/hanron/internal/vector"
)

// Retriever returns the evidence chunks most relevant to a claim.
type Retriever struct {
	idx      *indexer.Indexer
	embedder embedding.Embedder
	cfg      *config.RetrievalConfig
	logger   *zap.Logger
}

// NewRetriever creates a retriever over the indexer's collection.
func NewRetriever(idx *indexer.Indexer, embedder embedding.Embedder, cfg *config.RetrievalConfig, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{idx: idx, embedder: embedder, cfg: cfg, logger: logger}
}

// Retrieve embeds claimText and returns up to topK citations ordered by
// relevance. Semantic scores are fused with keyword scores when keyword
// fusion is enabled. An empty collection yields an empty slice and no error;
// an embedding failure is surfaced.
func (r *Retriever) Retrieve(ctx context.Context, claimText string, topK int) ([]models.Citation, error) {
	if topK <= 0 {
		topK = r.cfg.TopK
	}
	coll, err := r.idx.Collection(ctx)
	if err != nil {
		return nil, err
	}
	if coll.Vectors.Size() == 0 {
		return []models.Citation{}, nil
	}

	query, err := r.embedder.Embed(ctx, claimText)
	if err != nil {
		return nil, fmt.Errorf("embed claim: %w", err)
	}
	vector.Normalize(query)

	// Over-fetch so fusion has candidates beyond the final cut.
	fetch := topK * 3
	semHits, err := coll.Vectors.Search(ctx, query, fetch)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	var hits []*fusedHit
	if r.cfg.KeywordEnabledOrDefault() {
		kwHits, err := coll.Keywords.Search(ctx, claimText, fetch)
		if err != nil {
			// Keyword search is an enrichment; semantic results still stand.
			r.logger.Warn("keyword search failed, using semantic only", zap.Error(err))
			kwHits = nil
		}
		hits = fuse(normalizeKeywordScores(kwHits), semanticScores(semHits), r.cfg.KeywordWeight, r.cfg.SemanticWeight)
	} else {
		hits = fuse(nil, semanticScores(semHits), 0, 1)
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkID
	}
	chunks, err := coll.Store.GetChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}

	citations := make([]models.Citation, 0, len(chunks))
	for _, c := range chunks {
		citations = append(citations, models.Citation{
			DocTitle: c.DocTitle,
			ChunkID:  c.ID,
			Quote:    c.Content,
		})
	}
	r.logger.Debug("evidence retrieved",
		zap.Int("semantic_hits", len(semHits)),
		zap.Int("citations", len(citations)))
	return citations, nil
}
