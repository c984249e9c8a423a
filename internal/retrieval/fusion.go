// Package retrieval finds supporting evidence chunks for report claims by
// hybrid semantic and keyword search over the collection.
package retrieval

import (
	"sort"

	"github.com/hyperjump/hanron/internal/keyword"
	"github.com/hyperjump/hanron/internal/vector"
)

// fusedHit holds a chunk ID and its fused keyword/semantic scores.
type fusedHit struct {
	ChunkID       string
	Score         float64
	KeywordScore  float64
	SemanticScore float64
}

// normalizeKeywordScores normalizes BM25 scores to [0,1] by the max score.
func normalizeKeywordScores(hits []*keyword.Result) map[string]float64 {
	out := make(map[string]float64, len(hits))
	if len(hits) == 0 {
		return out
	}
	maxScore := hits[0].Score
	for _, h := range hits {
		if h.Score > maxScore {
			maxScore = h.Score
		}
	}
	for _, h := range hits {
		if maxScore > 0 {
			out[h.ID] = h.Score / maxScore
		} else {
			out[h.ID] = 0
		}
	}
	return out
}

// semanticScores returns vector scores keyed by chunk ID. Inner product over
// normalized vectors is already in [-1,1]; negatives clamp to 0.
func semanticScores(hits []*vector.Result) map[string]float64 {
	out := make(map[string]float64, len(hits))
	for _, h := range hits {
		s := h.Score
		if s < 0 {
			s = 0
		}
		out[h.ID] = s
	}
	return out
}

// fuse merges the two score maps with weights and returns hits sorted by
// fused score descending.
func fuse(kw, sem map[string]float64, keywordWeight, semanticWeight float64) []*fusedHit {
	byID := make(map[string]*fusedHit)
	for id, s := range kw {
		byID[id] = &fusedHit{ChunkID: id, KeywordScore: s}
	}
	for id, s := range sem {
		if h, ok := byID[id]; ok {
			h.SemanticScore = s
		} else {
			byID[id] = &fusedHit{ChunkID: id, SemanticScore: s}
		}
	}
	out := make([]*fusedHit, 0, len(byID))
	for _, h := range byID {
		h.Score = keywordWeight*h.KeywordScore + semanticWeight*h.SemanticScore
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
