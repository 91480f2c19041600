package source

import (
	"context"
	"fmt"
	"time"

	"socratic/internal/database/milvus"
	"socratic/internal/embedding"
	"socratic/internal/knowledge"
	"socratic/internal/models"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	vectorFieldChunk     = "chunk"
	vectorFieldEmbedding = "embedding"

	vectorTopK = 3
)

// MilvusVectorSource answers queries by semantic search over an embedded
// document collection: the query text is embedded and the nearest chunks are
// returned as fragments.
type MilvusVectorSource struct {
	client   *milvus.Client
	embedder embedding.Embedding
	desc     models.KnowledgeSource
}

// NewMilvusVectorSource creates a MilvusVectorSource.
func NewMilvusVectorSource(client *milvus.Client, embedder embedding.Embedding, desc models.KnowledgeSource) *MilvusVectorSource {
	desc.Kind = models.SourceKindStructuredDoc
	return &MilvusVectorSource{client: client, embedder: embedder, desc: desc}
}

// Descriptor identifies the source.
func (s *MilvusVectorSource) Descriptor() models.KnowledgeSource { return s.desc }

// Query embeds the text and searches the collection for its nearest chunks.
func (s *MilvusVectorSource) Query(ctx context.Context, text, _ string) ([]models.KnowledgeFragment, error) {
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	searchParams, err := entity.NewIndexIvfFlatSearchParam(10)
	if err != nil {
		return nil, fmt.Errorf("build search params: %w", err)
	}

	results, err := s.client.Client.Search(
		ctx, s.client.Config.Collection, nil, "", []string{vectorFieldChunk},
		[]entity.Vector{entity.FloatVector(vector)},
		vectorFieldEmbedding, entity.L2, vectorTopK, searchParams,
	)
	if err != nil {
		return nil, fmt.Errorf("milvus search: %w", err)
	}

	now := time.Now()
	var fragments []models.KnowledgeFragment
	for _, res := range results {
		var chunkCol *entity.ColumnVarChar
		for _, field := range res.Fields {
			if field.Name() == vectorFieldChunk {
				chunkCol, _ = field.(*entity.ColumnVarChar)
			}
		}
		if chunkCol == nil {
			continue
		}
		for i := 0; i < res.ResultCount; i++ {
			chunk, err := chunkCol.ValueByIdx(i)
			if err != nil {
				continue
			}
			fragments = append(fragments, models.KnowledgeFragment{
				Content:     chunk,
				SourceID:    s.desc.ID,
				Confidence:  distanceToConfidence(res.Scores[i]),
				Attribution: s.client.Config.Collection,
				FetchedAt:   now,
			})
		}
	}
	if len(fragments) == 0 {
		return nil, knowledge.ErrNoContent
	}
	return fragments, nil
}

// distanceToConfidence maps an L2 distance onto (0,1]: zero distance is full
// confidence, larger distances decay toward zero.
func distanceToConfidence(distance float32) float64 {
	d := float64(distance)
	if d < 0 {
		d = 0
	}
	return 1 / (1 + d)
}
