package source

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"socratic/internal/knowledge"
	"socratic/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const signatureResultLimit = 32

// SignatureDoc is the stored and wire shape of one domain signature. The
// fragment content is the JSON encoding of this struct, so the
// knowledge-backed signature provider can decode fragments directly.
type SignatureDoc struct {
	Domain     string             `bson:"_id" json:"domain"`
	Indicators map[string]float64 `bson:"indicators" json:"indicators"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// MongoSignatureSource serves domain signatures from a curated collection,
// backing the knowledge-driven DomainSignatureProvider variant.
type MongoSignatureSource struct {
	collection *mongo.Collection
	desc       models.KnowledgeSource
}

// NewMongoSignatureSource creates a MongoSignatureSource over the collection.
func NewMongoSignatureSource(db *mongo.Database, collectionName string, desc models.KnowledgeSource) *MongoSignatureSource {
	desc.Kind = models.SourceKindDomainSignature
	return &MongoSignatureSource{collection: db.Collection(collectionName), desc: desc}
}

// Descriptor identifies the source.
func (s *MongoSignatureSource) Descriptor() models.KnowledgeSource { return s.desc }

// Query returns signature fragments. When a concrete domain is passed only
// that signature is fetched; otherwise the whole corpus streams back so the
// classifier can score every candidate.
func (s *MongoSignatureSource) Query(ctx context.Context, _, domain string) ([]models.KnowledgeFragment, error) {
	filter := bson.M{}
	if domain != "" && domain != models.GeneralDomain {
		filter["_id"] = domain
	}

	cursor, err := s.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongo signature find: %w", err)
	}
	defer cursor.Close(ctx)

	var fragments []models.KnowledgeFragment
	for cursor.Next(ctx) {
		if len(fragments) >= signatureResultLimit {
			break
		}
		var doc SignatureDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode signature doc: %w", err)
		}
		payload, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode signature doc: %w", err)
		}
		fragments = append(fragments, models.KnowledgeFragment{
			Content:     string(payload),
			SourceID:    s.desc.ID,
			Confidence:  1,
			Attribution: doc.Domain,
			FetchedAt:   doc.UpdatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo signature cursor: %w", err)
	}
	if len(fragments) == 0 {
		return nil, knowledge.ErrNoContent
	}
	return fragments, nil
}
