package source

import (
	"context"
	"fmt"
	"time"

	"socratic/internal/knowledge"
	"socratic/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const docResultLimit = 3

// knowledgeDoc is the stored shape of a curated knowledge document.
type knowledgeDoc struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Content   string    `bson:"content"`
	Domain    string    `bson:"domain"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoDocSource answers queries from a curated collection of structured
// domain documents using the collection's text index.
type MongoDocSource struct {
	collection *mongo.Collection
	desc       models.KnowledgeSource
}

// NewMongoDocSource creates a MongoDocSource over the given collection.
func NewMongoDocSource(db *mongo.Database, collectionName string, desc models.KnowledgeSource) *MongoDocSource {
	desc.Kind = models.SourceKindStructuredDoc
	return &MongoDocSource{collection: db.Collection(collectionName), desc: desc}
}

// Descriptor identifies the source.
func (s *MongoDocSource) Descriptor() models.KnowledgeSource { return s.desc }

// Query runs a text search scoped to the domain when one is resolved.
func (s *MongoDocSource) Query(ctx context.Context, text, domain string) ([]models.KnowledgeFragment, error) {
	filter := bson.M{"$text": bson.M{"$search": text}}
	if domain != "" && domain != models.GeneralDomain {
		filter["domain"] = domain
	}

	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}, "title": 1, "content": 1, "domain": 1, "updated_at": 1}).
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetLimit(docResultLimit)

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo doc search: %w", err)
	}
	defer cursor.Close(ctx)

	var fragments []models.KnowledgeFragment
	for cursor.Next(ctx) {
		var doc struct {
			knowledgeDoc `bson:",inline"`
			Score        float64 `bson:"score"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode knowledge doc: %w", err)
		}
		fragments = append(fragments, models.KnowledgeFragment{
			Content:     doc.Content,
			SourceID:    s.desc.ID,
			Confidence:  clampScore(doc.Score),
			Attribution: doc.Title,
			FetchedAt:   doc.UpdatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo doc cursor: %w", err)
	}
	if len(fragments) == 0 {
		return nil, knowledge.ErrNoContent
	}
	return fragments, nil
}

// clampScore squashes a mongo textScore (roughly 0..5+) into [0,1].
func clampScore(score float64) float64 {
	conf := score / 5
	if conf > 1 {
		return 1
	}
	if conf < 0 {
		return 0
	}
	return conf
}
