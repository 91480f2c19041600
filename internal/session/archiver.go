package session

import (
	"context"
	"fmt"

	"socratic/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Archiver persists completed sessions for later analysis.
type Archiver interface {
	Archive(ctx context.Context, session *models.QuestionSession) error
}

// MongoArchiver writes completed sessions to a MongoDB collection. Archival
// is durable history, distinct from the live Store which holds only active
// state.
type MongoArchiver struct {
	collection *mongo.Collection
}

// NewMongoArchiver creates a MongoArchiver over the given collection.
func NewMongoArchiver(db *mongo.Database, collectionName string) *MongoArchiver {
	return &MongoArchiver{collection: db.Collection(collectionName)}
}

// Archive upserts the session by id, so re-archiving after a retried
// completion call is harmless.
func (a *MongoArchiver) Archive(ctx context.Context, session *models.QuestionSession) error {
	filter := bson.M{"_id": session.SessionID}
	update := bson.M{"$set": session}
	opts := options.Update().SetUpsert(true)
	if _, err := a.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("archive session %s: %w", session.SessionID, err)
	}
	return nil
}

// NoArchiver discards sessions, for deployments without an archive store.
type NoArchiver struct{}

// Archive does nothing.
func (NoArchiver) Archive(context.Context, *models.QuestionSession) error { return nil }
