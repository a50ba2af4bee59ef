package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/contact-relay/api/internal/contact/application"
	"github.com/sngm3741/contact-relay/api/internal/contact/domain"
)

// MessageDocument は問い合わせメッセージの MongoDB スキーマ。
type MessageDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Message   string    `bson:"message"`
	Timestamp time.Time `bson:"timestamp"`
}

// MessageRepository implements application.Store using MongoDB.
type MessageRepository struct {
	collection   *mongo.Collection
	availability *Availability
}

var _ application.Store = (*MessageRepository)(nil)

// NewMessageRepository creates a new Mongo-backed message repository.
func NewMessageRepository(db *mongo.Database, collectionName string) *MessageRepository {
	return &MessageRepository{collection: db.Collection(collectionName)}
}

// Guard makes Append fail fast with ErrUnavailable while a is not available.
func (r *MessageRepository) Guard(a *Availability) *MessageRepository {
	r.availability = a
	return r
}

// Append inserts one document per accepted submission.
func (r *MessageRepository) Append(ctx context.Context, msg domain.StoredMessage) error {
	if r.availability != nil && !r.availability.Available() {
		return ErrUnavailable
	}
	_, err := r.collection.InsertOne(ctx, toMessageDocument(msg))
	return err
}

// EnsureIndexes は timestamp の降順インデックスを作成する。運用時の閲覧用。
func (r *MessageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("timestamp_desc"),
	})
	return err
}

// Drop removes the whole collection. Only used by the seed command.
func (r *MessageRepository) Drop(ctx context.Context) error {
	return r.collection.Drop(ctx)
}

func toMessageDocument(msg domain.StoredMessage) MessageDocument {
	return MessageDocument{
		ID:        msg.ID,
		Name:      msg.Name,
		Email:     msg.Email,
		Message:   msg.Message,
		Timestamp: msg.CreatedAt,
	}
}
