package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/contact-relay/api/internal/contact/application"
)

// FailedNotificationRepository は配信に失敗した通知を failed_notifications に記録する。
// 再送は行わない。運用者が内容を確認するための記録のみ。
type FailedNotificationRepository struct {
	collection   *mongo.Collection
	availability *Availability
}

var _ application.FailureRecorder = (*FailedNotificationRepository)(nil)

// NewFailedNotificationRepository creates a recorder writing to collectionName.
func NewFailedNotificationRepository(db *mongo.Database, collectionName string) *FailedNotificationRepository {
	return &FailedNotificationRepository{collection: db.Collection(collectionName)}
}

// Guard makes Record fail fast with ErrUnavailable while a is not available.
func (r *FailedNotificationRepository) Guard(a *Availability) *FailedNotificationRepository {
	r.availability = a
	return r
}

// Record stores one failed delivery attempt.
func (r *FailedNotificationRepository) Record(ctx context.Context, failure application.FailedNotification) error {
	if r.availability != nil && !r.availability.Available() {
		return ErrUnavailable
	}
	payload := bson.M{
		"messageId": failure.MessageID,
		"name":      failure.Name,
		"email":     failure.Email,
		"message":   failure.Message,
	}
	doc := bson.M{
		"target":      failure.Target,
		"payload":     payload,
		"error":       failure.Error,
		"attempts":    1,
		"status":      "failed",
		"createdAt":   failure.CreatedAt,
		"lastTriedAt": failure.CreatedAt,
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}
