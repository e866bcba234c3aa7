package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/persistence/db"
)

type roomAuditLogRepository struct {
	db        *mongo.Database
	retention time.Duration
}

func NewRoomAuditLogRepository(db *mongo.Database, retention time.Duration) domain.RoomAuditRepository {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}

	return &roomAuditLogRepository{
		db:        db,
		retention: retention,
	}
}

func (r *roomAuditLogRepository) Log(ctx context.Context, log *domain.RoomAuditLog) error {
	collection := r.db.Collection(db.RoomAuditLogsCollection)

	_, err := collection.InsertOne(ctx, log)
	return err
}

func (r *roomAuditLogRepository) GetByRoomID(ctx context.Context, roomID string, limit int) ([]domain.RoomAuditLog, error) {
	collection := r.db.Collection(db.RoomAuditLogsCollection)

	filter := bson.M{"room_id": roomID}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []domain.RoomAuditLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *roomAuditLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) error {
	collection := r.db.Collection(db.RoomAuditLogsCollection)

	filter := bson.M{
		"timestamp": bson.M{
			"$lt": before,
		},
	}

	_, err := collection.DeleteMany(ctx, filter)
	return err
}

func (r *roomAuditLogRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.RoomAuditLogsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "room_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(r.retention / time.Second)),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
