package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/persistence/db"
)

type locationRepository struct {
	db *mongo.Database
}

func NewLocationRepository(db *mongo.Database) domain.LocationRepository {
	return &locationRepository{
		db: db,
	}
}

func (r *locationRepository) UpsertLive(ctx context.Context, loc *domain.Location) (bool, error) {
	collection := r.db.Collection(db.LocationsCollection)

	// One atomic findAndModify keyed by (room, user, kind). The existing
	// record keeps its _id; only on insert does the fresh one stick.
	filter := bson.M{
		"room_id": loc.RoomID,
		"user_id": loc.UserID,
		"kind":    domain.KindLivePosition,
	}
	update := bson.M{
		"$set": bson.M{
			"user_name": loc.UserName,
			"latitude":  loc.Latitude,
			"longitude": loc.Longitude,
			"timestamp": loc.Timestamp,
		},
		"$setOnInsert": bson.M{
			"_id":     loc.ID,
			"room_id": loc.RoomID,
			"user_id": loc.UserID,
			"kind":    domain.KindLivePosition,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored domain.Location
	if err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return false, err
	}

	inserted := stored.ID == loc.ID
	*loc = stored

	return inserted, nil
}

func (r *locationRepository) Insert(ctx context.Context, loc *domain.Location) error {
	collection := r.db.Collection(db.LocationsCollection)

	_, err := collection.InsertOne(ctx, loc)
	return err
}

func (r *locationRepository) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	collection := r.db.Collection(db.LocationsCollection)

	var loc domain.Location
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&loc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrLocationNotFound
	}
	if err != nil {
		return nil, err
	}

	return &loc, nil
}

func (r *locationRepository) Delete(ctx context.Context, id string) error {
	collection := r.db.Collection(db.LocationsCollection)

	_, err := collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *locationRepository) DeleteByRoom(ctx context.Context, roomID string) error {
	collection := r.db.Collection(db.LocationsCollection)

	_, err := collection.DeleteMany(ctx, bson.M{"room_id": roomID})
	return err
}

func (r *locationRepository) DeleteByRoomAndUser(ctx context.Context, roomID, userID string) error {
	collection := r.db.Collection(db.LocationsCollection)

	_, err := collection.DeleteMany(ctx, bson.M{"room_id": roomID, "user_id": userID})
	return err
}

func (r *locationRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.Location, error) {
	collection := r.db.Collection(db.LocationsCollection)

	opts := options.Find().SetSort(bson.D{
		{Key: "timestamp", Value: -1},
		{Key: "_id", Value: -1},
	})

	cursor, err := collection.Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	locations := []domain.Location{}
	if err := cursor.All(ctx, &locations); err != nil {
		return nil, err
	}

	return locations, nil
}

func (r *locationRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.LocationsCollection)

	indexes := []mongo.IndexModel{
		{
			// One live position per user per room.
			Keys: bson.D{
				{Key: "room_id", Value: 1},
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "kind", Value: domain.KindLivePosition}}),
		},
		{
			Keys: bson.D{
				{Key: "room_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
