// Package repository holds the MongoDB implementations of the domain
// repositories. The in-memory equivalents live under
// internal/infrastructure/repository.
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

type roomRepository struct {
	db *mongo.Database
}

func NewRoomRepository(db *mongo.Database) domain.RoomRepository {
	return &roomRepository{
		db: db,
	}
}

func (r *roomRepository) Create(ctx context.Context, room *domain.Room) error {
	collection := r.db.Collection(db.RoomsCollection)

	_, err := collection.InsertOne(ctx, room)
	if mongo.IsDuplicateKeyError(err) {
		// The unique index on code tripped; the caller regenerates.
		return domain.ErrRoomAlreadyExists
	}
	return err
}

func (r *roomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	collection := r.db.Collection(db.RoomsCollection)

	var room domain.Room
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	return &room, nil
}

func (r *roomRepository) GetByCode(ctx context.Context, code string) (*domain.Room, error) {
	collection := r.db.Collection(db.RoomsCollection)

	var room domain.Room
	err := collection.FindOne(ctx, bson.M{"code": code}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	return &room, nil
}

func (r *roomRepository) Delete(ctx context.Context, id string) error {
	collection := r.db.Collection(db.RoomsCollection)

	res, err := collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func (r *roomRepository) ListByOwner(ctx context.Context, userID string) ([]domain.Room, error) {
	collection := r.db.Collection(db.RoomsCollection)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := collection.Find(ctx, bson.M{"created_by": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rooms := []domain.Room{}
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, err
	}

	return rooms, nil
}

func (r *roomRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.RoomsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "created_by", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
