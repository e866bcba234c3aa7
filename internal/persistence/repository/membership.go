package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/persistence/db"
)

type membershipRepository struct {
	db *mongo.Database
}

func NewMembershipRepository(db *mongo.Database) domain.MembershipRepository {
	return &membershipRepository{
		db: db,
	}
}

func (r *membershipRepository) Add(ctx context.Context, m *domain.Membership) error {
	collection := r.db.Collection(db.MembershipsCollection)

	// $setOnInsert keeps the original joined_at when the row already exists,
	// making rejoin a true no-op.
	filter := bson.M{"room_id": m.RoomID, "user_id": m.UserID}
	update := bson.M{"$setOnInsert": m}

	_, err := collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *membershipRepository) Remove(ctx context.Context, roomID, userID string) error {
	collection := r.db.Collection(db.MembershipsCollection)

	_, err := collection.DeleteOne(ctx, bson.M{"room_id": roomID, "user_id": userID})
	return err
}

func (r *membershipRepository) RemoveByRoom(ctx context.Context, roomID string) error {
	collection := r.db.Collection(db.MembershipsCollection)

	_, err := collection.DeleteMany(ctx, bson.M{"room_id": roomID})
	return err
}

func (r *membershipRepository) Exists(ctx context.Context, roomID, userID string) (bool, error) {
	collection := r.db.Collection(db.MembershipsCollection)

	count, err := collection.CountDocuments(ctx, bson.M{"room_id": roomID, "user_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *membershipRepository) ListRoomIDsByUser(ctx context.Context, userID string) ([]string, error) {
	collection := r.db.Collection(db.MembershipsCollection)

	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: -1}})

	cursor, err := collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var memberships []domain.Membership
	if err := cursor.All(ctx, &memberships); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.RoomID)
	}

	return ids, nil
}

func (r *membershipRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.MembershipsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "room_id", Value: 1},
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "joined_at", Value: -1},
			},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
