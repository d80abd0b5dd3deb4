package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/canteenclub/canteen/internal/canteen"
)

type ShiftRepo struct {
	collection *mongo.Collection
}

func NewShiftRepo(db *mongo.Database) *ShiftRepo {
	return &ShiftRepo{
		collection: db.Collection("shifts"),
	}
}

func (r *ShiftRepo) Get(ctx context.Context, id uuid.UUID) (*canteen.Shift, error) {
	var s canteen.Shift
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get shift: %w", err)
	}
	return &s, nil
}

func (r *ShiftRepo) List(ctx context.Context) ([]*canteen.Shift, error) {
	return r.find(ctx, bson.M{})
}

func (r *ShiftRepo) ListActive(ctx context.Context) ([]*canteen.Shift, error) {
	return r.find(ctx, bson.M{"active": true})
}

func (r *ShiftRepo) Save(ctx context.Context, s *canteen.Shift) error {
	if s == nil {
		return fmt.Errorf("shift is nil")
	}

	filter := bson.M{"_id": s.ID}
	update := bson.M{"$set": s}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("cannot save shift: %w", err)
	}

	return nil
}

func (r *ShiftRepo) find(ctx context.Context, filter bson.M) ([]*canteen.Shift, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("cannot list shifts: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*canteen.Shift
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode shifts: %w", err)
	}

	return result, nil
}
