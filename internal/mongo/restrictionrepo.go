package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/canteenclub/canteen/internal/canteen"
)

type RestrictionRepo struct {
	collection *mongo.Collection
}

func NewRestrictionRepo(db *mongo.Database) *RestrictionRepo {
	return &RestrictionRepo{
		collection: db.Collection("restrictions"),
	}
}

func (r *RestrictionRepo) EnsureIndexes(ctx context.Context) error {
	personIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "person_id", Value: 1}, {Key: "active", Value: 1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, personIndex); err != nil {
		return fmt.Errorf("cannot create restriction index: %w", err)
	}
	return nil
}

func (r *RestrictionRepo) Create(ctx context.Context, restriction *canteen.Restriction) error {
	if restriction == nil {
		return fmt.Errorf("restriction is nil")
	}

	if _, err := r.collection.InsertOne(ctx, restriction); err != nil {
		return fmt.Errorf("cannot create restriction: %w", err)
	}

	return nil
}

func (r *RestrictionRepo) ListByPerson(ctx context.Context, personID uuid.UUID) ([]*canteen.Restriction, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"person_id": personID})
	if err != nil {
		return nil, fmt.Errorf("cannot list restrictions: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*canteen.Restriction
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode restrictions: %w", err)
	}

	return result, nil
}

// ActiveForPerson evaluates expiry in the query itself: an entry whose end
// has passed never matches, regardless of its active flag.
func (r *RestrictionRepo) ActiveForPerson(ctx context.Context, personID uuid.UUID, at time.Time) (*canteen.Restriction, error) {
	filter := bson.M{
		"person_id": personID,
		"active":    true,
		"starts_at": bson.M{"$lte": at},
		"$or": bson.A{
			bson.M{"ends_at": bson.M{"$exists": false}},
			bson.M{"ends_at": nil},
			bson.M{"ends_at": bson.M{"$gt": at}},
		},
	}

	var restriction canteen.Restriction
	err := r.collection.FindOne(ctx, filter).Decode(&restriction)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot find active restriction: %w", err)
	}
	return &restriction, nil
}

func (r *RestrictionRepo) Deactivate(ctx context.Context, personID uuid.UUID, by string, at time.Time) (int64, error) {
	filter := bson.M{"person_id": personID, "active": true}
	update := bson.M{"$set": bson.M{"active": false, "updated_at": at, "updated_by": by}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("cannot deactivate restrictions: %w", err)
	}

	return result.ModifiedCount, nil
}

func (r *RestrictionRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"active":  true,
		"ends_at": bson.M{"$ne": nil, "$lte": now},
	}
	update := bson.M{"$set": bson.M{"active": false, "updated_at": now, "updated_by": "housekeeping"}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("cannot deactivate expired restrictions: %w", err)
	}

	return result.ModifiedCount, nil
}
