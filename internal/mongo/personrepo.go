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

type PersonRepo struct {
	collection *mongo.Collection
}

func NewPersonRepo(db *mongo.Database) *PersonRepo {
	return &PersonRepo{
		collection: db.Collection("people"),
	}
}

func (r *PersonRepo) Get(ctx context.Context, id uuid.UUID) (*canteen.Person, error) {
	var p canteen.Person
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get person: %w", err)
	}
	return &p, nil
}

func (r *PersonRepo) List(ctx context.Context) ([]*canteen.Person, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list people: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*canteen.Person
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode people: %w", err)
	}

	return result, nil
}

// AdjustStrikes applies the delta atomically in the store with a pipeline
// update, clamping at zero, so concurrent accruals never lose increments.
func (r *PersonRepo) AdjustStrikes(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"strikes": bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{"$strikes", delta}}}},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p canteen.Person
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, fmt.Errorf("person not found")
		}
		return 0, fmt.Errorf("cannot adjust strikes: %w", err)
	}

	return p.Strikes, nil
}

func (r *PersonRepo) ResetStrikes(ctx context.Context, id uuid.UUID) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var p canteen.Person
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"strikes": 0}}, opts).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, fmt.Errorf("person not found")
		}
		return 0, fmt.Errorf("cannot reset strikes: %w", err)
	}

	return p.Strikes, nil
}

// Save exists for seeding; the engine itself never writes whole people.
func (r *PersonRepo) Save(ctx context.Context, p *canteen.Person) error {
	if p == nil {
		return fmt.Errorf("person is nil")
	}

	filter := bson.M{"_id": p.ID}
	update := bson.M{"$set": p}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("cannot save person: %w", err)
	}

	return nil
}
