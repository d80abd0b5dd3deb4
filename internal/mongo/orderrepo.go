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

type OrderRepo struct {
	collection *mongo.Collection
}

func NewOrderRepo(db *mongo.Database) *OrderRepo {
	return &OrderRepo{
		collection: db.Collection("orders"),
	}
}

// EnsureIndexes creates the partial unique index that backs the
// one-live-order-per-person-per-date invariant at the store level. Cancelled
// orders fall outside the filter, so cancelling releases the slot.
func (r *OrderRepo) EnsureIndexes(ctx context.Context) error {
	liveIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "person_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"status": bson.M{"$in": bson.A{
					string(canteen.StatusPlaced),
					string(canteen.StatusCollected),
					string(canteen.StatusNotCollected),
				}},
			}),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, liveIndex); err != nil {
		return fmt.Errorf("cannot create live order index: %w", err)
	}

	statusIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, statusIndex); err != nil {
		return fmt.Errorf("cannot create status index: %w", err)
	}

	dateIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: 1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, dateIndex); err != nil {
		return fmt.Errorf("cannot create date index: %w", err)
	}

	return nil
}

func (r *OrderRepo) Create(ctx context.Context, o *canteen.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	if _, err := r.collection.InsertOne(ctx, o); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return canteen.ErrDuplicateForDate
		}
		return fmt.Errorf("cannot create order: %w", err)
	}

	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*canteen.Order, error) {
	var o canteen.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepo) List(ctx context.Context) ([]*canteen.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *OrderRepo) ListByPerson(ctx context.Context, personID uuid.UUID) ([]*canteen.Order, error) {
	return r.find(ctx, bson.M{"person_id": personID})
}

func (r *OrderRepo) ListByStatus(ctx context.Context, status canteen.Status) ([]*canteen.Order, error) {
	return r.find(ctx, bson.M{"status": string(status)})
}

func (r *OrderRepo) ListByDateRange(ctx context.Context, from, to string) ([]*canteen.Order, error) {
	return r.find(ctx, bson.M{"date": bson.M{"$gte": from, "$lte": to}})
}

func (r *OrderRepo) FindLiveByPersonDate(ctx context.Context, personID uuid.UUID, date string) (*canteen.Order, error) {
	filter := bson.M{
		"person_id": personID,
		"date":      date,
		"status":    bson.M{"$ne": string(canteen.StatusCancelled)},
	}

	var o canteen.Order
	err := r.collection.FindOne(ctx, filter).Decode(&o)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot find live order: %w", err)
	}
	return &o, nil
}

// Transition is the optimistic-concurrency write every status change goes
// through: the update only applies while the stored status still matches
// the expected prior status. MatchedCount zero means another writer won.
func (r *OrderRepo) Transition(ctx context.Context, o *canteen.Order, expected canteen.Status) (bool, error) {
	if o == nil {
		return false, fmt.Errorf("order is nil")
	}

	filter := bson.M{"_id": o.ID, "status": string(expected)}
	update := bson.M{"$set": o}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("cannot transition order: %w", err)
	}

	return result.MatchedCount > 0, nil
}

func (r *OrderRepo) find(ctx context.Context, filter bson.M) ([]*canteen.Order, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("cannot list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*canteen.Order
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}

	return result, nil
}
