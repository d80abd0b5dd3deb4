package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/canteenclub/canteen/internal/canteen"
)

// policyDocID keys the singleton policy document.
const policyDocID = "current"

type PolicyRepo struct {
	collection *mongo.Collection
}

func NewPolicyRepo(db *mongo.Database) *PolicyRepo {
	return &PolicyRepo{
		collection: db.Collection("policies"),
	}
}

type policyDoc struct {
	ID     string         `bson:"_id"`
	Policy canteen.Policy `bson:"policy"`
}

func (r *PolicyRepo) Load(ctx context.Context) (*canteen.Policy, error) {
	var doc policyDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": policyDocID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot load policy: %w", err)
	}
	return &doc.Policy, nil
}

// Save replaces the whole document, so readers that reload always see one
// consistent policy.
func (r *PolicyRepo) Save(ctx context.Context, p *canteen.Policy) error {
	if p == nil {
		return fmt.Errorf("policy is nil")
	}

	doc := policyDoc{ID: policyDocID, Policy: *p}
	opts := options.Replace().SetUpsert(true)

	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": policyDocID}, doc, opts); err != nil {
		return fmt.Errorf("cannot save policy: %w", err)
	}

	return nil
}
