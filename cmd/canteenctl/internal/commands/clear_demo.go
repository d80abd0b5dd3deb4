package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/canteenclub/canteen/internal/canteen"
)

// ClearDemo removes the seeded demo shifts and people, plus any orders and
// restrictions that reference the demo people, then resets the seed tracker
// so seed-demo can run again.
func ClearDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo data cleanup...")

	client, db, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Connected to MongoDB")

	personIDs := canteen.DemoPersonIDs()
	shiftIDs := canteen.DemoShiftIDs()

	ordersResult, err := db.Collection("orders").DeleteMany(ctx, bson.M{"person_id": bson.M{"$in": personIDs}})
	if err != nil {
		return fmt.Errorf("delete demo orders: %w", err)
	}
	logger.Info("Deleted demo orders", "count", ordersResult.DeletedCount)

	restrictionsResult, err := db.Collection("restrictions").DeleteMany(ctx, bson.M{"person_id": bson.M{"$in": personIDs}})
	if err != nil {
		return fmt.Errorf("delete demo restrictions: %w", err)
	}
	logger.Info("Deleted demo restrictions", "count", restrictionsResult.DeletedCount)

	peopleResult, err := db.Collection("people").DeleteMany(ctx, bson.M{"_id": bson.M{"$in": personIDs}})
	if err != nil {
		return fmt.Errorf("delete demo people: %w", err)
	}
	logger.Info("Deleted demo people", "count", peopleResult.DeletedCount)

	shiftsResult, err := db.Collection("shifts").DeleteMany(ctx, bson.M{"_id": bson.M{"$in": shiftIDs}})
	if err != nil {
		return fmt.Errorf("delete demo shifts: %w", err)
	}
	logger.Info("Deleted demo shifts", "count", shiftsResult.DeletedCount)

	trackerResult, err := db.Collection("_seeds").DeleteMany(ctx, bson.M{"_id": bson.M{"$in": []string{
		"2025-06-02_demo_shifts_v1",
		"2025-06-02_demo_people_v1",
	}}})
	if err != nil {
		return fmt.Errorf("delete seed tracker entries: %w", err)
	}
	logger.Info("Cleared seed tracker", "deleted", trackerResult.DeletedCount)

	return nil
}
