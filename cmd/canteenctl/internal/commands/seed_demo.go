package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"

	"github.com/canteenclub/canteen/internal/canteen"
	canteenmongo "github.com/canteenclub/canteen/internal/mongo"
)

// SeedDemo applies demo seeding to the canteen database.
func SeedDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo seeding process...")

	client, db, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Connected to MongoDB")

	repos := canteen.DemoRepos{
		Shifts: canteenmongo.NewShiftRepo(db),
		People: canteenmongo.NewPersonRepo(db),
	}
	if err := canteen.ApplyDemoSeeds(ctx, repos, db, canteen.SystemClock{}, logger); err != nil {
		return fmt.Errorf("apply demo seeds: %w", err)
	}

	return nil
}
