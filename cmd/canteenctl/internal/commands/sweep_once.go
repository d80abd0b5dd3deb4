package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/canteenclub/canteen/internal/canteen"
	canteenmongo "github.com/canteenclub/canteen/internal/mongo"
)

// SweepOnce runs a single attendance sweep manually. Useful to catch up
// after downtime without waiting for the service's own interval, and safe to
// run while the service is up: the conditional writes keep the two from
// double-finalizing an order.
func SweepOnce(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Running one attendance sweep...")

	client, db, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Connected to MongoDB")

	orderRepo := canteenmongo.NewOrderRepo(db)
	personRepo := canteenmongo.NewPersonRepo(db)
	shiftRepo := canteenmongo.NewShiftRepo(db)
	restrictionRepo := canteenmongo.NewRestrictionRepo(db)
	policyRepo := canteenmongo.NewPolicyRepo(db)

	policyStore := canteen.NewPolicyStore(policyRepo, logger)
	if err := policyStore.Warm(ctx); err != nil {
		return fmt.Errorf("load policy: %w", err)
	}

	clock := canteen.SystemClock{}
	ledger := canteen.NewStrikeLedger(personRepo, restrictionRepo, policyStore, clock, nil, logger)
	sweeper := canteen.NewSweeper(orderRepo, shiftRepo, restrictionRepo, ledger, clock, nil, time.Minute, logger)

	return sweeper.RunOnce(ctx)
}
