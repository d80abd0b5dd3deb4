package canteen

import (
	"context"
	"errors"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

const demoSeedApplication = "canteen_demo"

// Demo entities carry fixed IDs so reseeding upserts instead of duplicating
// and cleanup tooling can remove exactly what seeding created.
var (
	demoShiftDefs = []struct {
		id    string
		name  string
		start string
		end   string
		grace int
	}{
		{"7f7f41f2-6b0a-4a8e-9a63-1a54a3e3a001", "Breakfast", "06:30", "09:00", 30},
		{"7f7f41f2-6b0a-4a8e-9a63-1a54a3e3a002", "Lunch", "12:00", "14:30", 30},
		{"7f7f41f2-6b0a-4a8e-9a63-1a54a3e3a003", "Night", "22:00", "01:00", 45},
	}

	demoPersonDefs = []struct {
		id   string
		name string
	}{
		{"aa6f0c9e-52f4-47f4-8b6a-6d2b4beafd01", "Dana Reyes"},
		{"aa6f0c9e-52f4-47f4-8b6a-6d2b4beafd02", "Mikel Arruti"},
		{"aa6f0c9e-52f4-47f4-8b6a-6d2b4beafd03", "Priya Nair"},
	}
)

// DemoShiftIDs returns the fixed IDs of the seeded demo shifts.
func DemoShiftIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(demoShiftDefs))
	for _, def := range demoShiftDefs {
		ids = append(ids, uuid.MustParse(def.id))
	}
	return ids
}

// DemoPersonIDs returns the fixed IDs of the seeded demo people.
func DemoPersonIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(demoPersonDefs))
	for _, def := range demoPersonDefs {
		ids = append(ids, uuid.MustParse(def.id))
	}
	return ids
}

// DemoRepos groups the writable repositories demo seeding needs.
type DemoRepos struct {
	Shifts ShiftRepo
	People interface {
		Save(ctx context.Context, p *Person) error
	}
}

// ApplyDemoSeeds populates shifts and a few people so the engine can be
// exercised without the external account and shift collaborators.
func ApplyDemoSeeds(ctx context.Context, repos DemoRepos, db *mongo.Database, clock Clock, logger apt.Logger) error {
	if db == nil {
		return errors.New("database is required for demo seeding")
	}
	if clock == nil {
		clock = SystemClock{}
	}

	tracker := seed.NewMongoTracker(db)

	seeds := []seed.Seed{
		{
			ID:          "2025-06-02_demo_shifts_v1",
			Description: "Create the three standard canteen shifts",
			Run: func(ctx context.Context) error {
				return seedDemoShifts(ctx, repos.Shifts, clock)
			},
		},
		{
			ID:          "2025-06-02_demo_people_v1",
			Description: "Create demo people with clean strike records",
			Run: func(ctx context.Context) error {
				return seedDemoPeople(ctx, repos.People, clock)
			},
		},
	}

	logger.Info("Applying demo seeds")
	if err := seed.Apply(ctx, tracker, seeds, demoSeedApplication); err != nil {
		return err
	}
	logger.Info("Demo seeds applied successfully")
	return nil
}

func seedDemoShifts(ctx context.Context, shifts ShiftRepo, clock Clock) error {
	now := clock.Now()
	for _, def := range demoShiftDefs {
		s := NewShift(def.name, def.start, def.end)
		s.ID = uuid.MustParse(def.id)
		s.GraceMinutes = def.grace
		s.CreatedAt = now
		s.UpdatedAt = now
		if err := shifts.Save(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func seedDemoPeople(ctx context.Context, people interface {
	Save(ctx context.Context, p *Person) error
}, clock Clock) error {
	now := clock.Now()
	for _, def := range demoPersonDefs {
		p := &Person{
			ID:        uuid.MustParse(def.id),
			Name:      def.name,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := people.Save(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// DemoSeedingFunc returns a lifecycle OnStart-compatible function that runs
// seeding in the background.
func DemoSeedingFunc(seedCtx context.Context, repos DemoRepos, db *mongo.Database, clock Clock, logger apt.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		logger.Info("Starting demo seeding in background")
		go func() {
			if err := ApplyDemoSeeds(seedCtx, repos, db, clock, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Demo seeds failed: %v", err)
			}
		}()
		return nil
	}
}
