package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"

	"github.com/canteenclub/canteen/internal/canteen"
	"github.com/canteenclub/canteen/internal/mongo"
	"github.com/canteenclub/canteen/pkg"
)

const (
	appNamespace = "CANTEEN"
	appName      = "canteen"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	seedCtx, cancelSeeds := context.WithCancel(ctx)
	defer cancelSeeds()

	baseRepo := mongo.NewBaseRepo(config, logger)
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	orderRepo := mongo.NewOrderRepo(db)
	if err := orderRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("%s(%s) cannot ensure order indexes: %v", appName, appVersion, err)
	}
	personRepo := mongo.NewPersonRepo(db)
	shiftRepo := mongo.NewShiftRepo(db)
	restrictionRepo := mongo.NewRestrictionRepo(db)
	if err := restrictionRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("%s(%s) cannot ensure restriction indexes: %v", appName, appVersion, err)
	}
	policyRepo := mongo.NewPolicyRepo(db)

	// Clock: every temporal decision reads from this single source.
	var clock canteen.Clock = canteen.SystemClock{}
	var clockLifecycle apt.LifecycleHooks
	if config.GetStringOrDef("clock.sync.enabled", "false") == "true" {
		server := config.GetStringOrDef("clock.sync.server", "pool.ntp.org")
		interval := durationOrDef(config, "clock.sync.interval", 15*time.Minute)
		synced := canteen.NewSyncedClock(server, interval, logger)
		clock = synced
		clockLifecycle = apt.LifecycleHooks{
			OnStart: synced.Start,
			OnStop:  synced.Stop,
		}
	}

	policyStore := canteen.NewPolicyStore(policyRepo, logger)
	if err := policyStore.Warm(ctx); err != nil {
		log.Fatalf("%s(%s) cannot load policy: %v", appName, appVersion, err)
	}

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	pub, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}
	sub, err := pkg.NewNATSSubscriber(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	publisherLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	}
	subscriberLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return sub.Close()
		},
	}

	streamServer := canteen.NewStreamServer(logger)
	emitter := canteen.NewEmitter(pub, streamServer, clock, logger)

	ledger := canteen.NewStrikeLedger(personRepo, restrictionRepo, policyStore, clock, emitter, logger)

	directoryURL, _ := config.GetString("services.directory.url")
	var directoryClient *apt.ServiceClient
	if directoryURL != "" {
		directoryClient = apt.NewServiceClient(directoryURL)
	}
	eligibility := canteen.NewDirectoryEligibility(directoryClient, logger)

	service := canteen.NewService(canteen.ServiceDeps{
		Orders:      orderRepo,
		Shifts:      shiftRepo,
		People:      personRepo,
		Ledger:      ledger,
		Policies:    policyStore,
		Clock:       clock,
		Eligibility: eligibility,
		Emitter:     emitter,
	}, logger)

	// Change notices from the shift owner and out-of-band policy edits come
	// in over the config topic.
	configSub := canteen.NewConfigSubscriber(sub, shiftRepo, policyStore, clock, logger)
	configSubLifecycle := apt.LifecycleHooks{
		OnStart: configSub.Start,
	}

	sweepInterval := durationOrDef(config, "sweep.interval", 5*time.Minute)
	sweeper := canteen.NewSweeper(orderRepo, shiftRepo, restrictionRepo, ledger, clock, emitter, sweepInterval, logger)
	sweepLifecycle := apt.LifecycleHooks{
		OnStart: sweeper.Start,
		OnStop:  sweeper.Stop,
	}

	hd := canteen.HandlerDeps{
		Service:  service,
		Ledger:   ledger,
		Policies: policyStore,
		Orders:   orderRepo,
		People:   personRepo,
		Shifts:   shiftRepo,
		Emitter:  emitter,
		Stream:   streamServer,
	}
	handler := canteen.NewHandler(hd, config, logger)

	// Setup demo seeding if enabled
	demoEnabled, _ := config.GetString("seeding.demo")
	var seedHooks apt.LifecycleHooks
	if demoEnabled == "true" {
		logger.Info("Demo seeding enabled for canteen service")
		repos := canteen.DemoRepos{Shifts: shiftRepo, People: personRepo}
		seedHooks = apt.LifecycleHooks{
			OnStart: canteen.DemoSeedingFunc(seedCtx, repos, db, clock, logger),
			OnStop: func(context.Context) error {
				cancelSeeds()
				return nil
			},
		}
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true, // Internal API service
	})

	lifecycles := []interface{}{
		apt.LifecycleHooks{OnStop: baseRepo.Stop},
		clockLifecycle,
		publisherLifecycle,
		subscriberLifecycle,
		configSubLifecycle,
		sweepLifecycle,
	}
	if demoEnabled == "true" {
		lifecycles = append(lifecycles, seedHooks)
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}

func durationOrDef(config *apt.Config, key string, def time.Duration) time.Duration {
	raw := config.GetStringOrDef(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
