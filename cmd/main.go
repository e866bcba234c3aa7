package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/feed"
	"github.com/G1okz/Geo-app/internal/infrastructure/configs"
	"github.com/G1okz/Geo-app/internal/infrastructure/events"
	"github.com/G1okz/Geo-app/internal/infrastructure/logging"
	"github.com/G1okz/Geo-app/internal/infrastructure/messaging"
	"github.com/G1okz/Geo-app/internal/infrastructure/ratelimiter"
	memrepo "github.com/G1okz/Geo-app/internal/infrastructure/repository"
	"github.com/G1okz/Geo-app/internal/infrastructure/tracing"
	"github.com/G1okz/Geo-app/internal/persistence/db"
	mongorepo "github.com/G1okz/Geo-app/internal/persistence/repository"
	"github.com/G1okz/Geo-app/internal/presentation/api"
	"github.com/G1okz/Geo-app/internal/presentation/handler/health"
	"github.com/G1okz/Geo-app/internal/presentation/handler/locations"
	"github.com/G1okz/Geo-app/internal/presentation/handler/rooms"
	"github.com/G1okz/Geo-app/internal/presentation/handler/stream"
	"github.com/G1okz/Geo-app/internal/registry"
	"github.com/G1okz/Geo-app/internal/store"
)

const (
	serviceName = "geoapp-api"
)

type indexEnsurer interface {
	EnsureIndexes(ctx context.Context) error
}

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	logger := logging.NewLogger(logging.NewDefaultConfig())
	logger.Init()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	var (
		roomRepository       domain.RoomRepository
		membershipRepository domain.MembershipRepository
		locationRepository   domain.LocationRepository
		auditRepository      domain.RoomAuditRepository
	)

	switch cfg.Store.Driver {
	case "mongo":
		mongoCfg := &db.MongoConfig{
			URI:               cfg.Mongo.URI,
			Database:          cfg.Mongo.Database,
			ConnectionTimeout: cfg.Mongo.ConnectTimeout,
		}

		client, err := db.NewMongoClient(ctx, mongoCfg)
		if err != nil {
			log.Fatal(err)
		}
		defer db.DisconnectMongo(context.Background(), client)

		database := db.GetDatabase(client, mongoCfg)
		roomRepository = mongorepo.NewRoomRepository(database)
		membershipRepository = mongorepo.NewMembershipRepository(database)
		locationRepository = mongorepo.NewLocationRepository(database)
		auditRepository = mongorepo.NewRoomAuditLogRepository(database, cfg.Mongo.AuditRetention)

		for _, repo := range []any{roomRepository, membershipRepository, locationRepository, auditRepository} {
			if ensurer, ok := repo.(indexEnsurer); ok {
				if err := ensurer.EnsureIndexes(ctx); err != nil {
					log.Fatalf("Failed to ensure indexes: %v", err)
				}
			}
		}
	case "memory":
		roomRepository = memrepo.NewRoomRepository()
		membershipRepository = memrepo.NewMembershipRepository()
		locationRepository = memrepo.NewLocationRepository()
	default:
		log.Fatalf("unknown store driver %q: supported drivers: [memory, mongo]", cfg.Store.Driver)
	}

	var (
		locationPublisher store.RemotePublisher
		roomPublisher     registry.RemotePublisher
	)

	if cfg.RabbitMQ.Enabled {
		rabbitmq, err := messaging.NewRabbitMQ(cfg.RabbitMQ.URL)
		if err != nil {
			log.Fatal(err)
		}
		defer rabbitmq.Close()

		log.Println("Starting RabbitMQ connection")

		locationPublisher = events.NewLocationPublisher(rabbitmq)
		roomPublisher = events.NewRoomPublisher(rabbitmq)

		if auditRepository != nil {
			auditConsumer := events.NewAuditConsumer(rabbitmq, auditRepository, logger)
			if err := auditConsumer.Listen(); err != nil {
				log.Fatal(err)
			}
		}
	}

	mux := feed.NewMultiplexer(locationRepository, logger, cfg.Feed.SubscriberBuffer)
	locationStore := store.New(locationRepository, mux, locationPublisher, logger)
	roomRegistry := registry.New(roomRepository, membershipRepository, locationStore, roomPublisher, logger)

	roomHandler := rooms.NewHandler(roomRegistry)
	locationsHandler := locations.NewHandler(roomRegistry, locationStore)
	streamHandler := stream.NewHandler(roomRegistry, locationStore, mux, cfg.Reporter.Interval, cfg.Reporter.SampleBuffer, logger)
	healthHandler := health.NewHandler()

	rl := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		CacheTTL:         cfg.RateLimiter.CacheTTL,
		SourceHeaderKey:  cfg.RateLimiter.SourceHeaderKey,
	})
	app := api.NewApplication(*cfg, roomHandler, locationsHandler, streamHandler, healthHandler, logger, rl)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	if err := app.Run(app.Mount()); err != nil {
		logger.Fatalf("server error: %v", err)
	}
}
