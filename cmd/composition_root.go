package cmd

import (
	"context"
	"fmt"

	"fleet/internal/adapters/out/broker"
	"fleet/internal/adapters/out/postgres"
	"fleet/internal/adapters/out/redisstream"
	"fleet/internal/core/application/usecases/commands"
	"fleet/internal/core/application/usecases/queries"
	"fleet/internal/core/domain/services"
	"fleet/internal/core/fleet"
	"fleet/internal/core/ports"
	"fleet/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CompositionRoot wires the engine's collaborators together. All handlers
// created from one root share the same state store, broker, and metrics
// registry.
type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	store      *fleet.Store
	broker     *broker.Broker
	publisher  ports.EventPublisher
	registry   *prometheus.Registry
	dispatcher services.Dispatcher
	router     services.Router
}

// NewCompositionRoot builds the shared collaborators from the given
// database connection.
func NewCompositionRoot(config Config, gormDB *gorm.DB) (*CompositionRoot, error) {
	store := fleet.NewStore()
	deltaBroker := broker.NewBroker(store)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(metrics.NewFleetCollector(store))
	engineMetrics := metrics.NewMetrics(registry)

	router := services.NewRouter()
	dispatcher, err := services.NewDispatcher(router, config.ReserveBattery, config.CostPerKm)
	if err != nil {
		return nil, fmt.Errorf("build dispatcher: %w", err)
	}

	return &CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		store:      store,
		broker:     deltaBroker,
		publisher:  metrics.NewInstrumentedPublisher(deltaBroker, engineMetrics),
		registry:   registry,
		dispatcher: dispatcher,
		router:     router,
	}, nil
}

// Store returns the shared fleet state store.
func (c *CompositionRoot) Store() *fleet.Store {
	return c.store
}

// Broker returns the shared delta broker.
func (c *CompositionRoot) Broker() *broker.Broker {
	return c.broker
}

// Registry returns the metrics registry backing /metrics.
func (c *CompositionRoot) Registry() *prometheus.Registry {
	return c.registry
}

// WarmStateStore loads all nodes and robots from storage into the state
// store. Must run once before the jobs and the HTTP surface start.
func (c *CompositionRoot) WarmStateStore(ctx context.Context) error {
	uow := c.uowFactory.Create()

	nodes, err := uow.NodeRepository().GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load nodes: %w", err)
	}
	for _, n := range nodes {
		if err := c.store.AddNode(n); err != nil {
			return fmt.Errorf("register node %s: %w", n.ID(), err)
		}
	}

	robots, err := uow.RobotRepository().GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load robots: %w", err)
	}
	for _, r := range robots {
		if err := c.store.AddRobot(r); err != nil {
			return fmt.Errorf("register robot %s: %w", r.ID(), err)
		}
	}

	return nil
}

// CreateRedisRelay builds the relay forwarding deltas to Redis streams.
func (c *CompositionRoot) CreateRedisRelay() *redisstream.Relay {
	client := redis.NewClient(&redis.Options{Addr: c.config.RedisAddr})
	return redisstream.NewRelay(client, c.broker, c.config.RedisStreamMaxLen)
}

func (c *CompositionRoot) CreateCreateNodeCommandHandler() commands.CreateNodeCommandHandler {
	var f commands.NodeUoWFactory = FuncNodeUoWFactory(func() commands.NodeUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateNodeCommandHandler(f, c.store)
}

func (c *CompositionRoot) CreateRemoveNodeCommandHandler() commands.RemoveNodeCommandHandler {
	var f commands.NodeUoWFactory = FuncNodeUoWFactory(func() commands.NodeUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRemoveNodeCommandHandler(f, c.store)
}

func (c *CompositionRoot) CreateCreateRobotCommandHandler() commands.CreateRobotCommandHandler {
	var f commands.RobotUoWFactory = FuncRobotUoWFactory(func() commands.RobotUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateRobotCommandHandler(f, c.store, c.publisher)
}

func (c *CompositionRoot) CreateDecommissionRobotCommandHandler() commands.DecommissionRobotCommandHandler {
	var f commands.RobotUoWFactory = FuncRobotUoWFactory(func() commands.RobotUoW {
		return c.uowFactory.Create()
	})
	return commands.NewDecommissionRobotCommandHandler(f, c.store, c.publisher)
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateOrderCommandHandler(f, c.store, c.publisher)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(
		c.crossAggregateUoWFactory(), c.store, c.publisher, c.config.ReserveBattery,
	)
}

func (c *CompositionRoot) CreateSettlePaymentCommandHandler() commands.SettlePaymentCommandHandler {
	return commands.NewSettlePaymentCommandHandler(
		c.crossAggregateUoWFactory(),
		c.CreateCancelOrderCommandHandler(),
		c.store,
		c.publisher,
	)
}

func (c *CompositionRoot) CreateDispatchOrdersCommandHandler() commands.DispatchOrdersCommandHandler {
	return commands.NewDispatchOrdersCommandHandler(
		c.crossAggregateUoWFactory(),
		c.store,
		c.dispatcher,
		c.publisher,
		c.config.ReserveBattery,
	)
}

func (c *CompositionRoot) CreateMoveRobotsCommandHandler() commands.MoveRobotsCommandHandler {
	return commands.NewMoveRobotsCommandHandler(
		c.crossAggregateUoWFactory(),
		c.store,
		c.router,
		c.publisher,
		commands.MotionParams{
			StepKm:     c.config.StepKm,
			CostPerKm:  c.config.CostPerKm,
			ChargeRate: c.config.ChargeRate,
		},
	)
}

func (c *CompositionRoot) CreateGetAllRobotsQueryHandler() queries.GetAllRobotsQueryHandler {
	return queries.NewGetAllRobotsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetActiveOrdersQueryHandler() queries.GetActiveOrdersQueryHandler {
	return queries.NewGetActiveOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetUserOrdersQueryHandler() queries.GetUserOrdersQueryHandler {
	return queries.NewGetUserOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) crossAggregateUoWFactory() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

type FuncNodeUoWFactory func() commands.NodeUoW

func (f FuncNodeUoWFactory) Create() commands.NodeUoW {
	return f()
}

type FuncRobotUoWFactory func() commands.RobotUoW

func (f FuncRobotUoWFactory) Create() commands.RobotUoW {
	return f()
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
