package cmd

import (
	"log/slog"

	"fooddelivery/internal/adapters/in/http"
	"fooddelivery/internal/adapters/out/eventbus"
	"fooddelivery/internal/adapters/out/postgres"
	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/application/usecases/queries"
	"fooddelivery/internal/core/saga"
	"fooddelivery/internal/jobs"

	"gorm.io/gorm"
)

// CompositionRoot wires every adapter and use case of the application.
// The async step registry and the saga engine are process-wide singletons
// shared by the HTTP handlers and the timeout sweeper.
type CompositionRoot struct {
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	registry   *saga.AsyncStepRegistry
	engine     *saga.Engine
	bus        *eventbus.ChannelEventBus
	logger     *slog.Logger
}

// NewCompositionRoot builds the application object graph on the given
// database connection. Fails only if the creation workflow is misdeclared.
func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	root := &CompositionRoot{
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		registry:   saga.NewAsyncStepRegistry(),
		bus:        eventbus.NewChannelEventBus(config.EventBusBuffer),
		logger:     logger,
	}
	root.engine = saga.NewEngine(root.registry, logger)

	// Validate the workflow declaration at startup rather than on first request.
	if _, err := root.createDeliveryWorkflow(); err != nil {
		return nil, err
	}

	return root, nil
}

// Registry returns the shared async step registry, drained at shutdown.
func (c *CompositionRoot) Registry() *saga.AsyncStepRegistry {
	return c.registry
}

// Engine returns the shared saga engine.
func (c *CompositionRoot) Engine() *saga.Engine {
	return c.engine
}

// EventBus returns the in-process event bus carrying restaurant notifications.
func (c *CompositionRoot) EventBus() *eventbus.ChannelEventBus {
	return c.bus
}

// CreateJobManager builds the background job manager driving the timeout sweeper.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.engine, c.logger)
}

// CreateServer builds the HTTP server with all handlers wired.
func (c *CompositionRoot) CreateServer() (*http.Server, error) {
	startHandler, err := c.createStartDeliveryCommandHandler()
	if err != nil {
		return nil, err
	}

	return http.NewServer(
		startHandler,
		c.createClaimDeliveryCommandHandler(),
		c.createUpdateDeliveryCommandHandler(),
		queries.NewGetDeliveryQueryHandler(c.gormDB),
		queries.NewGetDeliveriesByDriverQueryHandler(c.gormDB),
	), nil
}

func (c *CompositionRoot) deliveryUoWFactory() commands.DeliveryUoWFactory {
	return FuncDeliveryUoWFactory(func() commands.DeliveryUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) createDeliveryWorkflow() (saga.Workflow, error) {
	return commands.NewCreateDeliveryWorkflow(c.deliveryUoWFactory(), c.bus, c.logger)
}

func (c *CompositionRoot) createStartDeliveryCommandHandler() (commands.StartDeliveryCommandHandler, error) {
	workflow, err := c.createDeliveryWorkflow()
	if err != nil {
		return commands.StartDeliveryCommandHandler{}, err
	}
	return commands.NewStartDeliveryCommandHandler(c.engine, workflow), nil
}

func (c *CompositionRoot) createClaimDeliveryCommandHandler() commands.ClaimDeliveryCommandHandler {
	return commands.NewClaimDeliveryCommandHandler(c.deliveryUoWFactory(), c.engine, c.logger)
}

func (c *CompositionRoot) createUpdateDeliveryCommandHandler() commands.UpdateDeliveryCommandHandler {
	return commands.NewUpdateDeliveryCommandHandler(c.deliveryUoWFactory(), c.engine, c.logger)
}

// FuncDeliveryUoWFactory adapts a closure to commands.DeliveryUoWFactory.
type FuncDeliveryUoWFactory func() commands.DeliveryUoW

func (f FuncDeliveryUoWFactory) Create() commands.DeliveryUoW {
	return f()
}
