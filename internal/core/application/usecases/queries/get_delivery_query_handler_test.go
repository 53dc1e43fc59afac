package queries_test

import (
	"context"
	"testing"
	"time"

	"fooddelivery/internal/adapters/out/postgres/deliveryrepo"
	"fooddelivery/internal/core/application/usecases/queries"
	"fooddelivery/internal/core/domain/model/delivery"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// mockAggregateTracker is a no-op tracker for seeding test data.
type mockAggregateTracker struct{}

func (mockAggregateTracker) TrackAggregate(kernel.UUID, any) {}

type GetDeliveryQueryHandlerTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	handler   queries.GetDeliveryQueryHandler
	repo      *deliveryrepo.GormDeliveryRepository
}

func (suite *GetDeliveryQueryHandlerTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(
		&deliveryrepo.DeliveryDTO{},
		&deliveryrepo.ItemDTO{},
		&deliveryrepo.PendingDriverDTO{},
	))

	suite.handler = queries.NewGetDeliveryQueryHandler(db)
	suite.repo = deliveryrepo.NewGormDeliveryRepository(db, mockAggregateTracker{})
}

func (suite *GetDeliveryQueryHandlerTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *GetDeliveryQueryHandlerTestSuite) SetupTest() {
	suite.Require().NoError(
		suite.db.Exec("TRUNCATE TABLE deliveries, delivery_items, pending_drivers").Error)
}

func (suite *GetDeliveryQueryHandlerTestSuite) seedDelivery() *delivery.Delivery {
	item1, _ := delivery.NewItem("Pad Thai", 2)
	item2, _ := delivery.NewItem("Mango Sticky Rice", 1)
	d, err := delivery.NewDelivery(
		kernel.NewUUID(), "order_01", kernel.NewUUID(), []delivery.Item{item1, item2})
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repo.Add(context.Background(), d))
	return d
}

func (suite *GetDeliveryQueryHandlerTestSuite) TestHandle_ReturnsDeliveryWithItems() {
	d := suite.seedDelivery()

	query, err := queries.NewGetDeliveryQuery(d.ID())
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)
	suite.Require().NoError(err)
	suite.True(d.ID().IsEqual(result.ID))
	suite.Equal("order_01", result.TransactionID)
	suite.Equal(delivery.Created, result.Status)
	suite.Nil(result.DriverID)
	suite.False(result.IsDeleted)
	suite.Len(result.Items, 2)
	suite.Equal("Mango Sticky Rice", result.Items[0].Name)
	suite.Equal("Pad Thai", result.Items[1].Name)
}

func (suite *GetDeliveryQueryHandlerTestSuite) TestHandle_ClaimedDeliveryIncludesDriver() {
	d := suite.seedDelivery()
	driverID := kernel.NewUUID()
	eta := time.Now().Add(30 * time.Minute)
	_, err := suite.repo.ClaimForDriver(context.Background(), d.ID(), driverID, eta)
	suite.Require().NoError(err)

	query, err := queries.NewGetDeliveryQuery(d.ID())
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)
	suite.Require().NoError(err)
	suite.Equal(delivery.PickupClaimed, result.Status)
	suite.Require().NotNil(result.DriverID)
	suite.True(driverID.IsEqual(*result.DriverID))
	suite.WithinDuration(eta, result.ETA, time.Second)
}

func (suite *GetDeliveryQueryHandlerTestSuite) TestHandle_SoftDeletedDeliveryStillVisible() {
	d := suite.seedDelivery()
	suite.Require().NoError(d.Cancel())
	suite.Require().NoError(suite.repo.Update(context.Background(), d))
	suite.Require().NoError(suite.repo.SoftDelete(context.Background(), d.ID()))

	query, err := queries.NewGetDeliveryQuery(d.ID())
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)
	suite.Require().NoError(err)
	suite.Equal(delivery.Cancelled, result.Status)
	suite.True(result.IsDeleted)
}

func (suite *GetDeliveryQueryHandlerTestSuite) TestHandle_NotFound() {
	query, err := queries.NewGetDeliveryQuery(kernel.NewUUID())
	suite.Require().NoError(err)

	_, err = suite.handler.Handle(context.Background(), query)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *GetDeliveryQueryHandlerTestSuite) TestHandle_InvalidQuery_ReturnsError() {
	_, err := suite.handler.Handle(context.Background(), queries.GetDeliveryQuery{})
	suite.Require().ErrorIs(err, queries.ErrGetDeliveryQueryIsNotConstructed)
}

func TestGetDeliveryQueryHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(GetDeliveryQueryHandlerTestSuite))
}
