package queries_test

import (
	"context"
	"testing"
	"time"

	"fleet/internal/adapters/out/postgres/orderrepo"
	"fleet/internal/core/application/usecases/queries"
	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/order"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type OrderQueryHandlersTestSuite struct {
	suite.Suite
	container     *postgres.PostgresContainer
	db            *gorm.DB
	activeHandler queries.GetActiveOrdersQueryHandler
	userHandler   queries.GetUserOrdersQueryHandler
	repo          *orderrepo.GormOrderRepository
}

func (suite *OrderQueryHandlersTestSuite) SetupSuite() {
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

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	err = db.AutoMigrate(&orderrepo.OrderDTO{})
	suite.Require().NoError(err)

	suite.activeHandler = queries.NewGetActiveOrdersQueryHandler(db)
	suite.userHandler = queries.NewGetUserOrdersQueryHandler(db)
	suite.repo = orderrepo.NewGormOrderRepository(db, &mockAggregateTracker{})
}

func (suite *OrderQueryHandlersTestSuite) TearDownSuite() {
	if suite.container != nil {
		err := suite.container.Terminate(context.Background())
		suite.Require().NoError(err)
	}
}

func (suite *OrderQueryHandlersTestSuite) SetupTest() {
	err := suite.db.Exec("TRUNCATE TABLE orders CASCADE").Error
	suite.Require().NoError(err)
}

func (suite *OrderQueryHandlersTestSuite) newOrder(
	senderID, receiverID kernel.UUID,
	createdAt time.Time,
) *order.Order {
	o, err := order.NewOrder(
		kernel.NewUUID(),
		senderID,
		receiverID,
		kernel.NewUUID(),
		kernel.NewUUID(),
		"",
		createdAt,
		"pay-ref",
	)
	suite.Require().NoError(err)
	return o
}

func (suite *OrderQueryHandlersTestSuite) TestGetActiveOrders_EmptyDatabase_ReturnsEmptySlice() {
	query := queries.NewGetActiveOrdersQuery()

	result, err := suite.activeHandler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.NotNil(result)
	suite.Empty(result)
}

func (suite *OrderQueryHandlersTestSuite) TestGetActiveOrders_ExcludesTerminalOrdersOldestFirst() {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sender := kernel.NewUUID()
	receiver := kernel.NewUUID()

	newest := suite.newOrder(sender, receiver, base.Add(2*time.Hour))
	suite.Require().NoError(suite.repo.Add(ctx, newest))

	oldest := suite.newOrder(sender, receiver, base)
	robotID := kernel.NewUUID()
	suite.Require().NoError(oldest.Assign(robotID))
	suite.Require().NoError(oldest.StartPickupLeg())
	suite.Require().NoError(suite.repo.Add(ctx, oldest))

	cancelled := suite.newOrder(sender, receiver, base.Add(time.Hour))
	suite.Require().NoError(cancelled.Cancel(order.CancelReasonRequested))
	suite.Require().NoError(suite.repo.Add(ctx, cancelled))

	query := queries.NewGetActiveOrdersQuery()

	result, err := suite.activeHandler.Handle(ctx, query)

	suite.Require().NoError(err)
	suite.Require().Len(result, 2)

	suite.Equal(oldest.ID(), result[0].ID)
	suite.Equal(order.StatusPickupEnRoute.String(), result[0].Status)
	suite.Require().NotNil(result[0].RobotID)
	suite.Equal(robotID, *result[0].RobotID)

	suite.Equal(newest.ID(), result[1].ID)
	suite.Equal(order.StatusCreated.String(), result[1].Status)
	suite.Nil(result[1].RobotID)
}

func (suite *OrderQueryHandlersTestSuite) TestGetActiveOrders_InvalidQuery_ReturnsError() {
	invalidQuery := queries.GetActiveOrdersQuery{}

	result, err := suite.activeHandler.Handle(context.Background(), invalidQuery)

	suite.Require().Error(err)
	suite.Nil(result)
	suite.Contains(err.Error(), "must be created via NewGetActiveOrdersQuery constructor")
}

func (suite *OrderQueryHandlersTestSuite) TestGetUserOrders_MatchesSenderAndReceiverNewestFirst() {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	user := kernel.NewUUID()
	stranger := kernel.NewUUID()

	sent := suite.newOrder(user, stranger, base)
	suite.Require().NoError(suite.repo.Add(ctx, sent))

	received := suite.newOrder(stranger, user, base.Add(time.Hour))
	suite.Require().NoError(received.Cancel(order.CancelReasonRequested))
	suite.Require().NoError(suite.repo.Add(ctx, received))

	unrelated := suite.newOrder(stranger, kernel.NewUUID(), base)
	suite.Require().NoError(suite.repo.Add(ctx, unrelated))

	query, err := queries.NewGetUserOrdersQuery(user)
	suite.Require().NoError(err)

	result, err := suite.userHandler.Handle(ctx, query)

	suite.Require().NoError(err)
	suite.Require().Len(result, 2)

	suite.Equal(received.ID(), result[0].ID)
	suite.Equal(order.StatusCancelled.String(), result[0].Status)
	suite.Equal(string(order.CancelReasonRequested), result[0].CancelReason)

	suite.Equal(sent.ID(), result[1].ID)
	suite.Equal(order.StatusCreated.String(), result[1].Status)
	suite.Empty(result[1].CancelReason)
}

func (suite *OrderQueryHandlersTestSuite) TestGetUserOrders_NoOrders_ReturnsEmptySlice() {
	query, err := queries.NewGetUserOrdersQuery(kernel.NewUUID())
	suite.Require().NoError(err)

	result, err := suite.userHandler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.NotNil(result)
	suite.Empty(result)
}

func (suite *OrderQueryHandlersTestSuite) TestGetUserOrders_InvalidQuery_ReturnsError() {
	invalidQuery := queries.GetUserOrdersQuery{}

	result, err := suite.userHandler.Handle(context.Background(), invalidQuery)

	suite.Require().Error(err)
	suite.Nil(result)
	suite.Contains(err.Error(), "must be created via NewGetUserOrdersQuery constructor")
}

func TestOrderQueryHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(OrderQueryHandlersTestSuite))
}
