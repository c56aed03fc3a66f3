package robotrepo_test

import (
	"context"
	"testing"
	"time"

	"fleet/internal/adapters/out/postgres/robotrepo"
	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/robot"
	"fleet/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MockAggregateTracker is a mock implementation of aggregateTracker interface.
type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate interface{}) {
	m.Called(id, aggregate)
}

// RobotRepositoryIntegrationTestSuite provides integration tests for RobotRepository
// using PostgreSQL containers to verify database persistence behavior.
type RobotRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *robotrepo.GormRobotRepository
	tracker    *MockAggregateTracker
}

func (suite *RobotRepositoryIntegrationTestSuite) SetupSuite() {
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

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&robotrepo.RobotDTO{}))
}

func (suite *RobotRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE robots").Error)

	suite.tracker = new(MockAggregateTracker)
	suite.repository = robotrepo.NewGormRobotRepository(suite.db, suite.tracker)
}

func (suite *RobotRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *RobotRepositoryIntegrationTestSuite) newRobot(name string) *robot.Robot {
	r, err := robot.NewRobot(kernel.NewUUID(), name, "MK2", "ground")
	suite.Require().NoError(err)
	return r
}

func (suite *RobotRepositoryIntegrationTestSuite) addRobot(r *robot.Robot) {
	suite.tracker.On("TrackAggregate", r.ID(), r).Once()
	suite.Require().NoError(suite.repository.Add(context.Background(), r))
}

func (suite *RobotRepositoryIntegrationTestSuite) TestAdd_OfflineRobot_RoundTrips() {
	original := suite.newRobot("R-1")
	suite.addRobot(original)

	retrieved, err := suite.repository.Get(context.Background(), original.ID())
	suite.Require().NoError(err)

	suite.True(retrieved.ID().IsEqual(original.ID()))
	suite.Equal("R-1", retrieved.Name())
	suite.Equal("MK2", retrieved.Model())
	suite.Equal("ground", retrieved.RobotType())
	suite.Equal(robot.StatusOffline, retrieved.Status())
	suite.InDelta(1.0, retrieved.Battery(), 1e-9)
	suite.Nil(retrieved.CurrentNode())
	suite.Nil(retrieved.TargetNode())

	_, placed := retrieved.Position()
	suite.False(placed)

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *RobotRepositoryIntegrationTestSuite) TestUpdate_ActivatedRobot_PersistsPlacement() {
	ctx := context.Background()
	original := suite.newRobot("R-1")
	suite.addRobot(original)

	nodeID := kernel.NewUUID()
	at, err := kernel.NewGeoPoint(55.75, 37.61)
	suite.Require().NoError(err)
	suite.Require().NoError(original.Activate(nodeID, at))

	suite.tracker.On("TrackAggregate", original.ID(), original).Once()
	suite.Require().NoError(suite.repository.Update(ctx, original))

	retrieved, err := suite.repository.Get(ctx, original.ID())
	suite.Require().NoError(err)
	suite.Equal(robot.StatusIdle, retrieved.Status())
	suite.Require().NotNil(retrieved.CurrentNode())
	suite.True(retrieved.CurrentNode().IsEqual(nodeID))

	pos, placed := retrieved.Position()
	suite.Require().True(placed)
	suite.InDelta(55.75, pos.Latitude(), 1e-9)
	suite.InDelta(37.61, pos.Longitude(), 1e-9)

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *RobotRepositoryIntegrationTestSuite) TestUpdate_ClearedTarget_OverwritesNull() {
	ctx := context.Background()

	nodeID := kernel.NewUUID()
	targetID := kernel.NewUUID()
	at, err := kernel.NewGeoPoint(55.75, 37.61)
	suite.Require().NoError(err)

	original, err := robot.RestoreRobot(
		kernel.NewUUID(), "R-1", "MK2", "ground",
		robot.StatusEnRouteToPickup, 0.8,
		&nodeID, &targetID, &at, 1,
	)
	suite.Require().NoError(err)
	suite.addRobot(original)

	// Cancellation releases the assignment; the cleared target must persist.
	suite.Require().NoError(original.ReleaseAssignment(false))
	suite.tracker.On("TrackAggregate", original.ID(), original).Once()
	suite.Require().NoError(suite.repository.Update(ctx, original))

	retrieved, err := suite.repository.Get(ctx, original.ID())
	suite.Require().NoError(err)
	suite.Equal(robot.StatusIdle, retrieved.Status())
	suite.Nil(retrieved.TargetNode())
	suite.Equal(0, retrieved.ActiveOrders())

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *RobotRepositoryIntegrationTestSuite) TestGet_NonExistentRobot_ReturnsNotFoundError() {
	retrieved, err := suite.repository.Get(context.Background(), kernel.NewUUID())

	suite.Nil(retrieved)
	suite.Require().Error(err)

	var notFoundErr *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFoundErr)
}

func (suite *RobotRepositoryIntegrationTestSuite) TestGetAll_OrderedByName() {
	beta := suite.newRobot("Beta")
	alpha := suite.newRobot("Alpha")
	suite.addRobot(beta)
	suite.addRobot(alpha)

	robots, err := suite.repository.GetAll(context.Background())
	suite.Require().NoError(err)
	suite.Require().Len(robots, 2)
	suite.Equal("Alpha", robots[0].Name())
	suite.Equal("Beta", robots[1].Name())
}

func (suite *RobotRepositoryIntegrationTestSuite) TestRemove_DeletesRobot() {
	ctx := context.Background()
	original := suite.newRobot("R-1")
	suite.addRobot(original)

	suite.Require().NoError(suite.repository.Remove(ctx, original.ID()))

	_, err := suite.repository.Get(ctx, original.ID())
	suite.Require().Error(err)

	var notFoundErr *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFoundErr)
}

func TestRobotRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(RobotRepositoryIntegrationTestSuite))
}
