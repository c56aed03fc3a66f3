package commands_test

import (
	"context"
	"sync"

	"fleet/internal/core/application/usecases/commands"
	"fleet/internal/core/domain/events"
	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/node"
	"fleet/internal/core/domain/model/order"
	"fleet/internal/core/domain/model/robot"
	"fleet/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockNodeRepository struct{ mock.Mock }

func (m *MockNodeRepository) Add(ctx context.Context, n *node.Node) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNodeRepository) Get(ctx context.Context, id kernel.UUID) (*node.Node, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*node.Node), args.Error(1)
}

func (m *MockNodeRepository) GetAll(ctx context.Context) ([]*node.Node, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*node.Node), args.Error(1)
}

func (m *MockNodeRepository) Remove(ctx context.Context, id kernel.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockRobotRepository struct{ mock.Mock }

func (m *MockRobotRepository) Add(ctx context.Context, r *robot.Robot) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRobotRepository) Update(ctx context.Context, r *robot.Robot) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRobotRepository) Get(ctx context.Context, id kernel.UUID) (*robot.Robot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*robot.Robot), args.Error(1)
}

func (m *MockRobotRepository) GetAll(ctx context.Context) ([]*robot.Robot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*robot.Robot), args.Error(1)
}

func (m *MockRobotRepository) Remove(ctx context.Context, id kernel.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllInCreatedStatus(ctx context.Context) ([]*order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllActive(ctx context.Context) ([]*order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetActiveByRobot(ctx context.Context, robotID kernel.UUID) ([]*order.Order, error) {
	args := m.Called(ctx, robotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) NodeRepository() ports.NodeRepository {
	args := m.Called()
	return args.Get(0).(ports.NodeRepository)
}

func (m *MockUoW) RobotRepository() ports.RobotRepository {
	args := m.Called()
	return args.Get(0).(ports.RobotRepository)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockNodeUoWFactory struct{ mock.Mock }

func (m *MockNodeUoWFactory) Create() commands.NodeUoW {
	args := m.Called()
	return args.Get(0).(commands.NodeUoW)
}

type MockRobotUoWFactory struct{ mock.Mock }

func (m *MockRobotUoWFactory) Create() commands.RobotUoW {
	args := m.Called()
	return args.Get(0).(commands.RobotUoW)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

// RecordingPublisher captures published deltas in order for assertions.
type RecordingPublisher struct {
	mu     sync.Mutex
	deltas []events.Delta
}

func (p *RecordingPublisher) Publish(_ context.Context, delta events.Delta) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deltas = append(p.deltas, delta)
	return nil
}

// Deltas returns the captured deltas in publication order.
func (p *RecordingPublisher) Deltas() []events.Delta {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Delta, len(p.deltas))
	copy(out, p.deltas)
	return out
}

// KindsFor returns the delta kinds published for one entity, in order.
func (p *RecordingPublisher) KindsFor(entityID string) []events.Kind {
	var kinds []events.Kind
	for _, d := range p.Deltas() {
		if d.EntityID == entityID {
			kinds = append(kinds, d.Kind)
		}
	}
	return kinds
}
