package fleet

import (
	"errors"
	"sort"
	"sync"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/node"
	"fleet/internal/core/domain/model/robot"
	"fleet/internal/pkg/errs"
)

// Domain errors for fleet store operations.
var (
	// ErrRobotExists is returned when adding a robot whose ID is already registered.
	ErrRobotExists = errors.New("robot already registered")
	// ErrNodeExists is returned when adding a node whose ID is already registered.
	ErrNodeExists = errors.New("node already registered")
	// ErrNodeInUse is returned when removing a node a robot occupies or targets.
	ErrNodeInUse = errors.New("node is occupied or targeted by a robot")
	// ErrRobotBusy is returned when removing a robot that is neither Idle nor
	// Offline, or that still has active orders.
	ErrRobotBusy = errors.New("robot has active work and cannot be removed")
)

// OccupancyChange reports a node whose occupant count changed during a
// transition, for republication to observers.
type OccupancyChange struct {
	NodeID    kernel.UUID
	Occupants int
}

// Snapshot is a consistent point-in-time view of the whole fleet, used to
// seed observers that subscribe mid-stream.
type Snapshot struct {
	Robots    []robot.Robot
	Nodes     []*node.Node
	Occupancy map[string]int
}

// Store is the authoritative in-memory state of every robot and node.
//
// It is the single writer of mutable robot state: every component mutates
// robots exclusively through TryTransition, which provides compare-and-set
// semantics on the robot's status. Readers get value snapshots that are
// consistent at the point of the read and never change afterwards, so a
// snapshot can never show a half-applied transition.
//
// Concurrency model: one RWMutex guards the maps. Robot aggregates are
// replaced wholesale on mutation (copy, apply, swap), never mutated in
// place, which is what makes the returned value snapshots stable. Races
// between concurrent dispatch cycles and motion ticks resolve through the
// expected-status check: the loser receives a StaleStateError and retries
// or abandons its candidate.
//
// Per-order serialization is provided separately by LockOrder: lifecycle
// transitions for one order never interleave, while unrelated orders
// proceed in parallel.
type Store struct {
	mu     sync.RWMutex
	robots map[string]*robot.Robot
	nodes  map[string]*node.Node

	// occupancy maps node ID to the set of robot IDs parked there.
	occupancy map[string]map[string]struct{}

	lockMu     sync.Mutex
	orderLocks map[string]*sync.Mutex
}

// NewStore creates an empty fleet state store.
func NewStore() *Store {
	return &Store{
		robots:     make(map[string]*robot.Robot),
		nodes:      make(map[string]*node.Node),
		occupancy:  make(map[string]map[string]struct{}),
		orderLocks: make(map[string]*sync.Mutex),
	}
}

// AddNode registers a node. Nodes are immutable reference data; there is no
// update operation.
func (s *Store) AddNode(n *node.Node) error {
	if err := n.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := n.ID().String()
	if _, ok := s.nodes[key]; ok {
		return ErrNodeExists
	}
	s.nodes[key] = n
	return nil
}

// RemoveNode deregisters a node. Removal is refused while any robot occupies
// or targets the node.
func (s *Store) RemoveNode(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.String()
	if _, ok := s.nodes[key]; !ok {
		return errs.NewObjectNotFoundError("node", key)
	}

	for _, r := range s.robots {
		if cur := r.CurrentNode(); cur != nil && cur.IsEqual(id) {
			return ErrNodeInUse
		}
		if tgt := r.TargetNode(); tgt != nil && tgt.IsEqual(id) {
			return ErrNodeInUse
		}
	}

	delete(s.nodes, key)
	delete(s.occupancy, key)
	return nil
}

// Node returns the node with the given ID. Nodes are immutable, so the
// shared pointer is itself a stable snapshot.
func (s *Store) Node(id kernel.UUID) (*node.Node, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id.String()]
	if !ok {
		return nil, errs.NewObjectNotFoundError("node", id.String())
	}
	return n, nil
}

// ListNodes returns all nodes ordered by ID for determinism.
func (s *Store) ListNodes() []*node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*node.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID().Less(out[j].ID()) })
	return out
}

// ListChargingNodes returns all charging stations ordered by ID.
func (s *Store) ListChargingNodes() []*node.Node {
	all := s.ListNodes()
	out := make([]*node.Node, 0, len(all))
	for _, n := range all {
		if n.IsCharging() {
			out = append(out, n)
		}
	}
	return out
}

// AddRobot registers a robot and records its occupancy if it is already
// placed at a node.
func (s *Store) AddRobot(r *robot.Robot) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := r.ID().String()
	if _, ok := s.robots[key]; ok {
		return ErrRobotExists
	}

	owned := *r
	s.robots[key] = &owned
	s.reindexOccupancy(&owned)
	return nil
}

// RemoveRobot deregisters a robot. Only Idle or Offline robots without
// active orders can be removed.
func (s *Store) RemoveRobot(id kernel.UUID) (robot.Robot, error) {
	if err := id.Validate(); err != nil {
		return robot.Robot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.String()
	r, ok := s.robots[key]
	if !ok {
		return robot.Robot{}, errs.NewObjectNotFoundError("robot", key)
	}
	if (r.Status() != robot.StatusIdle && r.Status() != robot.StatusOffline) || r.ActiveOrders() > 0 {
		return robot.Robot{}, ErrRobotBusy
	}

	snapshot := *r
	delete(s.robots, key)
	s.dropFromOccupancy(key)
	return snapshot, nil
}

// Robot returns a value snapshot of the robot with the given ID.
func (s *Store) Robot(id kernel.UUID) (robot.Robot, error) {
	if err := id.Validate(); err != nil {
		return robot.Robot{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.robots[id.String()]
	if !ok {
		return robot.Robot{}, errs.NewObjectNotFoundError("robot", id.String())
	}
	return *r, nil
}

// ListRobots returns value snapshots of all robots ordered by ID.
func (s *Store) ListRobots() []robot.Robot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]robot.Robot, 0, len(s.robots))
	for _, r := range s.robots {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID().Less(out[j].ID()) })
	return out
}

// ListIdleRobots returns value snapshots of all Idle robots ordered by ID.
// The snapshots are candidates only: any commitment based on them must go
// through TryTransition, which revalidates the status.
func (s *Store) ListIdleRobots() []robot.Robot {
	all := s.ListRobots()
	out := make([]robot.Robot, 0, len(all))
	for _, r := range all {
		if r.Status() == robot.StatusIdle {
			out = append(out, r)
		}
	}
	return out
}

// ListRobotsInStatus returns value snapshots of robots in the given status.
func (s *Store) ListRobotsInStatus(status robot.Status) []robot.Robot {
	all := s.ListRobots()
	out := make([]robot.Robot, 0, len(all))
	for _, r := range all {
		if r.Status() == status {
			out = append(out, r)
		}
	}
	return out
}

// Occupants returns the number of robots parked at the given node.
func (s *Store) Occupants(nodeID kernel.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.occupancy[nodeID.String()])
}

// TryTransition applies a mutation to a robot with compare-and-set
// semantics. The mutation runs only if the robot's status still equals
// expected; otherwise a StaleStateError is returned and nothing changes.
//
// apply receives a private copy of the aggregate; the store swaps the copy
// in only when apply succeeds, so a failed mutation can never leave a
// half-applied robot behind.
//
// Returns a snapshot of the robot after the transition together with the
// occupancy changes it caused, so the caller can republish both.
func (s *Store) TryTransition(
	id kernel.UUID,
	expected robot.Status,
	apply func(*robot.Robot) error,
) (robot.Robot, []OccupancyChange, error) {
	if err := id.Validate(); err != nil {
		return robot.Robot{}, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.String()
	current, ok := s.robots[key]
	if !ok {
		return robot.Robot{}, nil, errs.NewObjectNotFoundError("robot", key)
	}

	if current.Status() != expected {
		return robot.Robot{}, nil, errs.NewStaleStateError(
			"robot "+key, expected.String(), current.Status().String())
	}

	next := *current
	if err := apply(&next); err != nil {
		return robot.Robot{}, nil, err
	}

	before := s.occupiedNode(key)
	s.robots[key] = &next
	s.reindexOccupancy(&next)
	after := s.occupiedNode(key)

	changes := s.occupancyChanges(before, after)
	return next, changes, nil
}

// SnapshotState returns a consistent point-in-time view of all robots,
// nodes, and occupancy counts.
func (s *Store) SnapshotState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Robots:    make([]robot.Robot, 0, len(s.robots)),
		Nodes:     make([]*node.Node, 0, len(s.nodes)),
		Occupancy: make(map[string]int, len(s.occupancy)),
	}
	for _, r := range s.robots {
		snap.Robots = append(snap.Robots, *r)
	}
	for _, n := range s.nodes {
		snap.Nodes = append(snap.Nodes, n)
	}
	for nodeID, robots := range s.occupancy {
		snap.Occupancy[nodeID] = len(robots)
	}

	sort.Slice(snap.Robots, func(i, j int) bool { return snap.Robots[i].ID().Less(snap.Robots[j].ID()) })
	sort.Slice(snap.Nodes, func(i, j int) bool { return snap.Nodes[i].ID().Less(snap.Nodes[j].ID()) })
	return snap
}

// LockOrder acquires the serialization lock for one order's lifecycle
// transitions and returns the unlock function. Transitions for different
// orders proceed in parallel; two components can never transition the same
// order concurrently.
func (s *Store) LockOrder(orderID kernel.UUID) func() {
	s.lockMu.Lock()
	l, ok := s.orderLocks[orderID.String()]
	if !ok {
		l = &sync.Mutex{}
		s.orderLocks[orderID.String()] = l
	}
	s.lockMu.Unlock()

	l.Lock()
	return l.Unlock
}

// occupiedNode returns the node ID the robot currently occupies, or "".
func (s *Store) occupiedNode(robotKey string) string {
	for nodeID, robots := range s.occupancy {
		if _, ok := robots[robotKey]; ok {
			return nodeID
		}
	}
	return ""
}

// reindexOccupancy recomputes a robot's occupancy membership. A robot
// occupies its current node while parked; while traversing a committed
// route it occupies nothing.
func (s *Store) reindexOccupancy(r *robot.Robot) {
	key := r.ID().String()
	s.dropFromOccupancy(key)

	cur := r.CurrentNode()
	if cur == nil {
		return
	}
	if _, moving := r.Route(); moving {
		return
	}

	nodeKey := cur.String()
	if s.occupancy[nodeKey] == nil {
		s.occupancy[nodeKey] = make(map[string]struct{})
	}
	s.occupancy[nodeKey][key] = struct{}{}
}

func (s *Store) dropFromOccupancy(robotKey string) {
	for nodeID, robots := range s.occupancy {
		if _, ok := robots[robotKey]; ok {
			delete(robots, robotKey)
			if len(robots) == 0 {
				delete(s.occupancy, nodeID)
			}
		}
	}
}

// occupancyChanges turns a before/after occupied-node pair into the set of
// nodes whose occupant count changed.
func (s *Store) occupancyChanges(before, after string) []OccupancyChange {
	if before == after {
		return nil
	}

	var changes []OccupancyChange
	for _, nodeKey := range []string{before, after} {
		if nodeKey == "" {
			continue
		}
		id, err := kernel.UUIDFromString(nodeKey)
		if err != nil {
			continue
		}
		changes = append(changes, OccupancyChange{
			NodeID:    id,
			Occupants: len(s.occupancy[nodeKey]),
		})
	}
	return changes
}
