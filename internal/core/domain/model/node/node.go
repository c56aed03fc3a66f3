package node

import (
	"errors"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/pkg/errs"
	"fleet/internal/pkg/guard"
)

// Domain errors for node operations.
var (
	// ErrNameIsRequired is returned when attempting to create a node without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrNodeIsNotConstructed is returned when using an improperly initialized Node.
	ErrNodeIsNotConstructed = errors.New("Node must be created via NewNode constructor")
)

// Node is a named geographic point in the delivery graph: a depot, a pickup
// or drop-off point, or a charging station.
//
// A node's identity, name, location, and kind are immutable once created.
// Runtime occupancy (which robots currently sit at the node) is owned by the
// fleet state store, not by the aggregate: occupancy is observational state
// that changes on every motion tick, while the node itself is reference data.
//
// Business rules:
//   - Node must have a valid UUID, non-empty name, valid coordinates, and a
//     valid kind
//   - Deletion is only permitted when no robot occupies or targets the node
//     (enforced by the decommission operation, which consults the fleet
//     state store)
type Node struct {
	// id uniquely identifies the node
	id kernel.UUID
	// name is the human-readable name of the node
	name string
	// location is the geographic position of the node
	location kernel.GeoPoint
	// kind is the functional role of the node
	kind Kind
	// guard ensures the node was properly constructed
	guard guard.ConstructorGuard
}

// NewNode creates a new Node with the specified parameters.
// This is the only way to create a valid Node instance.
//
// Parameters:
//   - id: Unique identifier for the node (must be valid UUID)
//   - name: Human-readable name (must be non-empty)
//   - location: Geographic position (must be valid coordinates)
//   - kind: Functional role (must be a valid Kind)
//
// Returns:
//   - *Node: A fully initialized node
//   - error: Validation error if any parameter is invalid (aggregated errors
//     for multiple issues)
func NewNode(id kernel.UUID, name string, location kernel.GeoPoint, kind Kind) (*Node, error) {
	n := &Node{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		n.setID(id),
		n.setName(name),
		n.setLocation(location),
		n.setKind(kind),
	); err != nil {
		return nil, err
	}

	return n, nil
}

// RestoreNode reconstructs a Node from persistent storage. The restored node
// behaves identically to one created through NewNode; restoration exists as
// a separate constructor so persistence mapping failures surface as
// validation errors rather than corrupt aggregates.
func RestoreNode(id kernel.UUID, name string, location kernel.GeoPoint, kind Kind) (*Node, error) {
	return NewNode(id, name, location, kind)
}

// IsEqual compares two nodes for equality based on their unique identifiers.
func (n *Node) IsEqual(other *Node) bool {
	if other == nil {
		return false
	}
	return n.id.IsEqual(other.id)
}

// Validate checks if the Node was properly constructed via NewNode.
// The zero value of Node is invalid and fails this validation.
func (n *Node) Validate() error {
	if n == nil {
		return ErrNodeIsNotConstructed
	}
	return n.guard.Validate(ErrNodeIsNotConstructed)
}

// ID returns the unique identifier of the node.
func (n *Node) ID() kernel.UUID {
	return n.id
}

// Name returns the human-readable name of the node.
func (n *Node) Name() string {
	return n.name
}

// Location returns the geographic position of the node.
func (n *Node) Location() kernel.GeoPoint {
	return n.location
}

// Kind returns the functional role of the node.
func (n *Node) Kind() Kind {
	return n.kind
}

// IsCharging reports whether the node is a charging station.
func (n *Node) IsCharging() bool {
	return n.kind == KindCharging
}

// DistanceTo returns the traversal cost from this node to other in
// kilometers. Cost is symmetric and non-negative because it is a
// great-circle distance.
func (n *Node) DistanceTo(other *Node) (float64, error) {
	if err := errors.Join(n.Validate(), other.Validate()); err != nil {
		return 0, err
	}
	return n.location.DistanceTo(other.location)
}

// setID sets the node's unique identifier with validation.
func (n *Node) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	n.id = id
	return nil
}

// setName sets the node's name with validation.
func (n *Node) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}

	n.name = name
	return nil
}

// setLocation sets the node's position with validation.
func (n *Node) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}

	n.location = location
	return nil
}

// setKind sets the node's kind with validation.
func (n *Node) setKind(kind Kind) error {
	if err := kind.Validate(); err != nil {
		return err
	}

	n.kind = kind
	return nil
}
