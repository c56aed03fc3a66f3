package order

import (
	"errors"
	"time"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/pkg/errs"
	"fleet/internal/pkg/guard"
)

// Domain errors for order operations.
var (
	// ErrOrderIsNotConstructed is returned when using an improperly initialized Order.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
	// ErrSameEndpoints is returned when pickup and drop-off reference the same node.
	ErrSameEndpoints = errors.New("pickup and dropoff must be different nodes")
	// ErrAlreadyAssigned is returned when assigning a robot to an order that has one.
	ErrAlreadyAssigned = errors.New("order already references an active robot")
)

// Order is a delivery request between a sender and a receiver, bound to a
// pickup node and a drop-off node.
//
// Lifecycle: Created → Matched → PickupEnRoute → PickedUp → DeliveryEnRoute
// → Delivered, with Cancelled reachable from any non-terminal state.
// Delivered and Cancelled are terminal: the aggregate refuses any further
// mutation once reached.
//
// While the order is in an active state (Matched through DeliveryEnRoute)
// it references exactly one robot; the reference is kept after terminal
// transitions for auditability but no longer counts as an active binding.
type Order struct {
	// id uniquely identifies the order
	id kernel.UUID
	// senderID is the user who sends the shipment
	senderID kernel.UUID
	// receiverID is the user who receives the shipment
	receiverID kernel.UUID
	// pickupNodeID is where the shipment is collected
	pickupNodeID kernel.UUID
	// dropoffNodeID is where the shipment is delivered
	dropoffNodeID kernel.UUID
	// requiredRobotType restricts eligible robots; empty means any type
	requiredRobotType string
	// robotID is the assigned robot (nil until matched)
	robotID *kernel.UUID
	// status is the current lifecycle state
	status Status
	// cancelReason records why the order was cancelled, if it was
	cancelReason CancelReason
	// createdAt is the creation timestamp, the dispatch fairness key
	createdAt time.Time
	// paymentRef is an opaque reference into the payment collaborator
	paymentRef string
	// paymentSettled records a received settlement outcome
	paymentSettled bool
	// paymentOK is the settlement outcome, meaningful once paymentSettled
	paymentOK bool
	// guard ensures the order was properly constructed
	guard guard.ConstructorGuard
}

// NewOrder creates a new Order in the Created state.
//
// Parameters:
//   - id: Unique identifier (must be valid UUID)
//   - senderID, receiverID: The users on either end of the delivery
//   - pickupNodeID, dropoffNodeID: Distinct graph nodes
//   - requiredRobotType: Optional robot capability requirement ("" = any)
//   - createdAt: Creation timestamp; dispatch matches oldest first
//   - paymentRef: Opaque payment reference, may be empty until settlement
func NewOrder(
	id, senderID, receiverID, pickupNodeID, dropoffNodeID kernel.UUID,
	requiredRobotType string,
	createdAt time.Time,
	paymentRef string,
) (*Order, error) {
	o := &Order{
		status:       StatusCreated,
		cancelReason: CancelReasonNone,
		guard:        guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setParties(senderID, receiverID),
		o.setEndpoints(pickupNodeID, dropoffNodeID),
		o.setCreatedAt(createdAt),
	); err != nil {
		return nil, err
	}

	o.requiredRobotType = requiredRobotType
	o.paymentRef = paymentRef
	return o, nil
}

// RestoreOrder reconstructs an Order from persistent storage.
func RestoreOrder(
	id, senderID, receiverID, pickupNodeID, dropoffNodeID kernel.UUID,
	requiredRobotType string,
	robotID *kernel.UUID,
	status Status,
	cancelReason CancelReason,
	createdAt time.Time,
	paymentRef string,
	paymentSettled, paymentOK bool,
) (*Order, error) {
	o := &Order{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setParties(senderID, receiverID),
		o.setEndpoints(pickupNodeID, dropoffNodeID),
		o.setCreatedAt(createdAt),
		status.Validate(),
	); err != nil {
		return nil, err
	}

	if robotID != nil {
		if err := robotID.Validate(); err != nil {
			return nil, err
		}
		rid := *robotID
		o.robotID = &rid
	}

	o.status = status
	o.cancelReason = cancelReason
	o.requiredRobotType = requiredRobotType
	o.paymentRef = paymentRef
	o.paymentSettled = paymentSettled
	o.paymentOK = paymentOK
	return o, nil
}

// IsEqual compares two orders for equality based on their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// Validate checks if the Order was properly constructed via NewOrder.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

// ID returns the unique identifier of the order.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// Sender returns the sending user's identity.
func (o *Order) Sender() kernel.UUID {
	return o.senderID
}

// Receiver returns the receiving user's identity.
func (o *Order) Receiver() kernel.UUID {
	return o.receiverID
}

// PickupNode returns the node where the shipment is collected.
func (o *Order) PickupNode() kernel.UUID {
	return o.pickupNodeID
}

// DropoffNode returns the node where the shipment is delivered.
func (o *Order) DropoffNode() kernel.UUID {
	return o.dropoffNodeID
}

// RequiredRobotType returns the robot capability requirement ("" = any).
func (o *Order) RequiredRobotType() string {
	return o.requiredRobotType
}

// Robot returns the assigned robot's identity, nil until matched.
func (o *Order) Robot() *kernel.UUID {
	if o.robotID == nil {
		return nil
	}
	id := *o.robotID
	return &id
}

// Status returns the current lifecycle state.
func (o *Order) Status() Status {
	return o.status
}

// CancelReason returns why the order was cancelled, or CancelReasonNone.
func (o *Order) CancelReason() CancelReason {
	return o.cancelReason
}

// CreatedAt returns the creation timestamp.
func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// PaymentRef returns the opaque payment reference.
func (o *Order) PaymentRef() string {
	return o.paymentRef
}

// PaymentSettled reports whether a settlement outcome was received, and if
// so whether it succeeded.
func (o *Order) PaymentSettled() (settled, ok bool) {
	return o.paymentSettled, o.paymentOK
}

// AcceptsRobotType reports whether a robot of the given type may serve this
// order.
func (o *Order) AcceptsRobotType(robotType string) bool {
	return o.requiredRobotType == "" || o.requiredRobotType == robotType
}

// Assign binds a robot to the order: Created → Matched. The order and robot
// become mutually referential for the duration of the assignment.
func (o *Order) Assign(robotID kernel.UUID) error {
	if err := errors.Join(o.Validate(), robotID.Validate()); err != nil {
		return err
	}
	if o.robotID != nil && o.status.IsActive() {
		return ErrAlreadyAssigned
	}

	newStatus, err := o.status.Transition(StatusMatched)
	if err != nil {
		return err
	}

	o.status = newStatus
	id := robotID
	o.robotID = &id
	return nil
}

// StartPickupLeg records that the robot committed a route to the pickup
// node: Matched → PickupEnRoute.
func (o *Order) StartPickupLeg() error {
	return o.advance(StatusPickupEnRoute)
}

// MarkPickedUp records the robot's arrival at the pickup node:
// PickupEnRoute → PickedUp.
func (o *Order) MarkPickedUp() error {
	return o.advance(StatusPickedUp)
}

// StartDeliveryLeg records that the robot committed a route to the drop-off
// node: PickedUp → DeliveryEnRoute.
func (o *Order) StartDeliveryLeg() error {
	return o.advance(StatusDeliveryEnRoute)
}

// MarkDelivered completes the order: DeliveryEnRoute → Delivered. Delivered
// is terminal; no further mutation is permitted.
func (o *Order) MarkDelivered() error {
	return o.advance(StatusDelivered)
}

// Cancel aborts the order from any non-terminal state and records the
// reason. Cancelled is terminal. Releasing the assigned robot is the
// caller's responsibility, since it spans two aggregates.
func (o *Order) Cancel(reason CancelReason) error {
	if err := o.Validate(); err != nil {
		return err
	}

	newStatus, err := o.status.Transition(StatusCancelled)
	if err != nil {
		return err
	}

	o.status = newStatus
	o.cancelReason = reason
	return nil
}

// SettlePayment records the settlement outcome received from the payment
// collaborator. The provider-specific flow is opaque to this core; only the
// outcome and transaction reference matter.
func (o *Order) SettlePayment(succeeded bool, transactionRef string) error {
	if err := o.Validate(); err != nil {
		return err
	}

	o.paymentSettled = true
	o.paymentOK = succeeded
	if transactionRef != "" {
		o.paymentRef = transactionRef
	}
	return nil
}

func (o *Order) advance(next Status) error {
	if err := o.Validate(); err != nil {
		return err
	}

	newStatus, err := o.status.Transition(next)
	if err != nil {
		return err
	}

	o.status = newStatus
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setParties(senderID, receiverID kernel.UUID) error {
	if err := errors.Join(senderID.Validate(), receiverID.Validate()); err != nil {
		return err
	}
	o.senderID = senderID
	o.receiverID = receiverID
	return nil
}

func (o *Order) setEndpoints(pickupNodeID, dropoffNodeID kernel.UUID) error {
	if err := errors.Join(pickupNodeID.Validate(), dropoffNodeID.Validate()); err != nil {
		return err
	}
	if pickupNodeID.IsEqual(dropoffNodeID) {
		return ErrSameEndpoints
	}
	o.pickupNodeID = pickupNodeID
	o.dropoffNodeID = dropoffNodeID
	return nil
}

func (o *Order) setCreatedAt(createdAt time.Time) error {
	if createdAt.IsZero() {
		return errs.NewValueIsRequiredError("createdAt")
	}
	o.createdAt = createdAt
	return nil
}
