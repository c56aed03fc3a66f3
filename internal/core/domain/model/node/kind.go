package node

import (
	"fmt"

	"fleet/internal/pkg/errs"
)

// Kind classifies the functional role of a node in the delivery graph.
type Kind int

const (
	// KindUnknown represents an invalid or undefined kind.
	// This value (0) helps catch uninitialized Kind values.
	KindUnknown Kind = iota

	// KindDepot is a robot home base and staging point.
	KindDepot

	// KindPickup is a customer pickup point.
	KindPickup

	// KindDropoff is a customer drop-off point.
	KindDropoff

	// KindCharging is a charging station. Routing inserts charging nodes as
	// waypoints when a robot's battery budget cannot cover a direct leg.
	KindCharging
)

func getKindStrings() map[Kind]string {
	return map[Kind]string{
		KindUnknown:  "Unknown",
		KindDepot:    "Depot",
		KindPickup:   "Pickup",
		KindDropoff:  "Dropoff",
		KindCharging: "Charging",
	}
}

func getValidKindStrings() map[Kind]string {
	//nolint:exhaustive // KindUnknown is intentionally excluded as it's invalid
	return map[Kind]string{
		KindDepot:    "Depot",
		KindPickup:   "Pickup",
		KindDropoff:  "Dropoff",
		KindCharging: "Charging",
	}
}

func (k Kind) Validate() error {
	if _, ok := getValidKindStrings()[k]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("kind is invalid", fmt.Errorf("%d is not a valid node kind", k))
	}
	return nil
}

func (k Kind) String() string {
	if str, ok := getKindStrings()[k]; ok {
		return str
	}
	return "Unknown"
}

// KindFromString parses the canonical kind name, as used by the HTTP surface
// and persistence layer.
func KindFromString(s string) (Kind, error) {
	for kind, str := range getValidKindStrings() {
		if str == s {
			return kind, nil
		}
	}
	return KindUnknown, errs.NewValueIsInvalidErrorWithCause("kind is invalid",
		fmt.Errorf("%q is not a valid node kind", s))
}
