// Package kernel contains the shared value objects of the fleet domain:
// identities (UUID) and geographic coordinates (GeoPoint).
//
// Value objects here are immutable after construction and validate themselves
// through the constructor guard pattern, so a zero value is always detectable
// and never silently usable.
package kernel
