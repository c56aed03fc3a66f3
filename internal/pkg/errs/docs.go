// Package errs provides standardized error types for the fleet application.
// It implements a consistent pattern for error creation, formatting, and
// unwrapping that is used throughout the application.
//
// Each error type follows the same shape:
//   - A sentinel error variable (e.g. ErrObjectNotFound)
//   - A struct type carrying the error details
//   - Constructor functions, with and without cause
//   - An Error() method for formatting
//   - An Unwrap() method returning the sentinel, so callers classify with
//     errors.Is rather than string matching
//
// Beyond the generic validation errors, the package carries the two
// coordination errors that drive the dispatch engine's control flow:
// StaleStateError (optimistic-concurrency loss, recovered locally) and
// InvalidTransitionError (lifecycle contract violation, always surfaced).
package errs
