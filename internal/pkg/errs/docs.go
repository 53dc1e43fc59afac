// Package errs provides standardized error types for the delivery application.
// It implements a consistent pattern for error creation, formatting, and
// unwrapping used throughout the application.
//
// Each error type follows the same shape:
//   - a sentinel error variable (e.g. ErrObjectNotFound)
//   - a struct type carrying error details
//   - constructor functions with and without an underlying cause
//   - Error() for formatting and Unwrap() returning the sentinel
//
// Handlers classify failures with errors.Is against the sentinels: a step that
// observes ErrObjectNotFound treats it as fatal and lets the saga compensate,
// while registry races surface their own dedicated sentinels in the saga
// package.
package errs
