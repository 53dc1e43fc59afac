// Package kernel contains shared value objects used across the domain model.
// Value objects here are immutable, validated at construction, and carry no
// behavior beyond their own invariants.
package kernel
