// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS
// architecture. All commands follow a consistent pattern: validation,
// transaction management, and persistence; the delivery lifecycle commands
// additionally signal the saga engine so parked workflow instances advance.
package commands

import (
	"context"

	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/core/saga"
)

// Unit of Work interfaces provide transaction management for command handlers
// and saga steps. These abstractions keep data consistency across aggregate
// boundaries.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// DeliveryRepoFactory provides access to the delivery repository within a
	// transaction.
	DeliveryRepoFactory interface {
		DeliveryRepository() ports.DeliveryRepository
	}

	// DeliveryUoW manages transactions for delivery operations.
	DeliveryUoW interface {
		TxManager
		DeliveryRepoFactory
	}

	// DeliveryUoWFactory creates new delivery unit of work instances.
	DeliveryUoWFactory interface {
		Create() DeliveryUoW
	}
)

// Saga engine interfaces are the narrow slices of the engine that command
// handlers depend on, so tests can substitute mocks.
type (
	// WorkflowRunner starts a new workflow execution.
	WorkflowRunner interface {
		Run(ctx context.Context, workflow saga.Workflow, input any) (*saga.Execution, error)
	}

	// StepResolver resolves suspended async saga steps by step id.
	StepResolver interface {
		ResolveStepSuccess(ctx context.Context, stepID string, payload any) error
		ResolveStepFailure(ctx context.Context, stepID string, reason error) error
	}
)
