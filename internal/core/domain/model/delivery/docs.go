// Package delivery contains the Delivery aggregate and its lifecycle state
// machine. A delivery is created for an order transaction, advances through
// restaurant notification and driver claim, and is only ever mutated through
// orchestrated saga steps. Cancellation soft-deletes the record; no other path
// removes a delivery.
package delivery
