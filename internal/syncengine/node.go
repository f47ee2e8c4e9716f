// Package syncengine implements peer-to-peer convergence between two
// event stores without coordination: detecting the event-set
// difference between two nodes, transferring the missing events
// idempotently, and letting both projections and event histories
// converge as a consequence of events being a pure, identity-keyed
// set.
//
// This package imports only domain, never application or
// infrastructure — see the layering contract in DESIGN.md. Its
// Dispatcher interface below is declared locally, in the same spirit
// as a dynamically-typed sibling package holding its dispatcher
// parameter opaque, so this package never needs to know how dispatch
// is implemented.
package syncengine

import (
	"context"

	"github.com/HollowDragonX/clinicforge/internal/domain"
)

// Dispatcher is the minimal shape syncengine needs from an event
// dispatcher: deliver one event to its local subscribers.
// *application.EventDispatcher satisfies this structurally; syncengine
// never imports the application package to find that out.
type Dispatcher interface {
	Dispatch(event domain.DomainEvent)
}

// SyncNode is one peer in the sync protocol: a durable event store
// paired with the dispatcher that drives its local projections.
type SyncNode struct {
	Store      domain.EventStore
	Dispatcher Dispatcher
}

func NewSyncNode(store domain.EventStore, dispatcher Dispatcher) *SyncNode {
	return &SyncNode{Store: store, Dispatcher: dispatcher}
}

// ReceiveEvent applies one event transferred from a peer: if this
// node's store already holds event.EventID, it is a no-op that
// reports false (no append, no dispatch). Otherwise the event is
// appended and dispatched locally, and ReceiveEvent reports true.
func (n *SyncNode) ReceiveEvent(ctx context.Context, event domain.DomainEvent) (bool, error) {
	exists, err := n.Store.EventExists(ctx, event.EventID())
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	stored, err := n.Store.Append(ctx, event)
	if err != nil {
		return false, err
	}
	n.Dispatcher.Dispatch(stored)
	return true, nil
}

// KnownEventIDs returns the set of event identities this node has
// persisted, across every stream. Two nodes that have fully converged
// return equal sets.
func (n *SyncNode) KnownEventIDs(ctx context.Context) (map[domain.ID]bool, error) {
	events, err := n.Store.ReadAllEvents(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[domain.ID]bool, len(events))
	for _, e := range events {
		ids[e.EventID()] = true
	}
	return ids, nil
}
