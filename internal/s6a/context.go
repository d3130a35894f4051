// Package s6a implements the four S6a command state machines
// (Authentication-Information, Update-Location, Purge-UE, Notify)
// against the wire codec, the subscriber store, and the Milenage
// engine.
package s6a

import (
	"context"

	"github.com/protei/hss/internal/metrics"
	"github.com/protei/hss/internal/store"
)

// CLROriginator is the narrow slice of the peer layer a handler needs:
// the ability to fire off a Cancel-Location-Request without waiting
// for its answer. The peer layer implements this; handler tests use a
// recording fake.
type CLROriginator interface {
	OriginateCLR(ctx context.Context, destinationHost, imsi string)
}

// Env is the shared environment every command handler closes over.
type Env struct {
	LocalHost  string
	LocalRealm string

	Store    store.SubscriberStore
	Counters metrics.Counters
	CLR      CLROriginator
}
