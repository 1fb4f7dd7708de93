package store

import (
	"context"
	"time"
)

// Observer watches dispatches without taking part in them.
//
// Observers cannot change, delay or reject an action; they see it before the
// reducer runs and again after the state has been replaced. DispatchFinished
// is called on every exit path, including reducer failures and panics, and
// always before subscribers are notified.
type Observer interface {
	// DispatchStarted is called after the action passed validation and the
	// store accepted it. The returned context is handed to DispatchFinished.
	DispatchStarted(ctx context.Context, action Action) context.Context

	// DispatchFinished is called once the reducer returned. err is the
	// reducer's failure, if any.
	DispatchFinished(ctx context.Context, action Action, elapsed time.Duration, err error)
}

// SubscriberObserver is optionally implemented by an Observer that wants to
// know how many listeners a store has.
type SubscriberObserver interface {
	SubscribersChanged(count int)
}

// observers fans out to every registered Observer.
type observers []Observer

func (o observers) started(ctx context.Context, action Action) context.Context {
	for _, obs := range o {
		ctx = obs.DispatchStarted(ctx, action)
	}
	return ctx
}

func (o observers) finished(ctx context.Context, action Action, elapsed time.Duration, err error) {
	for i := len(o) - 1; i >= 0; i-- {
		o[i].DispatchFinished(ctx, action, elapsed, err)
	}
}

func (o observers) subscribersChanged(count int) {
	for _, obs := range o {
		if so, ok := obs.(SubscriberObserver); ok {
			so.SubscribersChanged(count)
		}
	}
}
