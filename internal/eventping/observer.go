package eventping

import "context"

// Observer receives a snapshot after every session transition. Calls happen
// on the monitor goroutine and must not block for long.
type Observer interface {
	SessionTransition(ctx context.Context, snapshot SessionSnapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, snapshot SessionSnapshot)

func (f ObserverFunc) SessionTransition(ctx context.Context, snapshot SessionSnapshot) {
	f(ctx, snapshot)
}

// Observers fans a transition out to several observers in order.
type Observers []Observer

func (o Observers) SessionTransition(ctx context.Context, snapshot SessionSnapshot) {
	for _, observer := range o {
		if observer != nil {
			observer.SessionTransition(ctx, snapshot)
		}
	}
}
