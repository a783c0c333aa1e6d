// Package eventstream publishes an event for every stored exchange so other
// systems can follow chat activity.
package eventstream

import "context"

// Publisher publishes exchange events to an event stream backend.
type Publisher interface {
	PublishExchange(ctx context.Context, event *ExchangeCompletedEvent) error
	Close() error
}
