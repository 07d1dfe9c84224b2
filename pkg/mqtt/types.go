package mqtt

import (
	"context"
)

// Handler processes one message received on a subscribed topic.
type Handler func(topic string, payload []byte)

// Client is the subset of MQTT functionality the rentfleet binaries need:
// a long-lived, auto-reconnecting publisher and subscriber.
type Client interface {
	// Start initiates the connection to the broker.
	// It is non-blocking and returns immediately. Use AwaitConnection to wait.
	Start(ctx context.Context) error

	// Disconnect cleanly closes the connection.
	Disconnect(ctx context.Context)

	// Publish sends a message to the specified topic.
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// Subscribe registers handler for messages matching filter. Subscriptions
	// are renewed every time the connection comes back up.
	Subscribe(ctx context.Context, filter string, qos int, handler Handler) error

	// AwaitConnection blocks until the client is connected to the broker.
	AwaitConnection(ctx context.Context) error
}
