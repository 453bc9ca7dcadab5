package ports

// AnyTopic matches every topic a subscription can be registered for.
const AnyTopic = "*"

// TopicTransactionConfirmed is the topic of the event published when a
// transaction transitions into the confirmed status.
const TopicTransactionConfirmed = "transaction.confirmed"

type Subscription interface {
	Topic() string
	Id() string
	IsSecured() bool
	NotifyAt() string
}

// SecurePubSub defines the methods of the pubsub service used to notify
// external subscribers about domain events. Delivery is at-most-once from
// the publisher's perspective: a Publish failure is never replayed.
type SecurePubSub interface {
	// Subscribe adds a new subscription for the requested topic.
	Subscribe(topic, endpoint, secret string) (string, error)
	// Unsubscribe removes some client defined by its id for a topic.
	Unsubscribe(topic, id string) error
	// ListSubscriptionsForTopic returns the info of all clients subscribed
	// for a certain topic.
	ListSubscriptionsForTopic(topic string) []Subscription
	// Publish publishes a message for a certain topic. All clients
	// subscribed for such topic will receive the message.
	Publish(topic string, message string) error
}
