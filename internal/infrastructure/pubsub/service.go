package pubsub

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/sony/gobreaker"
	"github.com/timshannon/badgerhold/v4"
	"golang.org/x/sync/errgroup"

	"github.com/postmix/forwardd/internal/core/ports"
	"github.com/postmix/forwardd/pkg/circuitbreaker"
)

type service struct {
	store      store
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
}

// NewService returns a webhook pubsub service persisting its subscriptions
// on the given store.
func NewService(db *badgerhold.Store) (ports.SecurePubSub, error) {
	if db == nil {
		return nil, fmt.Errorf("missing subscriptions store")
	}

	return &service{
		store:      store{db},
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cb:         circuitbreaker.NewCircuitBreaker(),
	}, nil
}

func (ws *service) Subscribe(topic, endpoint, secret string) (string, error) {
	sub, err := NewSubscription(topic, endpoint, secret)
	if err != nil {
		return "", err
	}

	if err := ws.store.add(sub); err != nil {
		return "", err
	}
	return sub.ID, nil
}

func (ws *service) Unsubscribe(_, id string) error {
	return ws.store.remove(id)
}

func (ws *service) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	return ws.listSubscriptionsForTopic(topic).toPortable()
}

func (ws *service) Publish(topic string, message string) error {
	subs := ws.listSubscriptionsForTopic(topic)

	eg := &errgroup.Group{}
	for i := range subs {
		sub := subs[i]
		eg.Go(func() error { return ws.doRequest(&sub, message) })
	}
	return eg.Wait()
}

func (ws *service) listSubscriptionsForTopic(topic string) subscriptions {
	subs, _ := ws.store.listForTopic(topic)
	if topic != ports.AnyTopic {
		subsForAnyTopic, _ := ws.store.listForTopic(ports.AnyTopic)
		subs = append(subs, subsForAnyTopic...)
	}
	return subs
}

func (ws *service) doRequest(sub *Subscription, message string) error {
	payload := message
	contentType := "application/json"
	if sub.IsSecured() {
		token, err := jwt.NewWithClaims(
			jwt.SigningMethodHS256, jwt.MapClaims{"data": message},
		).SignedString([]byte(sub.Secret))
		if err != nil {
			return err
		}
		payload = token
		contentType = "text/plain"
	}

	_, err := ws.cb.Execute(func() (interface{}, error) {
		resp, err := ws.httpClient.Post(
			sub.Endpoint, contentType, bytes.NewBufferString(payload),
		)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf(
				"endpoint %s replied with status %d", sub.Endpoint, resp.StatusCode,
			)
		}
		return nil, nil
	})
	return err
}
