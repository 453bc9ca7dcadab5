package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/postmix/forwardd/internal/core/domain"
	"github.com/postmix/forwardd/internal/core/ports"
	"github.com/postmix/forwardd/pkg/bitaps"
)

type mockPubSub struct {
	lock      sync.Mutex
	published map[string][]string
	failing   bool
}

func newMockPubSub() *mockPubSub {
	return &mockPubSub{published: map[string][]string{}}
}

func (m *mockPubSub) Subscribe(topic, endpoint, secret string) (string, error) {
	return "", nil
}

func (m *mockPubSub) Unsubscribe(topic, id string) error { return nil }

func (m *mockPubSub) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	return nil
}

func (m *mockPubSub) Publish(topic string, message string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.failing {
		return fmt.Errorf("delivery failed")
	}
	m.published[topic] = append(m.published[topic], message)
	return nil
}

func (m *mockPubSub) publishedFor(topic string) []string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]string(nil), m.published[topic]...)
}

type mockGateway struct {
	createReply *bitaps.ForwardingAddressReply
	createErr   error
	createCalls int
	txList      []bitaps.RawTransaction
	listErr     error
}

func (m *mockGateway) CreateForwardingAddress(
	_ context.Context, req bitaps.CreateAddressRequest,
) (*bitaps.ForwardingAddressReply, error) {
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.createReply, nil
}

func (m *mockGateway) GetAddressState(
	_ context.Context, address string, headers map[string]string,
) (*bitaps.RawAddressState, error) {
	return &bitaps.RawAddressState{Address: address}, nil
}

func (m *mockGateway) ListTransactions(
	_ context.Context, address string, headers map[string]string,
	opts bitaps.ListOptions,
) ([]bitaps.RawTransaction, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.txList, nil
}

type stubCurrencyResolver map[string]int

func (s stubCurrencyResolver) ResolveCurrency(code string) (int, error) {
	id, ok := s[code]
	if !ok {
		return 0, domain.ErrUnknownCurrency
	}
	return id, nil
}

type stubOwnerResolver string

func (s stubOwnerResolver) OwnerOfAddress(addr string) (string, error) {
	if len(s) <= 0 {
		return "", domain.ErrUnknownAddress
	}
	return string(s), nil
}
