package httpinterface

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postmix/forwardd/internal/core/application"
	"github.com/postmix/forwardd/internal/core/domain"
	"github.com/postmix/forwardd/internal/core/ports"
	"github.com/postmix/forwardd/internal/infrastructure/resolver"
	"github.com/postmix/forwardd/internal/infrastructure/storage/db/inmemory"
)

type nullPubSub struct{}

func (nullPubSub) Subscribe(topic, endpoint, secret string) (string, error) {
	return "", nil
}
func (nullPubSub) Unsubscribe(topic, id string) error { return nil }
func (nullPubSub) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	return nil
}
func (nullPubSub) Publish(topic string, message string) error { return nil }

func newTestHandler(t *testing.T) (http.Handler, ports.RepoManager) {
	t.Helper()

	repoManager := inmemory.NewRepoManager()
	detector := application.NewConfirmationDetector(
		nullPubSub{}, resolver.NewAddressOwnerResolver(repoManager),
	)
	reconciler := application.NewTransactionReconciler(repoManager, detector)
	forwardingSvc := application.NewForwardingService(
		nil, repoManager, reconciler,
		resolver.NewCurrencyResolver(map[string]int{"btc": 1}), "BTC", "",
	)
	return NewCallbackHandler(forwardingSvc, reconciler), repoManager
}

func TestCallback(t *testing.T) {
	handler, repoManager := newTestHandler(t)

	address := &domain.Address{
		Address:       "3CSUDPhES3E2QBEWPFXBQtSDF9kMZhNb7y",
		CurrencyId:    1,
		Confirmations: 3,
	}
	require.NoError(
		t, repoManager.AddressRepository().AddAddress(context.Background(), address),
	)

	payload := map[string]interface{}{
		"address": address.Address,
		"tx_list": []map[string]interface{}{
			{"hash": "abc", "status": "pending", "amount": 500},
		},
	}
	body, _ := json.Marshal(payload)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", CallbackRoute, bytes.NewReader(body))
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	replies := []outcomeReply{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&replies))
	require.Len(t, replies, 1)
	assert.Equal(t, "abc", replies[0].Hash)
	assert.True(t, replies[0].Created)
}

func TestCallbackUnknownAddress(t *testing.T) {
	handler, _ := newTestHandler(t)

	body, _ := json.Marshal(map[string]interface{}{
		"address": "unknown",
		"tx_list": []map[string]interface{}{},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", CallbackRoute, bytes.NewReader(body))
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCallbackBadPayload(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(
		"POST", CallbackRoute, bytes.NewReader([]byte("not json")),
	)
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(
		"POST", CallbackRoute, bytes.NewReader([]byte(`{"tx_list":[]}`)),
	)
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackMethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", CallbackRoute, nil)
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
