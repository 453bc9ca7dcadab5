package application

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postmix/forwardd/internal/core/domain"
	"github.com/postmix/forwardd/internal/core/ports"
	"github.com/postmix/forwardd/internal/infrastructure/storage/db/inmemory"
	"github.com/postmix/forwardd/pkg/bitaps"
)

var ctx = context.Background()

func newTestAddress() *domain.Address {
	return &domain.Address{
		Address:           "3CSUDPhES3E2QBEWPFXBQtSDF9kMZhNb7y",
		CurrencyId:        1,
		PaymentCode:       "h8s1Lo",
		ForwardingAddress: "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2",
		Confirmations:     3,
	}
}

func newTestReconciler(
	repoManager ports.RepoManager, pubsub *mockPubSub,
) TransactionReconciler {
	detector := NewConfirmationDetector(
		pubsub, stubOwnerResolver("1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"),
	)
	return NewTransactionReconciler(repoManager, detector)
}

func rawPending(hash string, amount uint64, outs ...bitaps.RawOut) bitaps.RawTransaction {
	return bitaps.RawTransaction{
		Hash:   hash,
		Status: bitaps.StatusPending,
		Amount: amount,
		Outs:   outs,
	}
}

func rawConfirmed(hash string, amount uint64, outs ...bitaps.RawOut) bitaps.RawTransaction {
	return bitaps.RawTransaction{
		Hash:   hash,
		Status: bitaps.StatusConfirmed,
		Amount: amount,
		Outs:   outs,
	}
}

func TestReconcileFirstSighting(t *testing.T) {
	repoManager := inmemory.NewRepoManager()
	pubsub := newMockPubSub()
	reconciler := newTestReconciler(repoManager, pubsub)
	address := newTestAddress()

	outcomes := reconciler.Reconcile(ctx, address, []bitaps.RawTransaction{
		rawPending("abc", 500, bitaps.RawOut{Amount: 500, TxOut: 0, Address: "X"}),
	})

	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)
	assert.True(t, outcomes[0].Created)
	assert.False(t, outcomes[0].Confirmed)

	tx, err := repoManager.TransactionRepository().GetTransaction(
		ctx, address.Address, "abc",
	)
	require.NoError(t, err)
	assert.True(t, tx.IsPending())
	assert.Equal(t, uint64(500), tx.Amount)
	assert.False(t, tx.Notification)
	require.Len(t, tx.Outs, 1)

	assert.Empty(t, pubsub.publishedFor(ports.TopicTransactionConfirmed))
}

func TestReconcileIsIdempotent(t *testing.T) {
	repoManager := inmemory.NewRepoManager()
	pubsub := newMockPubSub()
	reconciler := newTestReconciler(repoManager, pubsub)
	address := newTestAddress()

	batch := []bitaps.RawTransaction{
		rawPending("abc", 500, bitaps.RawOut{Amount: 500, TxOut: 0, Address: "X"}),
	}

	first := reconciler.Reconcile(ctx, address, batch)
	second := reconciler.Reconcile(ctx, address, batch)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.True(t, first[0].Created)
	assert.False(t, second[0].Created)
	assert.False(t, second[0].Updated)

	txs, err := repoManager.TransactionRepository().
		GetAllTransactionsForAddress(ctx, address.Address)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Len(t, txs[0].Outs, 1)
}

func TestConfirmationEmittedExactlyOnce(t *testing.T) {
	repoManager := inmemory.NewRepoManager()
	pubsub := newMockPubSub()
	reconciler := newTestReconciler(repoManager, pubsub)
	address := newTestAddress()

	statuses := []string{
		bitaps.StatusPending,
		bitaps.StatusPending,
		bitaps.StatusConfirmed,
		bitaps.StatusPending,
	}
	confirmedAt := make([]bool, 0, len(statuses))
	for _, status := range statuses {
		outcomes := reconciler.Reconcile(ctx, address, []bitaps.RawTransaction{
			{Hash: "abc", Status: status, Amount: 500},
		})
		require.Len(t, outcomes, 1)
		require.NoError(t, outcomes[0].Err)
		confirmedAt = append(confirmedAt, outcomes[0].Confirmed)
	}

	assert.Equal(t, []bool{false, false, true, false}, confirmedAt)
	assert.Len(t, pubsub.publishedFor(ports.TopicTransactionConfirmed), 1)

	tx, err := repoManager.TransactionRepository().GetTransaction(
		ctx, address.Address, "abc",
	)
	require.NoError(t, err)
	assert.True(t, tx.IsPending())
	assert.True(t, tx.Notification)
}

func TestConfirmedOnFirstSighting(t *testing.T) {
	repoManager := inmemory.NewRepoManager()
	pubsub := newMockPubSub()
	reconciler := newTestReconciler(repoManager, pubsub)
	address := newTestAddress()

	outcomes := reconciler.Reconcile(ctx, address, []bitaps.RawTransaction{
		rawConfirmed("abc", 500),
	})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Created)
	assert.True(t, outcomes[0].Confirmed)
	assert.Len(t, pubsub.publishedFor(ports.TopicTransactionConfirmed), 1)

	// replaying the batch must not re-emit
	outcomes = reconciler.Reconcile(ctx, address, []bitaps.RawTransaction{
		rawConfirmed("abc", 500),
	})
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Confirmed)
	assert.Len(t, pubsub.publishedFor(ports.TopicTransactionConfirmed), 1)
}

func TestOutputReplacement(t *testing.T) {
	repoManager := inmemory.NewRepoManager()
	pubsub := newMockPubSub()
	reconciler := newTestReconciler(repoManager, pubsub)
	address := newTestAddress()

	reconciler.Reconcile(ctx, address, []bitaps.RawTransaction{
		rawPending("abc", 100, bitaps.RawOut{Amount: 100, TxOut: 0, Address: "X"}),
	})
	outcomes := reconciler.Reconcile(ctx, address, []bitaps.RawTransaction{
		rawPending("abc", 100,
			bitaps.RawOut{Amount: 40, TxOut: 0, Address: "X"},
			bitaps.RawOut{Amount: 60, TxOut: 1, Address: "Y"},
		),
	})
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Updated)

	tx, err := repoManager.TransactionRepository().GetTransaction(
		ctx, address.Address, "abc",
	)
	require.NoError(t, err)
	require.Len(t, tx.Outs, 2)
	assert.Equal(t, uint64(40), tx.Outs[0].Amount)
	assert.Equal(t, uint64(60), tx.Outs[1].Amount)
}

func TestEmptyOutputListIsValid(t *testing.T) {
	repoManager := inmemory.NewRepoManager()
	pubsub := newMockPubSub()
	reconciler := newTestReconciler(repoManager, pubsub)
	address := newTestAddress()

	outcomes := reconciler.Reconcile(ctx, address, []bitaps.RawTransaction{
		rawPending("abc", 500),
	})
	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)

	tx, err := repoManager.TransactionRepository().GetTransaction(
		ctx, address.Address, "abc",
	)
	require.NoError(t, err)
	assert.Empty(t, tx.Outs)
}

func TestFailingRecordDoesNotAbortBatch(t *testing.T) {
	repoManager := inmemory.NewRepoManager()
	pubsub := newMockPubSub()
	reconciler := newTestReconciler(repoManager, pubsub)
	address := newTestAddress()

	outcomes := reconciler.Reconcile(ctx, address, []bitaps.RawTransaction{
		{Hash: "bad", Status: "settled", Amount: 1},
		rawPending("good", 500),
	})

	require.Len(t, outcomes, 2)
	assert.Error(t, outcomes[0].Err)
	require.NoError(t, outcomes[1].Err)
	assert.True(t, outcomes[1].Created)

	_, err := repoManager.TransactionRepository().GetTransaction(
		ctx, address.Address, "bad",
	)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestConcurrentReconciliationOfDistinctHashes(t *testing.T) {
	repoManager := inmemory.NewRepoManager()
	pubsub := newMockPubSub()
	reconciler := newTestReconciler(repoManager, pubsub)
	address := newTestAddress()

	hashes := []string{"aaa", "bbb", "ccc", "ddd"}
	wg := &sync.WaitGroup{}
	for _, hash := range hashes {
		wg.Add(1)
		go func(hash string) {
			defer wg.Done()
			outcomes := reconciler.Reconcile(ctx, address, []bitaps.RawTransaction{
				rawConfirmed(hash, 100),
			})
			assert.NoError(t, outcomes[0].Err)
		}(hash)
	}
	wg.Wait()

	txs, err := repoManager.TransactionRepository().
		GetAllTransactionsForAddress(ctx, address.Address)
	require.NoError(t, err)
	assert.Len(t, txs, len(hashes))
	assert.Len(t, pubsub.publishedFor(ports.TopicTransactionConfirmed), len(hashes))
}

func TestConcurrentDuplicateDelivery(t *testing.T) {
	repoManager := inmemory.NewRepoManager()
	pubsub := newMockPubSub()
	reconciler := newTestReconciler(repoManager, pubsub)
	address := newTestAddress()

	batch := []bitaps.RawTransaction{rawConfirmed("abc", 500)}

	wg := &sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, outcome := range reconciler.Reconcile(ctx, address, batch) {
				assert.NoError(t, outcome.Err)
			}
		}()
	}
	wg.Wait()

	txs, err := repoManager.TransactionRepository().
		GetAllTransactionsForAddress(ctx, address.Address)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Notification)
	assert.Len(t, pubsub.publishedFor(ports.TopicTransactionConfirmed), 1)
}

func TestDeliveryFailureDoesNotReplay(t *testing.T) {
	repoManager := inmemory.NewRepoManager()
	pubsub := newMockPubSub()
	pubsub.failing = true
	reconciler := newTestReconciler(repoManager, pubsub)
	address := newTestAddress()

	batch := []bitaps.RawTransaction{rawConfirmed("abc", 500)}
	outcomes := reconciler.Reconcile(ctx, address, batch)
	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)
	assert.True(t, outcomes[0].Confirmed)

	// the flag is committed, a redelivery must not emit even now that the
	// sink recovered
	pubsub.failing = false
	outcomes = reconciler.Reconcile(ctx, address, batch)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Confirmed)
	assert.Empty(t, pubsub.publishedFor(ports.TopicTransactionConfirmed))
}
