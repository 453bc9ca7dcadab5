package application

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/postmix/forwardd/internal/core/domain"
	"github.com/postmix/forwardd/internal/core/ports"
	"github.com/postmix/forwardd/pkg/bitaps"
)

// maxUpsertAttempts bounds the internal retries on (address, hash)
// contention. Contention is expected under overlapping webhook deliveries
// and must not surface to callers.
const maxUpsertAttempts = 3

// TransactionReconciler merges a batch of upstream transaction records into
// local storage, idempotently keyed by the (address, hash) pair.
type TransactionReconciler interface {
	// Reconcile ingests every record of the batch independently and returns
	// the per-record outcomes. A failing record never aborts the rest of the
	// batch. The whole call is safe under concurrent and duplicate
	// invocation: re-reconciling an already ingested record is a no-op on
	// unchanged fields, and the confirmation event of a transaction is
	// raised at most once across any number of calls.
	Reconcile(
		ctx context.Context, address *domain.Address,
		batch []bitaps.RawTransaction,
	) []ReconcileOutcome
}

type transactionReconciler struct {
	repoManager ports.RepoManager
	detector    ConfirmationDetector
}

// NewTransactionReconciler returns a TransactionReconciler persisting on the
// given repositories and raising confirmation events through the given
// detector.
func NewTransactionReconciler(
	repoManager ports.RepoManager, detector ConfirmationDetector,
) TransactionReconciler {
	return &transactionReconciler{
		repoManager: repoManager,
		detector:    detector,
	}
}

func (r *transactionReconciler) Reconcile(
	ctx context.Context, address *domain.Address,
	batch []bitaps.RawTransaction,
) []ReconcileOutcome {
	outcomes := make([]ReconcileOutcome, 0, len(batch))
	for i := range batch {
		if ctx.Err() != nil {
			// Partial progress is acceptable, the batch can be safely
			// re-reconciled by the caller.
			break
		}
		outcomes = append(outcomes, r.reconcileRecord(ctx, address, &batch[i]))
	}
	return outcomes
}

func (r *transactionReconciler) reconcileRecord(
	ctx context.Context, address *domain.Address, raw *bitaps.RawTransaction,
) ReconcileOutcome {
	outcome := ReconcileOutcome{Hash: raw.Hash}

	if err := raw.Validate(); err != nil {
		outcome.Err = err
		return outcome
	}
	update, err := updateFromRaw(raw)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	var res upsertResult
	for attempt := 0; attempt < maxUpsertAttempts; attempt++ {
		res, err = r.upsertOnce(ctx, address.Address, raw.Hash, update)
		if !errors.Is(err, domain.ErrTransactionConflict) {
			break
		}
		log.Debugf(
			"retrying contended ingestion of transaction %s", raw.Hash,
		)
	}
	if err != nil {
		outcome.Err = err
		return outcome
	}

	outcome.Created = res.created
	outcome.Updated = res.updated
	outcome.Confirmed = res.emit
	if res.emit {
		// The flag flip is committed at this point, emission happens
		// strictly after it.
		r.detector.Emit(ctx, res.tx)
	}
	return outcome
}

type upsertResult struct {
	created bool
	updated bool
	emit    bool
	tx      domain.Transaction
}

func (r *transactionReconciler) upsertOnce(
	ctx context.Context, addr, hash string, update domain.TransactionUpdate,
) (upsertResult, error) {
	repo := r.repoManager.TransactionRepository()

	if _, err := repo.GetTransaction(ctx, addr, hash); err != nil {
		if !errors.Is(err, domain.ErrTransactionNotFound) {
			return upsertResult{}, err
		}
		return r.insertTransaction(ctx, addr, hash, update)
	}
	return r.updateTransaction(ctx, addr, hash, update)
}

func (r *transactionReconciler) insertTransaction(
	ctx context.Context, addr, hash string, update domain.TransactionUpdate,
) (upsertResult, error) {
	tx := domain.NewTransaction(addr, hash)
	_, confirmedNow := tx.Apply(update)
	emit := r.detector.Detect(tx, confirmedNow)

	if err := r.repoManager.TransactionRepository().AddTransaction(
		ctx, tx,
	); err != nil {
		if errors.Is(err, domain.ErrTransactionAlreadyExists) {
			// Lost the race against a concurrent first sighting, fall back
			// to the update path.
			return upsertResult{}, domain.ErrTransactionConflict
		}
		return upsertResult{}, err
	}

	log.Debugf("ingested new transaction %s for address %s", hash, addr)
	return upsertResult{created: true, emit: emit, tx: *tx}, nil
}

func (r *transactionReconciler) updateTransaction(
	ctx context.Context, addr, hash string, update domain.TransactionUpdate,
) (upsertResult, error) {
	var res upsertResult
	if err := r.repoManager.TransactionRepository().UpdateTransaction(
		ctx, addr, hash,
		func(tx *domain.Transaction) (*domain.Transaction, error) {
			res = upsertResult{}
			changed, confirmedNow := tx.Apply(update)
			res.updated = changed
			if r.detector.Detect(tx, confirmedNow) {
				res.emit = true
			}
			res.tx = *tx
			return tx, nil
		},
	); err != nil {
		return upsertResult{}, err
	}
	return res, nil
}

func updateFromRaw(raw *bitaps.RawTransaction) (domain.TransactionUpdate, error) {
	status, err := domain.ParseTransactionStatus(raw.Status)
	if err != nil {
		return domain.TransactionUpdate{}, err
	}

	outs := make([]domain.Out, 0, len(raw.Outs))
	for _, out := range raw.Outs {
		outs = append(outs, domain.Out{
			Amount:  out.Amount,
			TxOut:   out.TxOut,
			Address: out.Address,
		})
	}

	return domain.TransactionUpdate{
		Status:       status,
		Amount:       raw.Amount,
		TxOut:        raw.TxOut,
		Timestamp:    raw.Timestamp,
		Time:         raw.Time,
		MinerFee:     raw.Payout.MinerFee,
		ServiceFee:   raw.Payout.ServiceFee,
		PayoutTxHash: raw.Payout.TxHash,
		Outs:         outs,
	}, nil
}
