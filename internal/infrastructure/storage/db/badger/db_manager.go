package dbbadger

import (
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/timshannon/badgerhold/v4"

	"github.com/postmix/forwardd/internal/core/domain"
	"github.com/postmix/forwardd/internal/core/ports"
)

// repoManager holds all the badgerhold stores in a single data structure.
type repoManager struct {
	addressStore     *badgerhold.Store
	transactionStore *badgerhold.Store

	addressRepository     domain.AddressRepository
	transactionRepository domain.TransactionRepository
}

// NewRepoManager opens (or creates if not existing) the badger stores on
// disk under the given data dir. It creates a dedicated directory for
// addresses and transactions.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	addressDb, err := createDb(filepath.Join(baseDbDir, "addresses"), logger)
	if err != nil {
		return nil, fmt.Errorf("opening addresses db: %w", err)
	}

	txDb, err := createDb(filepath.Join(baseDbDir, "transactions"), logger)
	if err != nil {
		return nil, fmt.Errorf("opening transactions db: %w", err)
	}

	return &repoManager{
		addressStore:          addressDb,
		transactionStore:      txDb,
		addressRepository:     NewAddressRepositoryImpl(addressDb),
		transactionRepository: NewTransactionRepositoryImpl(txDb),
	}, nil
}

func (d *repoManager) AddressRepository() domain.AddressRepository {
	return d.addressRepository
}

func (d *repoManager) TransactionRepository() domain.TransactionRepository {
	return d.transactionRepository
}

func (d *repoManager) Close() {
	d.addressStore.Close()
	d.transactionStore.Close()
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	opts.Compression = options.ZSTD

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
