package pubsub

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/timshannon/badgerhold/v4"
)

// store persists webhook subscriptions on a badgerhold store so that they
// survive daemon restarts.
type store struct {
	db *badgerhold.Store
}

// NewStore opens (or creates if not existing) the subscriptions store under
// the given data dir.
func NewStore(baseDbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	opts := badger.DefaultOptions(filepath.Join(baseDbDir, "webhooks"))
	opts.Logger = logger
	opts.Compression = options.ZSTD

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, fmt.Errorf("opening webhooks db: %w", err)
	}
	return db, nil
}

func (s store) add(sub *Subscription) error {
	if err := s.db.Insert(sub.ID, *sub); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return nil
		}
		return err
	}
	return nil
}

func (s store) get(id string) (*Subscription, error) {
	var sub Subscription
	if err := s.db.Get(id, &sub); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s store) remove(id string) error {
	if err := s.db.Delete(id, Subscription{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("subscription not found")
		}
		return err
	}
	return nil
}

func (s store) listForTopic(topic string) (subscriptions, error) {
	var subs []Subscription
	query := badgerhold.Where("Event").Eq(topic)
	if err := s.db.Find(&subs, query); err != nil {
		return nil, err
	}
	return subs, nil
}

func (s store) close() error {
	return s.db.Close()
}
