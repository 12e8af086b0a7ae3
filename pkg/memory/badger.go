package memory

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// Key layout: chat:<agentID> holds the msgpack message list, and
// call:<agentID>:<callID> holds one msgpack call record.
func chatKey(agentID string) []byte { return fmt.Appendf(nil, "chat:%s", agentID) }

func callKey(agentID, callID string) []byte { return fmt.Appendf(nil, "call:%s:%s", agentID, callID) }

func callPrefix(agentID string) []byte { return fmt.Appendf(nil, "call:%s:", agentID) }

// Badger is a Store backed by BadgerDB.
type Badger struct {
	db *badger.DB
}

// BadgerOptions configures the on-disk store.
type BadgerOptions struct {
	// Dir is the data directory. Required unless InMemory.
	Dir string

	// InMemory runs badger without disk persistence, for tests.
	InMemory bool
}

// NewBadger opens a BadgerDB-backed store.
func NewBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("memory: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("memory: open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Append(ctx context.Context, agentID string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	key := chatKey(agentID)
	return b.db.Update(func(txn *badger.Txn) error {
		var history []Message
		item, err := txn.Get(key)
		switch {
		case err == nil:
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := msgpack.Unmarshal(raw, &history); err != nil {
				return fmt.Errorf("memory: decode history: %w", err)
			}
		case errors.Is(err, badger.ErrKeyNotFound):
		default:
			return err
		}

		history = trim(append(history, msgs...))
		raw, err := msgpack.Marshal(history)
		if err != nil {
			return fmt.Errorf("memory: encode history: %w", err)
		}
		return txn.Set(key, raw)
	})
}

func (b *Badger) History(ctx context.Context, agentID string) ([]Message, error) {
	var history []Message
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chatKey(agentID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return msgpack.Unmarshal(raw, &history)
	})
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []Message{}
	}
	return history, nil
}

func (b *Badger) Clear(ctx context.Context, agentID string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(chatKey(agentID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

func (b *Badger) SaveCall(ctx context.Context, agentID string, rec CallRecord) error {
	if rec.ID == "" {
		return errors.New("memory: call record needs an ID")
	}
	raw, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("memory: encode call: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(callKey(agentID, rec.ID), raw)
	})
}

func (b *Badger) Calls(ctx context.Context, agentID string) ([]CallRecord, error) {
	var recs []CallRecord
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := callPrefix(agentID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var rec CallRecord
			if err := msgpack.Unmarshal(raw, &rec); err != nil {
				return fmt.Errorf("memory: decode call: %w", err)
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortCalls(recs)
	return recs, nil
}

func (b *Badger) Close() error { return b.db.Close() }

var _ Store = (*Badger)(nil)
