package inmemdb

import (
	"context"

	"github.com/Faiver55/skylearn-flashcards-sub001/core/option"
)

type optionStore struct {
	db *optionTable
}

var _ option.Store = (*optionStore)(nil)

func NewOptionStore(db *DB) option.Store {
	return &optionStore{db: db.option}
}

func (store *optionStore) GetOption(_ context.Context, key string) ([]byte, error) {
	store.db.RLock()
	defer store.db.RUnlock()

	if val, ok := store.db.table[key]; ok {
		return append([]byte{}, val...), nil
	}
	return nil, option.ErrNotFound
}

func (store *optionStore) SetOption(_ context.Context, key string, value []byte) error {
	store.db.Lock()
	defer store.db.Unlock()
	store.db.table[key] = append([]byte{}, value...)
	return nil
}

func (store *optionStore) DeleteOption(_ context.Context, key string) error {
	store.db.Lock()
	defer store.db.Unlock()
	delete(store.db.table, key)
	return nil
}
