package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/option"
)

var NowFunc = time.Now // mockable

type optionStore struct {
	repo
}

var _ option.Store = (*optionStore)(nil) // interface compliance check

func NewOptionStore(exec core.DBExecutor) option.Store {
	return &optionStore{repo{exec: exec}}
}

func (store *optionStore) GetOption(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := store.exec.GetContext(ctx, &value, store.exec.Rebind(`SELECT value FROM options WHERE key = ?`), key); err != nil {
		if err == sql.ErrNoRows {
			return nil, option.ErrNotFound
		}
		return nil, errors.Wrapf(err, "reading option %q", key)
	}
	return value, nil
}

func (store *optionStore) SetOption(ctx context.Context, key string, value []byte) error {
	_, err := store.exec.ExecContext(ctx, store.exec.Rebind(`
		INSERT INTO options (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`),
		key, value, NowFunc().UTC())
	if err != nil {
		return errors.Wrapf(err, "saving option %q", key)
	}
	return nil
}

func (store *optionStore) DeleteOption(ctx context.Context, key string) error {
	if _, err := store.exec.ExecContext(ctx, store.exec.Rebind(`DELETE FROM options WHERE key = ?`), key); err != nil {
		return errors.Wrapf(err, "deleting option %q", key)
	}
	return nil
}
