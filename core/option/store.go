// Package option defines the key/value store holding installation-wide settings.
// Values are overwritten wholesale; there are no partial updates.
package option

import (
	"context"
	"encoding/json"
	"errors"

	pkgerrors "github.com/pkg/errors"
)

var ErrNotFound = errors.New("option not found")

type Store interface {
	// GetOption returns ErrNotFound when nothing was stored under key.
	GetOption(ctx context.Context, key string) ([]byte, error)
	SetOption(ctx context.Context, key string, value []byte) error
	DeleteOption(ctx context.Context, key string) error
}

// GetJSON decodes the JSON value stored under key into dest.
func GetJSON(ctx context.Context, store Store, key string, dest interface{}) error {
	raw, err := store.GetOption(ctx, key)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(raw, dest); err != nil {
		return pkgerrors.Wrapf(err, "decoding option %q", key)
	}
	return nil
}

// SetJSON stores the JSON encoding of value under key.
func SetJSON(ctx context.Context, store Store, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return pkgerrors.Wrapf(err, "encoding option %q", key)
	}
	return store.SetOption(ctx, key, raw)
}
