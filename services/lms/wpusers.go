// Package lmssvc holds what the LMS adapters share: both LMS are WordPress plugins
// and know our users by their WordPress account.
package lmssvc

import (
	"context"
	"errors"
	"strconv"
	"sync"

	pkgerrors "github.com/pkg/errors"

	"github.com/Faiver55/skylearn-flashcards-sub001/core/user"
	"github.com/Faiver55/skylearn-flashcards-sub001/services/restapi"
)

var ErrUnknownUser = errors.New("no matching WordPress user")

// UserFinder finds local users; user.ServiceInterface satisfies it.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// Directory maps local user IDs to WordPress user IDs, matching accounts by email.
type Directory struct {
	users  UserFinder
	client *restapi.Client

	mu    sync.RWMutex
	cache map[string]string
}

// NewDirectory looks WordPress users up through client, which must target the site root.
func NewDirectory(users UserFinder, client *restapi.Client) *Directory {
	return &Directory{users: users, client: client, cache: make(map[string]string)}
}

// WordPressID returns the WordPress ID of the local user userID, or ErrUnknownUser.
func (d *Directory) WordPressID(ctx context.Context, userID string) (string, error) {
	d.mu.RLock()
	wpID, ok := d.cache[userID]
	d.mu.RUnlock()
	if ok {
		return wpID, nil
	}

	usr, err := d.users.GetByID(ctx, userID)
	if err != nil {
		if pkgerrors.Cause(err) == user.ErrNotFound {
			return "", ErrUnknownUser
		}
		return "", pkgerrors.Wrap(err, "finding user by ID")
	}
	if usr.Email == "" {
		return "", ErrUnknownUser
	}

	var found []struct {
		ID    int    `json:"id"`
		Email string `json:"email"`
	}
	query := map[string]string{"search": usr.Email, "context": "edit"}
	if err = d.client.Get(ctx, "/wp-json/wp/v2/users", query, &found); err != nil {
		return "", pkgerrors.Wrap(err, "searching WordPress users")
	}
	for _, wpUsr := range found {
		if wpUsr.Email == usr.Email {
			wpID = strconv.Itoa(wpUsr.ID)
			d.mu.Lock()
			d.cache[userID] = wpID
			d.mu.Unlock()
			return wpID, nil
		}
	}
	return "", ErrUnknownUser
}
