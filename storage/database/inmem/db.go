// Package inmemdb implements the core repositories in memory, for tests & local runs.
package inmemdb

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/flashcard"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lead"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/progress"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/user"
)

type (
	DB struct {
		user       *userTable
		set        *setTable
		completion *completionTable
		lead       *leadTable
		option     *optionTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	setTable struct {
		sync.RWMutex
		table map[string]*flashcard.Set
	}

	completionKey struct {
		userID, setID string
	}

	completionTable struct {
		sync.RWMutex
		table map[completionKey]progress.Completion
	}

	leadTable struct {
		sync.RWMutex
		table map[string]lead.Lead
	}

	optionTable struct {
		sync.RWMutex
		table map[string][]byte
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		set:        &setTable{table: make(map[string]*flashcard.Set)},
		completion: &completionTable{table: make(map[completionKey]progress.Completion)},
		lead:       &leadTable{table: make(map[string]lead.Lead)},
		option:     &optionTable{table: make(map[string][]byte)},
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.set.Lock()
	db.set.table = make(map[string]*flashcard.Set)
	db.set.Unlock()

	db.completion.Lock()
	db.completion.table = make(map[completionKey]progress.Completion)
	db.completion.Unlock()

	db.lead.Lock()
	db.lead.table = make(map[string]lead.Lead)
	db.lead.Unlock()

	db.option.Lock()
	db.option.table = make(map[string][]byte)
	db.option.Unlock()
}

func newID() string {
	return uuid.New().String()
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func copyStrings(ss []string) []string {
	if ss == nil {
		return nil
	}
	return append(make([]string, 0, len(ss)), ss...)
}

func hasString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// sortItems stably sorts items following orderings; compare returns -1, 0 or 1 for a field of a & b.
func sortItems[T any](items []T, orderings []core.DBOrdering, compare func(a, b T, field string) int) {
	sort.SliceStable(items, func(i, j int) bool {
		for _, ord := range orderings {
			c := compare(items[i], items[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func cmpString(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case b:
		return -1
	}
	return 1
}

func cmpTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
