// Package sqlxrepos implements the core repositories on PostgreSQL.
package sqlxrepos

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
)

type repo struct {
	exec core.DBExecutor
}

func (r repo) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return r.exec
}

// where accumulates AND-ed conditions written with `?` bindvars.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, "("+cond+")")
	w.args = append(w.args, args...)
}

// in adds `column IN (...)`, expanded by sqlx.In.
func (w *where) in(column string, values []string) error {
	cond, args, err := sqlx.In(column+" IN (?)", values)
	if err != nil {
		return err
	}
	w.add(cond, args...)
	return nil
}

// build appends the WHERE & ORDER BY clauses to query & rebinds it for exec.
func (w *where) build(exec core.DBExecutor, query string, orderings []core.DBOrdering) (string, []interface{}) {
	if len(w.conds) > 0 {
		query += " WHERE " + strings.Join(w.conds, " AND ")
	}
	if len(orderings) > 0 {
		orderList := make([]string, 0, len(orderings))
		for _, ord := range orderings {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	}
	return exec.Rebind(query), w.args
}

func likeArg(search string) string {
	return "%" + search + "%"
}

func joinComma(parts []string) string {
	return strings.Join(parts, ", ")
}
