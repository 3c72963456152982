package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	pq "github.com/lib/pq"

	"github.com/guttosm/b3cotahist/internal/apperr"
)

// classify maps database failures onto the error taxonomy. Errors it does
// not recognize are returned unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57": // connection, insufficient resources, operator intervention
			return &apperr.TransientError{Op: op, Err: err}
		case "23":
			name := pqErr.Constraint
			if name == "" {
				name = pqErr.Column
			}
			return &apperr.IntegrityError{Constraint: name, Err: err}
		}
		return err
	}

	var netErr net.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return &apperr.TransientError{Op: op, Err: err}
	}
	return err
}
