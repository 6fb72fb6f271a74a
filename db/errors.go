package db

import (
	"strings"

	"github.com/teranos/stubgen/errors"
)

// ErrDatabaseClosed is returned when a store is used after Close.
var ErrDatabaseClosed = errors.New("database is closed")

// closedMessage is the text database/sql and the sqlite driver use for a
// closed handle. Their errors carry no sentinel we can match.
const closedMessage = "database is closed"

// MarkClosed marks a driver error about a closed handle with
// ErrDatabaseClosed. Other errors pass through unchanged.
func MarkClosed(err error) error {
	if err == nil || errors.Is(err, ErrDatabaseClosed) {
		return err
	}
	if strings.Contains(err.Error(), closedMessage) {
		return errors.Mark(err, ErrDatabaseClosed)
	}
	return err
}

// IsDatabaseClosed reports whether err comes from using a closed store or
// database handle.
func IsDatabaseClosed(err error) bool {
	return err != nil && errors.Is(MarkClosed(err), ErrDatabaseClosed)
}
