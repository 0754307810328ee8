package db

import (
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/lib/pq"
)

// IsConnErr reports whether an error is a connection-class failure worth
// retrying on a fresh connection. Server-side SQL errors (constraint
// violations, bad casts) never qualify: retrying those only repeats the
// failure.
func IsConnErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		// Class 08: connection exception.
		case pqErr.Code.Class() == "08":
			return true
		// Server shutdown in progress or connection slots exhausted.
		case pqErr.Code == "57P01", pqErr.Code == "57P02", pqErr.Code == "57P03", pqErr.Code == "53300":
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, kw := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"bad connection",
		"i/o timeout",
		"unexpected eof",
	} {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}
