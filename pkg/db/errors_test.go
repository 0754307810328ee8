package db

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/lib/pq"
)

type fakeNetErr struct{}

func (fakeNetErr) Error() string   { return "dial tcp 10.0.0.1:5432: connect: no route to host" }
func (fakeNetErr) Timeout() bool   { return false }
func (fakeNetErr) Temporary() bool { return true }

var _ net.Error = fakeNetErr{}

func TestIsConnErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad conn", driver.ErrBadConn, true},
		{"wrapped bad conn", fmt.Errorf("exec: %w", driver.ErrBadConn), true},
		{"eof", io.EOF, true},
		{"net error", fakeNetErr{}, true},
		{"pq connection failure", &pq.Error{Code: "08006"}, true},
		{"pq admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"pq too many connections", &pq.Error{Code: "53300"}, true},
		{"pq unique violation", &pq.Error{Code: "23505"}, false},
		{"pq undefined table", &pq.Error{Code: "42P01"}, false},
		{"lexical refused", errors.New("dial tcp: connection refused"), true},
		{"lexical reset", errors.New("read: connection reset by peer"), true},
		{"query cancel", errors.New("canceling statement due to user request"), false},
		{"plain business error", errors.New("email 7 not found"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConnErr(tt.err); got != tt.want {
				t.Errorf("IsConnErr(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithSearchPath(t *testing.T) {
	tests := []struct {
		in     string
		schema string
		want   string
	}{
		{
			"postgres://u:p@localhost:5432/emails?sslmode=disable",
			"bookings",
			"postgres://u:p@localhost:5432/emails?search_path=bookings&sslmode=disable",
		},
		{
			"postgres://u:p@localhost:5432/emails?search_path=already",
			"bookings",
			"postgres://u:p@localhost:5432/emails?search_path=already",
		},
		{
			"host=localhost dbname=emails",
			"bookings",
			"host=localhost dbname=emails",
		},
		{
			"postgres://u:p@localhost:5432/emails",
			"",
			"postgres://u:p@localhost:5432/emails",
		},
	}
	for _, tt := range tests {
		got, err := withSearchPath(tt.in, tt.schema)
		if err != nil {
			t.Fatalf("withSearchPath(%q, %q): %v", tt.in, tt.schema, err)
		}
		if got != tt.want {
			t.Errorf("withSearchPath(%q, %q) = %q, want %q", tt.in, tt.schema, got, tt.want)
		}
	}
}
