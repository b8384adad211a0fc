// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

import (
	"database/sql/driver"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

func TestIsTransientErr(t *testing.T) {

	transient := []error{
		driver.ErrBadConn,
		sqlite3.Error{Code: sqlite3.ErrBusy},
		sqlite3.Error{Code: sqlite3.ErrLocked},
		&pgconn.PgError{Code: "40001"},
		&pgconn.PgError{Code: "40P01"},
		&pgconn.PgError{Code: "08006"},
		errors.New("driver: connection reset by peer"),
		errors.New("Deadlock found when trying to get lock"),
	}
	for _, e := range transient {
		if !isTransientErr(e) {
			t.Error("Fail: expected transient:", e)
		}
	}

	permanent := []error{
		nil,
		sqlite3.Error{Code: sqlite3.ErrError},
		&pgconn.PgError{Code: "42601"}, // syntax error
		errors.New("no such table: fact_entry"),
	}
	for _, e := range permanent {
		if isTransientErr(e) {
			t.Error("Fail: expected permanent:", e)
		}
	}
}

func TestDoWithRetry(t *testing.T) {

	// transient failure clears on a later attempt
	n := 0
	err := doWithRetry("test query", func() error {
		n++
		if n < 3 {
			return driver.ErrBadConn
		}
		return nil
	})
	if err != nil || n != 3 {
		t.Error("Fail: expected success on attempt 3, got:", n, err)
	}

	// permanent failure returns immediately, no retry
	n = 0
	permanent := errors.New("no such table: fact_entry")
	err = doWithRetry("test query", func() error {
		n++
		return permanent
	})
	if err != permanent || n != 1 {
		t.Error("Fail: expected immediate permanent failure, got:", n, err)
	}

	// retries exhausted: error reports attempt count
	n = 0
	err = doWithRetry("test query", func() error {
		n++
		return driver.ErrBadConn
	})
	if err == nil || n != maxQueryAttempt {
		t.Fatal("Fail: expected exhausted retries, got:", n, err)
	}
	if !strings.Contains(err.Error(), "after 4 attempts") {
		t.Error("Fail: attempt count missing in:", err)
	}
}

func TestQueryError(t *testing.T) {

	inner := errors.New("database is locked")
	qe := &QueryError{Name: "pivot count query", Sql: "SELECT COUNT(*) FROM fact_entry", Err: inner}

	if qe.Error() != "error at pivot count query: database is locked" {
		t.Error("Fail:", qe.Error())
	}
	if !errors.Is(qe, inner) {
		t.Error("Fail: QueryError must unwrap to the original error")
	}
}
