// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

import (
	"database/sql/driver"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/med1app/go/med1/med1Log"
)

// Every pivot query runs through doWithRetry, it is the only place where database
// flakiness is absorbed: transient failures (connection errors, deadlocks, sqlite
// busy) are re-tried a fixed number of times with growing delay, anything else
// propagates immediately.

// max number of attempts to run one query
const maxQueryAttempt = 4

// delay before retry attempt n is n * retryStartDelay
const retryStartDelay = 250 * time.Millisecond

// QueryError is a query execution failure after retries exhausted.
// Sql carries the failing query text for server-side logging,
// it must never be echoed to the end client in production.
type QueryError struct {
	Name string // failed operation, ie: pivot count query
	Sql  string // failing query text
	Err  error  // original error, with attempt count if retries were exhausted
}

func (e *QueryError) Error() string {
	return "error at " + e.Name + ": " + e.Err.Error()
}

func (e *QueryError) Unwrap() error { return e.Err }

// doWithRetry invoke op and re-invoke it on transient failure up to maxQueryAttempt
// times with growing delay. Non-transient errors return immediately without retry.
// Exhausting retries return the original error augmented with the attempt count.
func doWithRetry(name string, op func() error) error {

	var err error
	for n := 1; n <= maxQueryAttempt; n++ {

		if err = op(); err == nil {
			return nil
		}
		if !isTransientErr(err) {
			return err
		}
		if n < maxQueryAttempt {
			med1Log.Log("Retry ", name, " after error: ", err.Error())
			time.Sleep(time.Duration(n) * retryStartDelay)
		}
	}
	return errors.New(name + " failed after " + strconv.Itoa(maxQueryAttempt) + " attempts: " + err.Error())
}

// isTransientErr return true if error is worth a retry:
// sqlite busy or locked, PostgreSQL deadlock, serialization or connection failure,
// bad or dropped connection.
func isTransientErr(err error) bool {

	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}

	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == "40001" || // serialization_failure
			pe.Code == "40P01" || // deadlock_detected
			pe.Code == "57P03" || // cannot_connect_now
			strings.HasPrefix(pe.Code, "08") // connection exception class
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}

	// odbc and driver errors come without a typed code
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe")
}
