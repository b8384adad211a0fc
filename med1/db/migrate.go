// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratePgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migrateSqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFs embed.FS

// MigrateUp apply all pending schema migrations to the database.
// Migration files are embedded, no external source directory is required.
// It is a no-op if the schema is already at the latest version.
func MigrateUp(dbConn *sql.DB, dbDriver string) error {

	src, err := iofs.New(migrationsFs, "migrations")
	if err != nil {
		return errors.New("error at reading embedded migrations: " + err.Error())
	}

	var drv database.Driver

	switch dbDriver {
	case SQLiteDbDriver, Sqlite3DbDriver:
		drv, err = migrateSqlite.WithInstance(dbConn, &migrateSqlite.Config{})
	case PostgresDbDriver, PgxDbDriver:
		drv, err = migratePgx.WithInstance(dbConn, &migratePgx.Config{})
	default:
		return errors.New("schema migration not supported for db driver: " + dbDriver)
	}
	if err != nil {
		return errors.New("error at migration driver open: " + err.Error())
	}

	m, err := migrate.NewWithInstance("iofs", src, dbDriver, drv)
	if err != nil {
		return errors.New("error at migration setup: " + err.Error())
	}

	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.New("error at schema migration: " + err.Error())
	}
	return nil
}
