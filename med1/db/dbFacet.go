// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

import (
	"database/sql"
	"strconv"
	"strings"
)

// Facet is type to define database provider and driver facets, ie: json aggregation function name
type Facet uint8

const (
	DefaultFacet Facet = iota // common default db facet
	SqliteFacet               // SQLite db facet
	PgSqlFacet                // PostgreSQL db facet
	MsSqlFacet                // MS SQL db facet
)

// String is default printable value of db facet, Stringer implementation
func (facet Facet) String() string {
	switch facet {
	case DefaultFacet:
		return "Default db facet"
	case SqliteFacet:
		return "Sqlite db facet"
	case PgSqlFacet:
		return "PostgreSQL db facet"
	case MsSqlFacet:
		return "MS SQL db facet"
	}
	return "Unknown db facet"
}

// detectFacet query database to determine db facet, ie: for odbc connections
func detectFacet(dbConn *sql.DB) Facet {

	var s string

	if err := dbConn.QueryRow("SELECT VERSION()").Scan(&s); err == nil {
		sl := strings.ToLower(s)
		if strings.Contains(sl, "postgresql") {
			return PgSqlFacet
		}
	}
	if err := dbConn.QueryRow("SELECT @@VERSION").Scan(&s); err == nil {
		if strings.Contains(strings.ToLower(s), "microsoft") {
			return MsSqlFacet
		}
	}
	if err := dbConn.QueryRow("SELECT SQLITE_VERSION()").Scan(&s); err == nil {
		return SqliteFacet
	}
	return DefaultFacet
}

// pageClause return sql fragment to select a page of rows: " LIMIT 100 OFFSET 200".
// MS SQL uses OFFSET ... FETCH form, it requires ORDER BY in the query.
// If size <= 0 then all rows selected and the clause is empty.
func (facet Facet) pageClause(offset, size int64) string {

	if size <= 0 {
		return ""
	}
	if offset < 0 {
		offset = 0
	}
	if facet == MsSqlFacet {
		return " OFFSET " + strconv.FormatInt(offset, 10) + " ROWS FETCH NEXT " + strconv.FormatInt(size, 10) + " ROWS ONLY"
	}
	return " LIMIT " + strconv.FormatInt(size, 10) + " OFFSET " + strconv.FormatInt(offset, 10)
}

// detailAggExpr return sql expression to aggregate per-group detail rows
// into a json array of {period, version, value, scenario, bu} objects.
// Empty return means provider cannot do json aggregation and detail is skipped.
func (facet Facet) detailAggExpr() string {

	args := "'period', period, 'version', version, 'value', value, 'scenario', scenario, 'bu', bu"

	switch facet {
	case SqliteFacet:
		return "json_group_array(json_object(" + args + "))"
	case PgSqlFacet:
		return "json_agg(json_build_object(" + args + "))"
	}
	return "" // no detail rows for other providers
}
