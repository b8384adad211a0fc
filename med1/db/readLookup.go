// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

import (
	"database/sql"
)

// ReadProductNames return product display names: product_sku => product_name
func ReadProductNames(dbConn *sql.DB) (map[string]string, error) {
	return readNameMap(dbConn, "product names query",
		"SELECT product_sku, product_name FROM product ORDER BY product_sku")
}

// ReadCostCenterNames return cost center display names: cost_center_code => cost_center_name
func ReadCostCenterNames(dbConn *sql.DB) (map[string]string, error) {
	return readNameMap(dbConn, "cost center names query",
		"SELECT cost_center_code, cost_center_name FROM cost_center ORDER BY cost_center_code")
}

// readNameMap select (code, name) rows into a map through the retry wrapper
func readNameMap(dbConn *sql.DB, name, query string) (map[string]string, error) {

	nm := map[string]string{}

	err := doWithRetry(name, func() error {

		clear(nm)
		return SelectRows(dbConn, query, func(rows *sql.Rows) error {
			var code, label string
			if err := rows.Scan(&code, &label); err != nil {
				return err
			}
			nm[code] = label
			return nil
		})
	})
	if err != nil {
		return nil, &QueryError{Name: name, Sql: query, Err: err}
	}
	return nm, nil
}
