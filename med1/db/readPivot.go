// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"
)

// ReadPivotPage validate pivot request, compose and run pivot queries, return result page.
//
// Sequence is strict, each step depends on the prior:
//  1. validate request, no database call is made for an invalid one
//  2. compose shared WHERE fragment, it is reused unchanged by every query below
//  3. count distinct groups, zero count short-circuits to an empty well-formed response
//  4. if a column is pivoted: select its distinct values, each one becomes an output column
//  5. main aggregation query: group by row dimensions, page of rows
//  6. totals query: each metric over the whole filtered set, pagination ignored
//
// Steps 3..6 each run through the retry wrapper, failure after retries return QueryError.
func ReadPivotPage(dbConn *sql.DB, facet Facet, layout *PivotLayout) (*PivotPage, error) {

	// validate request before anything else: complete violation list, zero db calls
	if err := ValidatePivotLayout(layout); err != nil {
		return nil, err
	}

	// verify every dynamic identifier even after validation:
	// query text is composed only from ColumnName values
	rowCols := make([]ColumnName, len(layout.Rows))
	for k, name := range layout.Rows {
		cn, err := CheckColumn(name)
		if err != nil {
			return nil, err
		}
		rowCols[k] = cn
	}

	var pivotCol *ColumnName
	if len(layout.Columns) > 0 { // only columns[0] is pivoted, extra entries are accepted and ignored
		cn, err := CheckColumn(layout.Columns[0])
		if err != nil {
			return nil, err
		}
		pivotCol = &cn
	}

	var sortCol *ColumnName
	isSortDesc := false
	if layout.SortBy != nil {
		cn, err := CheckColumn(layout.SortBy.Field)
		if err != nil {
			return nil, err
		}
		sortCol = &cn
		isSortDesc = strings.EqualFold(layout.SortBy.Direction, "desc") // validation is case-insensitive
	}

	metrics := make([]*Metric, len(layout.Metrics))
	for k, key := range layout.Metrics {
		m, err := MetricByKey(key)
		if err != nil {
			return nil, err
		}
		metrics[k] = m
	}

	refYear := time.Now().Year() // bind current_year and previous_year formula tokens
	where := makePivotWhere(&layout.Filter)

	// count distinct groups over the whole filtered set
	nTotal, err := selectPivotCount(dbConn, rowCols, where)
	if err != nil {
		return nil, err
	}

	pvt := &PivotPage{
		Data:   []map[string]interface{}{},
		Totals: map[string]float64{},
		Metadata: PivotMeta{
			Page:     layout.Page,
			PageSize: layout.PageSize,
			Total:    nTotal,
		},
	}
	if nTotal <= 0 {
		return pvt, nil // empty filtered set: done, no main or totals query issued
	}

	// distinct pivoted values, each becomes one output column
	var pivotVals []string
	if pivotCol != nil {
		if pivotVals, err = selectPivotValues(dbConn, *pivotCol); err != nil {
			return nil, err
		}
	}

	// main aggregation query: page of grouped rows
	orderBy := makePivotOrderBy(len(rowCols), sortCol, isSortDesc)
	offset := int64(layout.Page-1) * int64(layout.PageSize)

	mainSql := makeMainSql(
		rowCols, metrics, pivotCol, pivotVals, where, orderBy, facet, refYear, offset, int64(layout.PageSize))

	valKeys := []string{} // output value column keys, in select order
	if pivotCol == nil {
		for _, m := range metrics {
			valKeys = append(valKeys, m.Key)
		}
	} else {
		for _, v := range pivotVals {
			valKeys = append(valKeys, makeColumnAlias(v))
		}
	}
	isDetail := facet.detailAggExpr() != ""

	err = doWithRetry("pivot main query", func() error {

		pvt.Data = pvt.Data[:0]
		return SelectRows(dbConn, mainSql, func(rows *sql.Rows) error {

			dims := make([]sql.NullString, len(rowCols))
			vals := make([]sql.NullFloat64, len(valKeys))
			var detail sql.NullString

			scanBuf := make([]interface{}, 0, len(dims)+len(vals)+1)
			for k := range dims {
				scanBuf = append(scanBuf, &dims[k])
			}
			for k := range vals {
				scanBuf = append(scanBuf, &vals[k])
			}
			if isDetail {
				scanBuf = append(scanBuf, &detail)
			}
			if err := rows.Scan(scanBuf...); err != nil {
				return err
			}

			r := map[string]interface{}{}
			for k, cn := range rowCols {
				r[cn.name] = dims[k].String
			}
			for k, key := range valKeys {
				if vals[k].Valid {
					r[key] = vals[k].Float64
				} else {
					r[key] = nil // undefined metric or no rows under pivoted value
				}
			}
			if isDetail && detail.Valid {
				var ds []FactDetail
				if err := json.Unmarshal([]byte(detail.String), &ds); err == nil {
					r["detail"] = ds
				}
			}

			pvt.Data = append(pvt.Data, r)
			return nil
		})
	})
	if err != nil {
		return nil, &QueryError{Name: "pivot main query", Sql: mainSql, Err: err}
	}

	// grand totals: each metric over the whole filtered set
	totalsSql := makeTotalsSql(metrics, where, refYear)

	err = doWithRetry("pivot totals query", func() error {

		return SelectFirst(dbConn, totalsSql, func(row *sql.Row) error {

			vals := make([]sql.NullFloat64, len(metrics))
			scanBuf := make([]interface{}, len(vals))
			for k := range vals {
				scanBuf[k] = &vals[k]
			}
			if err := row.Scan(scanBuf...); err != nil {
				return err
			}
			for k, m := range metrics {
				if vals[k].Valid { // undefined (zero denominator) totals are omitted
					pvt.Totals[m.Key] = vals[k].Float64
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, &QueryError{Name: "pivot totals query", Sql: totalsSql, Err: err}
	}

	return pvt, nil
}

// selectPivotCount run distinct group count query through the retry wrapper
func selectPivotCount(dbConn *sql.DB, rowCols []ColumnName, where string) (int64, error) {

	q := makeCountSql(rowCols, where)
	var n int64

	err := doWithRetry("pivot count query", func() error {
		return SelectFirst(dbConn, q, func(row *sql.Row) error {
			return row.Scan(&n)
		})
	})
	if err != nil {
		return 0, &QueryError{Name: "pivot count query", Sql: q, Err: err}
	}
	return n, nil
}

// selectPivotValues run pivoted column distinct values query through the retry wrapper
func selectPivotValues(dbConn *sql.DB, col ColumnName) ([]string, error) {

	q := makeDistinctSql(col)
	var vs []string

	err := doWithRetry("pivot values query", func() error {

		vs = vs[:0]
		return SelectRows(dbConn, q, func(rows *sql.Rows) error {
			var s string
			if err := rows.Scan(&s); err != nil {
				return err
			}
			vs = append(vs, s)
			return nil
		})
	})
	if err != nil {
		return nil, &QueryError{Name: "pivot values query", Sql: q, Err: err}
	}
	return vs, nil
}
