// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

import (
	"database/sql"
)

// FactRow is one fact_entry row: one posted monetary amount attributable
// to a combination of dimensions. Read-only to this engine.
type FactRow struct {
	Period         string  `json:"period"`         // ie: 2024-03
	Version        string  `json:"version"`        // ie: Actual, Forecast
	Scenario       string  `json:"scenario"`       // planning scenario
	Bu             string  `json:"bu"`             // business unit code
	Region         string  `json:"region"`         //
	Channel        string  `json:"channel"`        //
	ProductSku     string  `json:"productSku"`     // lookup reference to product
	Customer       string  `json:"customer"`       //
	CostCenterCode string  `json:"costCenterCode"` // lookup reference to cost center
	GlAccount      string  `json:"glAccount"`      // general ledger account
	PnlLine        string  `json:"pnlLine"`        // P&L line, ie: Net Revenue
	Value          float64 `json:"value"`          // signed amount, always aggregated additively
}

// ReadFactRows select fact rows matching the filter, in period order.
// It is the row source of the in-memory DRE analytics path.
func ReadFactRows(dbConn *sql.DB, filter *PivotFilter) ([]FactRow, error) {

	q := "SELECT period, version, scenario, bu, region, channel," +
		" product_sku, customer, cost_center_code, gl_account, pnl_line, value" +
		" FROM " + factTable + makePivotWhere(filter) +
		" ORDER BY period, pnl_line"

	var rs []FactRow

	err := doWithRetry("fact rows query", func() error {

		rs = rs[:0]
		return SelectRows(dbConn, q, func(rows *sql.Rows) error {

			var r FactRow
			var period, version, scenario, bu, region, channel sql.NullString
			var sku, customer, cc, gl, pnl sql.NullString

			if err := rows.Scan(
				&period, &version, &scenario, &bu, &region, &channel,
				&sku, &customer, &cc, &gl, &pnl, &r.Value); err != nil {
				return err
			}
			r.Period = period.String
			r.Version = version.String
			r.Scenario = scenario.String
			r.Bu = bu.String
			r.Region = region.String
			r.Channel = channel.String
			r.ProductSku = sku.String
			r.Customer = customer.String
			r.CostCenterCode = cc.String
			r.GlAccount = gl.String
			r.PnlLine = pnl.String

			rs = append(rs, r)
			return nil
		})
	})
	if err != nil {
		return nil, &QueryError{Name: "fact rows query", Sql: q, Err: err}
	}
	return rs, nil
}
