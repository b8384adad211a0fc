// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

import (
	"database/sql"
	"errors"
	"math"
	"reflect"
	"strconv"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// open in-memory SQLite database and apply schema migrations
func openTestDb(t *testing.T) (*sql.DB, Facet) {

	dbConn, facet, err := Open("Database=:memory:; OpenMode=Create", SQLiteDbDriver, true)
	if err != nil {
		t.Fatal(err)
	}
	dbConn.SetMaxOpenConns(1) // single connection: in-memory database is per connection
	t.Cleanup(func() { dbConn.Close() })

	if err := MigrateUp(dbConn, SQLiteDbDriver); err != nil {
		t.Fatal(err)
	}
	if err := CheckMed1SchemaVersion(dbConn); err != nil {
		t.Fatal(err)
	}
	return dbConn, facet
}

func insertTestFacts(t *testing.T, dbConn *sql.DB, rows []FactRow) {

	for k := range rows {
		r := &rows[k]
		_, err := dbConn.Exec(
			"INSERT INTO fact_entry"+
				" (entry_id, period, version, scenario, bu, region, channel, product_sku, customer, cost_center_code, gl_account, pnl_line, value)"+
				" VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			k+1, r.Period, r.Version, r.Scenario, r.Bu, r.Region, r.Channel,
			r.ProductSku, r.Customer, r.CostCenterCode, r.GlAccount, r.PnlLine, r.Value)
		if err != nil {
			t.Fatal(err)
		}
	}
}

// shared fact set: two business units, one forecast row, cost and expense lines
func baseTestFacts() []FactRow {
	return []FactRow{
		{Period: "2024-01", Version: "Actual", Scenario: "Base Case", Bu: "Clinic", Region: "South",
			Channel: "Direct", ProductSku: "SKU-1", Customer: "Acme Health", CostCenterCode: "CC-100",
			GlAccount: "4000", PnlLine: "Net Revenue", Value: 1000},
		{Period: "2024-01", Version: "Actual", Scenario: "Base Case", Bu: "Hospital", Region: "North",
			Channel: "Online", ProductSku: "SKU-2", Customer: "Beta Med", CostCenterCode: "CC-200",
			GlAccount: "4000", PnlLine: "Net Revenue", Value: 500},
		{Period: "2024-01", Version: "Actual", Scenario: "Base Case", Bu: "Clinic", Region: "South",
			Channel: "Direct", ProductSku: "SKU-1", Customer: "Acme Health", CostCenterCode: "CC-100",
			GlAccount: "5000", PnlLine: "Cost of Goods Sold", Value: 600},
		{Period: "2024-01", Version: "Actual", Scenario: "Base Case", Bu: "Clinic", Region: "South",
			Channel: "Direct", ProductSku: "SKU-1", Customer: "Acme Health", CostCenterCode: "CC-100",
			GlAccount: "6000", PnlLine: "Marketing Expenses", Value: 100},
		{Period: "2024-01", Version: "Forecast", Scenario: "Base Case", Bu: "Clinic", Region: "South",
			Channel: "Direct", ProductSku: "SKU-1", Customer: "Acme Health", CostCenterCode: "CC-100",
			GlAccount: "4000", PnlLine: "Net Revenue", Value: 900},
	}
}

// metric value of a data row: float64 or nil for undefined
func rowMetric(t *testing.T, r map[string]interface{}, key string) float64 {
	v, ok := r[key]
	if !ok || v == nil {
		t.Fatal("Fail: missing value:", key, "in:", r)
	}
	f, ok := v.(float64)
	if !ok {
		t.Fatal("Fail: not a number:", key, "in:", r)
	}
	return f
}

func TestReadPivotPageByBu(t *testing.T) {

	dbConn, facet := openTestDb(t)
	insertTestFacts(t, dbConn, baseTestFacts())

	// group revenue by business unit, Actual version only
	pvt, err := ReadPivotPage(dbConn, facet, &PivotLayout{
		Filter:  PivotFilter{Version: []string{"Actual"}},
		Rows:    []string{"bu"},
		Metrics: []string{"Net Revenue_sum"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(pvt.Data) != 2 || pvt.Metadata.Total != 2 {
		t.Fatal("Fail: expected 2 groups, got:", len(pvt.Data), "of", pvt.Metadata.Total)
	}

	byBu := map[string]float64{}
	for _, r := range pvt.Data {
		byBu[r["bu"].(string)] = rowMetric(t, r, "Net Revenue_sum")
	}
	if byBu["Clinic"] != 1000 || byBu["Hospital"] != 500 {
		t.Error("Fail: revenue by bu:", byBu)
	}
	if pvt.Totals["Net Revenue_sum"] != 1500 {
		t.Error("Fail: totals:", pvt.Totals)
	}

	// version filter excludes forecast from count, data and totals identically:
	// without it the forecast row joins the Clinic group
	pvt, err = ReadPivotPage(dbConn, facet, &PivotLayout{
		Rows:    []string{"bu"},
		Metrics: []string{"Net Revenue_sum"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if pvt.Totals["Net Revenue_sum"] != 2400 {
		t.Error("Fail: unfiltered totals:", pvt.Totals)
	}
}

func TestReadPivotPageDetail(t *testing.T) {

	dbConn, facet := openTestDb(t)
	insertTestFacts(t, dbConn, baseTestFacts())

	pvt, err := ReadPivotPage(dbConn, facet, &PivotLayout{
		Rows:    []string{"bu"},
		Metrics: []string{"value_sum"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// SQLite can aggregate detail rows: each group carries its contributing facts
	for _, r := range pvt.Data {
		ds, ok := r["detail"].([]FactDetail)
		if !ok {
			t.Fatal("Fail: missing detail in:", r)
		}
		n := 1
		if r["bu"].(string) == "Clinic" {
			n = 4
		}
		if len(ds) != n {
			t.Error("Fail: detail count for", r["bu"], ":", len(ds), "expected:", n)
		}
		for _, d := range ds {
			if d.Period == "" || d.Version == "" || d.Scenario == "" || d.Bu == "" {
				t.Error("Fail: incomplete detail row:", d)
			}
		}
	}
}

func TestReadPivotPagePivotedColumns(t *testing.T) {

	dbConn, facet := openTestDb(t)
	insertTestFacts(t, dbConn, baseTestFacts())

	// pivot by version: one output column per distinct version value
	pvt, err := ReadPivotPage(dbConn, facet, &PivotLayout{
		Rows:    []string{"bu"},
		Columns: []string{"version"},
		Metrics: []string{"value_sum"},
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, r := range pvt.Data {
		switch r["bu"].(string) {
		case "Clinic":
			if rowMetric(t, r, "Actual") != 1700 || rowMetric(t, r, "Forecast") != 900 {
				t.Error("Fail: Clinic pivoted values:", r)
			}
		case "Hospital":
			if rowMetric(t, r, "Actual") != 500 {
				t.Error("Fail: Hospital pivoted values:", r)
			}
			// no forecast rows under Hospital: pivoted value is null, not zero
			if v, ok := r["Forecast"]; !ok || v != nil {
				t.Error("Fail: Hospital Forecast must be null:", r)
			}
		}
	}
}

func TestReadPivotPageEmpty(t *testing.T) {

	dbConn, facet := openTestDb(t)
	insertTestFacts(t, dbConn, baseTestFacts())

	// zero count short-circuits to a well-formed empty response
	pvt, err := ReadPivotPage(dbConn, facet, &PivotLayout{
		Filter:  PivotFilter{Scenario: "No Such Scenario"},
		Rows:    []string{"bu"},
		Metrics: []string{"Net Revenue_sum"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(pvt.Data) != 0 || len(pvt.Totals) != 0 || pvt.Metadata.Total != 0 {
		t.Error("Fail: expected empty response, got:", pvt)
	}
	if pvt.Metadata.Page != DefaultPage || pvt.Metadata.PageSize != DefaultPageSize {
		t.Error("Fail: empty response metadata:", pvt.Metadata)
	}
}

func TestReadPivotPageInvalid(t *testing.T) {

	dbConn, facet := openTestDb(t)

	_, err := ReadPivotPage(dbConn, facet, &PivotLayout{
		Rows:    []string{"bu"},
		Metrics: []string{"not_a_real_metric"},
	})
	if err == nil {
		t.Fatal("Fail: expected validation error")
	}
	var ve *ValidateError
	if !errors.As(err, &ve) {
		t.Fatal("Fail: expected ValidateError, got:", err)
	}
}

func TestReadPivotPageSort(t *testing.T) {

	dbConn, facet := openTestDb(t)
	insertTestFacts(t, dbConn, baseTestFacts())

	pvt, err := ReadPivotPage(dbConn, facet, &PivotLayout{
		Rows:    []string{"bu"},
		Metrics: []string{"value_sum"},
		SortBy:  &PivotSort{Field: "bu", Direction: "desc"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(pvt.Data) != 2 || pvt.Data[0]["bu"].(string) != "Hospital" {
		t.Error("Fail: descending sort by bu:", pvt.Data)
	}

	// direction is case-insensitive: DESC must sort the same as desc
	pvt, err = ReadPivotPage(dbConn, facet, &PivotLayout{
		Rows:    []string{"bu"},
		Metrics: []string{"value_sum"},
		SortBy:  &PivotSort{Field: "bu", Direction: "DESC"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(pvt.Data) != 2 || pvt.Data[0]["bu"].(string) != "Hospital" {
		t.Error("Fail: descending sort by bu with upper case direction:", pvt.Data)
	}
}

func TestReadPivotPagePagination(t *testing.T) {

	dbConn, facet := openTestDb(t)

	// five customers, one revenue row each
	fs := []FactRow{}
	for k := 1; k <= 5; k++ {
		fs = append(fs, FactRow{
			Period: "2024-01", Version: "Actual", Scenario: "Base Case", Bu: "Clinic",
			Customer: "Customer-" + strconv.Itoa(k), PnlLine: "Net Revenue", Value: float64(100 * k),
		})
	}
	insertTestFacts(t, dbConn, fs)

	makeLayout := func(page int) *PivotLayout {
		return &PivotLayout{
			Rows:     []string{"customer"},
			Metrics:  []string{"Net Revenue_sum"},
			Page:     page,
			PageSize: 2,
		}
	}

	// concatenation of all pages covers every group exactly once
	// and the additive metric sums to the grand total
	seen := map[string]bool{}
	sum := 0.0
	var total int64

	for page := 1; page <= 3; page++ {
		pvt, err := ReadPivotPage(dbConn, facet, makeLayout(page))
		if err != nil {
			t.Fatal(err)
		}
		total = pvt.Metadata.Total

		n := 2
		if page == 3 {
			n = 1
		}
		if len(pvt.Data) != n {
			t.Error("Fail: page", page, "size:", len(pvt.Data), "expected:", n)
		}
		for _, r := range pvt.Data {
			c := r["customer"].(string)
			if seen[c] {
				t.Error("Fail: duplicate group across pages:", c)
			}
			seen[c] = true
			sum += rowMetric(t, r, "Net Revenue_sum")
		}
		if pvt.Totals["Net Revenue_sum"] != 1500 {
			t.Error("Fail: page", page, "totals:", pvt.Totals)
		}
	}

	if total != 5 || len(seen) != 5 {
		t.Error("Fail: expected 5 distinct groups, got:", len(seen), "of", total)
	}
	if sum != 1500 {
		t.Error("Fail: sum across pages:", sum, "expected: 1500")
	}
}

func TestReadPivotPageIdempotence(t *testing.T) {

	dbConn, facet := openTestDb(t)
	insertTestFacts(t, dbConn, baseTestFacts())

	makeLayout := func() *PivotLayout {
		return &PivotLayout{
			Filter:  PivotFilter{Scenario: "Base Case"},
			Rows:    []string{"bu", "region"},
			Metrics: []string{"Net Revenue_sum", "gross_margin"},
		}
	}

	first, err := ReadPivotPage(dbConn, facet, makeLayout())
	if err != nil {
		t.Fatal(err)
	}
	second, err := ReadPivotPage(dbConn, facet, makeLayout())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Fail: same request over unchanged facts must return identical result")
	}
}

func TestReadPivotPageRatioTotals(t *testing.T) {

	dbConn, facet := openTestDb(t)
	insertTestFacts(t, dbConn, baseTestFacts())

	// ratio metric total is the formula over the ungrouped set,
	// not a sum of per-group ratios
	pvt, err := ReadPivotPage(dbConn, facet, &PivotLayout{
		Rows:    []string{"bu"},
		Metrics: []string{"gross_margin"},
	})
	if err != nil {
		t.Fatal(err)
	}

	expected := (2400.0 - 600.0) / 2400.0
	if v, ok := pvt.Totals["gross_margin"]; !ok || math.Abs(v-expected) > 1e-9 {
		t.Error("Fail: gross_margin total:", pvt.Totals, "expected:", expected)
	}

	// Hospital group has no cost rows but full margin 1.0, still defined
	for _, r := range pvt.Data {
		if r["bu"].(string) == "Hospital" && rowMetric(t, r, "gross_margin") != 1.0 {
			t.Error("Fail: Hospital gross_margin:", r)
		}
	}
}
