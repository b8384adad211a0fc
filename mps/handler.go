// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package main

import (
	"errors"
	"net/http"

	"github.com/med1app/go/med1/db"
	"github.com/med1app/go/med1/med1Log"
)

// pivotQueryHandler run pivot aggregation query and return page of grouped rows,
// grand totals and pagination metadata.
//
//	POST /api/pivot/query
//
// Request body is pivot layout json: filters, rows, columns, metrics, sortBy, page, pageSize.
// Invalid request return 400 with the complete list of violations, no query is issued.
func pivotQueryHandler(w http.ResponseWriter, r *http.Request) {

	var layout db.PivotLayout
	if !jsonRequestDecode(w, r, true, &layout) {
		return // error at json decode, response done with http error
	}

	pvt, err := db.ReadPivotPage(theDb, theFacet, &layout)
	if err != nil {

		var ve *db.ValidateError
		if errors.As(err, &ve) {
			jsonErrorResponse(w, r, http.StatusBadRequest, "Invalid request data", ve.Violations)
			return
		}
		internalErrorResponse(w, r, err)
		return
	}
	jsonResponse(w, r, pvt)
}

// metricListHandler return metric catalog: base and derived metrics
// with labels in the language of ?lang parameter or Accept-Language header.
//
//	GET /api/pivot/metrics
//	GET /api/pivot/metrics?lang=pt
func metricListHandler(w http.ResponseWriter, r *http.Request) {

	lang := baseLangOf(getRequestParam(r, "lang"))
	if lang == "" {
		lang = matchRequestToUiLang(r)
	}
	jsonResponse(w, r, db.MetricPubList(lang))
}

// columnListHandler return the fixed whitelist of fact dimension columns
// allowed in pivot request rows, columns and sortBy.
//
//	GET /api/pivot/columns
func columnListHandler(w http.ResponseWriter, r *http.Request) {

	jsonResponse(w, r,
		struct {
			Columns []string `json:"columns"`
		}{
			Columns: db.ColumnNames(),
		})
}

// dreAnalyticsHandler read fact rows by filter and return in-memory DRE analytics:
// P&L summary, margins, period comparison and per-dimension revenue breakdowns.
//
//	POST /api/dre/analytics
//
// Request body is optional filters json: {"filters": {"scenario": ..., "version": [...], ...}},
// empty body means the whole fact set.
func dreAnalyticsHandler(w http.ResponseWriter, r *http.Request) {

	var req struct {
		Filter db.PivotFilter `json:"filters"`
	}
	if !jsonRequestDecode(w, r, false, &req) {
		return // error at json decode, response done with http error
	}

	rows, err := db.ReadFactRows(theDb, &req.Filter)
	if err != nil {
		internalErrorResponse(w, r, err)
		return
	}
	a := db.CalcDreAnalytics(rows)

	// decorate breakdowns with display names, missing lookup is not an error
	if nm, e := db.ReadProductNames(theDb); e == nil {
		db.LabelDreGroups(a.ByProduct, nm)
	} else {
		med1Log.Log("Warning: unable to read product names: ", e.Error())
	}
	if nm, e := db.ReadCostCenterNames(theDb); e == nil {
		db.LabelDreGroups(a.ByCostCenter, nm)
	} else {
		med1Log.Log("Warning: unable to read cost center names: ", e.Error())
	}
	jsonResponse(w, r, a)
}

// serviceStatusHandler return service and database status.
//
//	GET /api/service/status
func serviceStatusHandler(w http.ResponseWriter, r *http.Request) {

	nVer, err := db.Med1SchemaVersion(theDb)
	if err != nil {
		internalErrorResponse(w, r, err)
		return
	}
	jsonResponse(w, r,
		struct {
			Status        string `json:"status"`
			SchemaVersion int    `json:"schemaVersion"`
			DbFacet       string `json:"dbFacet"`
		}{
			Status:        "ok",
			SchemaVersion: nVer,
			DbFacet:       theFacet.String(),
		})
}
