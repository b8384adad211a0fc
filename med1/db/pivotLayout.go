// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

// default page size of pivot query result
const DefaultPageSize = 100

// default first page, one-based
const DefaultPage = 1

// PivotFilter is the shared filter of one pivot request.
// Empty lists impose no constraint. It is composed into a single WHERE fragment
// which count, main and totals queries all observe unchanged.
type PivotFilter struct {
	Scenario string   `json:"scenario,omitempty"` // exact match, empty: no constraint
	Version  []string `json:"version,omitempty"`  // membership, ie: ["Actual"]
	Period   []string `json:"period,omitempty"`   // membership, ie: ["2024-01", "2024-02"]
	Bu       []string `json:"bu,omitempty"`       // membership by business unit code
}

// PivotSort is optional explicit row order of pivot result
type PivotSort struct {
	Field     string `json:"field"`     // dimension column, must be whitelisted
	Direction string `json:"direction"` // asc or desc
}

// PivotLayout describes one pivot query: filters, grouping dimensions, metrics and page.
// It is the json body of POST /api/pivot/query.
type PivotLayout struct {
	Filter   PivotFilter `json:"filters"`          // shared filter of all queries in this request
	Rows     []string    `json:"rows"`             // group by dimensions, must be whitelisted
	Columns  []string    `json:"columns"`          // pivoted dimensions, only the first one is pivoted
	Metrics  []string    `json:"metrics"`          // metric catalog keys
	SortBy   *PivotSort  `json:"sortBy,omitempty"` // optional explicit order
	Page     int         `json:"page"`             // one-based page number, default 1
	PageSize int         `json:"pageSize"`         // page size, default 100
}

// PivotMeta is pagination metadata of pivot result
type PivotMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"` // distinct group count over the whole filtered set
}

// FactDetail is one contributing fact row of an aggregated group, for client drill-down
type FactDetail struct {
	Period   string  `json:"period"`
	Version  string  `json:"version"`
	Value    float64 `json:"value"`
	Scenario string  `json:"scenario"`
	Bu       string  `json:"bu"`
}

// PivotPage is result of one pivot query: page of grouped rows, grand totals and metadata.
// Each data row carries grouped dimension values, one value per requested metric
// (or per pivoted column value), and the contributing detail rows.
// Undefined metric values (zero denominator in a derived formula) are json null.
type PivotPage struct {
	Data     []map[string]interface{} `json:"data"`
	Totals   map[string]float64       `json:"totals"`
	Metadata PivotMeta                `json:"metadata"`
}
