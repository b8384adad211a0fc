// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package main

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/med1app/go/med1/config"
	"github.com/med1app/go/med1/db"
	"github.com/med1app/go/med1/med1Log"
)

// pivotValue run pivot query composed from run options and write result
// into csv, tsv or json output.
func pivotValue(srcDb *sql.DB, facet db.Facet, runOpts *config.RunOptions) error {

	layout := db.PivotLayout{
		Filter: db.PivotFilter{
			Scenario: runOpts.String(scenarioArgKey),
			Version:  splitCsvArg(runOpts.String(versionArgKey)),
			Period:   splitCsvArg(runOpts.String(periodArgKey)),
			Bu:       splitCsvArg(runOpts.String(buArgKey)),
		},
		Rows:     splitCsvArg(runOpts.String(rowsArgKey)),
		Columns:  splitCsvArg(runOpts.String(columnsArgKey)),
		Metrics:  splitCsvArg(runOpts.String(metricsArgKey)),
		Page:     runOpts.Int(pageArgKey, db.DefaultPage),
		PageSize: runOpts.Int(pageSizeArgKey, db.DefaultPageSize),
	}
	if f := runOpts.String(sortByArgKey); f != "" {
		d := "asc"
		if runOpts.Bool(sortDescArgKey) {
			d = "desc"
		}
		layout.SortBy = &db.PivotSort{Field: f, Direction: d}
	}

	pvt, err := db.ReadPivotPage(srcDb, facet, &layout)
	if err != nil {
		return err
	}
	med1Log.Log("Pivot: ", len(pvt.Data), " rows of ", pvt.Metadata.Total, " groups")

	if theCfg.kind == asJson {
		return toJsonOutput(theCfg.isConsole, outputPath(theCfg.action), pvt)
	}

	// csv (or tsv) columns: group dimensions in request order then value columns
	hdr := append([]string{}, layout.Rows...)
	hdr = append(hdr, valueColumnsOf(&layout, pvt)...)

	nRow := 0
	cvtRow := func() (bool, []string, error) {

		if nRow >= len(pvt.Data) {
			return true, nil, nil // eof
		}
		r := pvt.Data[nRow]
		nRow++

		line := make([]string, len(hdr))
		for k, name := range hdr {
			switch v := r[name].(type) {
			case nil:
				line[k] = "" // undefined metric value
			case string:
				line[k] = v
			case float64:
				line[k] = fmt.Sprintf(theCfg.doubleFmt, v)
			default:
				line[k] = fmt.Sprint(v)
			}
		}
		return false, line, nil
	}

	return toCsvOutput(theCfg.isConsole, outputPath(theCfg.action), hdr, cvtRow)
}

// valueColumnsOf return value column names of pivot result:
// requested metric keys or, if a dimension is pivoted, sorted pivoted value aliases
func valueColumnsOf(layout *db.PivotLayout, pvt *db.PivotPage) []string {

	if len(layout.Columns) <= 0 {
		return layout.Metrics
	}
	if len(pvt.Data) <= 0 {
		return []string{}
	}

	isRow := map[string]bool{}
	for _, name := range layout.Rows {
		isRow[name] = true
	}

	vc := []string{}
	for name := range pvt.Data[0] {
		if !isRow[name] && name != "detail" {
			vc = append(vc, name)
		}
	}
	sort.Strings(vc)
	return vc
}

// metricList write metric catalog into csv, tsv or json output
func metricList() error {

	lang := "en"
	if theCfg.userLang != "" {
		if t := language.Make(theCfg.userLang); t != language.Und {
			b, _ := t.Base()
			lang = b.String()
		}
	}

	ms := db.MetricPubList(lang)

	if theCfg.kind == asJson {
		return toJsonOutput(theCfg.isConsole, outputPath(theCfg.action), ms)
	}

	n := 0
	cvtRow := func() (bool, []string, error) {
		if n >= len(ms) {
			return true, nil, nil // eof
		}
		m := &ms[n]
		n++
		return false, []string{m.Key, m.Kind, m.Label, m.Descr, m.Format, m.Formula}, nil
	}

	return toCsvOutput(
		theCfg.isConsole, outputPath(theCfg.action),
		[]string{"key", "kind", "label", "descr", "format", "formula"}, cvtRow)
}

// columnList write dimension column whitelist into csv, tsv or json output
func columnList() error {

	ns := db.ColumnNames()

	if theCfg.kind == asJson {
		return toJsonOutput(theCfg.isConsole, outputPath(theCfg.action),
			struct {
				Columns []string `json:"columns"`
			}{Columns: ns})
	}

	n := 0
	cvtRow := func() (bool, []string, error) {
		if n >= len(ns) {
			return true, nil, nil // eof
		}
		name := ns[n]
		n++
		return false, []string{name}, nil
	}
	return toCsvOutput(theCfg.isConsole, outputPath(theCfg.action), []string{"column"}, cvtRow)
}

// splitCsvArg split comma-separated argument value into non-empty trimmed parts
func splitCsvArg(src string) []string {

	if src == "" {
		return []string{}
	}
	ps := []string{}
	for _, s := range strings.Split(src, ",") {
		if s = strings.TrimSpace(s); s != "" {
			ps = append(ps, s)
		}
	}
	return ps
}
