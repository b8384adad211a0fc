// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

import (
	"strconv"
)

// Pivot query composition. All dynamic identifiers are ColumnName values produced by
// CheckColumn, all literal values go through ToQuoted: query text is never built from
// raw request strings. The same WHERE fragment is reused by count, main and totals
// queries so all of them observe the same logical row set.

// makePivotWhere compose shared WHERE fragment from pivot filter:
// scenario exact match, version, period, bu membership. Empty filter return is "" empty.
func makePivotWhere(f *PivotFilter) string {

	q := ""
	and := func(s string) {
		if q == "" {
			q = " WHERE " + s
		} else {
			q += " AND " + s
		}
	}

	if f == nil {
		return ""
	}
	if f.Scenario != "" {
		and("scenario = " + ToQuoted(f.Scenario))
	}
	if len(f.Version) > 0 {
		and("version IN (" + quotedCsv(f.Version) + ")")
	}
	if len(f.Period) > 0 {
		and("period IN (" + quotedCsv(f.Period) + ")")
	}
	if len(f.Bu) > 0 {
		and("bu IN (" + quotedCsv(f.Bu) + ")")
	}
	return q
}

// makeCountSql compose distinct group count query:
//
//	SELECT COUNT(*) FROM (SELECT DISTINCT bu, region FROM fact_entry WHERE ...) G
func makeCountSql(rows []ColumnName, where string) string {

	q := "SELECT COUNT(*) FROM (SELECT DISTINCT "
	for k, cn := range rows {
		if k > 0 {
			q += ", "
		}
		q += cn.col
	}
	return q + " FROM " + factTable + where + ") G"
}

// makeDistinctSql compose pivoted column distinct values query:
//
//	SELECT DISTINCT channel FROM fact_entry WHERE channel IS NOT NULL ORDER BY channel
func makeDistinctSql(col ColumnName) string {
	return "SELECT DISTINCT " + col.col +
		" FROM " + factTable +
		" WHERE " + col.col + " IS NOT NULL" +
		" ORDER BY " + col.col
}

// makeMainSql compose main aggregation query: group by all row dimensions,
// one output column per requested metric or, if pivot values supplied,
// one conditional sum per pivoted value. Detail rows aggregated into json array
// if database provider can do it.
func makeMainSql(
	rows []ColumnName, metrics []*Metric, pivotCol *ColumnName, pivotVals []string,
	where string, orderBy string, facet Facet, refYear int, offset, size int64,
) string {

	q := "SELECT "
	for k, cn := range rows {
		if k > 0 {
			q += ", "
		}
		q += cn.col + " AS \"" + cn.name + "\""
	}

	if pivotCol == nil {
		for _, m := range metrics {
			q += ", (" + m.sqlExpr(refYear) + ") AS \"" + m.Key + "\""
		}
	} else {
		for _, v := range pivotVals {
			q += ", SUM(CASE WHEN " + pivotCol.col + " = " + ToQuoted(v) + " THEN value ELSE NULL END)" +
				" AS \"" + makeColumnAlias(v) + "\""
		}
	}

	if da := facet.detailAggExpr(); da != "" {
		q += ", " + da + " AS \"detail\""
	}

	q += " FROM " + factTable + where + " GROUP BY "
	for k, cn := range rows {
		if k > 0 {
			q += ", "
		}
		q += cn.col
	}

	return q + orderBy + facet.pageClause(offset, size)
}

// makeTotalsSql compose grand totals query: each requested metric over the whole
// filtered set, no grouping, no pagination.
func makeTotalsSql(metrics []*Metric, where string, refYear int) string {

	q := "SELECT "
	for k, m := range metrics {
		if k > 0 {
			q += ", "
		}
		q += "(" + m.sqlExpr(refYear) + ") AS \"" + m.Key + "\""
	}
	return q + " FROM " + factTable + where
}

// makePivotOrderBy return ORDER BY clause: explicit sort by verified column
// or default group dimension order 1..rank
func makePivotOrderBy(rank int, sortBy *ColumnName, isDesc bool) string {

	if sortBy != nil {
		q := " ORDER BY " + sortBy.col
		if isDesc {
			q += " DESC"
		}
		return q
	}
	if rank <= 0 {
		return ""
	}
	q := " ORDER BY "
	for k := 1; k <= rank; k++ {
		if k > 1 {
			q += ", "
		}
		q += strconv.Itoa(k)
	}
	return q
}
