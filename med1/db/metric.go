// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

import (
	"strconv"
)

// Metric kind: base metric is a direct conditional sum over fact value,
// derived metric is a formula over the fixed token vocabulary.
const (
	BaseMetric    = "base"
	DerivedMetric = "derived"
)

// Metric is one named computation of the static metric catalog
type Metric struct {
	Key     string            // catalog key, ie: Net Revenue_sum
	Kind    string            // base or derived
	Format  string            // display format hint, ie: #,##0.00 or 0.0%
	Formula string            // derived only: source formula over token vocabulary
	labels  map[string]string // label by language: en, pt
	descr   string            // description, derived metrics only
	pnlLine string            // base only: P&L line of conditional sum, empty for plain SUM(value)
	isValue bool              // base only: true for plain SUM(value)
	expr    exprNode          // derived only: parsed formula
}

// Label return metric label for language code: en or pt, default is en
func (m *Metric) Label(lang string) string {
	if s, ok := m.labels[lang]; ok {
		return s
	}
	return m.labels["en"]
}

// Descr return metric description, it is empty for base metrics
func (m *Metric) Descr() string { return m.descr }

// UnknownMetricError returned if metric key is in neither base nor derived catalog
type UnknownMetricError struct {
	Key string // unresolved metric key
}

func (e *UnknownMetricError) Error() string {
	return "unknown metric: " + e.Key
}

// the static metric catalog: base conditional sums per P&L line plus plain value sum,
// derived formulas over the token vocabulary.
// It is immutable configuration, parsed once at package load.
var theMetrics = makeMetricCatalog()

func makeMetricCatalog() []Metric {

	ms := []Metric{
		{
			Key: "value_sum", Kind: BaseMetric, Format: "#,##0.00", isValue: true,
			labels: map[string]string{"en": "Total Value", "pt": "Valor Total"},
		},
		{
			Key: "Net Revenue_sum", Kind: BaseMetric, Format: "#,##0.00", pnlLine: "Net Revenue",
			labels: map[string]string{"en": "Net Revenue", "pt": "Receita Líquida"},
		},
		{
			Key: "Cost of Goods Sold_sum", Kind: BaseMetric, Format: "#,##0.00", pnlLine: "Cost of Goods Sold",
			labels: map[string]string{"en": "Cost of Goods Sold", "pt": "Custo das Mercadorias Vendidas"},
		},
		{
			Key: "Marketing Expenses_sum", Kind: BaseMetric, Format: "#,##0.00", pnlLine: "Marketing Expenses",
			labels: map[string]string{"en": "Marketing Expenses", "pt": "Despesas de Marketing"},
		},
		{
			Key: "SG&A Expenses_sum", Kind: BaseMetric, Format: "#,##0.00", pnlLine: "SG&A Expenses",
			labels: map[string]string{"en": "SG&A Expenses", "pt": "Despesas Administrativas"},
		},
		{
			Key: "variance", Kind: DerivedMetric, Format: "#,##0.00",
			Formula: "actual - forecast",
			labels:  map[string]string{"en": "Variance", "pt": "Variação"},
			descr:   "Actual less forecast over the filtered set",
		},
		{
			Key: "variance_pct", Kind: DerivedMetric, Format: "0.0%",
			Formula: "(actual - forecast) / forecast * 100",
			labels:  map[string]string{"en": "Variance %", "pt": "Variação %"},
			descr:   "Actual less forecast as a share of forecast",
		},
		{
			Key: "gross_margin", Kind: DerivedMetric, Format: "0.00",
			Formula: "(revenue - cogs) / revenue",
			labels:  map[string]string{"en": "Gross Margin", "pt": "Margem Bruta"},
			descr:   "Gross profit as a fraction of net revenue",
		},
		{
			Key: "gross_margin_pct", Kind: DerivedMetric, Format: "0.0%",
			Formula: "(revenue - cogs) / revenue * 100",
			labels:  map[string]string{"en": "Gross Margin %", "pt": "Margem Bruta %"},
			descr:   "Gross profit as a percentage of net revenue",
		},
		{
			Key: "ebitda_value", Kind: DerivedMetric, Format: "#,##0.00",
			Formula: "ebitda",
			labels:  map[string]string{"en": "EBITDA", "pt": "EBITDA"},
			descr:   "Net revenue less cost and operating expense lines",
		},
		{
			Key: "ebitda_margin_pct", Kind: DerivedMetric, Format: "0.0%",
			Formula: "ebitda / revenue * 100",
			labels:  map[string]string{"en": "EBITDA Margin %", "pt": "Margem EBITDA %"},
			descr:   "EBITDA as a percentage of net revenue",
		},
		{
			Key: "yoy_growth_pct", Kind: DerivedMetric, Format: "0.0%",
			Formula: "(current_year - previous_year) / previous_year * 100",
			labels:  map[string]string{"en": "YoY Growth %", "pt": "Crescimento Anual %"},
			descr:   "Current year total against previous year total",
		},
	}

	// parse derived formulas, invalid catalog formula is a programmer error
	for k := range ms {
		if ms[k].Kind != DerivedMetric {
			continue
		}
		n, err := parseMetricFormula(ms[k].Formula)
		if err != nil {
			panic("invalid metric catalog formula at " + ms[k].Key + ": " + err.Error())
		}
		ms[k].expr = n
	}
	return ms
}

// MetricByKey return metric catalog entry by key
// or UnknownMetricError if key is in neither base nor derived catalog.
func MetricByKey(key string) (*Metric, error) {

	for k := range theMetrics {
		if theMetrics[k].Key == key {
			return &theMetrics[k], nil
		}
	}
	return nil, &UnknownMetricError{Key: key}
}

// IsMetricKey return true if key resolves in the metric catalog
func IsMetricKey(key string) bool {
	_, err := MetricByKey(key)
	return err == nil
}

// MetricKeys return keys of all catalog metrics, base first then derived
func MetricKeys() []string {
	ks := make([]string, len(theMetrics))
	for k := range theMetrics {
		ks[k] = theMetrics[k].Key
	}
	return ks
}

// Metrics return all catalog entries
func Metrics() []Metric {
	ms := make([]Metric, len(theMetrics))
	copy(ms, theMetrics)
	return ms
}

// MetricPub is "public" view of one metric catalog entry, ie: for json responses
type MetricPub struct {
	Key     string `json:"key"`               // catalog key, ie: Net Revenue_sum
	Kind    string `json:"kind"`              // base or derived
	Label   string `json:"label"`             // label in requested language
	Descr   string `json:"descr,omitempty"`   // description, derived metrics only
	Format  string `json:"format,omitempty"`  // display format hint
	Formula string `json:"formula,omitempty"` // source formula, derived metrics only
}

// MetricPubList return public view of the whole metric catalog
// with labels in lang language, base metrics first then derived.
func MetricPubList(lang string) []MetricPub {

	ps := make([]MetricPub, len(theMetrics))
	for k := range theMetrics {
		ps[k] = MetricPub{
			Key:     theMetrics[k].Key,
			Kind:    theMetrics[k].Kind,
			Label:   theMetrics[k].Label(lang),
			Descr:   theMetrics[k].descr,
			Format:  theMetrics[k].Format,
			Formula: theMetrics[k].Formula,
		}
	}
	return ps
}

// sqlExpr return sql aggregation expression of the metric, without output alias.
// Base metric is a conditional sum by P&L line or plain SUM(value).
// Derived metric is compiled from the parsed formula, year tokens bound to refYear.
func (m *Metric) sqlExpr(refYear int) string {

	if m.Kind == BaseMetric {
		if m.isValue {
			return "SUM(value)"
		}
		return "SUM(CASE WHEN pnl_line = " + ToQuoted(m.pnlLine) + " THEN value ELSE 0 END)"
	}
	return sqlOfExpr(m.expr, refYear)
}

// ResolveMetricSql return sql aggregation expression of metric key with output alias:
//
//	(SUM(...) ...) AS "key"
//
// or UnknownMetricError if key does not resolve in the catalog.
func ResolveMetricSql(key string, refYear int) (string, error) {

	m, err := MetricByKey(key)
	if err != nil {
		return "", err
	}
	return "(" + m.sqlExpr(refYear) + ") AS \"" + m.Key + "\"", nil
}

// EvalMetric compute metric value in memory over fact rows, refYear binds year tokens.
// Return is (value, true) or (0, false) if the metric is undefined for these rows:
// division by zero anywhere in a derived formula, same rule as NULL in the sql path.
func EvalMetric(rows []FactRow, key string, refYear int) (float64, bool, error) {

	m, err := MetricByKey(key)
	if err != nil {
		return 0, false, err
	}

	if m.Kind == BaseMetric {
		var v float64
		for k := range rows {
			if m.isValue || rows[k].PnlLine == m.pnlLine {
				v += rows[k].Value
			}
		}
		return v, true, nil
	}

	v, ok := evalExpr(m.expr, tokenValues(rows, refYear))
	return v, ok, nil
}

// tokenValues compute conditional sums of all vocabulary tokens over fact rows
func tokenValues(rows []FactRow, refYear int) map[string]float64 {

	curYear := strconv.Itoa(refYear)
	prevYear := strconv.Itoa(refYear - 1)

	tv := map[string]float64{}
	for k := range rows {
		r := &rows[k]

		if r.Version == "Actual" {
			tv[actualToken] += r.Value
		}
		if r.Version == "Forecast" {
			tv[forecastToken] += r.Value
		}
		switch r.PnlLine {
		case "Net Revenue":
			tv[revenueToken] += r.Value
			tv[ebitdaToken] += r.Value
		case "Cost of Goods Sold":
			tv[cogsToken] += r.Value
			tv[ebitdaToken] -= r.Value
		default:
			for _, e := range expensePnlLines {
				if r.PnlLine == e {
					tv[ebitdaToken] -= r.Value
					break
				}
			}
		}
		if len(r.Period) >= 4 {
			switch r.Period[:4] {
			case curYear:
				tv[currentYearToken] += r.Value
			case prevYear:
				tv[previousYearToken] += r.Value
			}
		}
	}
	return tv
}
