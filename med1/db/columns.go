// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

import (
	"strings"
)

// fact table name, the only table this engine selects from
const factTable = "fact_entry"

// ColumnName is a verified fact table column.
// It can only be produced by CheckColumn and it is the only way a dimension name
// reaches composed query text: raw strings are never interpolated.
type ColumnName struct {
	name string // request (api) name, ie: productSku
	col  string // db column name, ie: product_sku
}

// Name return request (api) name of verified column, ie: productSku
func (cn ColumnName) Name() string { return cn.name }

// dimension and value columns of fact_entry allowed in dynamic query composition:
// request name => db column name
var factColumns = []ColumnName{
	{name: "pnlLine", col: "pnl_line"},
	{name: "customer", col: "customer"},
	{name: "channel", col: "channel"},
	{name: "productSku", col: "product_sku"},
	{name: "version", col: "version"},
	{name: "period", col: "period"},
	{name: "bu", col: "bu"},
	{name: "region", col: "region"},
	{name: "costCenterCode", col: "cost_center_code"},
	{name: "glAccount", col: "gl_account"},
	{name: "value", col: "value"},
}

// InvalidColumnError returned if column name is not in the fixed allowed set of fact table columns
type InvalidColumnError struct {
	Name string // rejected column name
}

func (e *InvalidColumnError) Error() string {
	return "invalid column name: " + e.Name
}

// CheckColumn return verified fact table column by request name
// or InvalidColumnError if the name is not in the fixed allowed set.
// Any character outside of [A-Za-z0-9_] is stripped from source before lookup,
// a whitelisted-but-tampered string never reaches query text unchanged.
func CheckColumn(src string) (ColumnName, error) {

	s := stripUnsafeChars(src)

	for _, cn := range factColumns {
		if s == cn.name {
			return cn, nil
		}
	}
	return ColumnName{}, &InvalidColumnError{Name: src}
}

// IsColumnName return true if src is a member of the fact table column whitelist
func IsColumnName(src string) bool {
	_, err := CheckColumn(src)
	return err == nil
}

// ColumnNames return request names of all whitelisted fact table columns
func ColumnNames() []string {
	ns := make([]string, len(factColumns))
	for k, cn := range factColumns {
		ns[k] = cn.name
	}
	return ns
}

// stripUnsafeChars remove all characters outside of [A-Za-z0-9_]
func stripUnsafeChars(src string) string {

	var sb strings.Builder
	for _, c := range src {
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// makeColumnAlias convert pivoted column value into safe output column alias:
// replace all characters outside of [A-Za-z0-9_] with _ underscore, ie: Sao Paulo => Sao_Paulo
func makeColumnAlias(src string) string {

	var sb strings.Builder
	for _, c := range src {
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' {
			sb.WriteRune(c)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
