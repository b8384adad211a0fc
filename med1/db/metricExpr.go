// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Derived metric formulas are written over a fixed token vocabulary, ie:
//
//	(revenue - cogs) / revenue * 100
//
// Each formula is parsed once, when the metric catalog is defined, into a small
// expression tree. At query time the tree is compiled to a sql aggregation expression,
// for the in-memory DRE path the same tree is evaluated over token sums.
// There is no textual substitution at query time: a token either exists in the tree
// or it does not, partial-word matches cannot happen.

// recognized formula tokens
const (
	actualToken       = "actual"        // sum of version = 'Actual' values
	forecastToken     = "forecast"      // sum of version = 'Forecast' values
	revenueToken      = "revenue"       // sum of 'Net Revenue' P&L line values
	cogsToken         = "cogs"          // sum of 'Cost of Goods Sold' P&L line values
	ebitdaToken       = "ebitda"        // revenue less cost and expense P&L lines
	currentYearToken  = "current_year"  // sum of values posted in the current year
	previousYearToken = "previous_year" // sum of values posted in the previous year
)

// expense P&L lines for ebitda: revenue minus these and cogs
var expensePnlLines = []string{"Marketing Expenses", "SG&A Expenses"}

// zero guard for division: divisor with absolute value below this is treated as zero
// and the division result is NULL, a margin over zero revenue has no meaning
const divByZeroLimit = "1.0e-37"

const divByZeroFloat = 1.0e-37

// exprNode is a node of parsed derived metric formula
type exprNode interface{}

type numNode float64 // numeric literal

type tokNode string // vocabulary token, ie: revenue

type binNode struct { // binary operation
	op    byte // one of: + - * /
	left  exprNode
	right exprNode
}

// parseMetricFormula parse derived metric formula into expression tree.
// Grammar: expr = term {(+|-) term}; term = unary {(*|/) unary}; unary = [-] num | token | (expr)
func parseMetricFormula(src string) (exprNode, error) {

	p := &formulaParser{src: src}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, errors.New("invalid expression, unexpected: " + p.src[p.pos:] + " in: " + src)
	}
	return n, nil
}

type formulaParser struct {
	src string
	pos int
}

func (p *formulaParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

// peek return next non-space byte or 0 at the end of source
func (p *formulaParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *formulaParser) parseExpr() (exprNode, error) {

	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		c := p.peek()
		if c != '+' && c != '-' {
			return left, nil
		}
		p.pos++

		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &binNode{op: c, left: left, right: right}
	}
}

func (p *formulaParser) parseTerm() (exprNode, error) {

	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		c := p.peek()
		if c != '*' && c != '/' {
			return left, nil
		}
		p.pos++

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binNode{op: c, left: left, right: right}
	}
}

func (p *formulaParser) parseUnary() (exprNode, error) {

	switch c := p.peek(); {

	case c == '-': // unary minus: 0 - operand
		p.pos++
		n, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &binNode{op: '-', left: numNode(0), right: n}, nil

	case c == '(':
		p.pos++
		n, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, errors.New("invalid expression, missing ) in: " + p.src)
		}
		p.pos++
		return n, nil

	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()

	case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
		return p.parseToken()
	}
	return nil, errors.New("invalid expression at position " + strconv.Itoa(p.pos) + " in: " + p.src)
}

func (p *formulaParser) parseNumber() (exprNode, error) {

	nStart := p.pos
	for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9' || p.src[p.pos] == '.') {
		p.pos++
	}
	v, err := strconv.ParseFloat(p.src[nStart:p.pos], 64)
	if err != nil {
		return nil, errors.New("invalid number in expression: " + p.src[nStart:p.pos])
	}
	return numNode(v), nil
}

func (p *formulaParser) parseToken() (exprNode, error) {

	nStart := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			break
		}
		p.pos++
	}
	name := p.src[nStart:p.pos]

	switch name {
	case actualToken, forecastToken, revenueToken, cogsToken, ebitdaToken, currentYearToken, previousYearToken:
		return tokNode(name), nil
	}
	return nil, errors.New("invalid expression, unknown token: " + name + " in: " + p.src)
}

// tokenSqlExpr return conditional-sum sql fragment for vocabulary token.
// Year tokens are bound to refYear, ie: the year of the request wall clock.
func tokenSqlExpr(tok string, refYear int) string {

	switch tok {
	case actualToken:
		return "SUM(CASE WHEN version = 'Actual' THEN value ELSE 0 END)"
	case forecastToken:
		return "SUM(CASE WHEN version = 'Forecast' THEN value ELSE 0 END)"
	case revenueToken:
		return "SUM(CASE WHEN pnl_line = 'Net Revenue' THEN value ELSE 0 END)"
	case cogsToken:
		return "SUM(CASE WHEN pnl_line = 'Cost of Goods Sold' THEN value ELSE 0 END)"
	case ebitdaToken:
		return "SUM(CASE WHEN pnl_line = 'Net Revenue' THEN value" +
			" WHEN pnl_line IN (" + quotedCsv(append([]string{"Cost of Goods Sold"}, expensePnlLines...)) + ") THEN -value" +
			" ELSE 0 END)"
	case currentYearToken:
		return "SUM(CASE WHEN SUBSTR(period, 1, 4) = '" + strconv.Itoa(refYear) + "' THEN value ELSE 0 END)"
	case previousYearToken:
		return "SUM(CASE WHEN SUBSTR(period, 1, 4) = '" + strconv.Itoa(refYear-1) + "' THEN value ELSE 0 END)"
	}
	return ""
}

// quotedCsv return comma separated list of sql quoted strings: 'a', 'b'
func quotedCsv(src []string) string {

	q := ""
	for k, s := range src {
		if k > 0 {
			q += ", "
		}
		q += ToQuoted(s)
	}
	return q
}

// sqlOfExpr compile expression tree to sql aggregation expression.
// Division is guarded: zero divisor makes the result NULL, never a db error.
func sqlOfExpr(n exprNode, refYear int) string {

	switch e := n.(type) {

	case numNode:
		return strconv.FormatFloat(float64(e), 'g', -1, 64)

	case tokNode:
		return tokenSqlExpr(string(e), refYear)

	case *binNode:
		l := sqlOfExpr(e.left, refYear)
		r := sqlOfExpr(e.right, refYear)
		if e.op == '/' {
			return "(" + l + " / CASE WHEN ABS(" + r + ") > " + divByZeroLimit + " THEN " + r + " ELSE NULL END)"
		}
		return "(" + l + " " + string(e.op) + " " + r + ")"
	}
	return ""
}

// evalExpr evaluate expression tree over token values.
// Return is (value, true) or (0, false) if result is undefined: division by zero
// anywhere in the tree makes the whole metric undefined, same as NULL in sql.
func evalExpr(n exprNode, tokVals map[string]float64) (float64, bool) {

	switch e := n.(type) {

	case numNode:
		return float64(e), true

	case tokNode:
		return tokVals[string(e)], true

	case *binNode:
		l, okL := evalExpr(e.left, tokVals)
		r, okR := evalExpr(e.right, tokVals)
		if !okL || !okR {
			return 0, false
		}
		switch e.op {
		case '+':
			return l + r, true
		case '-':
			return l - r, true
		case '*':
			return l * r, true
		case '/':
			if math.Abs(r) <= divByZeroFloat {
				return 0, false
			}
			return l / r, true
		}
	}
	return 0, false
}

// exprTokens return sorted list of distinct vocabulary tokens used in expression tree
func exprTokens(n exprNode) []string {

	seen := map[string]bool{}
	var walk func(exprNode)

	walk = func(n exprNode) {
		switch e := n.(type) {
		case tokNode:
			seen[string(e)] = true
		case *binNode:
			walk(e.left)
			walk(e.right)
		}
	}
	walk(n)

	ts := make([]string, 0, len(seen))
	for t := range seen {
		ts = append(ts, t)
	}
	// stable order for deterministic sql and tests
	for i := 1; i < len(ts); i++ {
		for j := i; j > 0 && strings.Compare(ts[j-1], ts[j]) > 0; j-- {
			ts[j-1], ts[j] = ts[j], ts[j-1]
		}
	}
	return ts
}
