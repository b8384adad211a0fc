// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

import (
	"math"
	"sort"
)

// DRE analytics: in-memory reduction over already-fetched fact rows.
// It uses the same P&L line and metric definitions as the sql pivot path,
// for the same filtered row set both paths must produce the same figures.
// Ratios with a zero denominator are null, never NaN or Infinity on the wire.

// DreSummary is total of revenue, cost and expense P&L lines over a fact row set
type DreSummary struct {
	TotalRevenue  float64 `json:"totalRevenue"`  // sum of Net Revenue line
	TotalCosts    float64 `json:"totalCosts"`    // sum of Cost of Goods Sold line
	TotalExpenses float64 `json:"totalExpenses"` // sum of expense lines
}

// DreMetrics is profit and margin ratios derived from a summary
type DreMetrics struct {
	GrossProfit     float64  `json:"grossProfit"`     // revenue - costs
	OperatingProfit float64  `json:"operatingProfit"` // gross profit - expenses
	GrossMargin     *float64 `json:"grossMargin"`     // percent of revenue, null if revenue is zero
	OperatingMargin *float64 `json:"operatingMargin"` // percent of revenue, null if revenue is zero
}

// DrePeriodMetrics is revenue comparison of the two most recent periods
type DrePeriodMetrics struct {
	CurrentPeriod   string   `json:"currentPeriod"`   // most recent period, ie: 2024-03
	PreviousPeriod  string   `json:"previousPeriod"`  // next one, empty if only one period
	CurrentRevenue  float64  `json:"currentRevenue"`  //
	PreviousRevenue float64  `json:"previousRevenue"` //
	RevenueGrowth   *float64 `json:"revenueGrowth"`   // percent, null if no previous period or previous revenue is zero
}

// DreGroup is net revenue of one dimension value, with sku count and average ticket
// for dimensions where a distinct product set is meaningful (customer, channel)
type DreGroup struct {
	Key           string   `json:"key"`                     // dimension value, ie: cost center code
	Label         string   `json:"label,omitempty"`         // display name from lookup table, if any
	NetRevenue    float64  `json:"netRevenue"`              //
	SkuCount      int      `json:"skuCount,omitempty"`      // distinct product skus, customer and channel only
	AverageTicket *float64 `json:"averageTicket,omitempty"` // netRevenue / skuCount, null if sku count is zero
}

// DreAnalytics is the complete in-memory analytics document
type DreAnalytics struct {
	Summary       DreSummary       `json:"summary"`
	Metrics       DreMetrics       `json:"metrics"`
	PeriodMetrics DrePeriodMetrics `json:"periodMetrics"`
	ByCostCenter  []DreGroup       `json:"byCostCenter"`
	ByProduct     []DreGroup       `json:"byProduct"`
	ByCustomer    []DreGroup       `json:"byCustomer"`
	ByChannel     []DreGroup       `json:"byChannel"`
	ByRegion      []DreGroup       `json:"byRegion"`
	ByBu          []DreGroup       `json:"byBu"`
}

// CalcDreAnalytics reduce fact rows into the complete analytics document
func CalcDreAnalytics(rows []FactRow) *DreAnalytics {

	s := CalcDreSummary(rows)

	return &DreAnalytics{
		Summary:       s,
		Metrics:       CalcDreMetrics(s),
		PeriodMetrics: CalcDrePeriodMetrics(rows),
		ByCostCenter:  GroupFactRows(rows, "costCenterCode"),
		ByProduct:     GroupFactRows(rows, "productSku"),
		ByCustomer:    GroupFactRows(rows, "customer"),
		ByChannel:     GroupFactRows(rows, "channel"),
		ByRegion:      GroupFactRows(rows, "region"),
		ByBu:          GroupFactRows(rows, "bu"),
	}
}

// CalcDreSummary sum revenue, cost and expense P&L lines over fact rows
func CalcDreSummary(rows []FactRow) DreSummary {

	var s DreSummary
	for k := range rows {
		switch rows[k].PnlLine {
		case "Net Revenue":
			s.TotalRevenue += rows[k].Value
		case "Cost of Goods Sold":
			s.TotalCosts += rows[k].Value
		default:
			for _, e := range expensePnlLines {
				if rows[k].PnlLine == e {
					s.TotalExpenses += rows[k].Value
					break
				}
			}
		}
	}
	return s
}

// CalcDreMetrics derive profit and margin ratios from summary.
// Margins over zero revenue are null.
func CalcDreMetrics(s DreSummary) DreMetrics {

	m := DreMetrics{
		GrossProfit: s.TotalRevenue - s.TotalCosts,
	}
	m.OperatingProfit = m.GrossProfit - s.TotalExpenses
	m.GrossMargin = ratioPctOf(m.GrossProfit, s.TotalRevenue)
	m.OperatingMargin = ratioPctOf(m.OperatingProfit, s.TotalRevenue)
	return m
}

// CalcDrePeriodMetrics compare Net Revenue of the two most recent periods.
// Growth is null if there is only one period or previous revenue is zero.
func CalcDrePeriodMetrics(rows []FactRow) DrePeriodMetrics {

	// sum Net Revenue by period
	revByPeriod := map[string]float64{}
	for k := range rows {
		if rows[k].PnlLine == "Net Revenue" {
			revByPeriod[rows[k].Period] += rows[k].Value
		}
	}

	// distinct periods, descending: periods are yyyy-mm strings, text order is time order
	ps := make([]string, 0, len(revByPeriod))
	for p := range revByPeriod {
		ps = append(ps, p)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ps)))

	var pm DrePeriodMetrics
	if len(ps) <= 0 {
		return pm
	}
	pm.CurrentPeriod = ps[0]
	pm.CurrentRevenue = revByPeriod[ps[0]]

	if len(ps) < 2 {
		return pm // single period: no growth to compute
	}
	pm.PreviousPeriod = ps[1]
	pm.PreviousRevenue = revByPeriod[ps[1]]
	pm.RevenueGrowth = ratioPctOf(pm.CurrentRevenue-pm.PreviousRevenue, pm.PreviousRevenue)
	return pm
}

// GroupFactRows reduce fact rows by dimension value in a single pass:
// net revenue per value and, for customer and channel, distinct product sku count
// and average ticket. Groups are ordered by net revenue, largest first.
func GroupFactRows(rows []FactRow, dimension string) []DreGroup {

	isSku := dimension == "customer" || dimension == "channel"

	type acc struct {
		netRevenue float64
		skus       map[string]bool
	}
	byKey := map[string]*acc{}
	order := []string{}

	for k := range rows {
		if rows[k].PnlLine != "Net Revenue" {
			continue // dimension breakdowns are revenue views
		}
		key := factDimension(&rows[k], dimension)
		if key == "" {
			continue
		}
		a, ok := byKey[key]
		if !ok {
			a = &acc{}
			if isSku {
				a.skus = map[string]bool{}
			}
			byKey[key] = a
			order = append(order, key)
		}
		a.netRevenue += rows[k].Value
		if isSku && rows[k].ProductSku != "" {
			a.skus[rows[k].ProductSku] = true
		}
	}

	gs := make([]DreGroup, 0, len(order))
	for _, key := range order {
		a := byKey[key]
		g := DreGroup{Key: key, NetRevenue: a.netRevenue}
		if isSku {
			g.SkuCount = len(a.skus)
			g.AverageTicket = ratioOf(a.netRevenue, float64(g.SkuCount))
		}
		gs = append(gs, g)
	}

	sort.SliceStable(gs, func(i, j int) bool { return gs[i].NetRevenue > gs[j].NetRevenue })
	return gs
}

// LabelDreGroups set group display labels from lookup names, ie: product_sku => product_name.
// Keys without a lookup entry keep an empty label.
func LabelDreGroups(gs []DreGroup, names map[string]string) {
	for k := range gs {
		gs[k].Label = names[gs[k].Key]
	}
}

// factDimension return fact row dimension value by request (api) name
func factDimension(r *FactRow, dimension string) string {

	switch dimension {
	case "pnlLine":
		return r.PnlLine
	case "customer":
		return r.Customer
	case "channel":
		return r.Channel
	case "productSku":
		return r.ProductSku
	case "version":
		return r.Version
	case "period":
		return r.Period
	case "bu":
		return r.Bu
	case "region":
		return r.Region
	case "costCenterCode":
		return r.CostCenterCode
	case "glAccount":
		return r.GlAccount
	}
	return ""
}

// ratioOf return num / den or nil if den is zero
func ratioOf(num, den float64) *float64 {
	if math.Abs(den) <= divByZeroFloat {
		return nil
	}
	v := num / den
	return &v
}

// ratioPctOf return num / den * 100 or nil if den is zero
func ratioPctOf(num, den float64) *float64 {
	if math.Abs(den) <= divByZeroFloat {
		return nil
	}
	v := num / den * 100
	return &v
}
