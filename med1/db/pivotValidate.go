// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// ValidateError is the complete list of pivot request violations.
// All violations are collected before return, the caller reports them in one round trip.
type ValidateError struct {
	Violations []string
}

func (e *ValidateError) Error() string {
	return "invalid pivot request: " + strings.Join(e.Violations, "; ")
}

// max levenshtein distance to suggest a close catalog key for a misspelled name
const suggestMaxDistance = 3

// ValidatePivotLayout check pivot request against the column whitelist and metric catalog
// and set page defaults. It runs to completion and return ALL violations as one
// ValidateError, no database call is made for an invalid request.
func ValidatePivotLayout(layout *PivotLayout) error {

	if layout == nil {
		return &ValidateError{Violations: []string{"Invalid (empty) pivot request"}}
	}

	// page defaults: page 1, page size 100, no upper limit: the UI asks for what it renders
	if layout.Page <= 0 {
		layout.Page = DefaultPage
	}
	if layout.PageSize <= 0 {
		layout.PageSize = DefaultPageSize
	}

	violations := []string{}
	suggest := []string{}

	// rows are the group by dimensions, at least one is required
	if len(layout.Rows) <= 0 {
		violations = append(violations, "Invalid (empty) rows: at least one group by dimension required")
	}
	if bad := invalidColumnsOf(layout.Rows, &suggest); len(bad) > 0 {
		violations = append(violations, "Invalid rows: "+strings.Join(bad, ", "))
	}
	if bad := invalidColumnsOf(layout.Columns, &suggest); len(bad) > 0 {
		violations = append(violations, "Invalid columns: "+strings.Join(bad, ", "))
	}

	// metrics must resolve in base or derived catalog
	if len(layout.Metrics) <= 0 {
		violations = append(violations, "Invalid (empty) metrics: at least one metric required")
	}
	bad := []string{}
	for _, key := range layout.Metrics {
		if !IsMetricKey(key) {
			bad = append(bad, key)
			if s := closestOf(key, MetricKeys()); s != "" {
				suggest = append(suggest, "closest match for "+key+": "+s)
			}
		}
	}
	if len(bad) > 0 {
		violations = append(violations, "Invalid metrics: "+strings.Join(bad, ", "))
	}

	// sort field goes through the same whitelist as rows and columns
	if layout.SortBy != nil {
		if !IsColumnName(layout.SortBy.Field) {
			violations = append(violations, "Invalid sort field: "+layout.SortBy.Field)
			if s := closestOf(layout.SortBy.Field, ColumnNames()); s != "" {
				suggest = append(suggest, "closest match for "+layout.SortBy.Field+": "+s)
			}
		}
		if d := strings.ToLower(layout.SortBy.Direction); d != "" && d != "asc" && d != "desc" {
			violations = append(violations, "Invalid sort direction: "+layout.SortBy.Direction)
		}
	}

	if len(violations) <= 0 {
		return nil
	}
	return &ValidateError{Violations: append(violations, suggest...)}
}

// invalidColumnsOf return names rejected by the column whitelist
// and append close-match suggestions, if any
func invalidColumnsOf(names []string, suggest *[]string) []string {

	bad := []string{}
	for _, name := range names {
		if IsColumnName(name) {
			continue
		}
		bad = append(bad, name)
		if s := closestOf(name, ColumnNames()); s != "" {
			*suggest = append(*suggest, "closest match for "+name+": "+s)
		}
	}
	return bad
}

// closestOf return the known name within suggestMaxDistance of src, or empty if none
func closestOf(src string, known []string) string {

	best := ""
	bestDist := suggestMaxDistance + 1

	for _, k := range known {
		if d := levenshtein.ComputeDistance(strings.ToLower(src), strings.ToLower(k)); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}
