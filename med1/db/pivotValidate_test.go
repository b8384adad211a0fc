// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePivotLayout(t *testing.T) {

	// valid request: no error and page defaults are set
	layout := &PivotLayout{
		Rows:    []string{"bu", "region"},
		Columns: []string{"version"},
		Metrics: []string{"Net Revenue_sum", "gross_margin"},
		SortBy:  &PivotSort{Field: "bu", Direction: "desc"},
	}
	if err := ValidatePivotLayout(layout); err != nil {
		t.Fatal(err)
	}
	if layout.Page != DefaultPage || layout.PageSize != DefaultPageSize {
		t.Error("Fail: page defaults:", layout.Page, layout.PageSize)
	}

	if err := ValidatePivotLayout(nil); err == nil {
		t.Error("Fail: expected error for empty request")
	}
}

func TestValidatePivotLayoutViolations(t *testing.T) {

	// all violations are collected in a single pass, not just the first one
	layout := &PivotLayout{
		Rows:    []string{"bu", "not_a_column"},
		Columns: []string{"also_bad"},
		Metrics: []string{"not_a_real_metric"},
		SortBy:  &PivotSort{Field: "nope", Direction: "sideways"},
	}
	err := ValidatePivotLayout(layout)
	if err == nil {
		t.Fatal("Fail: expected validation error")
	}

	var ve *ValidateError
	if !errors.As(err, &ve) {
		t.Fatal("Fail: expected ValidateError, got:", err)
	}
	t.Log(strings.Join(ve.Violations, "\n"))

	contains := func(sub string) {
		for _, v := range ve.Violations {
			if strings.Contains(v, sub) {
				return
			}
		}
		t.Error("Fail: missing violation:", sub)
	}
	contains("Invalid rows: not_a_column")
	contains("Invalid columns: also_bad")
	contains("Invalid metrics: not_a_real_metric")
	contains("Invalid sort field: nope")
	contains("Invalid sort direction: sideways")
}

func TestValidatePivotLayoutSuggest(t *testing.T) {

	// misspelled names get a closest catalog match appended
	layout := &PivotLayout{
		Rows:    []string{"regin"},
		Metrics: []string{"gross_margn"},
	}
	err := ValidatePivotLayout(layout)
	if err == nil {
		t.Fatal("Fail: expected validation error")
	}
	var ve *ValidateError
	if !errors.As(err, &ve) {
		t.Fatal("Fail: expected ValidateError, got:", err)
	}

	s := strings.Join(ve.Violations, "; ")
	if !strings.Contains(s, "closest match for regin: region") {
		t.Error("Fail: missing column suggestion in:", s)
	}
	if !strings.Contains(s, "closest match for gross_margn: gross_margin") {
		t.Error("Fail: missing metric suggestion in:", s)
	}
}

func TestValidatePivotLayoutRequired(t *testing.T) {

	// rows and metrics must not be empty
	err := ValidatePivotLayout(&PivotLayout{})
	if err == nil {
		t.Fatal("Fail: expected validation error")
	}
	var ve *ValidateError
	if !errors.As(err, &ve) || len(ve.Violations) < 2 {
		t.Error("Fail: expected empty rows and empty metrics violations, got:", err)
	}
}
