// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package config

import (
	"testing"
)

func TestRunOptionsValues(t *testing.T) {

	opts := &RunOptions{
		KeyValue: map[string]string{
			"Str":      "some value",
			"StrEmpty": "",
			"BoolTrue": "true",
			"Int":      "4050",
			"IntBad":   "not a number",
			"Float":    "0.25",
			"FloatBad": "not a float",
		},
		DefaultKeyValue: map[string]string{
			"StrDefault": "default value",
		},
	}

	if !opts.IsExist("Str") || opts.IsExist("NoSuchKey") || opts.IsExist("StrDefault") {
		t.Errorf("invalid IsExist")
	}
	if v := opts.String("Str"); v != "some value" {
		t.Errorf("expected string value, got: %s", v)
	}
	if v := opts.String("StrDefault"); v != "default value" {
		t.Errorf("expected command line default value, got: %s", v)
	}

	if v, isExist, isDefaultArg := opts.StringExist("Str"); v != "some value" || !isExist || isDefaultArg {
		t.Errorf("invalid StringExist for defined key: %s %v %v", v, isExist, isDefaultArg)
	}
	if v, isExist, isDefaultArg := opts.StringExist("StrDefault"); v != "default value" || isExist || !isDefaultArg {
		t.Errorf("invalid StringExist for default key: %s %v %v", v, isExist, isDefaultArg)
	}

	if !opts.Bool("BoolTrue") || opts.Bool("Str") || opts.Bool("NoSuchKey") {
		t.Errorf("invalid Bool")
	}

	if v := opts.Int("Int", 1); v != 4050 {
		t.Errorf("expected int value, got: %d", v)
	}
	if v := opts.Int("IntBad", 1); v != 1 {
		t.Errorf("expected int default on bad value, got: %d", v)
	}
	if v := opts.Int("NoSuchKey", 1); v != 1 {
		t.Errorf("expected int default on missing key, got: %d", v)
	}

	if v := opts.Float("Float", 1.5); v != 0.25 {
		t.Errorf("expected float value, got: %g", v)
	}
	if v := opts.Float("FloatBad", 1.5); v != 1.5 {
		t.Errorf("expected float default on bad value, got: %g", v)
	}
	if v := opts.Float("StrEmpty", 1.5); v != 1.5 {
		t.Errorf("expected float default on empty value, got: %g", v)
	}

	var nilOpts *RunOptions
	if nilOpts.IsExist("Str") || nilOpts.String("Str") != "" || nilOpts.Float("Float", 1.5) != 1.5 {
		t.Errorf("invalid values from nil options")
	}
}
