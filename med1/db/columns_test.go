// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

import (
	"errors"
	"testing"
)

func TestCheckColumn(t *testing.T) {

	// every whitelisted name must verify and keep its request name
	for _, name := range ColumnNames() {
		cn, err := CheckColumn(name)
		if err != nil {
			t.Error("Fail to verify column:", name, ":", err)
		}
		if cn.Name() != name {
			t.Error("Fail: column name", cn.Name(), "expected:", name)
		}
	}

	// unsafe characters are stripped before lookup: padded name still verifies
	if cn, err := CheckColumn(" bu "); err != nil || cn.Name() != "bu" {
		t.Error("Fail to verify padded column name:", err)
	}

	// stripping makes injection attempts fail the whitelist, they never pass through
	for _, src := range []string{
		"bu; DROP TABLE fact_entry",
		"value--",
		"period' OR '1'='1",
		"unknown_column",
		"",
	} {
		_, err := CheckColumn(src)
		if err == nil {
			t.Error("Fail: expected error for column name:", src)
		}
		var ce *InvalidColumnError
		if !errors.As(err, &ce) {
			t.Error("Fail: expected InvalidColumnError for column name:", src)
		}
	}
}

func TestMakeColumnAlias(t *testing.T) {

	cvt := [][2]string{
		{"Actual", "Actual"},
		{"Sao Paulo", "Sao_Paulo"},
		{"BU-01", "BU_01"},
		{"a'b\"c", "a_b_c"},
		{"ok_name_9", "ok_name_9"},
	}
	for _, c := range cvt {
		if a := makeColumnAlias(c[0]); a != c[1] {
			t.Error("Fail:", c[0], "alias:", a, "expected:", c[1])
		}
	}
}
