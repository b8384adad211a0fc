// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package helper

import (
	"testing"
	"time"
)

func TestUnQuote(t *testing.T) {

	cvt := [][2]string{
		{`  plain  `, "plain"},
		{`"double quoted"`, "double quoted"},
		{`'single quoted'`, "single quoted"},
		{`"unbalanced`, `"unbalanced`},
		{``, ``},
	}
	for _, c := range cvt {
		if s := UnQuote(c[0]); s != c[1] {
			t.Errorf("UnQuote(%s): %s: NOT :%s:", c[0], s, c[1])
		}
	}
}

func TestMakeTimeStamp(t *testing.T) {

	tm := time.Date(2024, 8, 17, 16, 4, 59, 148000000, time.UTC)

	if s := MakeDateTime(tm); s != "2024-08-17 16:04:59.0148" {
		t.Error("Fail MakeDateTime:", s)
	}
	if s := MakeTimeStamp(tm); s != "20240817_160459_0148" {
		t.Error("Fail MakeTimeStamp:", s)
	}
}

func TestParseKeyValue(t *testing.T) {

	kv, err := ParseKeyValue(`Database=med1.sqlite; Timeout=86400; OpenMode="Read Write"; Empty=;`)
	if err != nil {
		t.Fatal(err)
	}

	check := func(key, expected string) {
		if v, ok := kv[key]; !ok || v != expected {
			t.Errorf("[%s]=%s: NOT :%s:", key, v, expected)
		}
	}
	check("Database", "med1.sqlite")
	check("Timeout", "86400")
	check("OpenMode", "Read Write")
	check("Empty", "")

	if _, err = ParseKeyValue("=value; no key"); err == nil {
		t.Error("Fail: expected error for empty key")
	}
}
