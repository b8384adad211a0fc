// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package helper

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestToJsonFile(t *testing.T) {

	type entry struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}
	src := entry{Name: "Net Revenue", Value: 1500}
	dst := entry{} // compare through decode, not through json text

	p := filepath.Join(t.TempDir(), "test.json")

	if err := ToJsonFile(p, &src); err != nil {
		t.Fatal(err)
	}
	bt, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if err = json.Unmarshal(bt, &dst); err != nil {
		t.Fatal(err)
	}
	if dst != src {
		t.Errorf("expected %v, got: %v", src, dst)
	}

	// indented writer produces the same content with line breaks
	dst.Name = ""
	dst.Value = 0

	if err = ToJsonIndentFile(p, &src); err != nil {
		t.Fatal(err)
	}
	if bt, err = os.ReadFile(p); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(bt), "\n  ") {
		t.Errorf("expected indented json, got: %s", string(bt))
	}
	if err = json.Unmarshal(bt, &dst); err != nil {
		t.Fatal(err)
	}
	if dst != src {
		t.Errorf("expected %v, got: %v", src, dst)
	}
}
