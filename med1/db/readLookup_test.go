// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package db

import (
	"testing"
)

func TestReadLookupNames(t *testing.T) {

	dbConn, _ := openTestDb(t)

	if _, err := dbConn.Exec(
		"INSERT INTO product (product_sku, product_name, category) VALUES" +
			" ('SKU-1', 'Basic Checkup', 'Consult')," +
			" ('SKU-2', 'Blood Panel', 'Lab')"); err != nil {
		t.Fatal(err)
	}
	if _, err := dbConn.Exec(
		"INSERT INTO cost_center (cost_center_code, cost_center_name) VALUES ('CC-10', 'Marketing')"); err != nil {
		t.Fatal(err)
	}

	pn, err := ReadProductNames(dbConn)
	if err != nil {
		t.Fatal(err)
	}
	if len(pn) != 2 || pn["SKU-1"] != "Basic Checkup" || pn["SKU-2"] != "Blood Panel" {
		t.Errorf("invalid product names: %v", pn)
	}

	cn, err := ReadCostCenterNames(dbConn)
	if err != nil {
		t.Fatal(err)
	}
	if len(cn) != 1 || cn["CC-10"] != "Marketing" {
		t.Errorf("invalid cost center names: %v", cn)
	}
}

func TestLabelDreGroups(t *testing.T) {

	gs := []DreGroup{
		{Key: "SKU-1", NetRevenue: 100},
		{Key: "SKU-9", NetRevenue: 50}, // no lookup entry
	}
	LabelDreGroups(gs, map[string]string{"SKU-1": "Basic Checkup"})

	if gs[0].Label != "Basic Checkup" {
		t.Errorf("expected label for %s, got: %s", gs[0].Key, gs[0].Label)
	}
	if gs[1].Label != "" {
		t.Errorf("expected empty label for %s, got: %s", gs[1].Key, gs[1].Label)
	}
}
