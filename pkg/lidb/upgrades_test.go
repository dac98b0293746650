// Copyright 2024-2026 Aiku AI

package lidb

import (
	"strings"
	"testing"
)

func TestUpgradeSQLEmbedded(t *testing.T) {
	t.Parallel()
	data, err := upgrades.ReadFile("00-latest-revision.sql")
	if err != nil {
		t.Fatalf("reading embedded upgrade: %v", err)
	}
	sql := string(data)
	if !strings.Contains(sql, "CREATE TABLE puppet") {
		t.Error("upgrade SQL should create the puppet table")
	}
	// The enumeration query filters on custom_mxid<>'', which relies on the
	// column being non-null with an empty default.
	if !strings.Contains(sql, "custom_mxid   TEXT NOT NULL DEFAULT ''") {
		t.Error("custom_mxid must be NOT NULL DEFAULT ''")
	}
}
