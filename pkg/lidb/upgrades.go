// Copyright 2024-2026 Aiku AI

package lidb

import (
	"embed"

	"go.mau.fi/util/dbutil"
)

var table dbutil.UpgradeTable

//go:embed *.sql
var upgrades embed.FS

func init() {
	table.RegisterFS(upgrades)
}
