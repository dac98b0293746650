// Copyright 2024-2026 Aiku AI

package lidb

import (
	"github.com/rs/zerolog"
	"go.mau.fi/util/dbutil"
)

// VersionTableName is the table used to track this database's schema version.
const VersionTableName = "linkedin_version"

// Database wraps a dbutil.Database with the bridge's query helpers.
type Database struct {
	*dbutil.Database
	Puppet *PuppetQuery
}

// New wraps the given database connection and registers the schema upgrade
// table. Upgrade() must still be called before using the queries.
func New(db *dbutil.Database, log zerolog.Logger) *Database {
	db = db.Child(VersionTableName, table, dbutil.ZeroLogger(log))
	return &Database{
		Database: db,
		Puppet:   &PuppetQuery{dbutil.MakeQueryHelper(db, newPuppet)},
	}
}
