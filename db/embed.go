// Package db embeds the database schema applied at startup.
package db

import _ "embed"

// Schema contains the DDL for the storefront tables (accounts, products,
// orders). Statements are idempotent so the schema can be re-applied on
// every boot.
//
//go:embed migrations/001_schema.sql
var Schema string
