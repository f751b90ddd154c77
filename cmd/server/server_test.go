package main

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/binaa-app/roomcost/internal/catalog"
	"github.com/binaa-app/roomcost/internal/project"
)

const testSchema = `
	CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user'
	);
	CREATE TABLE materials (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		name_en TEXT,
		type TEXT,
		material_type TEXT,
		value TEXT,
		price_per_unit REAL NOT NULL DEFAULT 0,
		notes TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at DATETIME
	);
	CREATE TABLE furniture (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		name_en TEXT,
		unit_price REAL NOT NULL DEFAULT 0,
		notes TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at DATETIME
	);
	CREATE TABLE projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		public_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		owner_email TEXT,
		status TEXT NOT NULL DEFAULT 'draft',
		visibility TEXT NOT NULL DEFAULT 'private',
		view_count INTEGER NOT NULL DEFAULT 0,
		notes TEXT,
		width REAL NOT NULL,
		length REAL NOT NULL,
		height REAL NOT NULL,
		areas_json TEXT NOT NULL,
		materials_json TEXT NOT NULL,
		furniture_json TEXT NOT NULL,
		pricing_json TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

func newTestServer(t *testing.T) (*server, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("failed creating test schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return &server{
		auth:            newAuthService(db, "test-secret"),
		catalogs:        catalog.NewStore(db),
		projects:        project.NewStore(db),
		defaultCurrency: "USD",
	}, db
}

func seedMaterial(t *testing.T, db *sql.DB, name string, pricePerUnit float64) int64 {
	t.Helper()

	result, err := db.Exec(`
		INSERT INTO materials (name, price_per_unit, active)
		VALUES (?, ?, TRUE)
	`, name, pricePerUnit)
	if err != nil {
		t.Fatalf("failed to seed material: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read material id: %v", err)
	}
	return id
}

func seedFurniture(t *testing.T, db *sql.DB, name string, unitPrice float64) int64 {
	t.Helper()

	result, err := db.Exec(`
		INSERT INTO furniture (name, unit_price, active)
		VALUES (?, ?, TRUE)
	`, name, unitPrice)
	if err != nil {
		t.Fatalf("failed to seed furniture: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read furniture id: %v", err)
	}
	return id
}
