package seed

import (
	"database/sql"
	"fmt"
)

type defaultMaterial struct {
	name         string
	nameEn       string
	typ          string
	materialType string
	value        string
	pricePerUnit float64
}

type defaultFurniture struct {
	name      string
	nameEn    string
	unitPrice float64
}

var defaultMaterials = []defaultMaterial{
	{"بلاط سيراميك", "Ceramic tile", "flooring", "texture", "/textures/ceramic-tile.jpg", 12},
	{"دهان مائي أبيض", "White latex paint", "wall", "color", "#f5f5f0", 3},
	{"جبس مزخرف", "Decorative gypsum", "ceiling", "texture", "/textures/gypsum.jpg", 7},
}

var defaultFurnitureItems = []defaultFurniture{
	{"كنبة ثلاثية", "Three-seat sofa", 250},
	{"طاولة طعام", "Dining table", 180},
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way: default catalog
// entries are inserted only when missing, inside one transaction.
func Run(db *sql.DB) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensureMaterials(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureFurniture(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureMaterials(tx *sql.Tx, stats *Stats) error {
	for _, m := range defaultMaterials {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM materials WHERE name = ? LIMIT 1)`, m.name).Scan(&exists); err != nil {
			return fmt.Errorf("check material existence: %w", err)
		}
		if exists {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO materials (name, name_en, type, material_type, value, price_per_unit, notes, active)
			VALUES (?, ?, ?, ?, ?, ?, '', TRUE)
		`, m.name, m.nameEn, m.typ, m.materialType, m.value, m.pricePerUnit); err != nil {
			return fmt.Errorf("insert default material: %w", err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureFurniture(tx *sql.Tx, stats *Stats) error {
	for _, f := range defaultFurnitureItems {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM furniture WHERE name = ? LIMIT 1)`, f.name).Scan(&exists); err != nil {
			return fmt.Errorf("check furniture existence: %w", err)
		}
		if exists {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO furniture (name, name_en, unit_price, notes, active)
			VALUES (?, ?, ?, '', TRUE)
		`, f.name, f.nameEn, f.unitPrice); err != nil {
			return fmt.Errorf("insert default furniture: %w", err)
		}
		stats.Inserts++
	}
	return nil
}
