package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/binaa-app/roomcost/internal/pricing"
)

// ErrNotFound is returned by update operations when no row matches the id.
var ErrNotFound = errors.New("catalog entry not found")

// Store provides catalog lookups for the pricing engine and CRUD for admin
// handlers, backed by the materials and furniture tables.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// MaterialRecord is a full materials row as managed by admins.
type MaterialRecord struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	NameEn       string  `json:"nameEn"`
	Type         string  `json:"type"`
	MaterialType string  `json:"materialType"`
	Value        string  `json:"value"`
	PricePerUnit float64 `json:"pricePerUnitArea"`
	Notes        string  `json:"notes"`
	Active       bool    `json:"active"`
}

// FurnitureRecord is a full furniture row as managed by admins.
type FurnitureRecord struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	NameEn    string  `json:"nameEn"`
	UnitPrice float64 `json:"unitPrice"`
	Notes     string  `json:"notes"`
	Active    bool    `json:"active"`
}

// MaterialByID resolves a material for pricing. A missing id is reported via
// the bool, not an error, so estimates stay best effort.
func (s *Store) MaterialByID(id int64) (pricing.Material, bool, error) {
	var m pricing.Material
	err := s.db.QueryRow(`
		SELECT name, COALESCE(name_en, ''), COALESCE(type, ''), COALESCE(material_type, ''), COALESCE(value, ''), price_per_unit
		FROM materials
		WHERE id = ?
	`, id).Scan(&m.Name, &m.NameEn, &m.Type, &m.MaterialType, &m.Value, &m.PricePerUnit)
	if errors.Is(err, sql.ErrNoRows) {
		return pricing.Material{}, false, nil
	}
	if err != nil {
		return pricing.Material{}, false, fmt.Errorf("query material %d: %w", id, err)
	}
	return m, true, nil
}

// FurnitureByID resolves a furniture item for pricing.
func (s *Store) FurnitureByID(id int64) (pricing.Furniture, bool, error) {
	var f pricing.Furniture
	err := s.db.QueryRow(`
		SELECT name, COALESCE(name_en, ''), unit_price
		FROM furniture
		WHERE id = ?
	`, id).Scan(&f.Name, &f.NameEn, &f.UnitPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return pricing.Furniture{}, false, nil
	}
	if err != nil {
		return pricing.Furniture{}, false, fmt.Errorf("query furniture %d: %w", id, err)
	}
	return f, true, nil
}

// ListMaterials returns materials newest first. With activeOnly set, rows
// disabled by an admin are omitted.
func (s *Store) ListMaterials(activeOnly bool) ([]MaterialRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, name, COALESCE(name_en, ''), COALESCE(type, ''), COALESCE(material_type, ''), COALESCE(value, ''), price_per_unit, COALESCE(notes, ''), active
		FROM materials
		WHERE (? = 0 OR active)
		ORDER BY id DESC
	`, boolArg(activeOnly))
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	materials := make([]MaterialRecord, 0)
	for rows.Next() {
		var m MaterialRecord
		if err := rows.Scan(&m.ID, &m.Name, &m.NameEn, &m.Type, &m.MaterialType, &m.Value, &m.PricePerUnit, &m.Notes, &m.Active); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}

	return materials, nil
}

// ListFurniture returns furniture newest first, optionally active only.
func (s *Store) ListFurniture(activeOnly bool) ([]FurnitureRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, name, COALESCE(name_en, ''), unit_price, COALESCE(notes, ''), active
		FROM furniture
		WHERE (? = 0 OR active)
		ORDER BY id DESC
	`, boolArg(activeOnly))
	if err != nil {
		return nil, fmt.Errorf("query furniture: %w", err)
	}
	defer rows.Close()

	furniture := make([]FurnitureRecord, 0)
	for rows.Next() {
		var f FurnitureRecord
		if err := rows.Scan(&f.ID, &f.Name, &f.NameEn, &f.UnitPrice, &f.Notes, &f.Active); err != nil {
			return nil, fmt.Errorf("scan furniture: %w", err)
		}
		furniture = append(furniture, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate furniture: %w", err)
	}

	return furniture, nil
}

// CreateMaterial inserts a material and returns its id.
func (s *Store) CreateMaterial(m MaterialRecord) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO materials (name, name_en, type, material_type, value, price_per_unit, notes, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.Name, m.NameEn, m.Type, m.MaterialType, m.Value, m.PricePerUnit, m.Notes, m.Active)
	if err != nil {
		return 0, fmt.Errorf("insert material: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("material insert id: %w", err)
	}
	return id, nil
}

// UpdateMaterial replaces a material row. Returns ErrNotFound when the id
// does not exist.
func (s *Store) UpdateMaterial(m MaterialRecord) error {
	result, err := s.db.Exec(`
		UPDATE materials
		SET
			name = ?,
			name_en = ?,
			type = ?,
			material_type = ?,
			value = ?,
			price_per_unit = ?,
			notes = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, m.Name, m.NameEn, m.Type, m.MaterialType, m.Value, m.PricePerUnit, m.Notes, m.Active, m.ID)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update material rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateFurniture inserts a furniture item and returns its id.
func (s *Store) CreateFurniture(f FurnitureRecord) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO furniture (name, name_en, unit_price, notes, active)
		VALUES (?, ?, ?, ?, ?)
	`, f.Name, f.NameEn, f.UnitPrice, f.Notes, f.Active)
	if err != nil {
		return 0, fmt.Errorf("insert furniture: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("furniture insert id: %w", err)
	}
	return id, nil
}

// UpdateFurniture replaces a furniture row. Returns ErrNotFound when the id
// does not exist.
func (s *Store) UpdateFurniture(f FurnitureRecord) error {
	result, err := s.db.Exec(`
		UPDATE furniture
		SET
			name = ?,
			name_en = ?,
			unit_price = ?,
			notes = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, f.Name, f.NameEn, f.UnitPrice, f.Notes, f.Active, f.ID)
	if err != nil {
		return fmt.Errorf("update furniture: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update furniture rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func boolArg(b bool) int {
	if b {
		return 1
	}
	return 0
}
