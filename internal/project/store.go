package project

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/binaa-app/roomcost/internal/pricing"
)

// ErrNotFound is returned when no project matches the given public id.
var ErrNotFound = errors.New("project not found")

// Record is the persisted project aggregate: metadata, the room input, and
// the computed snapshots (areas, selections, pricing summary). Snapshots are
// always written wholesale from a fresh pricing run, never patched.
type Record struct {
	ID         int64                        `json:"-"`
	PublicID   string                       `json:"id"`
	Name       string                       `json:"name"`
	OwnerEmail string                       `json:"ownerEmail"`
	Status     string                       `json:"status"`
	Visibility string                       `json:"visibility"`
	ViewCount  int64                        `json:"viewCount"`
	Notes      string                       `json:"notes,omitempty"`
	Dimensions pricing.Dimensions           `json:"dimensions"`
	Areas      pricing.Areas                `json:"areas"`
	Materials  []pricing.MaterialSelection  `json:"materials"`
	Furniture  []pricing.FurnitureSelection `json:"furniture"`
	Pricing    pricing.Summary              `json:"pricing"`
	CreatedAt  string                       `json:"createdAt"`
	UpdatedAt  string                       `json:"updatedAt"`
}

// ListItem is the compact row returned by List.
type ListItem struct {
	PublicID  string  `json:"id"`
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	Total     float64 `json:"totalPrice"`
	CreatedAt string  `json:"createdAt"`
}

// Store persists project records in the projects table.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new project and returns it with its assigned public id.
func (s *Store) Create(rec Record) (Record, error) {
	rec.PublicID = uuid.NewString()
	if rec.Status == "" {
		rec.Status = "draft"
	}
	if rec.Visibility == "" {
		rec.Visibility = "private"
	}

	areasJSON, materialsJSON, furnitureJSON, pricingJSON, err := marshalSnapshots(rec)
	if err != nil {
		return Record{}, err
	}

	result, err := s.db.Exec(`
		INSERT INTO projects (
			public_id, name, owner_email, status, visibility, notes,
			width, length, height,
			areas_json, materials_json, furniture_json, pricing_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.PublicID, rec.Name, rec.OwnerEmail, rec.Status, rec.Visibility, rec.Notes,
		rec.Dimensions.Width, rec.Dimensions.Length, rec.Dimensions.Height,
		areasJSON, materialsJSON, furnitureJSON, pricingJSON,
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert project: %w", err)
	}

	rec.ID, err = result.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("project insert id: %w", err)
	}

	return rec, nil
}

// Replace overwrites a project's input, metadata, and every computed
// snapshot in a single UPDATE. Returns ErrNotFound when the public id does
// not exist.
func (s *Store) Replace(publicID string, rec Record) error {
	areasJSON, materialsJSON, furnitureJSON, pricingJSON, err := marshalSnapshots(rec)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(`
		UPDATE projects
		SET
			name = ?,
			status = ?,
			visibility = ?,
			notes = ?,
			width = ?,
			length = ?,
			height = ?,
			areas_json = ?,
			materials_json = ?,
			furniture_json = ?,
			pricing_json = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE public_id = ?
	`,
		rec.Name, rec.Status, rec.Visibility, rec.Notes,
		rec.Dimensions.Width, rec.Dimensions.Length, rec.Dimensions.Height,
		areasJSON, materialsJSON, furnitureJSON, pricingJSON,
		publicID,
	)
	if err != nil {
		return fmt.Errorf("replace project: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace project rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByPublicID loads a project. With bumpView set the view counter is
// incremented first, so the returned record reflects the new count.
func (s *Store) GetByPublicID(publicID string, bumpView bool) (Record, error) {
	if bumpView {
		if _, err := s.db.Exec(`UPDATE projects SET view_count = view_count + 1 WHERE public_id = ?`, publicID); err != nil {
			return Record{}, fmt.Errorf("bump project view count: %w", err)
		}
	}

	var rec Record
	var areasJSON, materialsJSON, furnitureJSON, pricingJSON string
	err := s.db.QueryRow(`
		SELECT
			id, public_id, name, COALESCE(owner_email, ''), status, visibility, view_count, COALESCE(notes, ''),
			width, length, height,
			areas_json, materials_json, furniture_json, pricing_json,
			created_at, updated_at
		FROM projects
		WHERE public_id = ?
	`, publicID).Scan(
		&rec.ID, &rec.PublicID, &rec.Name, &rec.OwnerEmail, &rec.Status, &rec.Visibility, &rec.ViewCount, &rec.Notes,
		&rec.Dimensions.Width, &rec.Dimensions.Length, &rec.Dimensions.Height,
		&areasJSON, &materialsJSON, &furnitureJSON, &pricingJSON,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("query project: %w", err)
	}

	if err := json.Unmarshal([]byte(areasJSON), &rec.Areas); err != nil {
		return Record{}, fmt.Errorf("decode project areas: %w", err)
	}
	if err := json.Unmarshal([]byte(materialsJSON), &rec.Materials); err != nil {
		return Record{}, fmt.Errorf("decode project materials: %w", err)
	}
	if err := json.Unmarshal([]byte(furnitureJSON), &rec.Furniture); err != nil {
		return Record{}, fmt.Errorf("decode project furniture: %w", err)
	}
	if err := json.Unmarshal([]byte(pricingJSON), &rec.Pricing); err != nil {
		return Record{}, fmt.Errorf("decode project pricing: %w", err)
	}

	return rec, nil
}

// List returns projects newest first, filtered by a name/notes substring
// when query is non-empty.
func (s *Store) List(query string) ([]ListItem, error) {
	search := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT public_id, name, status, pricing_json, created_at
		FROM projects
		WHERE (? = '' OR name LIKE ? OR COALESCE(notes, '') LIKE ?)
		ORDER BY datetime(created_at) DESC, id DESC
	`, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	items := make([]ListItem, 0)
	for rows.Next() {
		var item ListItem
		var pricingJSON string
		if err := rows.Scan(&item.PublicID, &item.Name, &item.Status, &pricingJSON, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		item.Total = extractTotal(pricingJSON)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	return items, nil
}

// Delete removes a project. Returns ErrNotFound when the public id does not
// exist.
func (s *Store) Delete(publicID string) error {
	result, err := s.db.Exec(`DELETE FROM projects WHERE public_id = ?`, publicID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalSnapshots(rec Record) (areas, materials, furniture, summary string, err error) {
	areasBytes, err := json.Marshal(rec.Areas)
	if err != nil {
		return "", "", "", "", fmt.Errorf("encode project areas: %w", err)
	}
	materialsBytes, err := json.Marshal(rec.Materials)
	if err != nil {
		return "", "", "", "", fmt.Errorf("encode project materials: %w", err)
	}
	furnitureBytes, err := json.Marshal(rec.Furniture)
	if err != nil {
		return "", "", "", "", fmt.Errorf("encode project furniture: %w", err)
	}
	pricingBytes, err := json.Marshal(rec.Pricing)
	if err != nil {
		return "", "", "", "", fmt.Errorf("encode project pricing: %w", err)
	}
	return string(areasBytes), string(materialsBytes), string(furnitureBytes), string(pricingBytes), nil
}

func extractTotal(pricingJSON string) float64 {
	var summary pricing.Summary
	if err := json.Unmarshal([]byte(pricingJSON), &summary); err != nil {
		return 0
	}
	return summary.TotalPrice
}
