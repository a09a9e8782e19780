package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// InsertRawMaterial creates a raw material with its precomputed unit cost
// and returns its id.
func (s *Store) InsertRawMaterial(m *RawMaterial) (int64, error) {
	res, err := s.q.Exec(`
		INSERT INTO raw_materials (
			name, supplier_id, purchase_price, purchase_quantity,
			purchase_unit, unit_cost, price_updated_at, active
		)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, ?)
	`, m.Name, m.SupplierID, m.PurchasePrice, m.PurchaseQuantity, m.PurchaseUnit, m.UnitCost, m.Active)
	if err != nil {
		return 0, fmt.Errorf("insert raw material: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("raw material insert id: %w", err)
	}
	return id, nil
}

// FindRawMaterial loads one raw material or ErrNotFound. Inactive materials
// resolve too: soft-deleted materials must keep answering for historical
// ingredient rows.
func (s *Store) FindRawMaterial(id int64) (*RawMaterial, error) {
	var m RawMaterial
	err := s.q.QueryRow(`
		SELECT id, name, supplier_id, purchase_price, purchase_quantity,
			purchase_unit, unit_cost, COALESCE(price_updated_at, ''), active
		FROM raw_materials
		WHERE id = ?
	`, id).Scan(
		&m.ID, &m.Name, &m.SupplierID, &m.PurchasePrice, &m.PurchaseQuantity,
		&m.PurchaseUnit, &m.UnitCost, &m.PriceUpdatedAt, &m.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("raw material %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query raw material: %w", err)
	}
	return &m, nil
}

// ListRawMaterials returns raw materials, newest first.
func (s *Store) ListRawMaterials(onlyActive bool) ([]RawMaterial, error) {
	rows, err := s.q.Query(`
		SELECT id, name, supplier_id, purchase_price, purchase_quantity,
			purchase_unit, unit_cost, COALESCE(price_updated_at, ''), active
		FROM raw_materials
		WHERE (? = 0 OR active)
		ORDER BY id DESC
	`, boolArg(onlyActive))
	if err != nil {
		return nil, fmt.Errorf("query raw materials: %w", err)
	}
	defer rows.Close()

	materials := make([]RawMaterial, 0)
	for rows.Next() {
		var m RawMaterial
		if err := rows.Scan(
			&m.ID, &m.Name, &m.SupplierID, &m.PurchasePrice, &m.PurchaseQuantity,
			&m.PurchaseUnit, &m.UnitCost, &m.PriceUpdatedAt, &m.Active,
		); err != nil {
			return nil, fmt.Errorf("scan raw material: %w", err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw materials: %w", err)
	}
	return materials, nil
}

// UpdateRawMaterial writes the full raw material row. When touchPrice is
// true the price_updated_at timestamp advances as well.
func (s *Store) UpdateRawMaterial(m *RawMaterial, touchPrice bool) (bool, error) {
	res, err := s.q.Exec(`
		UPDATE raw_materials
		SET
			name = ?,
			supplier_id = ?,
			purchase_price = ?,
			purchase_quantity = ?,
			purchase_unit = ?,
			unit_cost = ?,
			price_updated_at = CASE WHEN ? THEN CURRENT_TIMESTAMP ELSE price_updated_at END,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, m.Name, m.SupplierID, m.PurchasePrice, m.PurchaseQuantity, m.PurchaseUnit,
		m.UnitCost, boolArg(touchPrice), m.Active, m.ID)
	if err != nil {
		return false, fmt.Errorf("update raw material: %w", err)
	}
	return rowChanged(res)
}
